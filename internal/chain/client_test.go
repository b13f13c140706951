package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func skipIfNoListen(t *testing.T) {
	t.Helper()
	if ln, err := net.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Skip("skipping due to sandbox")
	} else {
		ln.Close()
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveRequest(endpoint, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, endpoint+":"+status)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"shards": 3, "epoch": 512, "roundsPassed": 1200, "roundsPerEpoch": 14400,
		})
	})
	mux.HandleFunc("/stake", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"totalValidators":  3200,
			"activeValidators": 3180,
			"queueSize":        40,
			"totalStaked":      "12500000000000000000000000",
		})
	})
	mux.HandleFunc("/network/config", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"config": map[string]interface{}{
					"erd_chain_id":                  "1",
					"erd_top_up_factor":             "0.500000",
					"erd_round_duration":            6000,
					"erd_rounds_per_epoch":          14400,
					"erd_top_up_rewards_grad_point": "2000000000000000000000000",
				},
			},
			"code": "successful",
		})
	})
	mux.HandleFunc("/network/status/4294967295", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"status": map[string]interface{}{
					"erd_current_round":                  7000,
					"erd_epoch_number":                   512,
					"erd_nonce":                          6990,
					"erd_rounds_passed_in_current_epoch": 1200,
				},
			},
			"code": "successful",
		})
	})
	mux.HandleFunc("/vm-values/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ScAddress string   `json:"scAddress"`
			FuncName  string   `json:"funcName"`
			Args      []string `json:"args"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch req.FuncName {
		case "getNumUsers":
			writeQuery(w, "ok", []byte{0x01, 0x2c})
		case "echoArgs":
			out := make([][]byte, len(req.Args))
			for i, a := range req.Args {
				out[i] = []byte(a)
			}
			writeQuery(w, "ok", out...)
		case "broken":
			writeQuery(w, "user error")
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": "function not found", "code": "bad_request",
			})
		}
	})
	return httptest.NewServer(mux)
}

func writeQuery(w http.ResponseWriter, returnCode string, data ...[]byte) {
	encoded := make([]string, len(data))
	for i, d := range data {
		encoded[i] = base64.StdEncoding.EncodeToString(d)
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"data": map[string]interface{}{
				"returnData":    encoded,
				"returnCode":    returnCode,
				"returnMessage": "",
			},
		},
		"code": "successful",
	})
}

func TestClient_NetworkEndpoints(t *testing.T) {
	skipIfNoListen(t)
	srv := newTestServer(t)
	defer srv.Close()

	obs := &recordingObserver{}
	client := New(srv.URL, srv.URL+"/", WithObserver(obs), WithTimeout(2*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats, err := client.NetworkStats(ctx)
	if err != nil {
		t.Fatalf("NetworkStats() error: %v", err)
	}
	if stats.Epoch != 512 || stats.RoundsPassed != 1200 {
		t.Errorf("Stats = %+v", stats)
	}

	stake, err := client.NetworkStake(ctx)
	if err != nil {
		t.Fatalf("NetworkStake() error: %v", err)
	}
	if stake.TotalValidators != 3200 || stake.ActiveValidators != 3180 || stake.QueueSize != 40 {
		t.Errorf("Stake = %+v", stake)
	}
	if stake.TotalStaked.String() != "12500000000000000000000000" {
		t.Errorf("TotalStaked = %s", stake.TotalStaked)
	}

	cfg, err := client.NetworkConfig(ctx)
	if err != nil {
		t.Fatalf("NetworkConfig() error: %v", err)
	}
	if cfg.TopUpFactor != 0.5 || cfg.RoundDurationMs != 6000 || cfg.RoundsPerEpoch != 14400 {
		t.Errorf("NetworkConfig = %+v", cfg)
	}
	if cfg.TopUpRewardsGradientPoint.String() != "2000000000000000000000000" {
		t.Errorf("GradientPoint = %s", cfg.TopUpRewardsGradientPoint)
	}

	status, err := client.NetworkStatus(ctx)
	if err != nil {
		t.Fatalf("NetworkStatus() error: %v", err)
	}
	if status.RoundsPassedInCurrentEpoch != 1200 || status.EpochNumber != 512 {
		t.Errorf("NetworkStatus = %+v", status)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []string{"stats:ok", "stake:ok", "network_config:ok", "network_status:ok"}
	if len(obs.calls) != len(want) {
		t.Fatalf("observer calls = %v, want %v", obs.calls, want)
	}
	for i := range want {
		if obs.calls[i] != want[i] {
			t.Errorf("observer call %d = %s, want %s", i, obs.calls[i], want[i])
		}
	}
}

func TestClient_QueryContract(t *testing.T) {
	skipIfNoListen(t)
	srv := newTestServer(t)
	defer srv.Close()

	client := New(srv.URL, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := client.QueryContract(ctx, Query{Address: "erd1contract", Func: "getNumUsers"})
	if err != nil {
		t.Fatalf("QueryContract() error: %v", err)
	}
	if len(data) != 1 || len(data[0]) != 2 || data[0][0] != 0x01 || data[0][1] != 0x2c {
		t.Errorf("returnData = %v, want [[0x01 0x2c]]", data)
	}

	data, err = client.QueryContract(ctx, Query{Address: "erd1contract", Func: "echoArgs", Args: [][]byte{{0xab, 0x01}, []byte("x")}})
	if err != nil {
		t.Fatalf("QueryContract(echoArgs) error: %v", err)
	}
	if len(data) != 2 || string(data[0]) != "ab01" || string(data[1]) != "78" {
		t.Errorf("args not hex-encoded on the wire: %q", data)
	}
}

func TestClient_QueryContractErrors(t *testing.T) {
	skipIfNoListen(t)
	srv := newTestServer(t)
	defer srv.Close()

	obs := &recordingObserver{}
	client := New(srv.URL, srv.URL, WithObserver(obs))
	ctx := context.Background()

	_, err := client.QueryContract(ctx, Query{Address: "erd1contract", Func: "broken"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "user error" {
		t.Errorf("Code = %q, want %q", apiErr.Code, "user error")
	}

	_, err = client.QueryContract(ctx, Query{Address: "erd1contract", Func: "missing"})
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "function not found" {
		t.Errorf("APIError = %+v", apiErr)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.calls) != 2 || obs.calls[1] != "query_missing:error" {
		t.Errorf("observer calls = %v", obs.calls)
	}
}

func TestClient_GatewayFailureCode(t *testing.T) {
	skipIfNoListen(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": nil, "error": "internal issue", "code": "internal_issue",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.URL).NetworkConfig(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "internal_issue" {
		t.Errorf("Code = %q", apiErr.Code)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	skipIfNoListen(t)
	srv := newTestServer(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(srv.URL, srv.URL).NetworkStats(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		err  *APIError
		want string
	}{
		{err: &APIError{Endpoint: "stake", StatusCode: 502}, want: "stake: http 502"},
		{err: &APIError{Endpoint: "query_x", StatusCode: 200, Code: "user error", Message: "boom"}, want: "query_x: request failed (user error): boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFlexString(t *testing.T) {
	var v struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"0.25","b":0.5}`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if v.A != "0.25" || v.B != "0.5" {
		t.Errorf("got %q %q", v.A, v.B)
	}
}

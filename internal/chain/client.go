package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client defines the API/gateway surface the dashboard depends on.
type Client interface {
	NetworkStats(ctx context.Context) (Stats, error)
	NetworkStake(ctx context.Context) (Stake, error)
	NetworkConfig(ctx context.Context) (NetworkConfig, error)
	NetworkStatus(ctx context.Context) (NetworkStatus, error)
	QueryContract(ctx context.Context, q Query) ([][]byte, error)
}

// Stats is the subset of the API /stats payload we use
type Stats struct {
	Epoch          int64 `json:"epoch"`
	RoundsPassed   int64 `json:"roundsPassed"`
	RoundsPerEpoch int64 `json:"roundsPerEpoch"`
	Shards         int64 `json:"shards"`
	Accounts       int64 `json:"accounts"`
	Transactions   int64 `json:"transactions"`
}

// Stake is the network-wide staking summary from API /stake
type Stake struct {
	TotalValidators  int64
	ActiveValidators int64
	QueueSize        int64
	TotalStaked      decimal.Decimal
}

// NetworkConfig is the subset of gateway /network/config we use
type NetworkConfig struct {
	ChainID                   string
	TopUpFactor               float64
	RoundDurationMs           int64
	RoundsPerEpoch            int64
	TopUpRewardsGradientPoint decimal.Decimal
}

// NetworkStatus is the metachain status from gateway /network/status
type NetworkStatus struct {
	CurrentRound               int64
	EpochNumber                int64
	Nonce                      int64
	RoundsPassedInCurrentEpoch int64
}

// Query is a read-only smart contract call
type Query struct {
	Address string   // bech32 contract address
	Func    string   // view function name
	Args    [][]byte // raw arguments, hex-encoded on the wire
}

// metachainShardID addresses the metachain in /network/status
const metachainShardID = 4294967295

// Observer receives the outcome of every request. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveRequest(endpoint, status string, elapsed time.Duration)
}

// Option configures a client
type Option func(*httpClient)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithObserver reports request outcomes to o
func WithObserver(o Observer) Option {
	return func(c *httpClient) { c.observer = o }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *httpClient) {
		if h != nil {
			c.http = h
		}
	}
}

type httpClient struct {
	http     *http.Client
	api      string // e.g. https://api.elrond.com
	proxy    string // e.g. https://gateway.elrond.com
	observer Observer
}

// New constructs a client for the given API and gateway base URLs.
func New(apiURL, proxyURL string, opts ...Option) Client {
	c := &httpClient{
		http:  &http.Client{Timeout: 10 * time.Second},
		api:   strings.TrimRight(apiURL, "/"),
		proxy: strings.TrimRight(proxyURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned when the remote side answers but reports a failure.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", e.Endpoint)
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		fmt.Fprintf(&b, "http %d", e.StatusCode)
	} else {
		b.WriteString("request failed")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// gatewayEnvelope wraps every gateway response
type gatewayEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

func (c *httpClient) NetworkStats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.do(ctx, "stats", http.MethodGet, c.api+"/stats", nil, &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (c *httpClient) NetworkStake(ctx context.Context) (Stake, error) {
	var payload struct {
		TotalValidators  int64      `json:"totalValidators"`
		ActiveValidators int64      `json:"activeValidators"`
		QueueSize        int64      `json:"queueSize"`
		TotalStaked      flexString `json:"totalStaked"`
	}
	if err := c.do(ctx, "stake", http.MethodGet, c.api+"/stake", nil, &payload); err != nil {
		return Stake{}, err
	}
	total, err := parseDecimal(payload.TotalStaked)
	if err != nil {
		return Stake{}, fmt.Errorf("stake: totalStaked: %w", err)
	}
	return Stake{
		TotalValidators:  payload.TotalValidators,
		ActiveValidators: payload.ActiveValidators,
		QueueSize:        payload.QueueSize,
		TotalStaked:      total,
	}, nil
}

func (c *httpClient) NetworkConfig(ctx context.Context) (NetworkConfig, error) {
	var env gatewayEnvelope
	if err := c.gateway(ctx, "network_config", http.MethodGet, c.proxy+"/network/config", nil, &env); err != nil {
		return NetworkConfig{}, err
	}
	var payload struct {
		Config struct {
			ChainID        string     `json:"erd_chain_id"`
			TopUpFactor    flexString `json:"erd_top_up_factor"`
			RoundDuration  int64      `json:"erd_round_duration"`
			RoundsPerEpoch int64      `json:"erd_rounds_per_epoch"`
			GradientPoint  flexString `json:"erd_top_up_rewards_grad_point"`
		} `json:"config"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return NetworkConfig{}, fmt.Errorf("network_config: decode: %w", err)
	}
	factor, err := parseDecimal(payload.Config.TopUpFactor)
	if err != nil {
		return NetworkConfig{}, fmt.Errorf("network_config: erd_top_up_factor: %w", err)
	}
	grad, err := parseDecimal(payload.Config.GradientPoint)
	if err != nil {
		return NetworkConfig{}, fmt.Errorf("network_config: erd_top_up_rewards_grad_point: %w", err)
	}
	return NetworkConfig{
		ChainID:                   payload.Config.ChainID,
		TopUpFactor:               factor.InexactFloat64(),
		RoundDurationMs:           payload.Config.RoundDuration,
		RoundsPerEpoch:            payload.Config.RoundsPerEpoch,
		TopUpRewardsGradientPoint: grad,
	}, nil
}

func (c *httpClient) NetworkStatus(ctx context.Context) (NetworkStatus, error) {
	var env gatewayEnvelope
	url := fmt.Sprintf("%s/network/status/%d", c.proxy, metachainShardID)
	if err := c.gateway(ctx, "network_status", http.MethodGet, url, nil, &env); err != nil {
		return NetworkStatus{}, err
	}
	var payload struct {
		Status struct {
			CurrentRound               int64 `json:"erd_current_round"`
			EpochNumber                int64 `json:"erd_epoch_number"`
			Nonce                      int64 `json:"erd_nonce"`
			RoundsPassedInCurrentEpoch int64 `json:"erd_rounds_passed_in_current_epoch"`
		} `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return NetworkStatus{}, fmt.Errorf("network_status: decode: %w", err)
	}
	return NetworkStatus(payload.Status), nil
}

func (c *httpClient) QueryContract(ctx context.Context, q Query) ([][]byte, error) {
	args := make([]string, len(q.Args))
	for i, a := range q.Args {
		args[i] = hex.EncodeToString(a)
	}
	body, err := json.Marshal(struct {
		ScAddress string   `json:"scAddress"`
		FuncName  string   `json:"funcName"`
		Args      []string `json:"args"`
	}{q.Address, q.Func, args})
	if err != nil {
		return nil, err
	}

	endpoint := "query_" + q.Func
	var env gatewayEnvelope
	if err := c.gateway(ctx, endpoint, http.MethodPost, c.proxy+"/vm-values/query", body, &env); err != nil {
		return nil, err
	}
	var payload struct {
		Data struct {
			ReturnData    []string `json:"returnData"`
			ReturnCode    string   `json:"returnCode"`
			ReturnMessage string   `json:"returnMessage"`
		} `json:"data"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	if payload.Data.ReturnCode != "ok" {
		return nil, &APIError{Endpoint: endpoint, StatusCode: http.StatusOK, Code: payload.Data.ReturnCode, Message: payload.Data.ReturnMessage}
	}

	out := make([][]byte, len(payload.Data.ReturnData))
	for i, s := range payload.Data.ReturnData {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%s: returnData[%d]: %w", endpoint, i, err)
		}
		out[i] = b
	}
	return out, nil
}

// gateway performs a gateway call and checks the envelope code
func (c *httpClient) gateway(ctx context.Context, endpoint, method, url string, body []byte, env *gatewayEnvelope) error {
	if err := c.do(ctx, endpoint, method, url, body, env); err != nil {
		return err
	}
	if env.Code != "successful" {
		return &APIError{Endpoint: endpoint, StatusCode: http.StatusOK, Code: env.Code, Message: env.Error}
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, endpoint, method, url string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.observer.ObserveRequest(endpoint, status, time.Since(start))
	}()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var env gatewayEnvelope
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}

func parseDecimal(s flexString) (decimal.Decimal, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

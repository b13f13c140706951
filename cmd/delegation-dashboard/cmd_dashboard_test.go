package main

import (
	"context"
	"testing"
	"time"

	"github.com/stakingagency/delegation-dashboard/internal/dashboard"
)

func TestRunDashboardCmdCore(t *testing.T) {
	tests := []struct {
		name            string
		tty             bool
		wantStatic      bool
		wantInteractive bool
	}{
		{"pipe uses static", false, true, false},
		{"terminal uses interactive", true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var static, interactive bool
			err := runDashboardCmdCore(context.Background(), dashboard.Options{}, dashboardCoreDeps{
				isTTY: func() bool { return tt.tty },
				runStatic: func(ctx context.Context, opts dashboard.Options) error {
					static = true
					return nil
				},
				runInteractive: func(opts dashboard.Options) error {
					interactive = true
					return nil
				},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if static != tt.wantStatic || interactive != tt.wantInteractive {
				t.Errorf("static=%v interactive=%v, want %v/%v", static, interactive, tt.wantStatic, tt.wantInteractive)
			}
		})
	}
}

func TestRunDashboardCmdCore_PropagatesError(t *testing.T) {
	err := runDashboardCmdCore(context.Background(), dashboard.Options{}, dashboardCoreDeps{
		isTTY:     func() bool { return false },
		runStatic: func(ctx context.Context, opts dashboard.Options) error { return errMock },
	})
	if err != errMock {
		t.Errorf("err = %v, want errMock", err)
	}
}

func TestNormalizeDashboardOptions(t *testing.T) {
	tests := []struct {
		name        string
		in          dashboard.Options
		wantRefresh time.Duration
		wantTimeout time.Duration
	}{
		{"defaults", dashboard.Options{}, 30 * time.Second, 20 * time.Second},
		{"short refresh caps timeout", dashboard.Options{RefreshInterval: 5 * time.Second}, 5 * time.Second, 10 * time.Second},
		{"explicit timeout kept", dashboard.Options{RefreshInterval: time.Minute, FetchTimeout: 3 * time.Second}, time.Minute, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeDashboardOptions(tt.in)
			if got.RefreshInterval != tt.wantRefresh || got.FetchTimeout != tt.wantTimeout {
				t.Errorf("got refresh=%v timeout=%v, want %v/%v", got.RefreshInterval, got.FetchTimeout, tt.wantRefresh, tt.wantTimeout)
			}
		})
	}
}

func TestRunDashboardStatic_Error(t *testing.T) {
	opts := normalizeDashboardOptions(dashboard.Options{Source: &mockService{err: errMock}})
	if err := runDashboardStatic(context.Background(), opts); err == nil {
		t.Error("expected error when the first fetch fails")
	}
}

package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
)

// aprResult is the structured output of the apr command
type aprResult struct {
	Contract  string         `json:"contract" yaml:"contract"`
	Network   string         `json:"network" yaml:"network"`
	Epoch     int64          `json:"epoch" yaml:"epoch"`
	APR       apr.Estimate   `json:"apr" yaml:"apr"`
	Breakdown *apr.Breakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	FetchedAt time.Time      `json:"fetched_at" yaml:"fetched_at"`
}

func createAPRCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "apr",
		Short: "Show the estimated APR of the delegation contract",
		Long: `Estimate the annual percentage rate delegators earn, from the current
network counters, the contract's active stake and its staked nodes.

With --explain every intermediate value of the estimate is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps(nil)
			if err != nil {
				return err
			}
			defer d.Close()
			return handleAPR(cmd.Context(), d, explain)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show how the estimate was computed")
	return cmd
}

func handleAPR(ctx context.Context, d *Deps, explain bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := d.Service.Snapshot(ctx)
	if err != nil {
		err = classifyFetchError(err)
		if !d.Printer.Structured() {
			ui.PrintError(d.Printer.Out(), fetchErrorMessage(d.Cfg, err))
			return silentErr{err}
		}
		return err
	}

	res := aprResult{
		Contract:  snap.Contract,
		Network:   d.Cfg.Network,
		Epoch:     snap.Epoch,
		APR:       snap.APR,
		FetchedAt: snap.FetchedAt,
	}
	if explain {
		res.Breakdown = &snap.Breakdown
	}
	if d.Printer.Structured() {
		return d.Printer.Emit(res)
	}

	if flagQuiet {
		d.Printer.Textf("%s\n", snap.APR.String())
		return nil
	}

	p := d.Printer
	if snap.APR.Determined() {
		p.KeyValueLine("APR", snap.APR.Display(), "green")
	} else {
		p.KeyValueLine("APR", snap.APR.Display(), "yellow")
		p.Warn("APR could not be determined: " + snap.APR.Reason)
	}
	p.KeyValueLine("Contract", snap.Contract, "dim")
	p.KeyValueLine("Epoch", strconv.FormatInt(snap.Epoch, 10), "")

	if explain {
		p.Section("How it was computed")
		p.Table([]string{"STEP", "VALUE"}, breakdownRows(snap.Breakdown))
	}
	return nil
}

// breakdownRows lists the estimate's intermediate values in the order
// they are computed
func breakdownRows(b apr.Breakdown) [][]string {
	return [][]string{
		{"Nodes (active/all)", fmt.Sprintf("%d/%d", b.ActiveNodes, b.AllNodes)},
		{"Epoch duration", (time.Duration(b.EpochDurationSeconds) * time.Second).String()},
		{"Epochs per year", strconv.FormatFloat(b.EpochsPerYear, 'f', 2, 64)},
		{"Year / inflation", fmt.Sprintf("%d / %s", b.YearIndex, ui.FormatPercent(b.InflationRate))},
		{"Rewards per epoch", tokens(b.RewardsPerEpoch)},
		{"Net rewards", tokens(b.NetRewards)},
		{"Top-up limit", tokens(b.TopUpLimit)},
		{"Network base stake", tokens(b.NetworkBaseStake)},
		{"Network total stake", tokens(b.NetworkTotalStake)},
		{"Network top-up stake", tokens(b.NetworkTopUpStake)},
		{"Gradient point", tokens(b.GradientPoint)},
		{"Top-up reward", tokens(b.TopUpReward)},
		{"Base reward", tokens(b.BaseReward)},
		{"Validator base stake", tokens(b.ValidatorBaseStake)},
		{"Validator total stake", tokens(b.ValidatorTotalStake)},
		{"Validator top-up stake", tokens(b.ValidatorTopUpStake)},
		{"Validator top-up reward", tokens(b.ValidatorTopUpReward)},
		{"Validator base reward", tokens(b.ValidatorBaseReward)},
	}
}

// tokens renders a whole-token amount with thousands separators
func tokens(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return ui.FormatNumber(int64(math.Round(v)))
}

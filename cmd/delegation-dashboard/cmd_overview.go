package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
	"github.com/stakingagency/delegation-dashboard/internal/denominate"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
)

func createOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show contract, agency, node and network details",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps(nil)
			if err != nil {
				return err
			}
			defer d.Close()
			return handleOverview(cmd.Context(), d)
		},
	}
}

// handleOverview prints the whole snapshot. Structured output carries
// every field; text output groups them the way the dashboard does.
func handleOverview(ctx context.Context, d *Deps) error {
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
	if d.Printer.Structured() {
		return d.Printer.Emit(snap)
	}

	p := d.Printer
	p.Header("Delegation Overview")

	p.Section("Agency")
	if snap.Metadata.IsEmpty() {
		p.Info("No agency metadata set")
	} else {
		p.KeyValueLine("Name", snap.Metadata.Name, "")
		p.KeyValueLine("Website", snap.Metadata.Website, "blue")
		p.KeyValueLine("Identifier", snap.Metadata.Identifier, "dim")
	}

	o := snap.Overview
	p.Section("Contract")
	p.KeyValueLine("Address", snap.Contract, "dim")
	p.KeyValueLine("Owner", orDash(o.OwnerBech32, o.OwnerAddress), "dim")
	p.KeyValueLine("Service fee", o.ServiceFee+"%", "")
	p.KeyValueLine("Delegation cap", delegationCap(o, d.Cfg.Denomination), "")
	p.KeyValueLine("Owner funds", o.InitialOwnerFunds, "")
	p.KeyValueLine("Auto activation", o.AutomaticActivation, "")
	p.KeyValueLine("ReDelegation cap", o.ReDelegationCap, "")
	p.KeyValueLine("Fee changeable", yesNo(o.ChangeableServiceFee), "")
	p.KeyValueLine("Unbond period", fmt.Sprintf("%d rounds", o.UnBondPeriod), "")

	p.Section("Delegation")
	aprColor := "green"
	if !snap.APR.Determined() {
		aprColor = "yellow"
	}
	p.KeyValueLine("APR", snap.APR.Display(), aprColor)
	p.KeyValueLine("Active stake", snap.TotalActiveStakeDisplay, "")
	p.KeyValueLine("Delegators", ui.FormatNumber(snap.NumUsers), "")
	p.KeyValueLine("Active nodes", fmt.Sprintf("%d/%d", snap.NumberOfActiveNodes, len(snap.BlsKeys)), "")

	p.Section("Network")
	p.KeyValueLine("Epoch", fmt.Sprintf("%d (%s)", snap.Epoch, orDash(snap.ChainID, "")), "")
	p.KeyValueLine("Epoch progress", ui.FormatPercent(snap.EpochProgress()), "")
	st := snap.NetworkStake
	p.KeyValueLine("Validators", fmt.Sprintf("%d/%d (queue %d)", st.ActiveValidators, st.TotalValidators, st.QueueSize), "")
	if total, err := denominate.Format(st.TotalStaked.String(), d.Cfg.Denomination, 0, false, true); err == nil {
		p.KeyValueLine("Total staked", total, "")
	}

	if len(snap.BlsKeys) > 0 {
		p.Section("Nodes")
		p.Table([]string{"STATUS", "BLS KEY"}, keyRows(p.Colors, snap.BlsKeys))
	}
	return nil
}

func keyRows(c *ui.ColorConfig, keys []delegation.BlsKey) [][]string {
	rows := make([][]string, len(keys))
	for i, k := range keys {
		label := k.Label
		if label == "" {
			label = string(k.Status)
		}
		icon := c.StatusIcon(string(k.Status))
		if k.Status == apr.StatusOther {
			icon = c.StatusIcon("")
		}
		rows[i] = []string{icon + " " + label, k.Key}
	}
	return rows
}

func delegationCap(o delegation.ContractOverview, denomination int) string {
	if !o.WithDelegationCap || o.MaxDelegationCap == "" || o.MaxDelegationCap == "0" {
		return "unlimited"
	}
	v, err := denominate.Format(o.MaxDelegationCap, denomination, 0, false, true)
	if err != nil {
		return o.MaxDelegationCap
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s, fallback string) string {
	if s != "" {
		return s
	}
	if fallback != "" {
		return fallback
	}
	return "—"
}

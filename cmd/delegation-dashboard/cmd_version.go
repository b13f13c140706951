package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/stakingagency/delegation-dashboard/internal/exitcodes"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
	"github.com/stakingagency/delegation-dashboard/internal/update"
)

type versionInfo struct {
	Version   string              `json:"version" yaml:"version"`
	Commit    string              `json:"commit" yaml:"commit"`
	BuildDate string              `json:"build_date" yaml:"build_date"`
	Update    *update.CheckResult `json:"update,omitempty" yaml:"update,omitempty"`
}

// updateChecker is swapped in tests
type updateChecker interface {
	Check(ctx context.Context, current string) (update.CheckResult, error)
}

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinterFromGlobal(flagOutput)
		if !versionCheck {
			return printVersion(p, nil)
		}
		return printVersion(p, update.NewChecker(update.DefaultCacheDir()))
	},
}

// printVersion prints build info and, with a checker, whether a newer
// release exists. A failed check is reported but not fatal.
func printVersion(p ui.Printer, checker updateChecker) error {
	info := versionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}

	var checkErr error
	if checker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		res, err := checker.Check(ctx, Version)
		cancel()
		if err != nil {
			checkErr = err
		} else {
			info.Update = &res
		}
	}

	if p.Structured() {
		return p.Emit(info)
	}
	p.Textf("%s %s (%s) built %s\n", appName, Version, Commit, BuildDate)
	switch {
	case checkErr != nil:
		p.Warn("Update check failed: " + checkErr.Error())
	case info.Update == nil:
	case info.Update.UpdateAvailable:
		p.Warn("Update available: " + info.Update.CurrentVersion + " → " + info.Update.LatestVersion)
		if info.Update.ReleaseURL != "" {
			p.Info(info.Update.ReleaseURL)
		}
	default:
		p.Success("Up to date")
	}
	return nil
}

var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate shell completion",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return exitcodes.InvalidArgsErrorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

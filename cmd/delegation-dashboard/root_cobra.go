package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stakingagency/delegation-dashboard/internal/config"
	"github.com/stakingagency/delegation-dashboard/internal/exitcodes"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const appName = "delegation-dashboard"

// rootCmd wires the CLI surface using Cobra. Persistent flags are
// applied over the loaded config in loadCfg(). Subcommands read the
// delegation contract and render it.
var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Delegation Dashboard",
	Long:          "Monitor an Elrond delegation contract: APR estimate, stake, nodes and network status.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ui.ValidateFormat(flagOutput); err != nil {
			return exitcodes.InvalidArgsError(err.Error())
		}

		ui.InitGlobal(ui.Config{
			NoColor: flagNoColor,
			NoEmoji: flagNoEmoji,
			Quiet:   flagQuiet,
			Debug:   flagDebug,
		})

		// Set NO_COLOR env so lipgloss and other libraries respect the flag
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}
		return nil
	},
}

var (
	flagConfig   string
	flagNetwork  string
	flagAPI      string
	flagProxy    string
	flagContract string
	flagOutput   string
	flagLogFile  string
	flagQuiet    bool
	flagDebug    bool
	flagNoColor  bool
	flagNoEmoji  bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagNetwork, "network", "", "Network preset: "+strings.Join(config.Networks(), "|"))
	pf.StringVar(&flagAPI, "api", "", "Elrond API base URL (overrides config)")
	pf.StringVar(&flagProxy, "proxy", "", "Elrond gateway base URL (overrides config)")
	pf.StringVar(&flagContract, "contract", "", "Delegation contract address (erd1...)")
	pf.StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	pf.StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output")
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Debug output: extra diagnostic logs")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	pf.BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")

	// Only the root gets the grouped help; subcommands use cobra's default
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		printRootHelp(cmd)
	})

	rootCmd.AddCommand(createDashboardCmd())
	rootCmd.AddCommand(createAPRCmd())
	rootCmd.AddCommand(createOverviewCmd())
	rootCmd.AddCommand(createServeCmd())
}

func printRootHelp(cmd *cobra.Command) {
	// Help runs before PersistentPreRun, so manually configure colors
	c := ui.NewColorConfig()
	c.Enabled = c.Enabled && !flagNoColor
	c.EmojiEnabled = c.EmojiEnabled && !flagNoEmoji
	w := cmd.OutOrStdout()

	const cmdWidth = 28
	line := func(name, desc string) {
		fmt.Fprintf(w, "  %s%s%s\n", c.Command(name), strings.Repeat(" ", max(cmdWidth-len(name), 1)), c.Description(desc))
	}

	fmt.Fprintln(w, c.Header(" Delegation Dashboard "))
	fmt.Fprintln(w, c.Description(rootCmd.Long))
	fmt.Fprintln(w, c.Separator(50))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("USAGE"))
	fmt.Fprintf(w, "  %s <command> [flags]\n", appName)
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Monitor"))
	line("dashboard", "Live terminal dashboard")
	line("apr [--explain]", "Estimated APR of the contract")
	line("overview", "Contract, agency and node details")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Serve"))
	line("serve", "Browser dashboard, JSON API and /metrics")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Utilities"))
	line("version", "Show version")
	line("completion <shell>", "Generate shell completion")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Flags"))
	fmt.Fprint(w, rootCmd.PersistentFlags().FlagUsages())
}

// Execute runs the root command and exits with the code carried by the error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var se silentErr
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitcodes.CodeForError(err))
	}
}

// silentErr is returned when the command already reported the failure
type silentErr struct{ error }

func (e silentErr) Unwrap() error { return e.error }

// loadCfg loads the config file and environment, then applies the
// persistent flags on top and validates the result.
func loadCfg() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, exitcodes.ConfigErr("load config", err)
	}
	if err := applyFlagOverrides(&cfg); err != nil {
		return config.Config{}, exitcodes.InvalidArgsError(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, exitcodes.ValidationErr("invalid configuration", err)
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) error {
	if flagNetwork != "" {
		preset, err := config.ForNetwork(flagNetwork)
		if err != nil {
			return err
		}
		cfg.Network = preset.Network
		cfg.APIURL = preset.APIURL
		cfg.ProxyURL = preset.ProxyURL
	}
	if flagAPI != "" {
		cfg.APIURL = flagAPI
	}
	if flagProxy != "" {
		cfg.ProxyURL = flagProxy
	}
	if flagContract != "" {
		cfg.DelegationContract = flagContract
	}
	return nil
}

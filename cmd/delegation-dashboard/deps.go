package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stakingagency/delegation-dashboard/internal/chain"
	"github.com/stakingagency/delegation-dashboard/internal/config"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
	"github.com/stakingagency/delegation-dashboard/internal/exitcodes"
	"github.com/stakingagency/delegation-dashboard/internal/logging"
	"github.com/stakingagency/delegation-dashboard/internal/metrics"
	"github.com/stakingagency/delegation-dashboard/internal/ui"
	"github.com/stakingagency/delegation-dashboard/internal/webserver"
)

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg     config.Config
	Service webserver.SnapshotService
	Printer ui.Printer
	Log     *logrus.Logger
	Metrics *metrics.Recorder
	closer  io.Closer
}

// Close releases the log file, if any
func (d *Deps) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// newDeps wires config, logging, the chain client and the delegation
// service. logOut receives console logs; pass io.Discard while a TUI owns
// the screen.
func newDeps(logOut io.Writer) (*Deps, error) {
	cfg, err := loadCfg()
	if err != nil {
		return nil, err
	}

	log, closer, err := logging.Setup(logging.Options{
		Debug:  flagDebug,
		Quiet:  flagQuiet,
		File:   flagLogFile,
		Output: logOut,
	})
	if err != nil {
		return nil, exitcodes.ConfigErr("set up logging", err)
	}

	econ, err := cfg.EconomicsModel()
	if err != nil {
		closer.Close()
		return nil, exitcodes.ValidationErr("economics", err)
	}

	recorder := metrics.NewRecorder()
	client := chain.New(cfg.APIURL, cfg.ProxyURL,
		chain.WithTimeout(cfg.RequestTimeout),
		chain.WithObserver(recorder),
	)
	svc := delegation.NewService(client, cfg.DelegationContract, econ,
		delegation.WithCacheTTL(cfg.CacheTTL),
		delegation.WithFetchTimeout(cfg.RequestTimeout * 2),
		delegation.WithLogger(log.WithField("network", cfg.Network)),
	)

	log.WithFields(logrus.Fields{
		"network":  cfg.Network,
		"api":      cfg.APIURL,
		"proxy":    cfg.ProxyURL,
		"contract": cfg.DelegationContract,
	}).Debug("Configuration loaded")

	return &Deps{
		Cfg:     cfg,
		Service: svc,
		Printer: ui.NewPrinterFromGlobal(flagOutput),
		Log:     log,
		Metrics: recorder,
		closer:  closer,
	}, nil
}

// classifyFetchError attaches an exit code to a snapshot failure: the VM
// rejecting a view call is a contract error, anything else a network one.
func classifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	var ec *exitcodes.ErrorWithCode
	if errors.As(err, &ec) {
		return err
	}
	var apiErr *chain.APIError
	if errors.As(err, &apiErr) && strings.HasPrefix(apiErr.Endpoint, "query_") && apiErr.StatusCode == 200 {
		return exitcodes.ContractErr("query delegation contract", err)
	}
	return exitcodes.NetworkErr("fetch delegation data", err)
}

// fetchErrorMessage turns a snapshot failure into an actionable message
func fetchErrorMessage(cfg config.Config, err error) ui.ErrorMessage {
	msg := ui.ErrorMessage{
		Problem: fmt.Sprintf("Could not read delegation contract %s", cfg.DelegationContract),
	}
	if exitcodes.CodeForError(err) == exitcodes.ContractError {
		msg.Causes = []string{
			"The address is not a delegation contract",
			"The contract is on another network than " + cfg.Network,
		}
		msg.Actions = []string{"Check --contract and --network"}
		return msg
	}
	msg.Causes = []string{
		"The API or gateway is unreachable or rate limiting",
		"request_timeout is too short",
	}
	msg.Actions = []string{
		"Check --api " + cfg.APIURL,
		"Check --proxy " + cfg.ProxyURL,
	}
	msg.Hints = []string{err.Error()}
	return msg
}

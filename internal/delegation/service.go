// Package delegation reads a delegation contract and the network state it
// depends on, and derives the dashboard's view of it.
package delegation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/chain"
	"github.com/stakingagency/delegation-dashboard/internal/denominate"
)

// Service fetches snapshots with caching
type Service struct {
	client   chain.Client
	contract string
	econ     apr.Economics
	log      logrus.FieldLogger
	now      func() time.Time
	onUpdate []func(Snapshot)

	sf singleflight.Group

	fetchTimeout time.Duration

	mu       sync.Mutex
	cached   Snapshot
	cachedAt time.Time
	cacheTTL time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithCacheTTL sets how long a snapshot is served without refetching
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.cacheTTL = d }
}

// WithFetchTimeout bounds one shared fetch. The bound is independent of
// the contexts of the callers waiting on it.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger used for fetch failures
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// OnUpdate registers a callback invoked after every successful fetch
func OnUpdate(fn func(Snapshot)) Option {
	return func(s *Service) { s.onUpdate = append(s.onUpdate, fn) }
}

// NewService creates a service for one delegation contract with a 30s cache
// and a 30s fetch timeout
func NewService(client chain.Client, contract string, econ apr.Economics, opts ...Option) *Service {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	s := &Service{
		client:       client,
		contract:     contract,
		econ:         econ,
		log:          silent,
		now:          time.Now,
		cacheTTL:     30 * time.Second,
		fetchTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Contract returns the bech32 address of the watched contract
func (s *Service) Contract() string { return s.contract }

// Snapshot returns the cached snapshot while it is fresh, fetching a new
// one otherwise. When a fetch fails and an older snapshot exists, the
// older snapshot is returned without error.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if !s.cachedAt.IsZero() && s.now().Sub(s.cachedAt) < s.cacheTTL {
		snap := s.cached
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	snap, err := s.Refresh(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Return stale cache if available
		if !s.cachedAt.IsZero() {
			s.log.WithError(err).WithField("age", s.now().Sub(s.cachedAt).Round(time.Second)).
				Warn("Serving stale delegation snapshot")
			return s.cached, nil
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// Cached returns the last successful snapshot, if any
func (s *Service) Cached() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached, !s.cachedAt.IsZero()
}

// Refresh fetches a new snapshot, bypassing the cache. Concurrent callers
// share one fetch, which keeps the values of the first caller's context but
// not its cancellation: a caller that gives up returns ctx.Err() while the
// others still get the result.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	ch := s.sf.DoChan("snapshot", func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		snap, err := s.fetch(fctx)
		if err != nil {
			s.log.WithError(err).WithField("contract", s.contract).Error("Failed to fetch delegation snapshot")
			return Snapshot{}, err
		}

		s.mu.Lock()
		s.cached = snap
		s.cachedAt = s.now()
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"contract": s.contract,
			"epoch":    snap.Epoch,
			"apr":      snap.APR.String(),
			"nodes":    snap.NumberOfActiveNodes,
		}).Debug("Fetched delegation snapshot")

		for _, fn := range s.onUpdate {
			fn(snap)
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *Service) query(ctx context.Context, fn string) ([][]byte, error) {
	data, err := s.client.QueryContract(ctx, chain.Query{Address: s.contract, Func: fn})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return data, nil
}

func (s *Service) fetch(ctx context.Context) (Snapshot, error) {
	var (
		metaData, numUsers, contractConfig, activeStake, nodeStates [][]byte

		stats   chain.Stats
		stake   chain.Stake
		netCfg  chain.NetworkConfig
		netStat chain.NetworkStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { metaData, err = s.query(gctx, FuncGetMetaData); return })
	g.Go(func() (err error) { numUsers, err = s.query(gctx, FuncGetNumUsers); return })
	g.Go(func() (err error) { contractConfig, err = s.query(gctx, FuncGetContractConfig); return })
	g.Go(func() (err error) { activeStake, err = s.query(gctx, FuncGetTotalActiveStake); return })
	g.Go(func() (err error) { nodeStates, err = s.query(gctx, FuncGetAllNodeStates); return })
	g.Go(func() (err error) { stats, err = s.client.NetworkStats(gctx); return })
	g.Go(func() (err error) { stake, err = s.client.NetworkStake(gctx); return })
	g.Go(func() (err error) { netCfg, err = s.client.NetworkConfig(gctx); return })
	g.Go(func() (err error) { netStat, err = s.client.NetworkStatus(gctx); return })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return s.assemble(rawData{
		metaData:       metaData,
		numUsers:       numUsers,
		contractConfig: contractConfig,
		activeStake:    activeStake,
		nodeStates:     nodeStates,
		stats:          stats,
		stake:          stake,
		netCfg:         netCfg,
		netStat:        netStat,
	})
}

type rawData struct {
	metaData, numUsers, contractConfig, activeStake, nodeStates [][]byte

	stats   chain.Stats
	stake   chain.Stake
	netCfg  chain.NetworkConfig
	netStat chain.NetworkStatus
}

func (s *Service) assemble(raw rawData) (Snapshot, error) {
	overview, err := decodeOverview(raw.contractConfig, s.econ.Denomination, s.econ.Decimals)
	if err != nil {
		return Snapshot{}, err
	}

	total := decimal.NewFromBigInt(asBigInt(entry(raw.activeStake, 0)), 0)
	totalDisplay, err := denominate.Format(total.String(), s.econ.Denomination, s.econ.Decimals, false, true)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", FuncGetTotalActiveStake, err)
	}

	keys := decodeNodeStates(raw.nodeStates)
	snap := Snapshot{
		Contract:                s.contract,
		Overview:                overview,
		Metadata:                decodeMetadata(raw.metaData),
		NumUsers:                asInt64(entry(raw.numUsers, 0)),
		TotalActiveStake:        total,
		TotalActiveStakeDisplay: totalDisplay,
		BlsKeys:                 keys,
		Epoch:                   raw.stats.Epoch,
		ChainID:                 raw.netCfg.ChainID,
		NetworkConfig: apr.NetworkConfig{
			TopUpFactor:               raw.netCfg.TopUpFactor,
			RoundDurationMs:           raw.netCfg.RoundDurationMs,
			RoundsPerEpoch:            raw.netCfg.RoundsPerEpoch,
			RoundsPassedInEpoch:       raw.netStat.RoundsPassedInCurrentEpoch,
			TopUpRewardsGradientPoint: raw.netCfg.TopUpRewardsGradientPoint,
		},
		NetworkStake: apr.NetworkStake{
			TotalValidators:  raw.stake.TotalValidators,
			ActiveValidators: raw.stake.ActiveValidators,
			QueueSize:        raw.stake.QueueSize,
			TotalStaked:      raw.stake.TotalStaked,
		},
		FetchedAt: s.now(),
	}
	_, snap.NumberOfActiveNodes = apr.CountNodes(snap.KeyStatuses())

	snap.APR, snap.Breakdown = apr.Calculate(apr.Inputs{
		Stats:       apr.EpochStats{Epoch: snap.Epoch},
		Config:      snap.NetworkConfig,
		Stake:       snap.NetworkStake,
		BlsKeys:     snap.KeyStatuses(),
		ActiveStake: apr.ValidatorActiveStake{Amount: total},
	}, s.econ)
	if !snap.APR.Determined() {
		s.log.WithField("reason", snap.APR.Reason).Warn("APR could not be determined")
	}
	return snap, nil
}

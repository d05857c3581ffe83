package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meshmon/meshmon/pkg/api"
	"github.com/meshmon/meshmon/pkg/config"
	"github.com/meshmon/meshmon/pkg/db"
	"github.com/meshmon/meshmon/pkg/metrics"
	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/reconciler"
	"github.com/meshmon/meshmon/pkg/region"
	"github.com/meshmon/meshmon/pkg/scheduler"
	"github.com/meshmon/meshmon/pkg/snapshot"
)

const retentionSweepInterval = 6 * time.Hour

// CycleSummary is the payload broadcast to live subscribers after each
// refresh cycle.
type CycleSummary struct {
	Timestamp    time.Time          `json:"timestamp"`
	BucketKey    string             `json:"bucket_key"`
	TotalNodes   int                `json:"total_nodes"`
	OnlineNodes  int                `json:"online_nodes"`
	Result       *reconciler.Result `json:"result"`
	OverallScore int                `json:"overall_score"`
}

// Server owns the refresh pipeline: it fetches observations, reconciles
// them into the registry, captures snapshots, and answers API reads from
// the last reconciled state.
type Server struct {
	cfg     *config.Config
	store   db.Service
	fetcher Fetcher
	engine  *reconciler.Engine
	snaps   *snapshot.Engine
	regions *region.Aggregator
	cache   *region.Cache
	live    *metrics.Manager
	sched   *scheduler.Scheduler
	hub     Broadcaster
	clock   clockwork.Clock

	mu           sync.RWMutex
	totalNodes   int
	onlineNodes  int
	seenInGossip int
	lastUpdate   time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer wires the pipeline together from its configuration.
func NewServer(cfg *config.Config, store db.Service, fetcher Fetcher, clock clockwork.Clock) *Server {
	cache := region.NewCache(cfg.CacheTTL, cfg.CacheMaxEntries)
	regions := region.NewAggregator(store, cache)

	s := &Server{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		engine:  reconciler.NewEngine(store),
		snaps:   snapshot.NewEngine(store, regions, clock, cfg.BucketWidth),
		regions: regions,
		cache:   cache,
		live:    metrics.NewManager(cfg.MetricsBufferSize),
		clock:   clock,
	}

	s.sched = scheduler.New(scheduler.Config{
		Interval:           cfg.RefreshInterval,
		MaxCycleDuration:   cfg.StuckCycleTimeout,
		MaxSkippedTriggers: cfg.MaxSkippedTriggers,
		HeartbeatInterval:  cfg.HeartbeatInterval,
	}, clock, s.runCycle)

	return s
}

// SetBroadcaster attaches the live-feed hub. Must be called before Start.
func (s *Server) SetBroadcaster(hub Broadcaster) {
	s.hub = hub
}

// Start launches the scheduler and the retention sweep loop.
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.wg.Add(1)

	go s.retentionLoop(ctx)

	return nil
}

// Stop shuts down the scheduler and background loops.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	if err := s.sched.Stop(ctx); err != nil {
		return err
	}

	s.wg.Wait()
	s.cache.Stop()

	return nil
}

// runCycle is one full refresh: fetch, reconcile, snapshot, live update.
func (s *Server) runCycle(ctx context.Context) error {
	start := s.clock.Now()

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	observations, err := s.fetcher.Fetch(fctx)

	cancel()

	if err != nil {
		return fmt.Errorf("fetch observations: %w", err)
	}

	result, err := s.engine.Reconcile(ctx, observations)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	nodes, err := s.store.ListNodes()
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}

	snap, err := s.snaps.Capture(ctx, nodes)
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}

	s.recordLivePoints(nodes)
	s.updateCounts(nodes)

	log.Printf("Cycle complete in %v: %d received, %d created, %d updated, %d conflicts, %d swept",
		s.clock.Since(start), result.Received, result.Created, result.Updated, result.Conflicts, result.Swept)

	if s.hub != nil {
		s.hub.Broadcast(&CycleSummary{
			Timestamp:    s.clock.Now().UTC(),
			BucketKey:    snap.BucketKey,
			TotalNodes:   snap.TotalNodes,
			OnlineNodes:  snap.OnlineNodes,
			Result:       result,
			OverallScore: snap.OverallScore,
		})
	}

	return nil
}

func (s *Server) recordLivePoints(nodes []models.NodeRecord) {
	now := s.clock.Now().UTC()

	for i := range nodes {
		n := &nodes[i]
		if !n.SeenInGossip {
			continue
		}

		point := metrics.TelemetryPoint{
			Timestamp: now,
			Status:    n.Status,
		}

		if n.CPUPercent != nil {
			point.CPUPercent = *n.CPUPercent
		}

		if n.RAMUsed != nil {
			point.RAMUsed = *n.RAMUsed
		}

		if n.CreditsEarned != nil {
			point.CreditsEarned = *n.CreditsEarned
		}

		s.live.Record(n.Key(), point)
	}
}

func (s *Server) updateCounts(nodes []models.NodeRecord) {
	var online, seen int

	for i := range nodes {
		if nodes[i].Status == models.StatusOnline {
			online++
		}

		if nodes[i].SeenInGossip {
			seen++
		}
	}

	s.mu.Lock()
	s.totalNodes = len(nodes)
	s.onlineNodes = online
	s.seenInGossip = seen
	s.lastUpdate = s.clock.Now().UTC()
	s.mu.Unlock()
}

func (s *Server) retentionLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.store.CleanOldData(s.cfg.Retention); err != nil {
				log.Printf("Retention cleanup failed: %v", err)
			}
		}
	}
}

// GetAllNodes returns the full registry.
func (s *Server) GetAllNodes() ([]models.NodeRecord, error) {
	return s.store.ListNodes()
}

// GetNode returns one node, or (nil, nil) for an unknown key.
func (s *Server) GetNode(key string) (*models.NodeRecord, error) {
	return s.store.GetNode(key)
}

// GetNetworkHistory returns network snapshots in the given range.
func (s *Server) GetNetworkHistory(start, end time.Time, limit int) ([]models.HistoricalSnapshot, error) {
	return s.store.GetNetworkSnapshots(start, end, limit)
}

// GetRegionHistory returns per-country snapshots through the region cache.
func (s *Server) GetRegionHistory(ctx context.Context, country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error) {
	return s.regions.History(ctx, country, countryCode, start, end)
}

// GetNodeHistory returns persisted time-series points for one node.
func (s *Server) GetNodeHistory(key string, start, end time.Time, limit int) ([]models.NodeMetricPoint, error) {
	return s.store.GetNodeMetrics(key, start, end, limit)
}

// GetLivePoints returns the in-memory telemetry buffer for one node.
func (s *Server) GetLivePoints(key string) []metrics.TelemetryPoint {
	return s.live.Points(key)
}

// Status reports the state of the last completed cycle.
func (s *Server) Status() api.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return api.SystemStatus{
		TotalNodes:   s.totalNodes,
		OnlineNodes:  s.onlineNodes,
		SeenInGossip: s.seenInGossip,
		LastUpdate:   s.lastUpdate,
		Scheduler:    s.sched.Status(),
	}
}

// Package pacache owns the in-memory snapshot of zones, templates and
// the lookup tree built from them, and the background refresh loop
// that keeps the tree current.
package pacache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TimeForANinja/pacserver/metrics"
	"github.com/TimeForANinja/pacserver/paclookup"
	"github.com/TimeForANinja/pacserver/pactemplate"
	"github.com/TimeForANinja/pacserver/zonefeed"
	"go.uber.org/zap"
)

// Cache holds the currently published lookup tree plus the zone and
// template snapshot it was built from. Reads (Tree) never block on a
// concurrent Refresh: the tree is published through an atomic
// pointer, so readers always see a complete, internally-consistent
// tree, either the previous one or the new one, never a partial
// rebuild in progress.
type Cache struct {
	ipMapFile     string
	pacRoot       string
	contactInfo   string
	maxCacheAge   time.Duration
	doAutoRefresh bool

	logger *zap.Logger

	mu       sync.Mutex // serializes Refresh calls and snapshot/tree updates together
	snapshot paclookup.Snapshot
	tree     atomic.Pointer[paclookup.Node]

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Config carries the subset of the application configuration the
// cache needs to load and refresh its data.
type Config struct {
	IPMapFile     string
	PACRoot       string
	ContactInfo   string
	MaxCacheAge   time.Duration
	DoAutoRefresh bool
}

// New constructs an unpopulated Cache. Call Init to perform the first
// load before serving any lookups.
func New(cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		ipMapFile:     cfg.IPMapFile,
		pacRoot:       cfg.PACRoot,
		contactInfo:   cfg.ContactInfo,
		maxCacheAge:   cfg.MaxCacheAge,
		doAutoRefresh: cfg.DoAutoRefresh,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Init performs the first zone + template load and the first tree
// build, failing loudly: a broken config should be caught at startup,
// never discovered only once the background refresher hits it. If
// configured, it then starts the background auto-refresh loop.
func (c *Cache) Init(ctx context.Context) error {
	zones, errZ := c.loadZones()
	if errZ != nil {
		return fmt.Errorf("pacache: initial zone load failed: %w", errZ)
	}
	templates, errT := c.loadTemplates()
	if errT != nil {
		return fmt.Errorf("pacache: initial template load failed: %w", errT)
	}

	res := paclookup.BuildElements(paclookup.Snapshot{}, zones, nil, templates, nil, c.contactInfo, c.logger)
	if !res.Updated {
		return fmt.Errorf("pacache: initial element build produced no data")
	}

	c.mu.Lock()
	c.snapshot = res.Snapshot
	c.mu.Unlock()

	c.publish(res.Elements)

	if c.doAutoRefresh {
		c.startAutoRefresh()
	}
	return nil
}

// Refresh reloads zones and templates and, following the
// partial-failure policy in paclookup.BuildElements, rebuilds and
// republishes the tree. A failure of both sources leaves the
// currently published tree untouched.
func (c *Cache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.snapshot

	zones, errZ := c.loadZones()
	templates, errT := c.loadTemplates()

	res := paclookup.BuildElements(prev, zones, errZ, templates, errT, c.contactInfo, c.logger)
	if !res.Updated {
		c.logger.Warn("pacache: refresh produced no update, keeping previous tree")
		metrics.TreeRefreshTotal.WithLabelValues("no_update").Inc()
		return
	}

	c.snapshot = res.Snapshot
	c.publish(res.Elements)

	result := "ok"
	if errZ != nil || errT != nil {
		result = "partial"
	}
	metrics.TreeRefreshTotal.WithLabelValues(result).Inc()
}

// publish builds a fresh tree from elements and atomically swaps it
// in for readers.
func (c *Cache) publish(elements []paclookup.Element) {
	tree := paclookup.Build(elements)
	c.tree.Store(tree)
	metrics.TreeElements.Set(float64(len(elements)))
	c.logger.Info("pacache: lookup tree rebuilt",
		zap.Int("elements", len(elements)),
		zap.String("tree", "\n"+paclookup.Stringify(tree)),
	)
}

// Tree returns the currently published lookup tree. Safe for
// concurrent use with Refresh.
func (c *Cache) Tree() *paclookup.Node {
	return c.tree.Load()
}

// startAutoRefresh launches the periodic refresh loop on a plain
// time.Ticker. A slow refresh does not queue up a backlog of pending
// ticks; it simply drops them, so overrun never causes a catch-up
// burst.
func (c *Cache) startAutoRefresh() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.maxCacheAge)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.logger.Info("pacache: max cache age reached, refreshing lookup tree")
				c.Refresh()
			}
		}
	}()
}

// Stop halts the background refresh loop, if running.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}

func (c *Cache) loadZones() ([]zonefeed.Zone, error) {
	f, err := os.Open(c.ipMapFile)
	if err != nil {
		return nil, fmt.Errorf("pacache: cannot open ip map file: %w", err)
	}
	defer f.Close()
	return zonefeed.Load(f, c.logger)
}

func (c *Cache) loadTemplates() ([]pactemplate.Template, error) {
	return pactemplate.Load(c.pacRoot, c.logger)
}

package tags

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/tevino/abool/v2"
)

type entry struct {
	value interface{}
	found bool
}

// Cached memoizes lookups against a slower Source, misses included. Refresh
// re-reads every cached key; StartRefresh does that periodically.
type Cached struct {
	src        Source
	entries    map[string]entry
	mu         sync.RWMutex
	refreshing *abool.AtomicBool
	scheduler  gocron.Scheduler
	logger     *slog.Logger
}

func NewCached(src Source, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cached{
		src:        src,
		entries:    make(map[string]entry),
		refreshing: abool.NewBool(false),
		logger:     logger,
	}
}

func (c *Cached) Lookup(key string) (interface{}, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.value, e.found, nil
	}

	v, found, err := c.src.Lookup(key)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.entries[key] = entry{value: v, found: found}
	c.mu.Unlock()
	return v, found, nil
}

// Refresh reloads every cached key from the source. A refresh already in
// progress makes this call a no-op. Keys whose reload fails are evicted.
func (c *Cached) Refresh() {
	if !c.refreshing.SetToIf(false, true) {
		return
	}
	defer c.refreshing.UnSet()

	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	fresh := make(map[string]entry, len(keys))
	for _, k := range keys {
		v, found, err := c.src.Lookup(k)
		if err != nil {
			c.logger.Warn("tag refresh failed", "key", k, "error", err)
			continue
		}
		fresh[k] = entry{value: v, found: found}
	}

	c.mu.Lock()
	c.entries = fresh
	c.mu.Unlock()
	c.logger.Debug("tag cache refreshed", "keys", len(fresh))
}

// Refreshing reports whether a refresh is running right now.
func (c *Cached) Refreshing() bool {
	return c.refreshing.IsSet()
}

// StartRefresh schedules Refresh every interval until Stop.
func (c *Cached) StartRefresh(interval time.Duration) error {
	if c.scheduler != nil {
		return errors.New("refresh already started")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "create scheduler")
	}
	job, err := s.NewJob(gocron.DurationJob(interval), gocron.NewTask(c.Refresh))
	if err != nil {
		_ = s.Shutdown()
		return errors.Wrap(err, "schedule tag refresh")
	}
	c.logger.Debug("tag refresh scheduled", "job", job.ID(), "interval", interval)
	s.Start()
	c.scheduler = s
	return nil
}

// Stop shuts down the refresh schedule, if any.
func (c *Cached) Stop() error {
	if c.scheduler == nil {
		return nil
	}
	err := c.scheduler.Shutdown()
	c.scheduler = nil
	return err
}

package tags

import (
	"log/slog"

	"taglox/internal/config"
)

// Handle is an opened Source together with whatever must be released when
// the host is done with it.
type Handle struct {
	Source
	closers []func() error
}

// Close releases resources in reverse order of acquisition and returns the
// first error.
func (h *Handle) Close() error {
	var first error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	h.closers = nil
	return first
}

// Open builds the Source described by cfg. A tag file wins over a database;
// with neither configured every tag is missing. Database sources are wrapped
// in a Cached when cfg.Refresh is positive.
func Open(cfg config.Tags, logger *slog.Logger) (*Handle, error) {
	if cfg.File != "" {
		src, err := LoadYAML(cfg.File)
		if err != nil {
			return nil, err
		}
		logger.Debug("tags loaded from file", "file", cfg.File, "keys", len(src.Keys()))
		return &Handle{Source: src}, nil
	}

	if cfg.Driver == "" && cfg.DSN == "" {
		return &Handle{Source: NewMapSource(nil)}, nil
	}

	db, err := OpenSQL(cfg.Driver, cfg.DSN, cfg.Table, WithSQLLogger(logger))
	if err != nil {
		return nil, err
	}
	h := &Handle{Source: db, closers: []func() error{db.Close}}
	if cfg.Refresh <= 0 {
		return h, nil
	}

	cached := NewCached(db, logger)
	if err := cached.StartRefresh(cfg.Refresh); err != nil {
		h.Close()
		return nil, err
	}
	h.Source = cached
	h.closers = append(h.closers, cached.Stop)
	return h, nil
}

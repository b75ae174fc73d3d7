package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/config"
	"github.com/urlmon/urlmon/internal/registry"
)

// Open builds every sink the storage config names. An empty config value
// leaves that sink out; an empty slice means monitoring runs purely in
// memory. Opening is all-or-nothing: one bad sink closes the ones already
// open and fails the call.
func Open(ctx context.Context, cfg config.StorageConfig, reg *registry.Registry, log *zap.Logger) ([]Sink, error) {
	var sinks []Sink

	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if cfg.CSVFile != "" {
		c, err := NewCSV(cfg.CSVFile, reg)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open csv sink: %w", err)
		}
		sinks = append(sinks, c)
		log.Info("sink_opened", zap.String("kind", "csv"), zap.String("file", cfg.CSVFile))
	}

	if cfg.SQLitePath != "" {
		s, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		sinks = append(sinks, s)
		log.Info("sink_opened", zap.String("kind", "sqlite"), zap.String("path", cfg.SQLitePath))
	}

	if cfg.DatabaseURL != "" {
		p, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open postgres sink: %w", err)
		}
		sinks = append(sinks, p)
		log.Info("sink_opened", zap.String("kind", "postgres"))
	}

	return sinks, nil
}

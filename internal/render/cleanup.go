package render

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/internal/logger"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/storage"
	"github.com/clipforge/clipforge/internal/store"
)

// CleanupDependencies carries everything the retention sweep needs.
type CleanupDependencies struct {
	Storage    storage.Storage
	Store      *store.CompositionStore
	Normalizer *media.Normalizer
	ResultTTL  time.Duration
}

// CleanupStats summarizes one sweep.
type CleanupStats struct {
	CompositionsRemoved  int
	CacheFilesPruned     int
	StorageDeleteErrors  int
	DatabaseDeleteErrors int
}

const cleanupBatchSize = 100

// RunCleanup removes composition records past the retention window along
// with their rendered outputs, then prunes stale normalization cache
// entries. Individual delete failures are counted, not fatal.
func RunCleanup(ctx context.Context, deps *CleanupDependencies) (*CleanupStats, error) {
	log := logger.FromContext(ctx)
	log.Info("starting cleanup job", "result_ttl", deps.ResultTTL.String())
	start := time.Now()

	stats := &CleanupStats{}
	cutoff := time.Now().Add(-deps.ResultTTL)

	if err := cleanupExpiredCompositions(ctx, deps, cutoff, stats); err != nil {
		log.Error("failed to clean up expired compositions", "error", err)
	}

	if deps.Normalizer != nil {
		pruned, err := deps.Normalizer.PruneCache(cutoff)
		if err != nil {
			log.Error("failed to prune normalization cache", "error", err)
		}
		stats.CacheFilesPruned = pruned
	}

	log.Info("cleanup job completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"compositions_removed", stats.CompositionsRemoved,
		"cache_files_pruned", stats.CacheFilesPruned,
		"storage_errors", stats.StorageDeleteErrors,
		"database_errors", stats.DatabaseDeleteErrors,
	)

	return stats, nil
}

func cleanupExpiredCompositions(ctx context.Context, deps *CleanupDependencies, cutoff time.Time, stats *CleanupStats) error {
	log := logger.FromContext(ctx)

	for {
		comps, err := deps.Store.ListExpired(ctx, cutoff, cleanupBatchSize)
		if err != nil {
			return fmt.Errorf("list expired compositions: %w", err)
		}

		if len(comps) == 0 {
			break
		}

		for _, comp := range comps {
			if err := deleteOutputs(ctx, deps.Storage, comp.ID); err != nil {
				log.Warn("failed to delete rendered output from storage",
					"composition_id", comp.ID,
					"error", err,
				)
				stats.StorageDeleteErrors++
			}

			if err := deps.Store.Delete(ctx, comp.ID); err != nil {
				log.Warn("failed to delete composition record",
					"composition_id", comp.ID,
					"error", err,
				)
				stats.DatabaseDeleteErrors++
				metrics.RecordCompositionCleaned("error")
				continue
			}

			metrics.RecordCompositionCleaned("success")
			stats.CompositionsRemoved++
		}

		if len(comps) < cleanupBatchSize {
			break
		}
	}

	return nil
}

// deleteOutputs removes the rendered artifact for a composition. The record
// does not carry the output format, so every allowed extension is checked.
func deleteOutputs(ctx context.Context, st storage.Storage, compositionID string) error {
	for format := range allowedFormats {
		key := fmt.Sprintf("renders/%s/output.%s", compositionID, format)
		exists, err := st.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check output %s: %w", key, err)
		}
		if !exists {
			continue
		}
		if err := st.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete output %s: %w", key, err)
		}
	}
	return nil
}

package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps victories in memory
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// SaveVictory stores a copy of record
func (r *MemoryRepository) SaveVictory(ctx context.Context, record *Record) error {
	if err := validRecord(record); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *record
	r.records = append(r.records, &stored)
	return nil
}

// ListVictories returns the most recent victories first
func (r *MemoryRepository) ListVictories(ctx context.Context, guildID, listener string, limit int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []*Record{}
	for _, rec := range r.records {
		if rec.GuildID != guildID || (listener != "" && rec.Listener != listener) {
			continue
		}
		copied := *rec
		results = append(results, &copied)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WonAt.After(results[j].WonAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Prune deletes victories older than before
func (r *MemoryRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.WonAt.Before(before) {
			continue
		}
		kept = append(kept, rec)
	}
	removed := len(r.records) - len(kept)
	r.records = kept
	return removed, nil
}

// Close is a no-op for memory repository since there are no resources to close
func (r *MemoryRepository) Close() error {
	return nil
}

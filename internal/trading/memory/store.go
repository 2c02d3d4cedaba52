// Package memory implements the per-agent bounded journal described in
// §4.4: small, string-oriented summaries of past cycles, isolated by
// agent_id, with retention enforced at load time rather than by a
// background sweep.
package memory

import (
	"time"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

// Retention bounds how much history Load returns: a wall-clock age
// window and a hard count cap, both configurable per Store instance
// (Open Question decision, see DESIGN.md).
type Retention struct {
	MaxAge     time.Duration
	MaxEntries int
}

// DefaultRetention matches the decision recorded in DESIGN.md: 72 hours,
// 50 entries, FIFO-within-window eviction at load time.
func DefaultRetention() Retention {
	return Retention{MaxAge: 72 * time.Hour, MaxEntries: 50}
}

// Store is the Memory Store component (§4.4).
type Store struct {
	repo      repo.MemoryRepository
	retention Retention
}

func NewStore(r repo.MemoryRepository, retention Retention) *Store {
	return &Store{repo: r, retention: retention}
}

// Load returns entries for agentID within the retention window, oldest
// first, so they read naturally as a timeline when composed into
// instructions.
func (s *Store) Load(agentID string) ([]models.MemoryEntry, error) {
	since := time.Now().Add(-s.retention.MaxAge)
	entries, err := s.repo.ListByAgent(agentID, since, s.retention.MaxEntries)
	if err != nil {
		return nil, err
	}
	// ListByAgent orders newest-first for the LIMIT to bite the right
	// end of the window; reverse here so callers see oldest→newest (L1).
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Append records one cycle's distilled summary. Safe to call even if
// Evict is never invoked — retention is enforced at Load time.
func (s *Store) Append(entry *models.MemoryEntry) error {
	if entry.TakenAt.IsZero() {
		entry.TakenAt = time.Now()
	}
	return s.repo.Append(entry)
}

// Evict opportunistically deletes entries outside the age window. Safe
// to never call — see Load's enforcement above.
func (s *Store) Evict(agentID string) error {
	cutoff := time.Now().Add(-s.retention.MaxAge)
	return s.repo.DeleteOlderThan(agentID, cutoff)
}

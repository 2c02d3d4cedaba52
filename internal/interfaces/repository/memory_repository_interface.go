package repository

import (
	"time"

	"github.com/casualtrader/engine/internal/models"
)

// MemoryRepository backs internal/trading/memory.Store. Retention (age
// window and entry cap) is enforced by the Store at load time, per §4.4 —
// this interface is a plain ordered append/list surface.
type MemoryRepository interface {
	Append(entry *models.MemoryEntry) error
	ListByAgent(agentID string, since time.Time, maxEntries int) ([]models.MemoryEntry, error)
	DeleteOlderThan(agentID string, cutoff time.Time) error
}

package trading

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/logger"
)

// SnapshotScheduler periodically revalues every agent's book even when it
// is idle, so dashboards never show a stale snapshot just because an
// agent hasn't traded recently.
type SnapshotScheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	agents repo.AgentRepository
}

func NewSnapshotScheduler(db *gorm.DB, agents repo.AgentRepository) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:   cron.New(),
		db:     db,
		agents: agents,
	}
}

// Start registers the periodic snapshot job and starts the cron loop.
// schedule follows standard five-field cron syntax, e.g. "*/15 * * * *".
func (s *SnapshotScheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.runAll)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *SnapshotScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *SnapshotScheduler) runAll() {
	agents, err := s.agents.List()
	if err != nil {
		logger.Error("snapshot scheduler: failed to list agents", err)
		return
	}
	for _, cfg := range agents {
		if err := bestEffortSnapshot(s.db, cfg.AgentID, cfg.CashBalance); err != nil {
			logger.Error("snapshot scheduler: failed to snapshot agent", err, "agent_id", cfg.AgentID)
		}
	}
}

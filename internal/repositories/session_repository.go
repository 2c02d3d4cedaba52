package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repo.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *models.AgentSession) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) Get(sessionID uuid.UUID) (*models.AgentSession, error) {
	var session models.AgentSession
	if err := r.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Update(session *models.AgentSession) error {
	return r.db.Save(session).Error
}

func (r *SessionRepository) ListByAgent(agentID string, limit, offset int) ([]models.AgentSession, error) {
	var sessions []models.AgentSession
	err := r.db.Where("agent_id = ?", agentID).
		Order("started_at desc").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) HasOverlap(agentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.AgentSession{}).
		Where("agent_id = ? AND status = ?", agentID, models.SessionRunning).
		Count(&count).Error
	return count > 0, err
}

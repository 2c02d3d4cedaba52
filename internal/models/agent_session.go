package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentSession is one execution cycle of an agent. status=running iff the
// Lifecycle Manager currently holds a slot for AgentID (invariant enforced
// by internal/trading.LifecycleManager, not by the database).
type AgentSession struct {
	SessionID uuid.UUID     `gorm:"column:session_id;type:uuid;primaryKey" json:"session_id"`
	AgentID   string        `gorm:"column:agent_id;size:64;not null;index:idx_sessions_agent" json:"agent_id"`
	Mode      ExecutionMode `gorm:"column:mode;size:20;not null" json:"mode"`
	StartedAt time.Time     `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   *time.Time    `gorm:"column:ended_at" json:"ended_at,omitempty"`
	Status    SessionStatus `gorm:"column:status;size:20;not null;index" json:"status"`
	TurnsUsed int           `gorm:"column:turns_used;not null;default:0" json:"turns_used"`
	ErrorKind *string       `gorm:"column:error_kind;size:50" json:"error_kind,omitempty"`
	Summary   string        `gorm:"column:summary;type:text" json:"summary"`
}

func (AgentSession) TableName() string {
	return "agent_sessions"
}

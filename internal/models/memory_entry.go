package models

import "time"

// MemoryEntry is one past cycle's distilled record, injected into the
// next cycle's instructions. Deliberately string-oriented: short natural
// language summaries, never raw transcripts (internal/trading/memory).
type MemoryEntry struct {
	ID               uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AgentID          string        `gorm:"column:agent_id;size:64;not null;index:idx_memory_agent_time,priority:1" json:"agent_id"`
	TakenAt          time.Time     `gorm:"column:taken_at;not null;index:idx_memory_agent_time,priority:2" json:"taken_at"`
	Mode             ExecutionMode `gorm:"column:mode;size:20;not null" json:"mode"`
	AnalysisSummary  string        `gorm:"column:analysis_summary;type:text" json:"analysis_summary"`
	DecisionSummary  string        `gorm:"column:decision_summary;type:text" json:"decision_summary"`
	OutcomeSummary   string        `gorm:"column:outcome_summary;type:text" json:"outcome_summary"`
	NextStepHint     string        `gorm:"column:next_step_hint;type:text" json:"next_step_hint"`
}

func (MemoryEntry) TableName() string {
	return "memory_entries"
}

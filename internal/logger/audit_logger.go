package logger

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/casualtrader/engine/internal/eventbus"
)

// AuditLogger subscribes to the EventBus and writes every lifecycle and
// trade event to system_logs, independent of whatever console logging
// the emitting component already did.
type AuditLogger struct {
	db       *gorm.DB
	eventBus eventbus.EventBusInterface
	zl       *Logger
}

func NewAuditLogger(db *gorm.DB, eb eventbus.EventBusInterface, zl *Logger) *AuditLogger {
	return &AuditLogger{db: db, eventBus: eb, zl: zl}
}

// Start subscribes to every CasualTrader event topic and begins logging.
func (al *AuditLogger) Start() {
	if al.eventBus == nil {
		al.zl.Warn("eventbus not available, audit logging disabled")
		return
	}

	al.eventBus.Subscribe(eventbus.EventTypeTradeExecuted, al.handleTradeExecuted)
	al.eventBus.Subscribe(eventbus.EventTypeSessionStarted, al.handleSessionStarted)
	al.eventBus.Subscribe(eventbus.EventTypeSessionEnded, al.handleSessionEnded)
	al.eventBus.Subscribe(eventbus.EventTypeAgentStatus, al.handleAgentStatus)
	al.eventBus.Subscribe(eventbus.EventTypeError, al.handleError)

	al.zl.Info("audit logger started, subscribed to events")
}

func (al *AuditLogger) handleTradeExecuted(data []byte) {
	var event eventbus.TradeExecutedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		al.zl.Error("failed to unmarshal trade_executed event", err)
		return
	}
	al.LogToDB("audit", "INFO", fmt.Sprintf("trade executed: %s %s x%d @ %s", event.Data.Action, event.Data.Ticker, event.Data.Quantity, event.Data.ExecutedPrice), eventbus.EventTypeTradeExecuted, map[string]interface{}{
		"agent_id":       event.Data.AgentID,
		"session_id":     event.Data.SessionID,
		"transaction_id": event.Data.TransactionID,
	})
}

func (al *AuditLogger) handleSessionStarted(data []byte) {
	var event eventbus.SessionStartedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		al.zl.Error("failed to unmarshal session_started event", err)
		return
	}
	al.LogToDB("audit", "INFO", fmt.Sprintf("session started: agent=%s mode=%s", event.Data.AgentID, event.Data.Mode), eventbus.EventTypeSessionStarted, map[string]interface{}{
		"session_id": event.Data.SessionID,
	})
}

func (al *AuditLogger) handleSessionEnded(data []byte) {
	var event eventbus.SessionEndedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		al.zl.Error("failed to unmarshal session_ended event", err)
		return
	}
	al.LogToDB("audit", "INFO", fmt.Sprintf("session ended: agent=%s status=%s", event.Data.AgentID, event.Data.Status), eventbus.EventTypeSessionEnded, map[string]interface{}{
		"session_id": event.Data.SessionID,
		"error_kind": event.Data.ErrorKind,
	})
}

func (al *AuditLogger) handleAgentStatus(data []byte) {
	var event eventbus.AgentStatusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		al.zl.Error("failed to unmarshal agent_status event", err)
		return
	}
	al.zl.Info("agent status changed", "agent_id", event.Data.AgentID, "status", event.Data.Status)
}

func (al *AuditLogger) handleError(data []byte) {
	var event eventbus.ErrorEvent
	if err := json.Unmarshal(data, &event); err != nil {
		al.zl.Error("failed to unmarshal error event", err)
		return
	}
	al.LogToDB("audit", "ERROR", event.Data.Message, eventbus.EventTypeError, map[string]interface{}{
		"agent_id": event.Data.AgentID,
		"kind":     event.Data.Kind,
	})
}

// SystemLog is a durable log row, written both by Logger and AuditLogger.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey"`
	Service   string    `gorm:"size:50;index"`
	Level     string    `gorm:"size:20;index"`
	Message   string    `gorm:"type:text"`
	EventType string    `gorm:"size:50"`
	EventData string    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"index"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}

// LogToDB writes one row directly, bypassing the async Logger path —
// used by the audit subscriber so a slow DB never drops an event off
// the EventBus's own buffered channel.
func (al *AuditLogger) LogToDB(service, level, message, eventType string, eventData map[string]interface{}) error {
	if al.db == nil {
		return fmt.Errorf("database not available")
	}
	eventJSON := ""
	if eventData != nil {
		if b, err := json.Marshal(eventData); err == nil {
			eventJSON = string(b)
		}
	}
	entry := SystemLog{
		Service:   service,
		Level:     level,
		Message:   message,
		EventType: eventType,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}
	return al.db.Create(&entry).Error
}

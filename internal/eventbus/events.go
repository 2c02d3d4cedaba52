package eventbus

import "time"

// EventTypes are the topics published over the EventBus and streamed to
// operators via the WebSocket controller.
const (
	EventTypeAgentStatus     = "agent_status"
	EventTypeTradeExecuted   = "trade_executed"
	EventTypePortfolioUpdate = "portfolio_update"
	EventTypeSessionStarted  = "session_started"
	EventTypeSessionEnded    = "session_ended"
	EventTypeError           = "error"
	EventVersion1            = "v1"
)

// AgentStatusEvent is the payload for the agent_status topic: one agent
// moving between idle/running/stopping. NewAgentStatusEvent builds it;
// the Lifecycle Manager holds no event bus and does not publish it.
type AgentStatusEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		AgentID   string `json:"agent_id"`
		Status    string `json:"status"`
		SessionID string `json:"session_id,omitempty"`
	} `json:"data"`
}

// TradeExecutedEvent is published strictly after a trade transaction
// commits — never speculatively, never before the row exists.
type TradeExecutedEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		TransactionID string  `json:"transaction_id"`
		AgentID       string  `json:"agent_id"`
		SessionID     string  `json:"session_id"`
		Ticker        string  `json:"ticker"`
		Action        string  `json:"action"`
		Quantity      int64   `json:"quantity"`
		ExecutedPrice string  `json:"executed_price"`
		Fee           string  `json:"fee"`
	} `json:"data"`
}

// PortfolioUpdateEvent is the payload for the portfolio_update topic.
// NewPortfolioUpdateEvent builds it; neither ExecuteTradeAtomic nor the
// SnapshotScheduler publishes it when they write a PortfolioSnapshot.
type PortfolioUpdateEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		AgentID        string `json:"agent_id"`
		Cash           string `json:"cash"`
		PositionsValue string `json:"positions_value"`
		TotalValue     string `json:"total_value"`
	} `json:"data"`
}

// SessionStartedEvent / SessionEndedEvent bracket one Cycle Runner
// invocation — CycleRunner.Run publishes session_started once the
// AgentSession row is created and session_ended once its final status is
// persisted; a run that returns an error before either point skips it.
type SessionStartedEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		AgentID   string `json:"agent_id"`
		SessionID string `json:"session_id"`
		Mode      string `json:"mode"`
	} `json:"data"`
}

type SessionEndedEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		AgentID   string `json:"agent_id"`
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
		ErrorKind string `json:"error_kind,omitempty"`
	} `json:"data"`
}

// ErrorEvent surfaces a TradingError to operators without leaking
// internal wrapped error text — Message only, never Err.Error().
type ErrorEvent struct {
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		AgentID string `json:"agent_id,omitempty"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"data"`
}

func NewTradeExecutedEvent(transactionID, agentID, sessionID, ticker, action string, quantity int64, executedPrice, fee string) *TradeExecutedEvent {
	e := &TradeExecutedEvent{Type: EventTypeTradeExecuted, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.TransactionID = transactionID
	e.Data.AgentID = agentID
	e.Data.SessionID = sessionID
	e.Data.Ticker = ticker
	e.Data.Action = action
	e.Data.Quantity = quantity
	e.Data.ExecutedPrice = executedPrice
	e.Data.Fee = fee
	return e
}

func NewAgentStatusEvent(agentID, status, sessionID string) *AgentStatusEvent {
	e := &AgentStatusEvent{Type: EventTypeAgentStatus, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.AgentID = agentID
	e.Data.Status = status
	e.Data.SessionID = sessionID
	return e
}

func NewPortfolioUpdateEvent(agentID, cash, positionsValue, totalValue string) *PortfolioUpdateEvent {
	e := &PortfolioUpdateEvent{Type: EventTypePortfolioUpdate, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.AgentID = agentID
	e.Data.Cash = cash
	e.Data.PositionsValue = positionsValue
	e.Data.TotalValue = totalValue
	return e
}

func NewSessionStartedEvent(agentID, sessionID, mode string) *SessionStartedEvent {
	e := &SessionStartedEvent{Type: EventTypeSessionStarted, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.AgentID = agentID
	e.Data.SessionID = sessionID
	e.Data.Mode = mode
	return e
}

func NewSessionEndedEvent(agentID, sessionID, status, errorKind string) *SessionEndedEvent {
	e := &SessionEndedEvent{Type: EventTypeSessionEnded, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.AgentID = agentID
	e.Data.SessionID = sessionID
	e.Data.Status = status
	e.Data.ErrorKind = errorKind
	return e
}

func NewErrorEvent(agentID, kind, message string) *ErrorEvent {
	e := &ErrorEvent{Type: EventTypeError, Version: EventVersion1, Timestamp: time.Now()}
	e.Data.AgentID = agentID
	e.Data.Kind = kind
	e.Data.Message = message
	return e
}

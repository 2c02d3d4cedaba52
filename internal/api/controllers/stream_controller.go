package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/casualtrader/engine/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamController fans out eventbus topics to WebSocket clients. Each
// subscribed topic delivers on its own eventbus goroutine and writes to
// the socket from there; those writes are serialized with a mutex since
// gorilla/websocket forbids concurrent writers on a single connection.
type StreamController struct {
	bus eventbus.EventBusInterface
}

func NewStreamController(bus eventbus.EventBusInterface) *StreamController {
	return &StreamController{bus: bus}
}

var streamTopics = []string{
	eventbus.EventTypeAgentStatus,
	eventbus.EventTypeTradeExecuted,
	eventbus.EventTypePortfolioUpdate,
	eventbus.EventTypeSessionStarted,
	eventbus.EventTypeSessionEnded,
	eventbus.EventTypeError,
}

// @Summary Stream live events over a WebSocket
// @Tags Stream
// @Router /stream [get]
func (c *StreamController) Handle(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	closed := make(chan struct{})

	for _, topic := range streamTopics {
		c.bus.Subscribe(topic, func(payload []byte) {
			writeMu.Lock()
			defer writeMu.Unlock()
			select {
			case <-closed:
				return
			default:
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				select {
				case <-closed:
				default:
					close(closed)
				}
			}
		})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case <-closed:
			default:
				close(closed)
			}
			return
		}
	}
}

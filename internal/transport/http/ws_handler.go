package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-progress-service/internal/app"
	"quiz-progress-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log *logrus.Entry) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type beginPayload struct {
	LevelID string `json:"levelId"`
}

type attemptPayload struct {
	QuizID    string `json:"quizId"`
	IsCorrect bool   `json:"isCorrect"`
	TimeSpent int    `json:"timeSpent"`
}

type progressPayload struct {
	Mode domain.GameMode `json:"mode"`
}

type ackPayload struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
}

type begunPayload struct {
	Level    domain.Level `json:"level"`
	Accepted bool         `json:"accepted"`
}

type elapsedPayload struct {
	Seconds int `json:"seconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}
	log := h.log.WithField("player", playerID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.Open(ctx, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel := session.Subscribe()
	defer h.service.Leave(playerID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		reply("error", errorPayload{Message: err.Error()})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "begin":
			var payload beginPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid begin payload"})
				continue
			}
			level, accepted, err := h.service.Begin(ctx, playerID, payload.LevelID)
			if err != nil {
				fail(err)
				continue
			}
			reply("begun", begunPayload{Level: level, Accepted: accepted})
		case "restart":
			accepted, err := h.service.Restart(ctx, playerID)
			if err != nil {
				fail(err)
				continue
			}
			reply("ack", ackPayload{Action: "restart", Accepted: accepted})
		case "complete":
			accepted, err := h.service.Complete(ctx, playerID)
			if err != nil {
				fail(err)
				continue
			}
			reply("ack", ackPayload{Action: "complete", Accepted: accepted})
		case "attempt":
			var payload attemptPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
				reply("error", errorPayload{Message: "invalid attempt payload"})
				continue
			}
			attempt, err := h.service.RecordAttempt(ctx, playerID, payload.QuizID, payload.IsCorrect, payload.TimeSpent)
			if err != nil {
				fail(err)
				continue
			}
			reply("attemptRecorded", attempt)
		case "progress":
			var payload progressPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid progress payload"})
				continue
			}
			// the aggregate arrives through the session event stream
			if _, err := h.service.Progress(ctx, playerID, payload.Mode); err != nil {
				fail(err)
			}
		case "quote":
			quote, err := h.service.QuoteReset(playerID)
			if err != nil {
				fail(err)
				continue
			}
			reply("quote", quote)
		case "purchaseReset":
			purchase, err := h.service.PurchaseReset(ctx, playerID)
			if err != nil {
				fail(err)
				continue
			}
			reply("purchase", purchase)
		default:
			reply("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func eventMessage(ev app.Event) outboundMessage[any] {
	switch ev.Type {
	case app.EventSessionState:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev.Session}
	case app.EventProgress:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev.Progress}
	default:
		return outboundMessage[any]{Type: string(ev.Type), Payload: elapsedPayload{Seconds: ev.Seconds}}
	}
}

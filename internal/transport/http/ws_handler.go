package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/tracker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type startPayload struct {
	SetID string `json:"setId"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type soundPayload struct {
	Enabled bool `json:"enabled"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type readyPayload struct {
	ClientID string                      `json:"clientId"`
	Sets     []domain.QuestionSetSummary `json:"sets"`
}

type clockPayload struct {
	Elapsed int    `json:"elapsed"`
	Display string `json:"display"`
}

type resultsPayload struct {
	domain.Results
	TotalTime   string `json:"totalTime"`
	AverageTime string `json:"averageTime"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz runner per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], 32)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	// send is never closed: presenter calls may still arrive from timers after the reader exits.
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	presenter := &wsPresenter{send: send, done: done, writerDone: writerDone}
	sets, err := h.service.Presets(ctx)
	if err != nil {
		log.Printf("list presets: %v", err)
	}
	presenter.emit("ready", readyPayload{ClientID: clientID, Sets: sets})

	runner := h.service.Open(ctx, clientID, presenter)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, clientID, inbound); err != nil {
			presenter.emit("error", errorPayload{Message: err.Error()})
		}
	}

	h.service.Release(ctx, runner)
	close(done)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, clientID string, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := decodePayload(inbound.Payload, &payload); err != nil || payload.SetID == "" {
			return errInvalidPayload("start")
		}
		return h.service.Start(ctx, clientID, payload.SetID)
	case "answer":
		var payload answerPayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return errInvalidPayload("answer")
		}
		return h.service.Answer(ctx, clientID, payload.Option)
	case "skip":
		return h.service.Skip(ctx, clientID)
	case "review":
		return h.service.Review(ctx, clientID)
	case "restart":
		return h.service.Restart(ctx, clientID)
	case "sound":
		var payload soundPayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return errInvalidPayload("sound")
		}
		return h.service.SetSound(ctx, clientID, payload.Enabled)
	default:
		return errUnsupported
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errMissingPayload
	}
	return json.Unmarshal(raw, v)
}

// wsPresenter turns runner callbacks into outbound messages for the writer goroutine.
// Messages are dropped once the connection is closing or the writer has given up.
type wsPresenter struct {
	send       chan<- outboundMessage[any]
	done       <-chan struct{}
	writerDone <-chan struct{}
}

func (p *wsPresenter) emit(typ string, payload any) {
	select {
	case p.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-p.done:
	case <-p.writerDone:
	}
}

func (p *wsPresenter) Question(view domain.View)         { p.emit("question", view) }
func (p *wsPresenter) Feedback(feedback domain.Feedback) { p.emit("feedback", feedback) }
func (p *wsPresenter) Answer(mark domain.AnswerMark)     { p.emit("answerResult", mark) }
func (p *wsPresenter) Stats(stats domain.Stats)          { p.emit("stats", stats) }
func (p *wsPresenter) SkipVisible(visible bool)          { p.emit("skip", map[string]bool{"visible": visible}) }
func (p *wsPresenter) Cue(cue domain.Cue)                { p.emit("cue", map[string]domain.Cue{"cue": cue}) }
func (p *wsPresenter) Sound(enabled bool)                { p.emit("sound", soundPayload{Enabled: enabled}) }

func (p *wsPresenter) Clock(elapsed int) {
	p.emit("clock", clockPayload{Elapsed: elapsed, Display: tracker.FormatClock(elapsed)})
}

func (p *wsPresenter) Results(results domain.Results) {
	p.emit("results", resultsPayload{
		Results:     results,
		TotalTime:   tracker.FormatDuration(results.Time.TotalSeconds),
		AverageTime: tracker.FormatDuration(results.Time.AverageSeconds),
	})
}

package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/app"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one game session per websocket connection.
type WSHandler struct {
	service  *app.GameService
	tokens   TokenService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, tokens TokenService) *WSHandler {
	return &WSHandler{
		service: service,
		tokens:  tokens,
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

type answerPayload struct {
	Choice int `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type questionPayload struct {
	Number   int             `json:"number"`
	Total    int             `json:"total"`
	Question string          `json:"question"`
	Choices  []domain.Choice `json:"choices"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and plays one full session over it. The client
// sends {"type":"answer","payload":{"choice":n}} for each question; the server
// pushes question, answerResult, warning, and finally summary events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	token := r.URL.Query().Get("token")
	if period == "" {
		http.Error(w, "missing period", http.StatusBadRequest)
		return
	}
	username, err := h.tokens.Validate(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, beginErr := h.service.Begin(r.Context(), period)
	if session == nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: beginErr.Error()}})
		return
	}
	defer h.service.End(session.ID())

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var pending sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	if beginErr != nil {
		enqueue(send, writerDone, errorMessage("failed to fetch dilemma"))
	} else {
		enqueue(send, writerDone, questionMessage(session.Snapshot()))
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			h.handleAnswer(r, session, username, inbound.Payload, send, closeSignals, writerDone, &pending)
		case "retry":
			if _, err := h.service.Retry(r.Context(), session.ID()); err != nil {
				enqueue(send, writerDone, errorMessage("failed to fetch dilemma"))
				continue
			}
			enqueue(send, writerDone, questionMessage(session.Snapshot()))
		default:
			enqueue(send, writerDone, errorMessage("unsupported message type"))
		}
	}

	close(closeSignals)
	pending.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) handleAnswer(r *http.Request, session *app.GameSession, username string, raw json.RawMessage, send chan outboundMessage[any], closeSignals, writerDone chan struct{}, pending *sync.WaitGroup) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		enqueue(send, writerDone, errorMessage("invalid answer payload"))
		return
	}

	// Bounds-check user input here; the state machine treats a bad index as a
	// programming error.
	snap := session.Snapshot()
	if snap.Dilemma == nil {
		enqueue(send, writerDone, errorMessage("no question presented"))
		return
	}
	if payload.Choice < 0 || payload.Choice >= len(snap.Dilemma.Choices) {
		enqueue(send, writerDone, errorMessage("choice out of range"))
		return
	}

	out, err := h.service.Answer(r.Context(), session.ID(), username, payload.Choice)
	if err != nil {
		enqueue(send, writerDone, errorMessage(err.Error()))
		return
	}

	enqueue(send, writerDone, outboundMessage[any]{Type: "answerResult", Payload: out.Answered})

	// Surface a record failure as a warning without blocking gameplay.
	pending.Add(1)
	go func(recorded <-chan error) {
		defer pending.Done()
		recErr, ok := <-recorded
		if !ok || recErr == nil {
			return
		}
		select {
		case send <- outboundMessage[any]{Type: "warning", Payload: errorPayload{Message: "failed to save answer to history"}}:
		case <-closeSignals:
		case <-writerDone:
		}
	}(out.Recorded)

	switch {
	case out.Complete:
		summary, err := h.service.Summary(session.ID())
		if err != nil {
			enqueue(send, writerDone, errorMessage(err.Error()))
			return
		}
		enqueue(send, writerDone, outboundMessage[any]{Type: "summary", Payload: summary})
	case out.NextErr != nil:
		enqueue(send, writerDone, errorMessage("failed to fetch dilemma"))
	default:
		enqueue(send, writerDone, questionMessage(session.Snapshot()))
	}
}

// enqueue hands a message to the writer, giving up if the writer has exited.
// Without the writerDone case a dead writer would leave the read loop stuck
// once the send buffer fills.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func questionMessage(snap app.Snapshot) outboundMessage[any] {
	payload := questionPayload{
		Number: snap.CurrentQuestion,
		Total:  snap.TotalQuestions,
	}
	if snap.Dilemma != nil {
		payload.Question = snap.Dilemma.Question
		payload.Choices = snap.Dilemma.Choices
	}
	return outboundMessage[any]{Type: "question", Payload: payload}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

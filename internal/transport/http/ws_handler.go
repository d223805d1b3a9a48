package http

import (
	"encoding/json"
	"log"
	"math"
	"net/http"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
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

type answerPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type hostedPayload struct {
	Pin string `json:"pin"`
}

type commandResultPayload struct {
	Command string `json:"command"`
	Changed bool   `json:"changed"`
}

type answerResultPayload struct {
	Accepted   bool `json:"accepted"`
	Correct    bool `json:"correct"`
	Awarded    int  `json:"awarded"`
	TotalScore int  `json:"totalScore"`
}

// questionView is the client-facing question: correct answers stripped.
type questionView struct {
	ID               string   `json:"id,omitempty"`
	Type             string   `json:"type"`
	Text             string   `json:"text"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	Options          []string `json:"options,omitempty"`
}

type sessionPayload struct {
	Pin           string                  `json:"pin"`
	State         string                  `json:"state"`
	QuestionIndex int                     `json:"questionIndex"`
	QuestionCount int                     `json:"questionCount"`
	Question      *questionView           `json:"question,omitempty"`
	Players       []game.LeaderboardEntry `json:"players"`
}

func sessionView(pin string, view game.View) sessionPayload {
	payload := sessionPayload{
		Pin:           pin,
		State:         view.State,
		QuestionIndex: view.QuestionIndex,
		QuestionCount: view.QuestionCount,
		Players:       view.Leaderboard,
	}
	if view.Question != nil {
		qv := questionView{
			ID:               view.Question.ID(),
			Type:             view.Question.Type(),
			Text:             view.Question.Text(),
			TimeLimitSeconds: view.Question.TimeLimitSeconds(),
		}
		if choice, ok := view.Question.(*domain.ChoiceQuestion); ok {
			qv.Options = choice.Options()
		}
		payload.Question = &qv
	}
	return payload
}

// wsPipes is the per-connection plumbing: a writer goroutine owns all
// websocket writes, an updates goroutine forwards session snapshots, and
// teardown drains both in order.
type wsPipes struct {
	send         chan outboundMessage[any]
	closeSignals chan struct{}
	writerDone   chan struct{}
	updatesDone  chan struct{}
}

func startPipes(conn *websocket.Conn, updates <-chan game.View, pin string) *wsPipes {
	p := &wsPipes{
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
		writerDone:   make(chan struct{}),
		updatesDone:  make(chan struct{}),
	}

	go func() {
		defer close(p.writerDone)
		for msg := range p.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(p.updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case p.send <- outboundMessage[any]{Type: "session", Payload: sessionView(pin, view)}:
				case <-p.closeSignals:
					return
				}
			case <-p.closeSignals:
				return
			}
		}
	}()

	return p
}

func (p *wsPipes) shutdown() {
	close(p.closeSignals)
	<-p.updatesDone
	close(p.send)
	<-p.writerDone
}

// ServeHost upgrades the host connection, opens a game for the requested
// quiz, and serves host commands until the connection drops. The game
// ends with the host.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	pin, err := h.service.HostGame(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndGame(r.Context(), pin)

	updates, cancel, err := h.service.Watch(r.Context(), pin)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	pipes := startPipes(conn, updates, pin)
	pipes.send <- outboundMessage[any]{Type: "hosted", Payload: hostedPayload{Pin: pin}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var (
			changed bool
			cmdErr  error
		)
		switch inbound.Type {
		case "start_question":
			changed, cmdErr = h.service.StartQuestion(r.Context(), pin)
		case "next":
			changed, cmdErr = h.service.Next(r.Context(), pin)
		default:
			pipes.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}
		if cmdErr != nil {
			pipes.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: cmdErr.Error()}}
			continue
		}
		pipes.send <- outboundMessage[any]{Type: "commandResult", Payload: commandResultPayload{Command: inbound.Type, Changed: changed}}
	}

	pipes.shutdown()
}

// ServePlay upgrades a player connection, joins the session for the PIN,
// and accepts answers until the connection drops.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	playerID := r.URL.Query().Get("playerId")
	nickname := r.URL.Query().Get("name")
	if pin == "" || playerID == "" || nickname == "" {
		http.Error(w, "missing pin, playerId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	joined, err := h.service.Join(r.Context(), pin, playerID, nickname)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Leave(r.Context(), pin, playerID)

	updates, cancel, err := h.service.Watch(r.Context(), pin)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	pipes := startPipes(conn, updates, pin)
	pipes.send <- outboundMessage[any]{Type: "joined", Payload: sessionView(pin, joined)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				pipes.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), pin, playerID, decodeAnswer(payload.Answer))
			if err != nil {
				pipes.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			pipes.send <- outboundMessage[any]{Type: "answerResult", Payload: answerResultPayload{
				Accepted:   result.Accepted,
				Correct:    result.Correct,
				Awarded:    result.Awarded,
				TotalScore: result.TotalScore,
			}}
		default:
			pipes.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	pipes.shutdown()
}

// decodeAnswer converts the raw JSON answer value into the dynamic type
// the question variants validate against: numbers become option indexes,
// booleans stay booleans.
func decodeAnswer(raw json.RawMessage) any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		// a fractional number is never a valid option index
		if v != math.Trunc(v) {
			return nil
		}
		return int(v)
	default:
		return v
	}
}

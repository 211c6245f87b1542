package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/metrics"
)

// playerHeader carries the caller identity of quiz mutations.
const playerHeader = "player"

// QuizHandler serves the quiz service API.
type QuizHandler struct {
	engine *app.QuizEngine
	log    logger.Logger
}

func NewQuizHandler(engine *app.QuizEngine, log logger.Logger) *QuizHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &QuizHandler{engine: engine, log: log}
}

// NewQuizRouter wires the quiz service routes.
func NewQuizRouter(h *QuizHandler, m *metrics.Recorder) http.Handler {
	r := newRouter(m)
	r.HandleFunc("/quizzes", h.ListQuizzes).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}", h.GetQuiz).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}/leaderboard", h.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}/answer", h.Answer).Methods(http.MethodPost)
	r.HandleFunc("/quizzes/{id}/next", h.NextQuestion).Methods(http.MethodPost)
	r.HandleFunc("/entities/quiz", h.ResolveQuiz).Methods(http.MethodPost)
	r.HandleFunc("/entities/player", h.ResolvePlayer).Methods(http.MethodPost)
	r.HandleFunc("/ws", h.ServeWS)
	return withCORS(r)
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Quizzes(r.Context()))
}

func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.engine.Quiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.engine.Leaderboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.engine.Answer(r.Context(), mux.Vars(r)["id"], req.QuestionID, req.ChoiceID, r.Header.Get(playerHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := h.engine.NextQuestion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *QuizHandler) ResolveQuiz(w http.ResponseWriter, r *http.Request) {
	var ref domain.EntityRef
	if err := decodeBody(r, &ref); err != nil {
		writeError(w, err)
		return
	}
	quiz, ok := h.engine.ResolveQuiz(r.Context(), ref)
	if !ok {
		writeError(w, domain.ErrQuizNotFound)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) ResolvePlayer(w http.ResponseWriter, r *http.Request) {
	var ref domain.EntityRef
	if err := decodeBody(r, &ref); err != nil {
		writeError(w, err)
		return
	}
	score, ok, err := h.engine.ResolvePlayer(r.Context(), ref)
	if err != nil {
		h.log.Warn(r.Context(), "resolve player", logger.String("player_id", ref.ID), logger.Error(err))
		writeJSON(w, http.StatusBadGateway, errorPayload{Message: err.Error()})
		return
	}
	if !ok {
		writeError(w, domain.ErrPlayerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// ServeWS streams the question or leaderboard topic of a quiz. Clients may
// send answer and nextQuestion messages on the same socket.
func (h *QuizHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = "question"
	}
	if quizID == "" || (topic != "question" && topic != "leaderboard") {
		http.Error(w, "missing quizId or unknown topic", http.StatusBadRequest)
		return
	}
	player := r.Header.Get(playerHeader)
	if player == "" {
		player = r.URL.Query().Get(playerHeader)
	}

	ctx := r.Context()
	handle := h.inbound(ctx, quizID, player)
	if topic == "leaderboard" {
		sub, err := h.engine.SubscribeLeaderboard(ctx, quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		serveStream(w, r, h.log, "leaderboard", sub, handle)
		return
	}
	sub, err := h.engine.SubscribeQuestions(ctx, quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	serveStream(w, r, h.log, "question", sub, handle)
}

func (h *QuizHandler) inbound(ctx context.Context, quizID, player string) inboundHandler {
	return func(msg inboundMessage) outboundMessage[any] {
		switch msg.Type {
		case "answer":
			var req answerRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return errorMessage("invalid answer payload")
			}
			result, err := h.engine.Answer(ctx, quizID, req.QuestionID, req.ChoiceID, player)
			if err != nil {
				return errorMessage(err.Error())
			}
			return outboundMessage[any]{Type: "answerResult", Payload: result}
		case "nextQuestion":
			question, err := h.engine.NextQuestion(ctx, quizID)
			if err != nil {
				return errorMessage(err.Error())
			}
			return outboundMessage[any]{Type: "nextQuestion", Payload: question}
		default:
			return errorMessage("unsupported message type")
		}
	}
}

package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/metrics"
)

// PlayerHandler serves the player service API.
type PlayerHandler struct {
	players *app.PlayerService
	log     logger.Logger
}

func NewPlayerHandler(players *app.PlayerService, log logger.Logger) *PlayerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PlayerHandler{players: players, log: log}
}

// NewPlayerRouter wires the player service routes.
func NewPlayerRouter(h *PlayerHandler, m *metrics.Recorder) http.Handler {
	r := newRouter(m)
	r.HandleFunc("/players", h.CreatePlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{id}", h.GetPlayer).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{quizId}/players", h.ListPlayers).Methods(http.MethodGet)
	r.HandleFunc("/entities/player", h.ResolvePlayer).Methods(http.MethodPost)
	r.HandleFunc("/ws", h.ServeWS)
	return withCORS(r)
}

type createPlayerRequest struct {
	UserName string `json:"userName"`
	QuizID   string `json:"quizId"`
}

func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	player, err := h.players.CreatePlayer(r.Context(), req.UserName, req.QuizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.players.Player(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.players.PlayersForQuiz(r.Context(), mux.Vars(r)["quizId"]))
}

func (h *PlayerHandler) ResolvePlayer(w http.ResponseWriter, r *http.Request) {
	var ref domain.EntityRef
	if err := decodeBody(r, &ref); err != nil {
		writeError(w, err)
		return
	}
	player, ok := h.players.ResolvePlayer(r.Context(), ref)
	if !ok {
		writeError(w, domain.ErrPlayerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// ServeWS streams the player list of a quiz after every registration.
func (h *PlayerHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	sub := h.players.SubscribePlayers(r.Context(), quizID)
	serveStream(w, r, h.log, "players", sub, nil)
}

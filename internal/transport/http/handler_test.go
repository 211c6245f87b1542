package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-subgraphs/internal/app"
	"quiz-subgraphs/internal/domain"
	"quiz-subgraphs/internal/metrics"
)

func TestQuizHTTPScenario(t *testing.T) {
	srv := newQuizServer(t)

	var quizzes []domain.Quiz
	do(t, srv, http.MethodGet, "/quizzes", "", nil, http.StatusOK, &quizzes)
	if len(quizzes) != 1 || quizzes[0].CurrentQuestionIndex != domain.NotStarted {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}

	// Answering before the first advance has no current question.
	do(t, srv, http.MethodPost, "/quizzes/0/answer", `{"questionId":"0","choiceId":"1"}`, playerHdr("alice"), http.StatusConflict, nil)

	var question domain.Question
	do(t, srv, http.MethodPost, "/quizzes/0/next", "", nil, http.StatusOK, &question)
	if question.ID != "0" {
		t.Fatalf("expected question 0, got %+v", question)
	}

	var result domain.AnswerResult
	do(t, srv, http.MethodPost, "/quizzes/0/answer", `{"questionId":"0","choiceId":"1"}`, playerHdr("alice"), http.StatusOK, &result)
	if !result.Success || result.RightChoice.ID != "1" {
		t.Fatalf("expected correct answer, got %+v", result)
	}
	do(t, srv, http.MethodPost, "/quizzes/0/answer", `{"questionId":"0","choiceId":"2"}`, playerHdr("bob"), http.StatusOK, &result)
	if result.Success {
		t.Fatalf("expected wrong answer")
	}

	var board domain.Leaderboard
	do(t, srv, http.MethodGet, "/quizzes/0/leaderboard", "", nil, http.StatusOK, &board)
	if len(board.Entries) != 2 || board.Entries[0].PlayerID != "alice" || board.Entries[0].Points != 1 {
		t.Fatalf("unexpected leaderboard %+v", board.Entries)
	}

	var quiz domain.Quiz
	do(t, srv, http.MethodGet, "/quizzes/0", "", nil, http.StatusOK, &quiz)
	if quiz.CurrentQuestionIndex != 0 {
		t.Fatalf("expected live index 0, got %d", quiz.CurrentQuestionIndex)
	}
}

func TestQuizHTTPErrors(t *testing.T) {
	srv := newQuizServer(t)

	do(t, srv, http.MethodGet, "/quizzes/nope", "", nil, http.StatusNotFound, nil)
	do(t, srv, http.MethodGet, "/quizzes/nope/leaderboard", "", nil, http.StatusNotFound, nil)
	do(t, srv, http.MethodPost, "/quizzes/0/next", "", nil, http.StatusOK, nil)
	do(t, srv, http.MethodPost, "/quizzes/0/answer", `{"questionId":"0","choiceId":"1"}`, nil, http.StatusUnauthorized, nil)
	do(t, srv, http.MethodPost, "/quizzes/nope/answer", `{"questionId":"0","choiceId":"1"}`, playerHdr("alice"), http.StatusNotFound, nil)
	do(t, srv, http.MethodPost, "/quizzes/0/answer", `{"bogus":true}`, playerHdr("alice"), http.StatusBadRequest, nil)

	// Advancing an unknown quiz is not an error.
	resp := do(t, srv, http.MethodPost, "/quizzes/nope/next", "", nil, http.StatusOK, nil)
	if strings.TrimSpace(resp) != "null" {
		t.Fatalf("expected null body, got %q", resp)
	}
}

func TestQuizEntities(t *testing.T) {
	srv := newQuizServer(t)

	var quiz domain.Quiz
	do(t, srv, http.MethodPost, "/entities/quiz", `{"id":"0"}`, nil, http.StatusOK, &quiz)
	if quiz.ID != "0" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	do(t, srv, http.MethodPost, "/entities/quiz", `{"id":"9"}`, nil, http.StatusNotFound, nil)

	var score domain.PlayerScore
	do(t, srv, http.MethodPost, "/entities/player", `{"id":"p1","quizId":"0"}`, nil, http.StatusOK, &score)
	if score.Points != 0 || score.QuizID != "0" {
		t.Fatalf("unexpected score %+v", score)
	}
	do(t, srv, http.MethodPost, "/entities/player", `{"id":"p1","quizId":"9"}`, nil, http.StatusNotFound, nil)
}

func TestQuizWebSocketStreams(t *testing.T) {
	srv := newQuizServer(t)

	questions := dial(t, srv, "/ws?quizId=0&topic=question")
	boards := dial(t, srv, "/ws?quizId=0&topic=leaderboard&player=alice")

	do(t, srv, http.MethodPost, "/quizzes/0/next", "", nil, http.StatusOK, nil)

	msg := readType(t, questions, "question")
	var event domain.QuestionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	if event.QuizID != "0" || event.Question == nil || event.Question.ID != "0" {
		t.Fatalf("unexpected question event %+v", event)
	}
	// The fresh game start publishes an empty leaderboard.
	readType(t, boards, "leaderboard")

	// Answer over the leaderboard socket; the player comes from the query.
	if err := boards.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]string{"questionId": "0", "choiceId": "1"},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	seenResult, seenBoard := false, false
	for i := 0; i < 2; i++ {
		m := readType(t, boards, "")
		switch m.Type {
		case "answerResult":
			seenResult = true
		case "leaderboard":
			var board domain.Leaderboard
			_ = json.Unmarshal(m.Payload, &board)
			if len(board.Entries) != 1 || board.Entries[0].Points != 1 {
				t.Fatalf("unexpected leaderboard %+v", board)
			}
			seenBoard = true
		}
	}
	if !seenResult || !seenBoard {
		t.Fatalf("expected answerResult and leaderboard, got result=%v board=%v", seenResult, seenBoard)
	}

	if err := questions.WriteJSON(map[string]string{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readType(t, questions, "error")
}

func TestQuizWebSocketRejectsBadRequests(t *testing.T) {
	srv := newQuizServer(t)
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	for _, path := range []string{"/ws", "/ws?quizId=0&topic=chat", "/ws?quizId=nope"} {
		_, resp, err := websocket.DefaultDialer.Dial(base+path, nil)
		if err == nil {
			t.Fatalf("expected dial of %s to fail", path)
		}
		if resp == nil || resp.StatusCode < 400 {
			t.Fatalf("expected error status for %s, got %+v", path, resp)
		}
	}
}

func TestPlayerHTTP(t *testing.T) {
	var seq atomic.Int64
	players := app.NewPlayerService(app.WithIDGenerator(func() string {
		return fmt.Sprintf("p%d", seq.Add(1))
	}))
	srv := httptest.NewServer(NewPlayerRouter(NewPlayerHandler(players, nil), nil))
	t.Cleanup(srv.Close)

	stream := dial(t, srv, "/ws?quizId=0")

	var player domain.Player
	do(t, srv, http.MethodPost, "/players", `{"userName":"alice","quizId":"0"}`, nil, http.StatusCreated, &player)
	if player.ID != "p1" || player.Name != "alice" {
		t.Fatalf("unexpected player %+v", player)
	}
	do(t, srv, http.MethodPost, "/players", `{"userName":"ALICE","quizId":"0"}`, nil, http.StatusConflict, nil)
	do(t, srv, http.MethodPost, "/players", `{"userName":"  ","quizId":"0"}`, nil, http.StatusBadRequest, nil)

	msg := readType(t, stream, "players")
	var list []domain.Player
	if err := json.Unmarshal(msg.Payload, &list); err != nil || len(list) != 1 || list[0].ID != "p1" {
		t.Fatalf("unexpected players payload %s (%v)", msg.Payload, err)
	}

	do(t, srv, http.MethodGet, "/players/p1", "", nil, http.StatusOK, &player)
	do(t, srv, http.MethodGet, "/players/p9", "", nil, http.StatusNotFound, nil)
	do(t, srv, http.MethodGet, "/quizzes/0/players", "", nil, http.StatusOK, &list)
	if len(list) != 1 {
		t.Fatalf("expected one player, got %+v", list)
	}
	do(t, srv, http.MethodPost, "/entities/player", `{"id":"p1","quizId":"0"}`, nil, http.StatusOK, nil)
	do(t, srv, http.MethodPost, "/entities/player", `{"id":"p1","quizId":"1"}`, nil, http.StatusNotFound, nil)
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	catalog, _ := app.NewCatalog([]domain.Quiz{sampleQuiz()})
	engine := app.NewQuizEngine(app.NewState(catalog), app.WithMetrics(m))
	srv := httptest.NewServer(NewQuizRouter(NewQuizHandler(engine, nil), m))
	t.Cleanup(srv.Close)

	if body := do(t, srv, http.MethodGet, "/healthz", "", nil, http.StatusOK, nil); body != "ok" {
		t.Fatalf("unexpected health body %q", body)
	}
	do(t, srv, http.MethodPost, "/quizzes/0/next", "", nil, http.StatusOK, nil)
	body := do(t, srv, http.MethodGet, "/metrics", "", nil, http.StatusOK, nil)
	for _, want := range []string{"quiz_question_advances_total 1", `quiz_http_requests_total{code="200",route="/quizzes/{id}/next"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrQuizNotFound:      http.StatusNotFound,
		domain.ErrNoCurrentQuestion: http.StatusConflict,
		domain.ErrNameTaken:         http.StatusConflict,
		domain.ErrMissingPlayer:     http.StatusUnauthorized,
		domain.ErrEmptyName:         http.StatusBadRequest,
		fmt.Errorf("boom"):          http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func newQuizServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := app.NewCatalog([]domain.Quiz{sampleQuiz()})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	engine := app.NewQuizEngine(app.NewState(catalog))
	srv := httptest.NewServer(NewQuizRouter(NewQuizHandler(engine, nil), nil))
	t.Cleanup(srv.Close)
	return srv
}

func playerHdr(id string) http.Header {
	return http.Header{playerHeader: []string{id}}
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, hdr http.Header, wantStatus int, out any) string {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d (%s)", method, path, wantStatus, resp.StatusCode, buf.String())
	}
	if out != nil {
		if err := json.Unmarshal(buf.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", buf.String(), err)
		}
	}
	return buf.String()
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readType reads the next message and checks its type unless want is empty.
func readType(t *testing.T, conn *websocket.Conn, want string) rawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg rawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if want != "" && msg.Type != want {
		t.Fatalf("expected %s message, got %s (%s)", want, msg.Type, msg.Payload)
	}
	return msg
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "0",
		Title: "Subscription quiz",
		Questions: []domain.Question{
			{
				ID:              "0",
				Title:           "How many protocols are currently supported by the router for subscriptions?",
				Choices:         []domain.Choice{{ID: "0", Text: "1"}, {ID: "1", Text: "2"}, {ID: "2", Text: "3"}},
				CorrectChoiceID: "1",
			},
			{
				ID:              "1",
				Title:           "Which protocol connects the client and the router?",
				Choices:         []domain.Choice{{ID: "0", Text: "HTTP multipart"}, {ID: "1", Text: "WebSocket"}},
				CorrectChoiceID: "0",
			},
		},
	}
}

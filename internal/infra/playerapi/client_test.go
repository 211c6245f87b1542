package playerapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-subgraphs/internal/domain"
)

func TestClientPlayerExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/entities/player" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var ref domain.EntityRef
		if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
			t.Errorf("decode: %v", err)
		}
		switch {
		case ref.ID == "p1" && ref.QuizID == "0":
			_ = json.NewEncoder(w).Encode(domain.Player{ID: "p1", Name: "alice", QuizID: "0"})
		case ref.ID == "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	if ok, err := client.PlayerExists(ctx, "0", "p1"); err != nil || !ok {
		t.Fatalf("expected p1 registered, got ok=%v err=%v", ok, err)
	}
	if ok, err := client.PlayerExists(ctx, "1", "p1"); err != nil || ok {
		t.Fatalf("expected p1 unknown in quiz 1, got ok=%v err=%v", ok, err)
	}
	if _, err := client.PlayerExists(ctx, "0", "boom"); err == nil {
		t.Fatalf("expected error on server failure")
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewClient(url, 100*time.Millisecond).PlayerExists(context.Background(), "0", "p1"); err == nil {
		t.Fatalf("expected transport error")
	}
}

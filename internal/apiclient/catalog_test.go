package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-client/internal/quiz"
)

func TestListQuizzesBuildsQuery(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		category  string
		wantQuery string
	}{
		{name: "first page omits page", page: 1, wantQuery: ""},
		{name: "later page", page: 3, wantQuery: "page=3"},
		{name: "category filter", page: 1, category: "Science", wantQuery: "categories=Science"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/quizinfo/" {
					t.Fatalf("path = %q", r.URL.Path)
				}
				if r.URL.RawQuery != tc.wantQuery {
					t.Fatalf("query = %q, want %q", r.URL.RawQuery, tc.wantQuery)
				}
				_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Q","time_limit":600,"max_score":"10.0",
					"created_at":"2026-01-02T03:04:05.123456Z"}],"meta":{"page":1,"last_page":4,"total":31}}`))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, Options{HTTPClient: server.Client()})
			list, err := client.ListQuizzes(context.Background(), tc.page, tc.category)
			if err != nil {
				t.Fatalf("ListQuizzes failed: %v", err)
			}
			if len(list.Quizzes) != 1 || list.Meta.LastPage != 4 || list.Meta.Total != 31 {
				t.Fatalf("unexpected list: %+v", list)
			}
			got := list.Quizzes[0]
			if got.MaxScore == nil || *got.MaxScore != 10 || got.CreatedAt.IsZero() {
				t.Fatalf("unexpected quiz: %+v", got)
			}
		})
	}
}

func TestCreateQuizSendsSeconds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quizinfo/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var request quizInfoRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if request.TimeLimit != 900 || request.Category == nil || *request.Category != 4 {
			t.Fatalf("unexpected request: %+v", request)
		}
		_, _ = w.Write([]byte(`{"id": 77, "name": "History", "time_limit": 900}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, Options{HTTPClient: server.Client()})
	created, err := client.CreateQuiz(context.Background(), quiz.QuizDraft{Name: "History", TimeLimitMinutes: 15, CategoryID: 4})
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}
	if created.ID != 77 {
		t.Fatalf("created id = %d", created.ID)
	}
}

func TestCreateQuestionValidatesLocally(t *testing.T) {
	client := NewHTTPClient("http://example.test", Options{HTTPClient: &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			t.Fatalf("invalid drafts must not reach the server")
			return nil, nil
		}),
	}})

	_, err := client.CreateQuestion(context.Background(), 1, quiz.QuestionDraft{Question: "x", QuestionNo: 1, Points: 1, QuestionType: quiz.QuestionSingle})
	var validationErr *quiz.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteQuizNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/quizinfo/12/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, Options{HTTPClient: server.Client()})
	if err := client.DeleteQuiz(context.Background(), 12); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

package attempt

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) NewTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticker := &fakeTicker{ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, ticker)
	return ticker
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fakeClock) latest() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

// Tick delivers one tick to the most recent ticker.
func (f *fakeClock) Tick(t *testing.T) {
	t.Helper()
	ticker := f.latest()
	if ticker == nil {
		t.Fatalf("no ticker created")
	}
	select {
	case ticker.ch <- f.Now():
	case <-time.After(time.Second):
		t.Fatalf("tick not consumed")
	}
}

type fakeGateway struct {
	mu           sync.Mutex
	timeLimit    int
	pages        map[int][]quiz.Question
	fetchErr     map[int]error
	fetchGate    map[int]chan struct{}
	fetchStarted chan int
	submitErrs   []error
	submitGate   chan struct{}
	submitCalls  []quiz.SubmitRequest
	result       quiz.SubmitResult
}

func newFakeGateway(timeLimit int) *fakeGateway {
	return &fakeGateway{
		timeLimit: timeLimit,
		pages: map[int][]quiz.Question{
			1: {
				singleQuestion(11, 101),
				multipleQuestion(12, 201),
			},
			2: {
				singleQuestion(13, 301),
			},
		},
		fetchErr:     make(map[int]error),
		fetchGate:    make(map[int]chan struct{}),
		fetchStarted: make(chan int, 16),
		result:       quiz.SubmitResult{AttemptID: "900"},
	}
}

func singleQuestion(id, firstOption int64) quiz.Question {
	return quiz.Question{
		ID:           id,
		Question:     "single",
		QuestionType: quiz.QuestionSingle,
		Points:       1,
		Options: []quiz.Option{
			{ID: firstOption, Text: "a"},
			{ID: firstOption + 1, Text: "b"},
			{ID: firstOption + 2, Text: "c"},
			{ID: firstOption + 3, Text: "d"},
		},
	}
}

func multipleQuestion(id, firstOption int64) quiz.Question {
	question := singleQuestion(id, firstOption)
	question.Question = "multiple"
	question.QuestionType = quiz.QuestionMultiple
	question.Options = append(question.Options, quiz.Option{ID: firstOption + 4, Text: "e"})
	return question
}

func (g *fakeGateway) FetchPage(ctx context.Context, quizID int64, page int) (quiz.PreviewPage, error) {
	g.mu.Lock()
	gate := g.fetchGate[page]
	err := g.fetchErr[page]
	questions := g.pages[page]
	timeLimit := g.timeLimit
	g.mu.Unlock()

	select {
	case g.fetchStarted <- page:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return quiz.PreviewPage{}, ctx.Err()
		}
	}
	if err != nil {
		return quiz.PreviewPage{}, err
	}
	return quiz.PreviewPage{
		Quiz:      quiz.QuizInfo{ID: quizID, Name: "Sample", TimeLimit: timeLimit},
		Questions: questions,
		Meta:      quiz.PageMeta{Page: page, LastPage: 2, Total: 3},
	}, nil
}

func (g *fakeGateway) Submit(_ context.Context, request quiz.SubmitRequest) (quiz.SubmitResult, error) {
	g.mu.Lock()
	g.submitCalls = append(g.submitCalls, request)
	idx := len(g.submitCalls) - 1
	var err error
	if idx < len(g.submitErrs) {
		err = g.submitErrs[idx]
	}
	gate := g.submitGate
	result := g.result
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return quiz.SubmitResult{}, err
	}
	return result, nil
}

func (g *fakeGateway) calls() []quiz.SubmitRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]quiz.SubmitRequest{}, g.submitCalls...)
}

type harness struct {
	clock      *fakeClock
	gateway    *fakeGateway
	repo       *session.Repository
	controller *Controller
	events     chan Event
}

func newHarness(t *testing.T, timeLimit int) *harness {
	t.Helper()
	h := &harness{
		clock:   newFakeClock(),
		gateway: newFakeGateway(timeLimit),
		repo:    session.NewRepository(session.NewMemoryBackend(), nil),
		events:  make(chan Event, 64),
	}
	return h
}

// open builds the controller after the test has seeded the store.
func (h *harness) open(t *testing.T) (*Controller, Decision, error) {
	t.Helper()
	h.controller = NewController(7, h.gateway, h.repo, Options{
		Clock: h.clock,
		OnEvent: func(event Event) {
			select {
			case h.events <- event:
			default:
			}
		},
	})
	t.Cleanup(h.controller.Close)
	decision, err := h.controller.Open(context.Background())
	return h.controller, decision, err
}

func (h *harness) seed(record session.Record) {
	h.repo.Save(context.Background(), 7, record)
}

func (h *harness) stored(t *testing.T) (session.Record, bool) {
	t.Helper()
	return h.repo.Load(context.Background(), 7)
}

func (h *harness) waitEvent(t *testing.T, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-h.events:
			if event.Kind == kind {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event %d", kind)
		}
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

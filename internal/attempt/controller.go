package attempt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-client/internal/logger"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
)

var (
	ErrNotActive       = errors.New("attempt is not active")
	ErrDone            = errors.New("attempt already submitted")
	ErrClosed          = errors.New("attempt closed")
	ErrSuperseded      = errors.New("page fetch superseded by a newer request")
	ErrPageUnavailable = errors.New("current page failed to load; change page to retry")
)

type State int

const (
	StateInit State = iota
	StateFresh
	StatePromptResume
	StateAutoSubmitting
	StateActive
	StateSubmitting
	StateDone
	StateExited
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFresh:
		return "fresh"
	case StatePromptResume:
		return "prompt-resume"
	case StateAutoSubmitting:
		return "auto-submitting"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// Gateway is the remote side of an attempt.
type Gateway interface {
	FetchPage(ctx context.Context, quizID int64, page int) (quiz.PreviewPage, error)
	Submit(ctx context.Context, request quiz.SubmitRequest) (quiz.SubmitResult, error)
}

// Store persists the attempt record; *session.Repository implements it.
type Store interface {
	Load(ctx context.Context, quizID int64) (session.Record, bool)
	Save(ctx context.Context, quizID int64, record session.Record)
	Delete(ctx context.Context, quizID int64)
	DeleteAllSessions(ctx context.Context)
}

type EventKind int

const (
	EventTick EventKind = iota
	EventExpired
	EventSubmitted
	EventSubmitFailed
)

// Event is delivered to Options.OnEvent from the countdown goroutine or the
// goroutine that ran the submit.
type Event struct {
	Kind      EventKind
	Remaining time.Duration
	Result    quiz.SubmitResult
	Err       error
}

type Options struct {
	Clock   Clock
	Logger  *logger.Logger
	OnEvent func(Event)
}

// Decision is the outcome of Open.
type Decision struct {
	State         State
	AnsweredCount int
	Remaining     time.Duration
	HasDeadline   bool
	// AutoSubmitted is set when the stored deadline had already passed and
	// Open submitted the stored answers itself.
	AutoSubmitted bool
	Result        quiz.SubmitResult
}

type QuestionView struct {
	quiz.Question
	Selected []int64
	Revealed bool
}

type PageView struct {
	Quiz      quiz.QuizInfo
	Page      int
	Meta      quiz.PageMeta
	Questions []QuestionView
}

type SubmitOutcome struct {
	quiz.SubmitResult
	// Shared is true when this call joined a submit already in flight.
	Shared bool
}

// Controller drives one attempt at one quiz. All methods are safe for
// concurrent use; the countdown fires auto-submits from its own goroutine.
type Controller struct {
	quizID  int64
	gateway Gateway
	store   Store
	clock   Clock
	log     *logger.Logger
	onEvent func(Event)

	baseCtx    context.Context
	cancelBase context.CancelFunc
	countdown  *Countdown
	submits    singleflight.Group

	mu           sync.Mutex
	state        State
	closed       bool
	record       session.Record
	quizInfo     quiz.QuizInfo
	page         *quiz.PreviewPage
	pageNo       int
	pageErr      error
	questions    map[int64]quiz.Question
	fetchSeq     uint64
	cancelFetch  context.CancelFunc
	expiredFired bool
}

func NewController(quizID int64, gateway Gateway, store Store, opts Options) *Controller {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		quizID:     quizID,
		gateway:    gateway,
		store:      store,
		clock:      clock,
		log:        log.With("component", "attempt.Controller", "quiz_id", quizID),
		onEvent:    opts.OnEvent,
		baseCtx:    baseCtx,
		cancelBase: cancel,
		state:      StateInit,
		record:     session.NewRecord(),
		questions:  make(map[int64]quiz.Question),
	}
	c.countdown = NewCountdown(clock, c.handleTick, c.handleExpired)
	return c
}

func (c *Controller) QuizID() int64 { return c.quizID }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Record returns a copy of the in-memory session record.
func (c *Controller) Record() session.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// Open inspects the stored record and decides how the attempt starts. An
// expired record is submitted straight away without asking the user.
func (c *Controller) Open(ctx context.Context) (Decision, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Decision{}, ErrClosed
	}
	if c.state != StateInit {
		c.mu.Unlock()
		return Decision{}, fmt.Errorf("%w: open called in state %s", ErrNotActive, c.state)
	}

	record, ok := c.store.Load(ctx, c.quizID)
	now := c.clock.Now()
	switch {
	case !ok:
		c.state = StateFresh
	case record.Submitted:
		c.store.Delete(ctx, c.quizID)
		c.state = StateFresh
	case record.Expired(now):
		record.PendingSubmit = false
		c.record = record
		c.state = StateAutoSubmitting
		c.expiredFired = true
	case record.AnsweredCount() > 0 || record.Deadline > 0:
		record.PendingSubmit = false
		c.record = record
		c.state = StatePromptResume
	default:
		c.store.Delete(ctx, c.quizID)
		c.state = StateFresh
	}

	decision := Decision{State: c.state}
	if c.state == StatePromptResume {
		decision.AnsweredCount = c.record.AnsweredCount()
		if deadline, ok := c.record.DeadlineTime(); ok {
			decision.HasDeadline = true
			decision.Remaining = Remaining(deadline, now)
		}
	}
	autoSubmit := c.state == StateAutoSubmitting
	c.mu.Unlock()

	c.log.Debug("attempt opened", "state", decision.State.String(), "session_id", record.SessionID)
	if !autoSubmit {
		return decision, nil
	}

	outcome, err := c.Submit(ctx, true)
	decision.AutoSubmitted = true
	decision.State = c.State()
	decision.Result = outcome.SubmitResult
	return decision, err
}

// Start begins a fresh attempt on the first page.
func (c *Controller) Start(ctx context.Context) (PageView, error) {
	c.mu.Lock()
	if c.state != StateFresh {
		state := c.state
		c.mu.Unlock()
		return PageView{}, fmt.Errorf("%w: start called in state %s", ErrNotActive, state)
	}
	c.state = StateActive
	c.mu.Unlock()
	return c.GoToPage(ctx, 1)
}

// Resume continues the stored attempt with its answers and deadline.
func (c *Controller) Resume(ctx context.Context) (PageView, error) {
	c.mu.Lock()
	if c.state != StatePromptResume {
		state := c.state
		c.mu.Unlock()
		return PageView{}, fmt.Errorf("%w: resume called in state %s", ErrNotActive, state)
	}
	c.state = StateActive
	page := c.record.CurrentPage
	if page < 1 {
		page = 1
	}
	deadline, hasDeadline := c.record.DeadlineTime()
	c.mu.Unlock()

	if hasDeadline {
		c.countdown.Reset(deadline)
	}
	return c.GoToPage(ctx, page)
}

// Restart discards the stored attempt and starts a new one.
func (c *Controller) Restart(ctx context.Context) (PageView, error) {
	c.mu.Lock()
	if c.state != StatePromptResume {
		state := c.state
		c.mu.Unlock()
		return PageView{}, fmt.Errorf("%w: restart called in state %s", ErrNotActive, state)
	}
	c.store.Delete(ctx, c.quizID)
	c.record = session.NewRecord()
	c.questions = make(map[int64]quiz.Question)
	c.state = StateFresh
	c.mu.Unlock()

	c.countdown.Stop()
	return c.Start(ctx)
}

// Exit leaves the attempt without touching the stored record.
func (c *Controller) Exit() {
	c.mu.Lock()
	if c.state != StateDone {
		c.state = StateExited
	}
	c.mu.Unlock()
	c.Close()
}

// GoToPage fetches a page of questions. A newer call cancels an older one
// still in flight, and the older call returns ErrSuperseded without
// touching state.
func (c *Controller) GoToPage(ctx context.Context, page int) (PageView, error) {
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return PageView{}, ErrClosed
	}
	if c.state != StateActive {
		state := c.state
		c.mu.Unlock()
		if state == StateDone {
			return PageView{}, ErrDone
		}
		return PageView{}, fmt.Errorf("%w: state %s", ErrNotActive, state)
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	c.fetchSeq++
	seq := c.fetchSeq
	fetchCtx, cancel := context.WithCancel(ctx)
	stopOnClose := context.AfterFunc(c.baseCtx, cancel)
	c.cancelFetch = cancel
	c.mu.Unlock()

	preview, err := c.gateway.FetchPage(fetchCtx, c.quizID, page)
	stopOnClose()

	c.mu.Lock()
	if seq != c.fetchSeq {
		c.mu.Unlock()
		cancel()
		c.log.Debug("dropping superseded page fetch", "page", page)
		return PageView{}, ErrSuperseded
	}
	c.cancelFetch = nil
	cancel()

	if c.closed {
		c.mu.Unlock()
		return PageView{}, ErrClosed
	}
	if c.state != StateActive {
		state := c.state
		c.mu.Unlock()
		if state == StateDone {
			return PageView{}, ErrDone
		}
		return PageView{}, fmt.Errorf("%w: state %s", ErrNotActive, state)
	}
	if err != nil {
		c.page = nil
		c.pageNo = page
		c.pageErr = err
		c.mu.Unlock()
		c.log.Warn("page fetch failed", "page", page, "error", err)
		return PageView{}, err
	}

	c.page = &preview
	c.pageNo = page
	c.pageErr = nil
	c.quizInfo = preview.Quiz
	for _, question := range preview.Questions {
		c.questions[question.ID] = question
	}
	c.record.PageQuestionIDs[page] = preview.QuestionIDs()
	c.record.CurrentPage = page

	// The deadline is fixed by the first page that reports a time limit and
	// never moves afterwards.
	if c.record.Deadline == 0 && preview.Quiz.TimeLimit > 0 {
		c.record.SetDeadline(c.clock.Now().Add(time.Duration(preview.Quiz.TimeLimit) * time.Second))
	}
	deadline, hasDeadline := c.record.DeadlineTime()
	restartCountdown := hasDeadline && !c.expiredFired
	c.store.Save(ctx, c.quizID, c.record)
	view := c.viewLocked()
	c.mu.Unlock()

	if restartCountdown {
		c.countdown.Reset(deadline)
	}
	return view, nil
}

// View returns the current page, or the error from its failed fetch.
func (c *Controller) View() (PageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		if c.pageErr != nil {
			return PageView{}, fmt.Errorf("%w: %v", ErrPageUnavailable, c.pageErr)
		}
		return PageView{}, ErrPageUnavailable
	}
	return c.viewLocked(), nil
}

func (c *Controller) viewLocked() PageView {
	view := PageView{
		Quiz:      c.page.Quiz,
		Page:      c.pageNo,
		Meta:      c.page.Meta,
		Questions: make([]QuestionView, 0, len(c.page.Questions)),
	}
	for _, question := range c.page.Questions {
		view.Questions = append(view.Questions, QuestionView{
			Question: question,
			Selected: append([]int64{}, c.record.Answers[question.ID]...),
			Revealed: c.record.Revealed[question.ID],
		})
	}
	return view
}

// Select applies a pick on a question of the current page and persists the
// new selection immediately.
func (c *Controller) Select(ctx context.Context, questionID, optionID int64) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	question, err := c.currentQuestionLocked(questionID)
	if err != nil {
		return nil, err
	}
	if !question.HasOption(optionID) {
		return nil, quiz.ErrUnknownOption
	}

	selected := ApplySelection(question.QuestionType, c.record.Answers[questionID], optionID)
	c.record.Answers[questionID] = selected
	c.store.Save(ctx, c.quizID, c.record)
	return append([]int64{}, selected...), nil
}

// Reveal marks a question's answer as shown. It cannot be undone.
func (c *Controller) Reveal(ctx context.Context, questionID int64) (quiz.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	question, err := c.currentQuestionLocked(questionID)
	if err != nil {
		return quiz.Question{}, err
	}
	if !c.record.Revealed[questionID] {
		c.record.Revealed[questionID] = true
		c.store.Save(ctx, c.quizID, c.record)
	}
	return question, nil
}

func (c *Controller) currentQuestionLocked(questionID int64) (quiz.Question, error) {
	switch {
	case c.closed:
		return quiz.Question{}, ErrClosed
	case c.state == StateDone:
		return quiz.Question{}, ErrDone
	case c.state != StateActive:
		return quiz.Question{}, fmt.Errorf("%w: state %s", ErrNotActive, c.state)
	case c.page == nil:
		return quiz.Question{}, ErrPageUnavailable
	}
	for _, question := range c.page.Questions {
		if question.ID == questionID {
			return question, nil
		}
	}
	return quiz.Question{}, quiz.ErrUnknownQuestion
}

// PageAnswered reports whether any question recorded for page has a
// non-empty selection.
func (c *Controller) PageAnswered(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, questionID := range c.record.PageQuestionIDs[page] {
		if len(c.record.Answers[questionID]) > 0 {
			return true
		}
	}
	return false
}

// Remaining is the time left on the attempt, or false when the quiz has no
// time limit yet.
func (c *Controller) Remaining() (time.Duration, bool) {
	c.mu.Lock()
	deadline, ok := c.record.DeadlineTime()
	c.mu.Unlock()
	if !ok {
		return 0, false
	}
	return Remaining(deadline, c.clock.Now()), true
}

// Submit sends every known question with its selection. Concurrent calls
// share one request to the gateway.
func (c *Controller) Submit(ctx context.Context, finish bool) (SubmitOutcome, error) {
	key := strconv.FormatInt(c.quizID, 10)
	value, err, shared := c.submits.Do(key, func() (any, error) {
		return c.submit(ctx, finish)
	})
	if err != nil {
		return SubmitOutcome{Shared: shared}, err
	}
	return SubmitOutcome{SubmitResult: value.(quiz.SubmitResult), Shared: shared}, nil
}

func (c *Controller) submit(ctx context.Context, finish bool) (quiz.SubmitResult, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return quiz.SubmitResult{}, ErrClosed
	case c.state == StateDone:
		c.mu.Unlock()
		return quiz.SubmitResult{}, ErrDone
	case c.state != StateActive && c.state != StateAutoSubmitting:
		state := c.state
		c.mu.Unlock()
		return quiz.SubmitResult{}, fmt.Errorf("%w: submit called in state %s", ErrNotActive, state)
	}

	c.state = StateSubmitting
	c.record.PendingSubmit = true
	c.store.Save(ctx, c.quizID, c.record)
	request := quiz.SubmitRequest{
		QuizID:  c.quizID,
		Finish:  finish,
		Answers: c.answersLocked(),
	}
	sessionID := c.record.SessionID
	c.mu.Unlock()

	c.log.Info("submitting attempt", "session_id", sessionID, "answers", len(request.Answers), "finish", finish)
	result, err := c.gateway.Submit(ctx, request)

	c.mu.Lock()
	if err != nil {
		c.record.PendingSubmit = false
		c.state = StateActive
		if !c.closed {
			c.store.Save(ctx, c.quizID, c.record)
		}
		c.mu.Unlock()
		c.log.Warn("submit failed", "session_id", sessionID, "error", err)
		c.emit(Event{Kind: EventSubmitFailed, Err: err})
		return quiz.SubmitResult{}, err
	}

	c.state = StateDone
	c.record.Submitted = true
	c.record.PendingSubmit = false
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	// Marked before removal so a failed delete can never be resumed.
	c.store.Save(ctx, c.quizID, c.record)
	c.mu.Unlock()

	c.countdown.Stop()
	c.store.Delete(ctx, c.quizID)
	c.store.DeleteAllSessions(ctx)
	c.log.Info("attempt submitted", "session_id", sessionID, "attempt_id", result.AttemptID)
	c.emit(Event{Kind: EventSubmitted, Result: result})
	return result, nil
}

// answersLocked lists every question seen in this attempt, in page order,
// with an empty selection for unanswered ones.
func (c *Controller) answersLocked() []quiz.SubmitAnswer {
	seen := make(map[int64]bool)
	var ordered []int64

	pages := make([]int, 0, len(c.record.PageQuestionIDs))
	for page := range c.record.PageQuestionIDs {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	for _, page := range pages {
		for _, questionID := range c.record.PageQuestionIDs[page] {
			if !seen[questionID] {
				seen[questionID] = true
				ordered = append(ordered, questionID)
			}
		}
	}

	var extra []int64
	for questionID := range c.questions {
		if !seen[questionID] {
			seen[questionID] = true
			extra = append(extra, questionID)
		}
	}
	for questionID := range c.record.Answers {
		if !seen[questionID] {
			seen[questionID] = true
			extra = append(extra, questionID)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	ordered = append(ordered, extra...)

	answers := make([]quiz.SubmitAnswer, 0, len(ordered))
	for _, questionID := range ordered {
		answers = append(answers, quiz.SubmitAnswer{
			QuestionID:        questionID,
			SelectedOptionIDs: append([]int64{}, c.record.Answers[questionID]...),
		})
	}
	return answers
}

// Close stops the countdown and cancels in-flight work. No auto-submit can
// start once Close has returned.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	c.mu.Unlock()

	c.countdown.Stop()
	c.cancelBase()
}

func (c *Controller) handleTick(remaining time.Duration) {
	c.mu.Lock()
	live := !c.closed && c.state == StateActive
	c.mu.Unlock()
	if live {
		c.emit(Event{Kind: EventTick, Remaining: remaining})
	}
}

func (c *Controller) handleExpired() {
	c.mu.Lock()
	if c.closed || c.state != StateActive || c.expiredFired {
		c.mu.Unlock()
		return
	}
	c.expiredFired = true
	c.mu.Unlock()

	c.log.Info("time limit reached, submitting")
	c.emit(Event{Kind: EventExpired})
	_, _ = c.Submit(c.baseCtx, true)
}

func (c *Controller) emit(event Event) {
	if c.onEvent != nil {
		c.onEvent(event)
	}
}

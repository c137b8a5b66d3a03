package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quiz-client/internal/attempt"
	"quiz-client/internal/quiz"
)

// Countdown ticks are only printed at these marks; "time" shows the rest.
var countdownMarks = map[time.Duration]bool{
	5 * time.Minute:  true,
	time.Minute:      true,
	30 * time.Second: true,
	10 * time.Second: true,
}

type takeSession struct {
	app        *app
	controller *attempt.Controller
	events     chan attempt.Event
	view       attempt.PageView
	hasView    bool
	expired    bool
}

func (a *app) runTake(ctx context.Context, quizID int64) error {
	t := &takeSession{app: a, events: make(chan attempt.Event, 16)}
	t.controller = attempt.NewController(quizID, a.client, a.sessions, attempt.Options{
		Logger:  a.log,
		OnEvent: t.forward,
	})
	defer t.controller.Close()

	decision, err := t.controller.Open(ctx)
	if decision.AutoSubmitted {
		fmt.Fprintln(a.out, "Time ran out on your previous attempt; it was submitted automatically.")
		if err == nil {
			t.printSubmitted(decision.Result)
			return nil
		}
		fmt.Fprintf(a.out, "Automatic submit failed: %v\nType 'submit' to try again.\n", describeClientError(err, a.serverURL))
		t.expired = true
		t.load(ctx, t.controller.Record().CurrentPage)
		return t.loop(ctx)
	}
	if err != nil {
		return err
	}

	switch decision.State {
	case attempt.StatePromptResume:
		fmt.Fprintln(a.out, "You have an unfinished attempt for this quiz.")
		fmt.Fprintf(a.out, "Answered questions: %d\n", decision.AnsweredCount)
		if decision.HasDeadline {
			fmt.Fprintf(a.out, "Time remaining: %s\n", attempt.FormatRemaining(decision.Remaining))
		}
		choice, err := promptChoice(ctx, a.input, a.out, "resume, restart or exit? ", "resume", "restart", "exit")
		if err != nil {
			return err
		}
		switch choice {
		case "resume":
			t.show(t.controller.Resume(ctx))
		case "restart":
			t.show(t.controller.Restart(ctx))
		default:
			t.controller.Exit()
			return nil
		}
	case attempt.StateFresh:
		t.show(t.controller.Start(ctx))
	default:
		return fmt.Errorf("unexpected attempt state %s", decision.State)
	}

	return t.loop(ctx)
}

// forward runs on controller goroutines; the attempt loop does the printing.
func (t *takeSession) forward(event attempt.Event) {
	if event.Kind == attempt.EventTick && !countdownMarks[event.Remaining] {
		return
	}
	select {
	case t.events <- event:
	default:
	}
}

func (t *takeSession) loop(ctx context.Context) error {
	out := t.app.out
	for {
		fmt.Fprint(out, "\nattempt> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-t.events:
			fmt.Fprintln(out)
			if done := t.handleEvent(event); done {
				return nil
			}
		case line, ok := <-t.app.input.Lines():
			if !ok {
				return io.EOF
			}
			if line.err != nil {
				return line.err
			}
			done, err := t.command(ctx, strings.Fields(line.text))
			if err != nil {
				if errors.Is(err, io.EOF) {
					return err
				}
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, t.app.serverURL))
			}
			if done {
				return nil
			}
		}
	}
}

func (t *takeSession) handleEvent(event attempt.Event) bool {
	out := t.app.out
	switch event.Kind {
	case attempt.EventTick:
		fmt.Fprintf(out, "%s remaining.\n", attempt.FormatRemaining(event.Remaining))
	case attempt.EventExpired:
		t.expired = true
		fmt.Fprintln(out, "Time is up. Submitting your answers...")
	case attempt.EventSubmitted:
		if t.expired {
			t.printSubmitted(event.Result)
			return true
		}
	case attempt.EventSubmitFailed:
		if t.expired {
			fmt.Fprintf(out, "Automatic submit failed: %v\nType 'submit' to try again.\n", describeClientError(event.Err, t.app.serverURL))
		}
	}
	return false
}

func (t *takeSession) command(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	out := t.app.out

	switch strings.ToLower(args[0]) {
	case "help":
		printTakeHelp(out)
	case "show":
		view, err := t.controller.View()
		t.show(view, err)
	case "pick":
		if len(args) != 3 {
			fmt.Fprintln(out, "usage: pick <question_number> <letter>")
			return false, nil
		}
		return false, t.pick(ctx, args[1], args[2])
	case "reveal":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: reveal <question_number>")
			return false, nil
		}
		return false, t.reveal(ctx, args[1])
	case "page":
		page, err := parsePositiveLimit(args, 1, 0)
		if err != nil || page == 0 {
			fmt.Fprintln(out, "usage: page <n>")
			return false, nil
		}
		t.load(ctx, page)
	case "next", "prev":
		if !t.hasView {
			fmt.Fprintln(out, "No page loaded; use 'page <n>'.")
			return false, nil
		}
		page := t.view.Page + 1
		if strings.EqualFold(args[0], "prev") {
			page = t.view.Page - 1
		}
		if page < 1 || page > t.view.Meta.LastPage {
			fmt.Fprintln(out, "No more pages in that direction.")
			return false, nil
		}
		t.load(ctx, page)
	case "time":
		remaining, ok := t.controller.Remaining()
		if !ok {
			fmt.Fprintln(out, "This quiz has no time limit.")
			return false, nil
		}
		fmt.Fprintf(out, "%s remaining.\n", attempt.FormatRemaining(remaining))
	case "submit":
		confirmed, err := promptYesNo(ctx, t.app.input, out, "Submit your answers now? (yes/no): ")
		if err != nil || !confirmed {
			return false, err
		}
		outcome, err := t.controller.Submit(ctx, true)
		if err != nil {
			if errors.Is(err, attempt.ErrDone) {
				fmt.Fprintln(out, "This attempt was already submitted.")
				return true, nil
			}
			return false, fmt.Errorf("submit failed, your answers are kept: %w", err)
		}
		t.printSubmitted(outcome.SubmitResult)
		return true, nil
	case "leave":
		fmt.Fprintln(out, "Attempt saved. Use 'take' again to resume.")
		return true, nil
	default:
		fmt.Fprintln(out, "unknown attempt command. type 'help' for usage.")
	}
	return false, nil
}

func (t *takeSession) load(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	t.show(t.controller.GoToPage(ctx, page))
}

func (t *takeSession) show(view attempt.PageView, err error) {
	if err != nil {
		if errors.Is(err, attempt.ErrSuperseded) {
			return
		}
		fmt.Fprintf(t.app.out, "Could not load questions: %v\n", describeClientError(err, t.app.serverURL))
		fmt.Fprintln(t.app.out, "Use 'page <n>' to retry.")
		return
	}
	t.view = view
	t.hasView = true
	t.render()
}

func (t *takeSession) questionAt(raw string) (attempt.QuestionView, error) {
	if !t.hasView {
		return attempt.QuestionView{}, attempt.ErrPageUnavailable
	}
	position, err := strconv.Atoi(raw)
	if err != nil || position < 1 || position > len(t.view.Questions) {
		return attempt.QuestionView{}, fmt.Errorf("question number must be between 1 and %d", len(t.view.Questions))
	}
	return t.view.Questions[position-1], nil
}

func (t *takeSession) pick(ctx context.Context, position, letter string) error {
	question, err := t.questionAt(position)
	if err != nil {
		return err
	}
	index := quiz.LetterIndex(letter, len(question.Options))
	if index < 0 {
		return fmt.Errorf("answer must be a letter from A to %s", quiz.OptionLetter(len(question.Options)-1))
	}

	selected, err := t.controller.Select(ctx, question.ID, question.Options[index].ID)
	if err != nil {
		return err
	}
	t.refreshSelection(question.ID, selected, false)
	fmt.Fprintf(t.app.out, "Question %s: %s\n", position, describeSelection(question.Question, selected))
	return nil
}

func (t *takeSession) reveal(ctx context.Context, position string) error {
	question, err := t.questionAt(position)
	if err != nil {
		return err
	}
	revealed, err := t.controller.Reveal(ctx, question.ID)
	if err != nil {
		return err
	}
	t.refreshSelection(question.ID, question.Selected, true)
	printReveal(t.app.out, revealed)
	return nil
}

func (t *takeSession) refreshSelection(questionID int64, selected []int64, revealed bool) {
	for idx := range t.view.Questions {
		if t.view.Questions[idx].ID != questionID {
			continue
		}
		t.view.Questions[idx].Selected = selected
		if revealed {
			t.view.Questions[idx].Revealed = true
		}
	}
}

func (t *takeSession) render() {
	out := t.app.out
	view := t.view

	header := view.Quiz.Name + categorySuffix(view.Quiz)
	if remaining, ok := t.controller.Remaining(); ok {
		header += "  time left " + attempt.FormatRemaining(remaining)
	}
	fmt.Fprintln(out, header)
	fmt.Fprintf(out, "Page %d of %d (%d questions)\n", view.Page, view.Meta.LastPage, view.Meta.Total)

	for idx, question := range view.Questions {
		fmt.Fprintln(out)
		kind := "choose one"
		if question.QuestionType == quiz.QuestionMultiple {
			kind = "choose all that apply"
		}
		fmt.Fprintf(out, "%d. %s\n   (question %d, %s points, %s)\n",
			idx+1, question.Question.Question, question.QuestionNo, formatScore(question.Points), kind)
		for optionIdx, option := range question.Options {
			mark := " "
			if containsID(question.Selected, option.ID) {
				mark = "x"
			}
			fmt.Fprintf(out, "   [%s] %s. %s\n", mark, quiz.OptionLetter(optionIdx), option.Text)
		}
		if question.Revealed {
			printReveal(out, question.Question)
		}
	}

	fmt.Fprintf(out, "\nPages: %s  (* answered)\n", renderPagination(view.Page, view.Meta.LastPage, t.controller.PageAnswered))
}

func printReveal(out io.Writer, question quiz.Question) {
	var correct []string
	for idx, option := range question.Options {
		if option.IsCorrect != nil && *option.IsCorrect {
			correct = append(correct, quiz.OptionLetter(idx))
		}
	}
	if len(correct) == 0 {
		fmt.Fprintln(out, "   Correct answer: not available")
	} else {
		fmt.Fprintf(out, "   Correct answer: %s\n", strings.Join(correct, ", "))
	}
	if strings.TrimSpace(question.Explanation) != "" {
		fmt.Fprintf(out, "   Explanation: %s\n", question.Explanation)
	}
}

func (t *takeSession) printSubmitted(result quiz.SubmitResult) {
	out := t.app.out
	if result.AttemptID != "" {
		fmt.Fprintf(out, "Submitted. Review it with: review %s\n", result.AttemptID)
		return
	}
	fmt.Fprintln(out, result.Message)
}

func describeSelection(question quiz.Question, selected []int64) string {
	if len(selected) == 0 {
		return "no answer selected"
	}
	letters := make([]string, 0, len(selected))
	for idx, option := range question.Options {
		if containsID(selected, option.ID) {
			letters = append(letters, quiz.OptionLetter(idx))
		}
	}
	return "selected " + strings.Join(letters, ", ")
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func printTakeHelp(out io.Writer) {
	fmt.Fprintln(out, "Attempt commands:")
	fmt.Fprintln(out, "  show")
	fmt.Fprintln(out, "  pick <question_number> <letter>")
	fmt.Fprintln(out, "  reveal <question_number>")
	fmt.Fprintln(out, "  page <n> | next | prev")
	fmt.Fprintln(out, "  time")
	fmt.Fprintln(out, "  submit")
	fmt.Fprintln(out, "  leave")
}

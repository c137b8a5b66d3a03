package quiz

import (
	"errors"
	"strings"
	"testing"
)

func singleDraft() QuestionDraft {
	return QuestionDraft{
		Question:     "Capital of France?",
		QuestionNo:   1,
		QuestionType: QuestionSingle,
		Points:       1,
		Options: []OptionDraft{
			{Text: "Berlin"},
			{Text: "Paris", IsCorrect: true},
			{Text: "Rome"},
			{Text: "Madrid"},
		},
	}
}

func multipleDraft() QuestionDraft {
	return QuestionDraft{
		Question:     "Prime numbers?",
		QuestionNo:   2,
		QuestionType: QuestionMultiple,
		Points:       2,
		Options: []OptionDraft{
			{Text: "2", IsCorrect: true},
			{Text: "3", IsCorrect: true},
			{Text: "4"},
			{Text: "5", IsCorrect: true},
			{Text: "6"},
		},
	}
}

func TestValidateQuestionAcceptsWellFormedDrafts(t *testing.T) {
	if err := ValidateQuestion(singleDraft()); err != nil {
		t.Fatalf("single draft rejected: %v", err)
	}
	if err := ValidateQuestion(multipleDraft()); err != nil {
		t.Fatalf("multiple draft rejected: %v", err)
	}
}

func TestValidateQuestionRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestionDraft)
		want   string
	}{
		{name: "empty text", mutate: func(d *QuestionDraft) { d.Question = " " }, want: "Question text is required"},
		{name: "zero points", mutate: func(d *QuestionDraft) { d.Points = 0 }, want: "Points must be a positive integer"},
		{name: "bad number", mutate: func(d *QuestionDraft) { d.QuestionNo = -1 }, want: "Question no must be positive integer"},
		{name: "unknown type", mutate: func(d *QuestionDraft) { d.QuestionType = "essay" }, want: "Question type must be"},
		{name: "too few options", mutate: func(d *QuestionDraft) { d.Options = d.Options[:3] }, want: "requires exactly 4 options"},
		{name: "blank option", mutate: func(d *QuestionDraft) { d.Options[0].Text = "" }, want: "All options must have text"},
		{name: "two correct", mutate: func(d *QuestionDraft) { d.Options[0].IsCorrect = true }, want: "exactly one correct option"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := singleDraft()
			tc.mutate(&draft)

			err := ValidateQuestion(draft)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateQuestionMultipleNeedsACorrectOption(t *testing.T) {
	draft := multipleDraft()
	for idx := range draft.Options {
		draft.Options[idx].IsCorrect = false
	}
	if err := ValidateQuestion(draft); err == nil || !strings.Contains(err.Error(), "at least one correct option") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateQuizNumbersQuestionsAndReportsPosition(t *testing.T) {
	first := singleDraft()
	first.QuestionNo = 0
	second := multipleDraft()
	second.QuestionNo = 0
	second.Options = second.Options[:4]

	draft := QuizDraft{
		Name:             "Geography",
		TimeLimitMinutes: 10,
		Questions:        []QuestionDraft{first, second},
	}

	err := ValidateQuiz(&draft)
	if err == nil || !strings.HasPrefix(err.Error(), "question 2:") {
		t.Fatalf("expected failure on question 2, got %v", err)
	}
	if draft.Questions[0].QuestionNo != 1 || draft.Questions[1].QuestionNo != 2 {
		t.Fatalf("questions not numbered: %+v", draft.Questions)
	}
	if draft.TimeLimitSeconds() != 600 {
		t.Fatalf("time limit seconds = %d, want 600", draft.TimeLimitSeconds())
	}
}

func TestValidateQuizRequiresQuestionsAndTimeLimit(t *testing.T) {
	if err := ValidateQuiz(&QuizDraft{Name: "x", TimeLimitMinutes: 0}); err == nil {
		t.Fatalf("expected time limit error")
	}
	if err := ValidateQuiz(&QuizDraft{Name: "x", TimeLimitMinutes: 5}); err == nil {
		t.Fatalf("expected missing questions error")
	}
}

func TestLetterIndex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
		want  int
	}{
		{name: "trim and lowercase", input: " b ", count: 4, want: 1},
		{name: "out of range", input: "E", count: 4, want: -1},
		{name: "multiple chars", input: "AB", count: 4, want: -1},
		{name: "empty", input: "", count: 4, want: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LetterIndex(tc.input, tc.count); got != tc.want {
				t.Fatalf("LetterIndex(%q, %d) = %d, want %d", tc.input, tc.count, got, tc.want)
			}
		})
	}

	if OptionLetter(2) != "C" {
		t.Fatalf("OptionLetter(2) = %q", OptionLetter(2))
	}
}

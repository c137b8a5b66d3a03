package quiz

import (
	"fmt"
	"strings"
)

const (
	OptionsSingle   = 4
	OptionsMultiple = 5
)

// ValidationError is a client-side rejection. It is never sent to the server.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// QuizDraft is what a user types when creating or editing a quiz. The time
// limit is in minutes; the server expects seconds.
type QuizDraft struct {
	Name             string          `yaml:"name"`
	TimeLimitMinutes int             `yaml:"time_limit_minutes"`
	CategoryID       int64           `yaml:"category"`
	Questions        []QuestionDraft `yaml:"questions"`
}

func (d QuizDraft) TimeLimitSeconds() int {
	return d.TimeLimitMinutes * 60
}

// OptionDraft and QuestionDraft carry an ID only when they edit something
// that already exists on the server.
type OptionDraft struct {
	ID        int64  `yaml:"id,omitempty"`
	Text      string `yaml:"text"`
	IsCorrect bool   `yaml:"is_correct"`
}

type QuestionDraft struct {
	ID           int64         `yaml:"id,omitempty"`
	Question     string        `yaml:"question"`
	QuestionNo   int           `yaml:"question_no"`
	QuestionType QuestionType  `yaml:"type"`
	Points       int           `yaml:"points"`
	Explanation  string        `yaml:"explanation"`
	Options      []OptionDraft `yaml:"options"`
}

func RequiredOptions(questionType QuestionType) int {
	if questionType == QuestionSingle {
		return OptionsSingle
	}
	return OptionsMultiple
}

func ValidateQuizInfo(draft QuizDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return invalid("Quiz name is required")
	}
	if draft.TimeLimitMinutes <= 0 {
		return invalid("Time limit must be a positive integer (minutes)")
	}
	return nil
}

func ValidateQuestion(draft QuestionDraft) error {
	if strings.TrimSpace(draft.Question) == "" {
		return invalid("Question text is required")
	}
	if draft.QuestionNo <= 0 {
		return invalid("Question no must be positive integer")
	}
	if draft.Points <= 0 {
		return invalid("Points must be a positive integer")
	}
	if !draft.QuestionType.Valid() {
		return invalid("Question type must be %q or %q", QuestionSingle, QuestionMultiple)
	}

	required := RequiredOptions(draft.QuestionType)
	if len(draft.Options) != required {
		return invalid("This question type requires exactly %d options", required)
	}

	correct := 0
	for _, option := range draft.Options {
		if strings.TrimSpace(option.Text) == "" {
			return invalid("All options must have text")
		}
		if option.IsCorrect {
			correct++
		}
	}

	if draft.QuestionType == QuestionSingle && correct != 1 {
		return invalid("Single choice question must have exactly one correct option")
	}
	if draft.QuestionType == QuestionMultiple && correct < 1 {
		return invalid("Multiple choice question must have at least one correct option")
	}
	return nil
}

// ValidateQuiz checks quiz info and every question, numbering questions that
// were left without a question_no. The first failure is reported with the
// question position.
func ValidateQuiz(draft *QuizDraft) error {
	if err := ValidateQuizInfo(*draft); err != nil {
		return err
	}
	if len(draft.Questions) == 0 {
		return invalid("Please add at least one question before submitting")
	}

	NumberQuestions(draft.Questions)
	for idx, question := range draft.Questions {
		if err := ValidateQuestion(question); err != nil {
			return invalid("question %d: %s", idx+1, err.Error())
		}
	}
	return nil
}

func NumberQuestions(questions []QuestionDraft) {
	for idx := range questions {
		if questions[idx].QuestionNo == 0 {
			questions[idx].QuestionNo = idx + 1
		}
	}
}

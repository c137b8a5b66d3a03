package quiz

import (
	"errors"
	"time"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownOption   = errors.New("option does not belong to question")
)

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
)

func (t QuestionType) Valid() bool {
	return t == QuestionSingle || t == QuestionMultiple
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// QuizInfo is the quiz metadata as listed by the catalog. TimeLimit is in
// seconds.
type QuizInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TimeLimit int       `json:"time_limit"`
	Category  *Category `json:"category,omitempty"`
	User      *Author   `json:"user,omitempty"`
	MaxScore  *float64  `json:"max_score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Option carries IsCorrect only when the caller is allowed to see it, and
// Selected only in attempt reviews.
type Option struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
	Selected  bool   `json:"selected,omitempty"`
}

type Question struct {
	ID            int64        `json:"id"`
	Question      string       `json:"question"`
	QuestionNo    int          `json:"question_no"`
	QuestionType  QuestionType `json:"question_type"`
	Points        float64      `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
	Options       []Option     `json:"options"`
	AwardedPoints *float64     `json:"awarded_points,omitempty"`
}

func (q Question) HasOption(optionID int64) bool {
	for _, option := range q.Options {
		if option.ID == optionID {
			return true
		}
	}
	return false
}

type PageMeta struct {
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
	Total    int `json:"total"`
}

type QuizList struct {
	Quizzes []QuizInfo
	Meta    PageMeta
}

// PreviewPage is one page of questions for an attempt plus the quiz's time
// limit.
type PreviewPage struct {
	Quiz      QuizInfo
	Questions []Question
	Meta      PageMeta
}

func (p PreviewPage) QuestionIDs() []int64 {
	ids := make([]int64, 0, len(p.Questions))
	for _, question := range p.Questions {
		ids = append(ids, question.ID)
	}
	return ids
}

type SubmitAnswer struct {
	QuestionID        int64   `json:"question_id"`
	SelectedOptionIDs []int64 `json:"selected_option_ids"`
}

type SubmitRequest struct {
	QuizID  int64          `json:"quiz_info"`
	Finish  bool           `json:"finish"`
	Answers []SubmitAnswer `json:"answers"`
}

// SubmitResult holds the review identifier when the server returned one and
// the server's message otherwise.
type SubmitResult struct {
	AttemptID string
	Message   string
}

type AttemptSummary struct {
	ID           string     `json:"-"`
	Score        float64    `json:"score"`
	PercentScore float64    `json:"percent_score"`
	Duration     string     `json:"duration"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

type ReviewStats struct {
	TotalQuestions int `json:"total_questions"`
	TotalCorrect   int `json:"total_correct"`
	TotalIncorrect int `json:"total_incorrect"`
}

type Review struct {
	Quiz      QuizInfo
	Attempt   AttemptSummary
	Stats     ReviewStats
	Questions []Question
	Meta      PageMeta
}

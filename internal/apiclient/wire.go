package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"quiz-client/internal/quiz"
)

// number accepts JSON numbers and numeric strings; decimal fields arrive as
// strings from the server.
type number float64

func (n *number) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		*n = number(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	*n = number(value)
	return nil
}

// identifier accepts either a JSON number or a string.
type identifier string

func (id *identifier) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		*id = identifier(strings.TrimSpace(text))
		return nil
	}
	*id = identifier(string(raw))
	return nil
}

type quizInfoWire struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	TimeLimit number         `json:"time_limit"`
	Category  *quiz.Category `json:"category"`
	User      *quiz.Author   `json:"user"`
	MaxScore  *number        `json:"max_score"`
	CreatedAt string         `json:"created_at"`
}

func (w quizInfoWire) toDomain() quiz.QuizInfo {
	info := quiz.QuizInfo{
		ID:        w.ID,
		Name:      w.Name,
		TimeLimit: int(w.TimeLimit),
		Category:  w.Category,
		User:      w.User,
		CreatedAt: parseTime(w.CreatedAt),
	}
	if w.MaxScore != nil {
		score := float64(*w.MaxScore)
		info.MaxScore = &score
	}
	return info
}

type optionWire struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct"`
	Selected  bool   `json:"selected"`
}

type questionWire struct {
	ID            int64        `json:"id"`
	Question      string       `json:"question"`
	QuestionNo    int          `json:"question_no"`
	QuestionType  string       `json:"question_type"`
	Points        number       `json:"points"`
	Explanation   string       `json:"explanation"`
	Options       []optionWire `json:"options"`
	AwardedPoints *number      `json:"awarded_points"`
}

func (w questionWire) toDomain() quiz.Question {
	question := quiz.Question{
		ID:           w.ID,
		Question:     w.Question,
		QuestionNo:   w.QuestionNo,
		QuestionType: quiz.QuestionType(strings.ToLower(strings.TrimSpace(w.QuestionType))),
		Points:       float64(w.Points),
		Explanation:  w.Explanation,
		Options:      make([]quiz.Option, 0, len(w.Options)),
	}
	for _, option := range w.Options {
		question.Options = append(question.Options, quiz.Option{
			ID:        option.ID,
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
			Selected:  option.Selected,
		})
	}
	if w.AwardedPoints != nil {
		awarded := float64(*w.AwardedPoints)
		question.AwardedPoints = &awarded
	}
	return question
}

func questionsToDomain(items []questionWire) []quiz.Question {
	questions := make([]quiz.Question, 0, len(items))
	for _, item := range items {
		questions = append(questions, item.toDomain())
	}
	return questions
}

// normalizeMeta fills in the defaults the server omits on single pages.
func normalizeMeta(meta *quiz.PageMeta, itemCount int) quiz.PageMeta {
	if meta == nil {
		return quiz.PageMeta{Page: 1, LastPage: 1, Total: itemCount}
	}
	out := *meta
	if out.Page < 1 {
		out.Page = 1
	}
	if out.LastPage < 1 {
		out.LastPage = 1
	}
	return out
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

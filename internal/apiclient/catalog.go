package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quiz-client/internal/quiz"
)

type quizListResponse struct {
	Data []quizInfoWire  `json:"data"`
	Meta *quiz.PageMeta `json:"meta"`
}

// quizInfoRequest is the create/update payload; TimeLimit is seconds and
// Category a category id.
type quizInfoRequest struct {
	Name      string `json:"name"`
	TimeLimit int    `json:"time_limit"`
	Category  *int64 `json:"category,omitempty"`
}

type optionRequest struct {
	ID        int64  `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type questionRequest struct {
	Question     string          `json:"question"`
	QuestionNo   int             `json:"question_no"`
	QuestionType string          `json:"question_type"`
	Points       int             `json:"points"`
	QuizID       int64           `json:"quiz_info"`
	Explanation  string          `json:"explanation"`
	Options      []optionRequest `json:"options"`
}

func (c *Client) ListCategories(ctx context.Context) ([]quiz.Category, error) {
	var categories []quiz.Category
	if err := c.doJSON(ctx, http.MethodGet, "categories/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListQuizzes returns one catalog page. category filters by category name
// when non-empty.
func (c *Client) ListQuizzes(ctx context.Context, page int, category string) (quiz.QuizList, error) {
	query := url.Values{}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		query.Set("categories", trimmed)
	}
	path := "quizinfo/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.listQuizzes(ctx, path)
}

func (c *Client) ListOwnQuizzes(ctx context.Context, page int) (quiz.QuizList, error) {
	return c.listQuizzes(ctx, "quizinfos/owner/"+pageQuery("page", page))
}

func (c *Client) listQuizzes(ctx context.Context, path string) (quiz.QuizList, error) {
	var payload quizListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return quiz.QuizList{}, err
	}

	list := quiz.QuizList{
		Quizzes: make([]quiz.QuizInfo, 0, len(payload.Data)),
		Meta:    normalizeMeta(payload.Meta, len(payload.Data)),
	}
	for _, item := range payload.Data {
		list.Quizzes = append(list.Quizzes, item.toDomain())
	}
	return list, nil
}

func (c *Client) GetQuiz(ctx context.Context, quizID int64) (quiz.QuizInfo, error) {
	var payload quizInfoWire
	if err := c.doJSON(ctx, http.MethodGet, "quizinfo/"+formatID(quizID)+"/", nil, &payload); err != nil {
		return quiz.QuizInfo{}, mapNotFound(err)
	}
	return payload.toDomain(), nil
}

// CreateQuiz validates the quiz metadata locally and creates it. Questions
// are added separately with CreateQuestion.
func (c *Client) CreateQuiz(ctx context.Context, draft quiz.QuizDraft) (quiz.QuizInfo, error) {
	if err := quiz.ValidateQuizInfo(draft); err != nil {
		return quiz.QuizInfo{}, err
	}
	var payload quizInfoWire
	if err := c.doJSON(ctx, http.MethodPost, "quizinfo/", newQuizInfoRequest(draft), &payload); err != nil {
		return quiz.QuizInfo{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) UpdateQuiz(ctx context.Context, quizID int64, draft quiz.QuizDraft) (quiz.QuizInfo, error) {
	if err := quiz.ValidateQuizInfo(draft); err != nil {
		return quiz.QuizInfo{}, err
	}
	var payload quizInfoWire
	if err := c.doJSON(ctx, http.MethodPut, "quizinfo/"+formatID(quizID)+"/", newQuizInfoRequest(draft), &payload); err != nil {
		return quiz.QuizInfo{}, mapNotFound(err)
	}
	return payload.toDomain(), nil
}

func (c *Client) DeleteQuiz(ctx context.Context, quizID int64) error {
	return mapNotFound(c.doJSON(ctx, http.MethodDelete, "quizinfo/"+formatID(quizID)+"/", nil, nil))
}

func (c *Client) CreateQuestion(ctx context.Context, quizID int64, draft quiz.QuestionDraft) (quiz.Question, error) {
	if err := quiz.ValidateQuestion(draft); err != nil {
		return quiz.Question{}, err
	}
	var payload questionWire
	if err := c.doJSON(ctx, http.MethodPost, "questions/", newQuestionRequest(quizID, draft), &payload); err != nil {
		return quiz.Question{}, err
	}
	return payload.toDomain(), nil
}

// UpdateQuestion replaces a question. Options with an ID are edited in
// place; the rest are added.
func (c *Client) UpdateQuestion(ctx context.Context, quizID, questionID int64, draft quiz.QuestionDraft) (quiz.Question, error) {
	if err := quiz.ValidateQuestion(draft); err != nil {
		return quiz.Question{}, err
	}
	var payload questionWire
	path := "questions/" + formatID(questionID) + "/"
	if err := c.doJSON(ctx, http.MethodPut, path, newQuestionRequest(quizID, draft), &payload); err != nil {
		return quiz.Question{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) DeleteQuestion(ctx context.Context, questionID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "questions/"+formatID(questionID)+"/", nil, nil)
}

func (c *Client) DeleteOption(ctx context.Context, optionID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "options/"+formatID(optionID)+"/", nil, nil)
}

func newQuizInfoRequest(draft quiz.QuizDraft) quizInfoRequest {
	request := quizInfoRequest{
		Name:      strings.TrimSpace(draft.Name),
		TimeLimit: draft.TimeLimitSeconds(),
	}
	if draft.CategoryID > 0 {
		categoryID := draft.CategoryID
		request.Category = &categoryID
	}
	return request
}

func newQuestionRequest(quizID int64, draft quiz.QuestionDraft) questionRequest {
	request := questionRequest{
		Question:     strings.TrimSpace(draft.Question),
		QuestionNo:   draft.QuestionNo,
		QuestionType: string(draft.QuestionType),
		Points:       draft.Points,
		QuizID:       quizID,
		Explanation:  strings.TrimSpace(draft.Explanation),
		Options:      make([]optionRequest, 0, len(draft.Options)),
	}
	for _, option := range draft.Options {
		request.Options = append(request.Options, optionRequest{
			ID:        option.ID,
			Text:      strings.TrimSpace(option.Text),
			IsCorrect: option.IsCorrect,
		})
	}
	return request
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", quiz.ErrQuizNotFound, err)
	}
	return err
}

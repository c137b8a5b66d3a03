package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"quiz-client/internal/quiz"
)

type previewResponse struct {
	quizInfoWire
	Questions     []questionWire `json:"questions"`
	QuestionsMeta *quiz.PageMeta `json:"questions_meta"`
}

type submitResponse struct {
	AttemptID identifier `json:"attempt_id"`
	ID        identifier `json:"id"`
	Attempt   *struct {
		AttemptID identifier `json:"attempt_id"`
	} `json:"attempt"`
	Message string `json:"message"`
}

type reviewResponse struct {
	QuizInfo quizInfoWire `json:"quiz_info"`
	Attempt  struct {
		AttemptID    identifier `json:"attempt_id"`
		Score        number     `json:"score"`
		PercentScore number     `json:"percent_score"`
		Duration     string     `json:"duration"`
		StartedAt    string     `json:"started_at"`
		FinishedAt   string     `json:"finished_at"`
	} `json:"attempt"`
	Stats         quiz.ReviewStats `json:"stats"`
	Questions     []questionWire   `json:"questions"`
	QuestionsMeta *quiz.PageMeta   `json:"questions_meta"`
}

// FetchPage loads one page of an attempt's questions together with the
// quiz's time limit.
func (c *Client) FetchPage(ctx context.Context, quizID int64, page int) (quiz.PreviewPage, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("question_page", fmt.Sprint(page))
	path := "quizinfo/preview/" + formatID(quizID) + "/with-questions-explanation/?" + query.Encode()

	var payload previewResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return quiz.PreviewPage{}, mapNotFound(err)
	}

	return quiz.PreviewPage{
		Quiz:      payload.quizInfoWire.toDomain(),
		Questions: questionsToDomain(payload.Questions),
		Meta:      normalizeMeta(payload.QuestionsMeta, len(payload.Questions)),
	}, nil
}

// Submit posts the answers of an attempt. The review id is taken from the
// first of attempt_id, id or attempt.attempt_id that the server filled in.
func (c *Client) Submit(ctx context.Context, request quiz.SubmitRequest) (quiz.SubmitResult, error) {
	if request.Answers == nil {
		request.Answers = []quiz.SubmitAnswer{}
	}
	for idx := range request.Answers {
		if request.Answers[idx].SelectedOptionIDs == nil {
			request.Answers[idx].SelectedOptionIDs = []int64{}
		}
	}

	var payload submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "attempts/submit/", request, &payload); err != nil {
		return quiz.SubmitResult{}, err
	}

	result := quiz.SubmitResult{Message: strings.TrimSpace(payload.Message)}
	switch {
	case payload.AttemptID != "":
		result.AttemptID = string(payload.AttemptID)
	case payload.ID != "":
		result.AttemptID = string(payload.ID)
	case payload.Attempt != nil && payload.Attempt.AttemptID != "":
		result.AttemptID = string(payload.Attempt.AttemptID)
	}
	if result.AttemptID == "" && result.Message == "" {
		result.Message = "Submitted"
	}
	return result, nil
}

func (c *Client) Review(ctx context.Context, attemptID string, page int) (quiz.Review, error) {
	attemptID = strings.TrimSpace(attemptID)
	if attemptID == "" {
		return quiz.Review{}, errors.New("attempt id is required")
	}
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("question_page", fmt.Sprint(page))
	path := "attempts/review/" + url.PathEscape(attemptID) + "/?" + query.Encode()

	var payload reviewResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		if errors.Is(err, ErrForbidden) {
			return quiz.Review{}, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		return quiz.Review{}, err
	}

	review := quiz.Review{
		Quiz: payload.QuizInfo.toDomain(),
		Attempt: quiz.AttemptSummary{
			ID:           string(payload.Attempt.AttemptID),
			Score:        float64(payload.Attempt.Score),
			PercentScore: float64(payload.Attempt.PercentScore),
			Duration:     payload.Attempt.Duration,
		},
		Stats:     payload.Stats,
		Questions: questionsToDomain(payload.Questions),
		Meta:      normalizeMeta(payload.QuestionsMeta, len(payload.Questions)),
	}
	if review.Attempt.ID == "" {
		review.Attempt.ID = attemptID
	}
	if started := parseTime(payload.Attempt.StartedAt); !started.IsZero() {
		review.Attempt.StartedAt = &started
	}
	if finished := parseTime(payload.Attempt.FinishedAt); !finished.IsZero() {
		review.Attempt.FinishedAt = &finished
	}
	return review, nil
}

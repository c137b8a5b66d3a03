package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-client/internal/apiclient"
	"quiz-client/internal/quiz"
)

const reviewTimeLayout = "2006-01-02 15:04:05"

func (a *app) runReview(ctx context.Context, attemptID string, page int) error {
	review, err := a.client.Review(ctx, attemptID, page)
	if err != nil {
		if errors.Is(err, apiclient.ErrForbidden) {
			return errors.New("you can only review your own attempts")
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			return fmt.Errorf("attempt %s not found", attemptID)
		}
		return err
	}

	out := a.out
	fmt.Fprintf(out, "%s%s\n", review.Quiz.Name, categorySuffix(review.Quiz))
	if review.Quiz.User != nil && review.Quiz.User.Username != "" {
		fmt.Fprintf(out, "By %s\n", review.Quiz.User.Username)
	}

	summary := review.Attempt
	score := fmt.Sprintf("Score: %s", formatScore(summary.Score))
	if review.Quiz.MaxScore != nil {
		score += " / " + formatScore(*review.Quiz.MaxScore)
	}
	fmt.Fprintf(out, "%s (%s%%)\n", score, formatScore(summary.PercentScore))
	if summary.Duration != "" {
		fmt.Fprintf(out, "Duration: %s\n", summary.Duration)
	}
	if summary.StartedAt != nil {
		fmt.Fprintf(out, "Started: %s\n", formatReviewTime(*summary.StartedAt))
	}
	if summary.FinishedAt != nil {
		fmt.Fprintf(out, "Finished: %s\n", formatReviewTime(*summary.FinishedAt))
	}
	fmt.Fprintf(out, "Questions: %d, correct: %d, incorrect: %d\n",
		review.Stats.TotalQuestions, review.Stats.TotalCorrect, review.Stats.TotalIncorrect)

	for _, question := range review.Questions {
		a.printReviewQuestion(question)
	}

	if review.Meta.LastPage > 1 {
		fmt.Fprintf(out, "\nPage %d of %d: %s\n", review.Meta.Page, review.Meta.LastPage,
			renderPagination(review.Meta.Page, review.Meta.LastPage, nil))
		if review.Meta.Page < review.Meta.LastPage {
			fmt.Fprintf(out, "Next: review %s %d\n", attemptID, review.Meta.Page+1)
		}
	}
	return nil
}

func (a *app) printReviewQuestion(question quiz.Question) {
	out := a.out
	awarded := "-"
	if question.AwardedPoints != nil {
		awarded = formatScore(*question.AwardedPoints)
	}
	fmt.Fprintf(out, "\n%d. %s\n   (%s of %s points)\n",
		question.QuestionNo, question.Question, awarded, formatScore(question.Points))

	for idx, option := range question.Options {
		var marks []string
		if option.Selected {
			marks = append(marks, "your answer")
		}
		if option.IsCorrect != nil && *option.IsCorrect {
			marks = append(marks, "correct")
		}
		box := " "
		if option.Selected {
			box = "x"
		}
		line := fmt.Sprintf("   [%s] %s. %s", box, quiz.OptionLetter(idx), option.Text)
		if len(marks) > 0 {
			line += "  <- " + strings.Join(marks, ", ")
		}
		fmt.Fprintln(out, line)
	}
	if strings.TrimSpace(question.Explanation) != "" {
		fmt.Fprintf(out, "   Explanation: %s\n", question.Explanation)
	}
}

func formatReviewTime(t time.Time) string {
	return t.Local().Format(reviewTimeLayout)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"quiz-client/internal/quiz"
)

// parseBrowseArgs accepts "[page] [category...]"; a leading integer is the
// page and everything after it names the category.
func parseBrowseArgs(args []string) (int, string, error) {
	if len(args) == 0 {
		return defaultPage, "", nil
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return defaultPage, strings.Join(args, " "), nil
	}
	if page <= 0 {
		return 0, "", fmt.Errorf("must be a positive integer")
	}
	return page, strings.Join(args[1:], " "), nil
}

func (a *app) runCategories(ctx context.Context) error {
	categories, err := a.client.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(a.out, "No categories.")
		return nil
	}
	fmt.Fprintln(a.out, "Categories:")
	for _, category := range categories {
		fmt.Fprintf(a.out, "  %d. %s\n", category.ID, category.Name)
	}
	return nil
}

// runBrowse loads the category strip and the quiz page together.
func (a *app) runBrowse(ctx context.Context, page int, category string) error {
	var (
		categories []quiz.Category
		list       quiz.QuizList
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		categories, err = a.client.ListCategories(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		list, err = a.client.ListQuizzes(groupCtx, page, category)
		return err
	})
	if err := group.Wait(); err != nil {
		return err
	}

	names := make([]string, 0, len(categories)+1)
	all := "All"
	if category == "" {
		all = "[All]"
	}
	names = append(names, all)
	for _, item := range categories {
		name := item.Name
		if strings.EqualFold(name, category) {
			name = "[" + name + "]"
		}
		names = append(names, name)
	}
	fmt.Fprintf(a.out, "Categories: %s\n", strings.Join(names, " | "))

	a.printQuizList(list, "No quizzes found.")
	return nil
}

func (a *app) runOwnQuizzes(ctx context.Context, page int) error {
	list, err := a.client.ListOwnQuizzes(ctx, page)
	if err != nil {
		return err
	}
	a.printQuizList(list, "You have not created any quizzes yet.")
	return nil
}

func (a *app) printQuizList(list quiz.QuizList, empty string) {
	if len(list.Quizzes) == 0 {
		fmt.Fprintln(a.out, empty)
		return
	}
	for _, item := range list.Quizzes {
		fmt.Fprintf(a.out, "%d. %s%s (%s)\n", item.ID, item.Name, categorySuffix(item), describeTimeLimit(item.TimeLimit))
	}
	fmt.Fprintf(a.out, "Page %d of %d, %d quizzes: %s\n",
		list.Meta.Page, list.Meta.LastPage, list.Meta.Total,
		renderPagination(list.Meta.Page, list.Meta.LastPage, nil))
}

func (a *app) runShowQuiz(ctx context.Context, quizID int64) error {
	info, err := a.client.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d. %s%s\n", info.ID, info.Name, categorySuffix(info))
	fmt.Fprintf(a.out, "Time limit: %s\n", describeTimeLimit(info.TimeLimit))
	if info.MaxScore != nil {
		fmt.Fprintf(a.out, "Max score: %s\n", formatScore(*info.MaxScore))
	}
	if info.User != nil {
		fmt.Fprintf(a.out, "Created by: %s\n", info.User.Username)
	}
	if !info.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "Created: %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func loadDraft(path string) (quiz.QuizDraft, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return quiz.QuizDraft{}, err
	}
	var draft quiz.QuizDraft
	if err := yaml.Unmarshal(raw, &draft); err != nil {
		return quiz.QuizDraft{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := quiz.ValidateQuiz(&draft); err != nil {
		return quiz.QuizDraft{}, err
	}
	return draft, nil
}

// runImport creates the quiz and then its questions one at a time, stopping
// at the first failure.
func (a *app) runImport(ctx context.Context, path string) error {
	draft, err := loadDraft(path)
	if err != nil {
		return err
	}

	created, err := a.client.CreateQuiz(ctx, draft)
	if err != nil {
		return err
	}
	for idx, question := range draft.Questions {
		if _, err := a.client.CreateQuestion(ctx, created.ID, question); err != nil {
			return fmt.Errorf("quiz %d created but question %d failed: %w", created.ID, idx+1, err)
		}
	}
	fmt.Fprintf(a.out, "Quiz %d created with %d questions.\n", created.ID, len(draft.Questions))
	return nil
}

func (a *app) runEditQuiz(ctx context.Context, quizID int64, path string) error {
	draft, err := loadDraft(path)
	if err != nil {
		return err
	}
	if _, err := a.client.UpdateQuiz(ctx, quizID, draft); err != nil {
		return err
	}

	updated, added := 0, 0
	for idx, question := range draft.Questions {
		if question.ID > 0 {
			_, err = a.client.UpdateQuestion(ctx, quizID, question.ID, question)
			updated++
		} else {
			_, err = a.client.CreateQuestion(ctx, quizID, question)
			added++
		}
		if err != nil {
			return fmt.Errorf("question %d: %w", idx+1, err)
		}
	}
	fmt.Fprintf(a.out, "Quiz %d saved: %d questions updated, %d added.\n", quizID, updated, added)
	return nil
}

func (a *app) runDeleteQuiz(ctx context.Context, quizID int64) error {
	confirmed, err := promptYesNo(ctx, a.input, a.out, fmt.Sprintf("Delete quiz %d? (yes/no): ", quizID))
	if err != nil || !confirmed {
		return err
	}
	if err := a.client.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	a.sessions.Delete(ctx, quizID)
	fmt.Fprintf(a.out, "Quiz %d deleted.\n", quizID)
	return nil
}

func (a *app) runDeleteQuestion(ctx context.Context, questionID int64) error {
	if err := a.client.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Question %d deleted.\n", questionID)
	return nil
}

func (a *app) runDeleteOption(ctx context.Context, optionID int64) error {
	if err := a.client.DeleteOption(ctx, optionID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Option %d deleted.\n", optionID)
	return nil
}

func categorySuffix(info quiz.QuizInfo) string {
	if info.Category == nil || info.Category.Name == "" {
		return ""
	}
	return " [" + info.Category.Name + "]"
}

func describeTimeLimit(seconds int) string {
	if seconds <= 0 {
		return "no time limit"
	}
	if seconds%60 != 0 {
		return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dm", seconds/60)
}

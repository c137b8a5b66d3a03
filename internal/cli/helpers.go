package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-client/internal/apiclient"
	"quiz-client/internal/quiz"
)

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseID(raw string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer id")
	}
	return value, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func promptYesNo(ctx context.Context, input *lineSource, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := input.Next(ctx)
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func promptChoice(ctx context.Context, input *lineSource, out io.Writer, prompt string, choices ...string) (string, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := input.Next(ctx)
		if err != nil {
			return "", err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		for _, choice := range choices {
			if answer == choice || (answer != "" && strings.HasPrefix(choice, answer)) {
				return choice, nil
			}
		}
		fmt.Fprintf(out, "Please answer %s.\n", strings.Join(choices, ", "))
	}
}

func describeClientError(err error, serverURL string) error {
	var validationErr *quiz.ValidationError
	switch {
	case errors.Is(err, apiclient.ErrServiceUnavailable):
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	case errors.Is(err, apiclient.ErrUnauthorized):
		return apiclient.ErrUnauthorized
	case errors.As(err, &validationErr):
		return validationErr
	}
	return err
}

// paginationItems lays out page buttons: the first two pages, a window of
// siblings around current, and the last two pages, with 0 marking a gap.
func paginationItems(current, last, siblings int) []int {
	if last <= 1 {
		return []int{1}
	}
	include := map[int]bool{1: true, 2: true, last: true}
	if last-1 > 2 {
		include[last-1] = true
	}
	for page := max(1, current-siblings); page <= min(last, current+siblings); page++ {
		include[page] = true
	}

	items := make([]int, 0, len(include)+2)
	previous := 0
	for page := 1; page <= last; page++ {
		if !include[page] {
			continue
		}
		if previous > 0 && page-previous > 1 {
			items = append(items, 0)
		}
		items = append(items, page)
		previous = page
	}
	return items
}

func renderPagination(current, last int, marked func(page int) bool) string {
	var b strings.Builder
	for idx, page := range paginationItems(current, last, 2) {
		if idx > 0 {
			b.WriteByte(' ')
		}
		if page == 0 {
			b.WriteString("...")
			continue
		}
		label := strconv.Itoa(page)
		if marked != nil && marked(page) {
			label += "*"
		}
		if page == current {
			label = "[" + label + "]"
		}
		b.WriteString(label)
	}
	return b.String()
}

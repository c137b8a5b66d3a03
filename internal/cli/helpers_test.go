package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"quiz-client/internal/apiclient"
)

func TestPaginationItems(t *testing.T) {
	tests := []struct {
		name    string
		current int
		last    int
		want    []int
	}{
		{name: "single page", current: 1, last: 1, want: []int{1}},
		{name: "short run", current: 2, last: 4, want: []int{1, 2, 3, 4}},
		{name: "middle", current: 5, last: 10, want: []int{1, 2, 3, 4, 5, 6, 7, 0, 9, 10}},
		{name: "far middle", current: 10, last: 20, want: []int{1, 2, 0, 8, 9, 10, 11, 12, 0, 19, 20}},
		{name: "at end", current: 20, last: 20, want: []int{1, 2, 0, 18, 19, 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := paginationItems(tc.current, tc.last, 2); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("paginationItems(%d, %d) = %v, want %v", tc.current, tc.last, got, tc.want)
			}
		})
	}
}

func TestRenderPaginationMarksPages(t *testing.T) {
	answered := map[int]bool{1: true, 3: true}
	got := renderPagination(3, 8, func(page int) bool { return answered[page] })
	if got != "1* 2 [3*] 4 5 ... 7 8" {
		t.Fatalf("renderPagination = %q", got)
	}
}

func TestParseBrowseArgs(t *testing.T) {
	tests := []struct {
		args     []string
		page     int
		category string
		wantErr  bool
	}{
		{args: nil, page: 1},
		{args: []string{"3"}, page: 3},
		{args: []string{"Science"}, page: 1, category: "Science"},
		{args: []string{"2", "Art", "History"}, page: 2, category: "Art History"},
		{args: []string{"0"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(strings.Join(tc.args, "_"), func(t *testing.T) {
			page, category, err := parseBrowseArgs(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || page != tc.page || category != tc.category {
				t.Fatalf("parseBrowseArgs(%v) = %d, %q, %v", tc.args, page, category, err)
			}
		})
	}
}

func TestPromptChoiceAcceptsPrefixAndRetries(t *testing.T) {
	input := newLineSource(strings.NewReader("maybe\nres\n"))
	var out strings.Builder

	choice, err := promptChoice(context.Background(), input, &out, "? ", "resume", "restart", "exit")
	if err != nil {
		t.Fatalf("promptChoice failed: %v", err)
	}
	// An ambiguous prefix picks the first listed choice.
	if choice != "resume" {
		t.Fatalf("choice = %q, want resume", choice)
	}
	if !strings.Contains(out.String(), "Please answer resume, restart, exit.") {
		t.Fatalf("expected retry hint, got %q", out.String())
	}
}

func TestPromptYesNoStopsAtEOF(t *testing.T) {
	input := newLineSource(strings.NewReader("perhaps\n"))
	var out strings.Builder

	_, err := promptYesNo(context.Background(), input, &out, "ok? ")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if !strings.Contains(out.String(), "Please answer yes or no.") {
		t.Fatalf("expected retry hint, got %q", out.String())
	}
}

func TestDescribeClientError(t *testing.T) {
	err := describeClientError(fmt.Errorf("list: %w", apiclient.ErrServiceUnavailable), "http://quiz.test/api")
	if err.Error() != "quiz service unavailable at http://quiz.test/api" {
		t.Fatalf("unexpected message: %v", err)
	}
	if got := describeClientError(fmt.Errorf("me: %w", apiclient.ErrUnauthorized), ""); !errors.Is(got, apiclient.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", got)
	}
}

func TestDescribeTimeLimit(t *testing.T) {
	for seconds, want := range map[int]string{0: "no time limit", 600: "10m", 90: "1m30s"} {
		if got := describeTimeLimit(seconds); got != want {
			t.Fatalf("describeTimeLimit(%d) = %q, want %q", seconds, got, want)
		}
	}
}

package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// KeyPrefix namespaces every stored attempt; DeleteAllSessions sweeps it.
	KeyPrefix = "quiz_preview_"
	keySuffix = "_state_v1"

	// Deadlines below this are second-resolution values from older clients.
	millisThreshold = 1_000_000_000_000
)

var errMalformedRecord = errors.New("malformed session record")

func Key(quizID int64) string {
	return KeyPrefix + strconv.FormatInt(quizID, 10) + keySuffix
}

// Record is the locally persisted snapshot of an in-progress attempt.
//
// Deadline is milliseconds since the epoch; zero means the time limit is not
// known yet. Revealed only ever holds true values.
type Record struct {
	SessionID       string            `json:"session_id,omitempty"`
	Deadline        int64             `json:"deadline,omitempty"`
	Answers         map[int64][]int64 `json:"answers"`
	Revealed        map[int64]bool    `json:"revealed"`
	PageQuestionIDs map[int][]int64   `json:"page_question_ids"`
	CurrentPage     int               `json:"current_page,omitempty"`
	PendingSubmit   bool              `json:"pending_submit,omitempty"`
	Submitted       bool              `json:"submitted,omitempty"`
}

func NewRecord() Record {
	return Record{
		SessionID:       uuid.NewString(),
		Answers:         make(map[int64][]int64),
		Revealed:        make(map[int64]bool),
		PageQuestionIDs: make(map[int][]int64),
	}
}

func (r Record) DeadlineTime() (time.Time, bool) {
	if r.Deadline <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(r.Deadline), true
}

func (r *Record) SetDeadline(t time.Time) {
	r.Deadline = t.UnixMilli()
}

func (r Record) Expired(now time.Time) bool {
	deadline, ok := r.DeadlineTime()
	return ok && !now.Before(deadline)
}

// AnsweredCount counts questions with a non-empty selection.
func (r Record) AnsweredCount() int {
	count := 0
	for _, selected := range r.Answers {
		if len(selected) > 0 {
			count++
		}
	}
	return count
}

func (r Record) Clone() Record {
	out := r
	out.Answers = make(map[int64][]int64, len(r.Answers))
	for questionID, selected := range r.Answers {
		if selected == nil {
			out.Answers[questionID] = nil
			continue
		}
		out.Answers[questionID] = append([]int64{}, selected...)
	}
	out.Revealed = make(map[int64]bool, len(r.Revealed))
	for questionID, revealed := range r.Revealed {
		out.Revealed[questionID] = revealed
	}
	out.PageQuestionIDs = make(map[int][]int64, len(r.PageQuestionIDs))
	for page, ids := range r.PageQuestionIDs {
		if ids == nil {
			out.PageQuestionIDs[page] = nil
			continue
		}
		out.PageQuestionIDs[page] = append([]int64{}, ids...)
	}
	return out
}

func Encode(record Record) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func Decode(raw string) (Record, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, errMalformedRecord
	}

	var record Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return Record{}, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}
	if record.Deadline < 0 || record.CurrentPage < 0 {
		return Record{}, errMalformedRecord
	}

	if record.Deadline > 0 && record.Deadline < millisThreshold {
		record.Deadline *= 1000
	}
	if record.Answers == nil {
		record.Answers = make(map[int64][]int64)
	}
	if record.Revealed == nil {
		record.Revealed = make(map[int64]bool)
	}
	if record.PageQuestionIDs == nil {
		record.PageQuestionIDs = make(map[int][]int64)
	}
	return record, nil
}

package attempt

import "quiz-client/internal/quiz"

// ApplySelection returns the selection after the user picks optionID. A
// single-choice pick replaces the selection; a multiple-choice pick toggles
// membership and keeps the order of first selection. current is not
// modified.
func ApplySelection(questionType quiz.QuestionType, current []int64, optionID int64) []int64 {
	if questionType != quiz.QuestionMultiple {
		return []int64{optionID}
	}

	next := make([]int64, 0, len(current)+1)
	removed := false
	for _, id := range current {
		if id == optionID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, optionID)
	}
	return next
}

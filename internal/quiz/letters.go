package quiz

import "strings"

func OptionLetter(index int) string {
	if index < 0 || index > 25 {
		return "?"
	}
	return string(rune('A' + index))
}

func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return ""
	}
	return letter
}

// LetterIndex maps a user-typed letter onto an option index, or -1 when the
// letter is not within the first optionCount letters.
func LetterIndex(answer string, optionCount int) int {
	letter := NormalizeLetter(answer)
	if letter == "" {
		return -1
	}
	index := int(letter[0] - 'A')
	if index < 0 || index >= optionCount {
		return -1
	}
	return index
}

package omr

import (
	"fmt"
	"unicode/utf8"
)

// maxChoices bounds the choices per question so every mark pattern fits the
// alphabet's lookup table.
const maxChoices = 8

// AnswerAlphabet maps a question's mark pattern to one display symbol: the
// choice's letter when exactly one bubble is filled, Blank when none is, and
// Multiple otherwise.
//
// The table is built once by NewAnswerAlphabet and never modified, so one
// alphabet may be shared by any number of concurrent readers.
type AnswerAlphabet struct {
	choices  int
	blank    rune
	multiple rune
	table    []rune // indexed by the pattern's bitmask, bit i = choice i
}

// NewAnswerAlphabet builds the lookup table for questions with the given
// number of choices. cfg.Letters must hold one letter per choice; Blank and
// Multiple must each be a single character.
func NewAnswerAlphabet(cfg AlphabetConfig, choices int) (*AnswerAlphabet, error) {
	if choices < 1 || choices > maxChoices {
		return nil, fmt.Errorf("choices must be between 1 and %d, got %d", maxChoices, choices)
	}
	letters := []rune(cfg.Letters)
	if len(letters) != choices {
		return nil, fmt.Errorf("need %d letters, got %q", choices, cfg.Letters)
	}
	if utf8.RuneCountInString(cfg.Blank) != 1 {
		return nil, fmt.Errorf("blank must be one character, got %q", cfg.Blank)
	}
	if utf8.RuneCountInString(cfg.Multiple) != 1 {
		return nil, fmt.Errorf("multiple must be one character, got %q", cfg.Multiple)
	}

	a := &AnswerAlphabet{
		choices:  choices,
		blank:    []rune(cfg.Blank)[0],
		multiple: []rune(cfg.Multiple)[0],
		table:    make([]rune, 1<<choices),
	}
	for pattern := range a.table {
		a.table[pattern] = a.multiple
	}
	a.table[0] = a.blank
	for i, l := range letters {
		a.table[1<<i] = l
	}
	return a, nil
}

// Symbol returns the symbol for one question's marks. A vector of the wrong
// length is reported as Multiple.
func (a *AnswerAlphabet) Symbol(marks []bool) rune {
	if len(marks) != a.choices {
		return a.multiple
	}
	pattern := 0
	for i, m := range marks {
		if m {
			pattern |= 1 << i
		}
	}
	return a.table[pattern]
}

// Encode renders every question's marks, in order, as one string.
func (a *AnswerAlphabet) Encode(answers [][]bool) string {
	out := make([]rune, len(answers))
	for i, marks := range answers {
		out[i] = a.Symbol(marks)
	}
	return string(out)
}

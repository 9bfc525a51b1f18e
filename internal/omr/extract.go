package omr

import (
	"fmt"
	"strings"
)

// DigitStatus is the outcome of reading one identity digit row.
type DigitStatus int

const (
	// DigitUnique means exactly one bubble in the row is filled.
	DigitUnique DigitStatus = iota
	// DigitNone means no bubble in the row is filled.
	DigitNone
	// DigitMultiple means more than one bubble in the row is filled.
	DigitMultiple
)

var digitStatusNames = [...]string{"unique", "none", "multiple"}

func (s DigitStatus) String() string {
	if s < 0 || int(s) >= len(digitStatusNames) {
		return fmt.Sprintf("DigitStatus(%d)", int(s))
	}
	return digitStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s DigitStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(digitStatusNames) {
		return nil, fmt.Errorf("unknown digit status %d", int(s))
	}
	return []byte(digitStatusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DigitStatus) UnmarshalText(text []byte) error {
	for i, name := range digitStatusNames {
		if string(text) == name {
			*s = DigitStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown digit status %q", text)
}

// DigitRead is one identity digit row reduced to a value.
type DigitRead struct {
	Status DigitStatus `json:"status"`
	// Digit is the filled bubble's label; empty unless Status is DigitUnique.
	Digit string `json:"digit,omitempty"`
	// Marked lists the labels of every filled bubble when Status is
	// DigitMultiple.
	Marked string `json:"marked,omitempty"`
}

// IdentityValue is a grade, class or seat number read from its digit rows.
//
// Value is only set when every digit is unique. Ambiguous or missing digits
// are left for the consumer to resolve; no placeholder is substituted.
type IdentityValue struct {
	Value    string      `json:"value"`
	Complete bool        `json:"complete"`
	Digits   []DigitRead `json:"digits"`
}

// SheetResult is everything read from one sheet.
type SheetResult struct {
	Grade IdentityValue `json:"grade"`
	Class IdentityValue `json:"class"`
	Seat  IdentityValue `json:"seat"`

	// Answers holds one mark vector per question, question 1 first.
	Answers [][]bool `json:"answers"`

	// Letters renders Answers with the form's answer alphabet, one symbol per
	// question. Answers stays authoritative.
	Letters string `json:"letters"`
}

// Extractor assembles classified fields into a SheetResult.
type Extractor struct {
	identity IdentityLayout
	alphabet *AnswerAlphabet
}

// NewExtractor returns an extractor for the given identity layout. alphabet
// is shared, never copied.
func NewExtractor(identity IdentityLayout, alphabet *AnswerAlphabet) *Extractor {
	return &Extractor{identity: identity, alphabet: alphabet}
}

// Extract builds the result from the classified identity rows and questions.
// grade, class and seat must be in the same order as the layout's fields.
func (e *Extractor) Extract(grade, class, seat, questions []FieldMarks) (*SheetResult, error) {
	var err error
	res := &SheetResult{Answers: make([][]bool, len(questions))}

	if res.Grade, err = readIdentity("grade", e.identity.Grade, grade); err != nil {
		return nil, err
	}
	if res.Class, err = readIdentity("class", e.identity.Class, class); err != nil {
		return nil, err
	}
	if res.Seat, err = readIdentity("seat", e.identity.Seat, seat); err != nil {
		return nil, err
	}

	for i, q := range questions {
		res.Answers[i] = append([]bool(nil), q.Marks...)
	}
	if e.alphabet != nil {
		res.Letters = e.alphabet.Encode(res.Answers)
	}
	return res, nil
}

func readIdentity(name string, fields []DigitField, marks []FieldMarks) (IdentityValue, error) {
	if len(fields) != len(marks) {
		return IdentityValue{}, fmt.Errorf("%s: %d digit rows classified, layout has %d", name, len(marks), len(fields))
	}

	v := IdentityValue{Complete: true, Digits: make([]DigitRead, len(fields))}
	var value strings.Builder
	for i, f := range fields {
		d, err := ReadDigit([]rune(f.Labels), marks[i].Marks)
		if err != nil {
			return IdentityValue{}, fmt.Errorf("%s digit %d: %w", name, i, err)
		}
		v.Digits[i] = d
		if d.Status != DigitUnique {
			v.Complete = false
			continue
		}
		value.WriteString(d.Digit)
	}
	if v.Complete {
		v.Value = value.String()
	}
	return v, nil
}

// ReadDigit reduces one row of marks to a DigitRead using one label per
// bubble.
func ReadDigit(labels []rune, marks []bool) (DigitRead, error) {
	if len(labels) != len(marks) {
		return DigitRead{}, fmt.Errorf("%d labels for %d marks", len(labels), len(marks))
	}

	var marked []rune
	for i, m := range marks {
		if m {
			marked = append(marked, labels[i])
		}
	}
	switch len(marked) {
	case 0:
		return DigitRead{Status: DigitNone}, nil
	case 1:
		return DigitRead{Status: DigitUnique, Digit: string(marked)}, nil
	default:
		return DigitRead{Status: DigitMultiple, Marked: string(marked)}, nil
	}
}

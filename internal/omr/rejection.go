package omr

import (
	"errors"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// Rejection kinds reported for errors that do not carry their own.
const (
	KindUnreadable = "unreadable"
	KindInternal   = "internal"
)

// Rejection is the structured form of a failed read, for presentation
// layers that render their own messages.
type Rejection struct {
	Kind        string `json:"kind"`
	Observed    int    `json:"observed,omitempty"`
	Required    int    `json:"required,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Columns     int    `json:"columns,omitempty"`
	WantRows    int    `json:"want_rows,omitempty"`
	WantColumns int    `json:"want_columns,omitempty"`
	Message     string `json:"message"`
}

// RejectionOf classifies err. It returns nil for a nil error.
//
// Decode failures, too few anchors and a mismatched grid keep their counts.
// Any other error (a missing file, say) is KindUnreadable when it came from
// reading input and KindInternal otherwise.
func RejectionOf(err error) *Rejection {
	if err == nil {
		return nil
	}
	r := &Rejection{Kind: KindInternal, Message: err.Error()}

	var (
		decodeErr *imaging.DecodeError
		anchorErr *detection.InsufficientAnchorsError
		gridErr   *detection.GridCardinalityError
		inputErr  *InputError
	)
	switch {
	case errors.As(err, &decodeErr):
		r.Kind = decodeErr.Kind()
	case errors.As(err, &anchorErr):
		r.Kind = anchorErr.Kind()
		r.Observed = anchorErr.Observed
		r.Required = anchorErr.Required
	case errors.As(err, &gridErr):
		r.Kind = gridErr.Kind()
		r.Rows = gridErr.Rows
		r.Columns = gridErr.Columns
		r.WantRows = gridErr.WantRows
		r.WantColumns = gridErr.WantColumns
	case errors.As(err, &inputErr):
		r.Kind = KindUnreadable
	}
	return r
}

// InputError wraps a failure to obtain an input's bytes.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return "failed to read " + e.Source + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }

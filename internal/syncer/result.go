package syncer

import (
	"errors"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

// Result is the outcome of an operation as reported to callers. Failures
// never escape as errors.
type Result struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Errors   map[string]string `json:"errors,omitempty"`
	Data     any               `json:"data,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`

	// Kind classifies a failure. Empty on success.
	Kind domain.Kind `json:"-"`
}

func succeeded(message string, data any) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

// failed converts err into a Result. Rejections keep their own message and
// field errors; store failures are reported under failMessage with the
// underlying reason in errors.server.
func failed(failMessage string, err error) *Result {
	var de *domain.Error
	if !errors.As(err, &de) {
		return &Result{
			Message: failMessage,
			Errors:  map[string]string{"server": "An unexpected error occurred."},
			Kind:    domain.KindInternal,
		}
	}

	switch de.Kind {
	case domain.KindBackend, domain.KindConflict:
		return &Result{
			Message: failMessage,
			Errors:  map[string]string{"server": de.Message},
			Kind:    de.Kind,
		}
	default:
		return &Result{Message: de.Message, Errors: de.Fields, Kind: de.Kind}
	}
}

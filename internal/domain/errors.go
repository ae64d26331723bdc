package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Kind classifies why an operation was rejected.
type Kind string

const (
	KindValidation  Kind = "validation"  // malformed or missing fields
	KindReferential Kind = "referential" // unresolvable category, duplicate slug, delete while referenced
	KindNotFound    Kind = "not_found"   // identity absent from the document
	KindConflict    Kind = "conflict"    // version token rejected by the store
	KindBackend     Kind = "backend"     // store unreachable, misconfigured or undecodable
	KindInternal    Kind = "internal"
)

// Error is a rejected operation. Fields holds per-field messages for
// validation and referential failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// FieldNames lists the offending fields in stable order.
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func NewValidation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NewReferential(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindReferential, Message: msg, Fields: fields}
}

func NewNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewConflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func NewBackend(msg string, err error) *Error {
	return &Error{Kind: KindBackend, Message: msg, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Package typeid issues the prefixed, sortable ids used for documents,
// sessions and exports.
package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDocument = "doc"
	PrefixSession  = "sess"
	PrefixExport   = "exp"
)

// ErrInvalid is returned by Validate for malformed ids and ids of the wrong
// kind.
var ErrInvalid = errors.New("invalid id")

func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewDocumentID() string { return New(PrefixDocument) }
func NewSessionID() string  { return New(PrefixSession) }
func NewExportID() string   { return New(PrefixExport) }

// Validate checks that id parses and carries prefix.
func Validate(id, prefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalid, id, err)
	}
	if got := parsed.Prefix(); got != prefix {
		return fmt.Errorf("%w %q: want prefix %q, got %q", ErrInvalid, id, prefix, got)
	}
	return nil
}

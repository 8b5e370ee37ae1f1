// Package diagnostics implements the append-only error/warning bag:
// every resolver and parser pass appends Entry values
// rather than failing fast, so a single Parse call surfaces every problem
// in a schema at once.
package diagnostics

import (
	"encoding/json"

	"github.com/oxhq/schemalang/internal/span"
)

// Code enumerates the closed set of diagnostic identifiers, mirroring
// the CLIError.Code convention but scoped to schema resolution rather
// than CLI operations.
type Code string

const (
	ErrSyntax                    Code = "ERR_SYNTAX"
	ErrDuplicateIdentifier       Code = "ERR_DUPLICATE_IDENTIFIER"
	ErrDuplicateNamespace        Code = "ERR_DUPLICATE_NAMESPACE"
	ErrUnresolvedIdentifier      Code = "ERR_UNRESOLVED_IDENTIFIER"
	ErrCircularReference         Code = "ERR_CIRCULAR_REFERENCE"
	ErrTypeMismatch              Code = "ERR_TYPE_MISMATCH"
	ErrUnavailableInContext      Code = "ERR_UNAVAILABLE_IN_CONTEXT"
	ErrUnknownAvailabilityFlag   Code = "ERR_UNKNOWN_AVAILABILITY_FLAG"
	ErrUnreachableAvailabilityEnd Code = "ERR_UNREACHABLE_AVAILABILITY_END"
	ErrUnreachableAvailabilityFlag Code = "ERR_UNREACHABLE_AVAILABILITY_FLAG"
	ErrInvalidArgument           Code = "ERR_INVALID_ARGUMENT"
	ErrImportNotFound            Code = "ERR_IMPORT_NOT_FOUND"
	ErrImportDepthExceeded       Code = "ERR_IMPORT_DEPTH_EXCEEDED"
	ErrDuplicateDataSetRecord    Code = "ERR_DUPLICATE_DATA_SET_RECORD"
	ErrConfigNotAllowed          Code = "ERR_CONFIG_NOT_ALLOWED"
	ErrUndefinedConfig           Code = "ERR_UNDEFINED_CONFIG"
	ErrMissingConfigItem         Code = "ERR_MISSING_CONFIG_ITEM"
	ErrUndefinedConfigItem       Code = "ERR_UNDEFINED_CONFIG_ITEM"
	WarnRedundantTypeAnnotation  Code = "WARN_REDUNDANT_TYPE_ANNOTATION"
)

// Entry is one diagnostic: a code, a human message, and the span/source
// it was raised against. Entry implements error, so printing it with
// %s, %v or %+v yields Message; its JSON form comes from json.Marshal.
type Entry struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	SourcePath string `json:"sourcePath"`
	Span       span.Span `json:"span"`
}

func (e Entry) Error() string { return e.Message }

func (e Entry) String() string { return e.Message }

// JSON renders the entry as a single JSON object, for language-server
// clients that want structured diagnostics.
func (e Entry) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Bag accumulates errors and warnings in insertion order. It is not
// goroutine-safe; callers that resolve multiple sources concurrently
// should shard a Bag per source and merge, matching how ResolverContext
// scopes examined-sets per pass.
type Bag struct {
	errors   []Entry
	warnings []Entry
}

// New returns an empty Bag.
func New() *Bag { return &Bag{} }

// AddError appends an error-level entry.
func (b *Bag) AddError(e Entry) { b.errors = append(b.errors, e) }

// AddWarning appends a warning-level entry.
func (b *Bag) AddWarning(e Entry) { b.warnings = append(b.warnings, e) }

// HasErrors reports whether any error has been recorded.
func (b *Bag) HasErrors() bool { return len(b.errors) > 0 }

// HasWarnings reports whether any warning has been recorded.
func (b *Bag) HasWarnings() bool { return len(b.warnings) > 0 }

// Errors returns every recorded error, in insertion order.
func (b *Bag) Errors() []Entry { return b.errors }

// Warnings returns every recorded warning, in insertion order.
func (b *Bag) Warnings() []Entry { return b.warnings }

// PromoteWarnings reclassifies every warning as an error, clearing the
// warning list. Strict mode uses this to make a warning-bearing run
// fail the same way an error-bearing one does.
func (b *Bag) PromoteWarnings() {
	b.errors = append(b.errors, b.warnings...)
	b.warnings = nil
}

// Merge appends another bag's entries onto b, preserving relative order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.errors = append(b.errors, other.errors...)
	b.warnings = append(b.warnings, other.warnings...)
}

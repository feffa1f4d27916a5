// Package errors defines bdx's structural error categories. Each
// category wraps its underlying cause so callers can use errors.Is/As,
// following the shape of the teacher repo's internal/errors package.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel structural errors from the Index Store (spec §7). Compared
// with errors.Is; each is also returned wrapped with context where a
// path or detail is available.
var (
	ErrIndexClosed             = errors.New("index: closed")
	ErrIndexReadOnly           = errors.New("index: read-only")
	ErrIndexDoesNotExist       = errors.New("index: does not exist")
	ErrTransactionInProgress   = errors.New("index: transaction already in progress")
	ErrIndexModifiedDuringScan = errors.New("index: modified during scan")
	ErrInterrupted             = errors.New("interrupted")
)

// SchemaMismatchError reports that the schema persisted in an index
// directory differs structurally from the in-code schema.
type SchemaMismatchError struct {
	Path string
	Diff string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("index %s: schema mismatch: %s", e.Path, e.Diff)
}

// CompilationDatabaseNotFoundError is returned by the scanner when
// UseCompilationDatabase was requested but no compile_commands.json
// could be found.
type CompilationDatabaseNotFoundError struct {
	Dir string
}

func (e *CompilationDatabaseNotFoundError) Error() string {
	return fmt.Sprintf("no compilation database found under %s", e.Dir)
}

// QueryParseError carries the 0-indexed character position and an
// expected-token message from the Query Parser (spec §4.6).
type QueryParseError struct {
	Position int
	Message  string
	Query    string
}

func (e *QueryParseError) Error() string {
	return fmt.Sprintf("query parse error at position %d: %s", e.Position, e.Message)
}

// FilePerSymbolError wraps a per-file extraction failure. The Indexer
// Pipeline logs these and continues; they are never fatal.
type FilePerSymbolError struct {
	Path       string
	Underlying error
}

func NewFilePerSymbolError(path string, err error) *FilePerSymbolError {
	return &FilePerSymbolError{Path: path, Underlying: err}
}

func (e *FilePerSymbolError) Error() string {
	return fmt.Sprintf("indexing %s: %v", e.Path, e.Underlying)
}

func (e *FilePerSymbolError) Unwrap() error { return e.Underlying }

// ConfigError reports a malformed or out-of-range configuration field.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError aggregates multiple independent errors, e.g. per-shard
// commit failures at the end of an indexing run.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nil errors and returns nil if none remain.
func NewMultiError(errs []error) error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }

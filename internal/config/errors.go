package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Errors returned by configuration operations.
var (
	// ErrNotFound indicates no configuration file could be discovered.
	ErrNotFound = errors.New("config file not found")

	// ErrPermission indicates a configuration file could not be read or
	// written because access was denied.
	ErrPermission = errors.New("permission denied")

	// ErrTypeMismatch indicates a value holds the wrong variant.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPath indicates a malformed dotted setting path.
	ErrInvalidPath = errors.New("invalid setting path")
)

// Kind classifies errors surfaced to the host.
type Kind uint8

const (
	// KindIO is a generic read or write failure.
	KindIO Kind = iota
	// KindParse is a lexer or parser failure.
	KindParse
	// KindValidation is a mapping or range failure.
	KindValidation
	// KindPath means no file was found where one was required.
	KindPath
	// KindPermission means access to a file was denied.
	KindPermission
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindPath:
		return "path"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Error is a classified failure tied to a file.
type Error struct {
	Kind Kind
	// File is the path involved, if any.
	File string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrPermission and ErrNotFound by kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindPermission:
		return target == ErrPermission
	case KindPath:
		return target == ErrNotFound
	}
	return false
}

// Classify wraps err in an *Error with a kind derived from its chain.
// It returns nil for nil and leaves already classified errors unchanged.
func Classify(file string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: KindOf(err), File: file, Err: err}
}

// KindOf reports the kind of err.
func KindOf(err error) Kind {
	var ce *Error
	var ve *ValidationError
	switch {
	case errors.As(err, &ce):
		return ce.Kind
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrNotFound):
		return KindPath
	case errors.Is(err, toml.ErrLex), errors.As(err, new(*toml.ParseError)):
		return KindParse
	case errors.As(err, &ve):
		return KindValidation
	default:
		return KindIO
	}
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeTypeMismatch indicates the value holds the wrong variant.
	ErrCodeTypeMismatch ValidationErrorCode = iota
	// ErrCodeOutOfRange indicates a numeric value is out of range.
	ErrCodeOutOfRange
	// ErrCodeInvalidEnum indicates the value is not one of the allowed names.
	ErrCodeInvalidEnum
	// ErrCodeInvalidCombo indicates a keybinding combo failed to parse.
	ErrCodeInvalidCombo
	// ErrCodeInvalidAction indicates an unknown keybinding action.
	ErrCodeInvalidAction
	// ErrCodeReservedKey indicates a custom key shadows a built-in section.
	ErrCodeReservedKey
	// ErrCodeInvalidColor indicates a color is not "#RRGGBB" hex.
	ErrCodeInvalidColor
)

// String returns a machine-friendly name for the code.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeTypeMismatch:
		return "type_mismatch"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	case ErrCodeInvalidCombo:
		return "invalid_combo"
	case ErrCodeInvalidAction:
		return "invalid_action"
	case ErrCodeReservedKey:
		return "reserved_key"
	case ErrCodeInvalidColor:
		return "invalid_color"
	default:
		return "unknown"
	}
}

// ValidationError describes a setting that could not be mapped.
type ValidationError struct {
	// Path is the dotted setting path, e.g. "editor.tab_width".
	Path string
	// Expected is the expected type name for type mismatches.
	Expected string
	// Actual is the type name that was found.
	Actual string
	// Message describes other failures.
	Message string
	Code    ValidationErrorCode
	// Err is an underlying cause, such as a combo parse error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Code == ErrCodeTypeMismatch {
		return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation, and ErrTypeMismatch for type mismatches.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return target == ErrTypeMismatch && e.Code == ErrCodeTypeMismatch
}

func typeMismatch(path, expected string, got toml.Value) *ValidationError {
	return &ValidationError{Path: path, Expected: expected, Actual: got.Kind().String(), Code: ErrCodeTypeMismatch}
}

// Warning is a non-fatal mapping diagnostic.
type Warning struct {
	Path    string
	Message string
	// Suggestion is a close known key for unknown-key warnings.
	Suggestion string
}

// String renders the warning for logs and CLI output.
func (w Warning) String() string {
	if w.Suggestion != "" {
		return fmt.Sprintf("%s: %s (did you mean %q?)", w.Path, w.Message, w.Suggestion)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// Error is a CUE failure in one file, broken down per field. It prints as
	// <file>: <path>: <message>, or as an indented list when several fields
	// failed:
	//
	//	actx.cue: locations[1].source: invalid value "" (out of bound !="")
	Error struct {
		File   string
		Fields []FieldError

		cause error
	}

	// FieldError is one failure. Path is empty for errors that belong to no
	// field, such as syntax errors.
	FieldError struct {
		Path    string
		Message string
	}
)

func (e *Error) Error() string {
	if len(e.Fields) == 1 {
		return e.File + ": " + e.Fields[0].String()
	}
	lines := make([]string, len(e.Fields))
	for n, f := range e.Fields {
		lines[n] = f.String()
	}
	return e.File + ": validation failed:\n  " + strings.Join(lines, "\n  ")
}

// Unwrap returns the underlying CUE error.
func (e *Error) Unwrap() error { return e.cause }

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// WrapError turns err into an *Error for file. Errors that CUE did not
// produce become a single field-less entry.
func WrapError(err error, file string) error {
	if err == nil {
		return nil
	}
	e := &Error{File: file, cause: err}
	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		e.Fields = []FieldError{{Message: err.Error()}}
		return e
	}
	for _, ce := range cueErrs {
		format, args := ce.Msg()
		e.Fields = append(e.Fields, FieldError{
			Path:    formatPath(errors.Path(ce)),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return e
}

// formatPath renders a CUE error path such as [locations 0 source] as
// locations[0].source.
func formatPath(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err == nil && b.Len() > 0 {
			b.WriteString("[" + p + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// CheckFileSize returns an error when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}

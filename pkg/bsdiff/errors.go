package bsdiff

import (
	"fmt"

	"github.com/pkg/errors"
)

// CorruptPatchError reports a control-record bounds violation, a
// truncated payload, or a bad container header.
type CorruptPatchError struct {
	reason string
}

func (e *CorruptPatchError) Error() string { return "corrupt patch: " + e.reason }

func corruptPatchf(format string, args ...interface{}) error {
	return &CorruptPatchError{reason: fmt.Sprintf(format, args...)}
}

// CorruptIndexError reports a bad index header, unit size, or short read.
type CorruptIndexError struct {
	reason string
}

func (e *CorruptIndexError) Error() string { return "corrupt index: " + e.reason }

func corruptIndexf(format string, args ...interface{}) error {
	return &CorruptIndexError{reason: fmt.Sprintf(format, args...)}
}

// InvalidArgumentError reports an unknown format tag or other
// caller-supplied argument the core refuses to act on.
type InvalidArgumentError struct {
	reason string
}

func (e *InvalidArgumentError) Error() string { return "invalid argument: " + e.reason }

func invalidArgumentf(format string, args ...interface{}) error {
	return &InvalidArgumentError{reason: fmt.Sprintf(format, args...)}
}

// wrapIO annotates an underlying stream error with the operation that
// triggered it, without reclassifying it as corrupt-patch/corrupt-index.
func wrapIO(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "bsdiff: %s", op)
}

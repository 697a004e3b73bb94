// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzengine

import (
	"errors"
	"fmt"
)

// ErrNoBusName is raised when no target bus name was given on the command
// line.
var ErrNoBusName = errors.New("fuzzengine: no bus name given (use --bus-name)")

// ErrMethodNotFound is raised when the method selected with --method does
// not exist on the tested interface(s).
var ErrMethodNotFound = errors.New("fuzzengine: selected method not found")

// StatusError carries the worst per-method outcome code observed during a
// run, so the process can exit with the documented status (1 crash, 2 void
// contract violation, 4 check command failure).
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fuzzengine: target misbehaved during fuzzing (status %d)", e.Code)
}

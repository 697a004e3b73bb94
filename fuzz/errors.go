// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"errors"
	"fmt"
)

// ErrEmptySignature is raised when an argument carries no type signature at
// all; introspection should never produce such a method.
var ErrEmptySignature = errors.New("fuzz: empty argument signature")

// ErrDescriptorOverflow is raised when the concatenated argument signatures
// exceed the fixed tuple descriptor size.
var ErrDescriptorOverflow = errors.New("fuzz: tuple descriptor exceeds maximum length")

// UnsupportedSignatureError marks a method argument with a container type
// signature (arrays, dicts, structs). Such methods are skipped as a whole;
// this is not a failure of the target.
type UnsupportedSignatureError struct {
	Sig string
}

func (e *UnsupportedSignatureError) Error() string {
	return fmt.Sprintf("fuzz: unsupported argument signature %q", e.Sig)
}

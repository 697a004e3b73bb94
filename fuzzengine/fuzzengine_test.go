// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzengine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError(t *testing.T) {
	err := &StatusError{Code: 2}
	assert.Contains(t, err.Error(), "status 2")
}

func TestRunRequiresBusName(t *testing.T) {
	fe := New()
	defer fe.Close()
	fe.app.Writer = &bytes.Buffer{}
	err := fe.Start([]string{"dfuzzer"})
	assert.ErrorIs(t, err, ErrNoBusName)
}

func TestRunRejectsInvalidObjectPath(t *testing.T) {
	fe := New()
	defer fe.Close()
	fe.app.Writer = &bytes.Buffer{}
	err := fe.Start([]string{"dfuzzer", "--bus-name", "com.example.Target", "--object", "not-a-path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid object path")
}

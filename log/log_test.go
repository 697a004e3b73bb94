// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log_test

import (
	"os"

	"github.com/mrc0mmand/dfuzzer/log"
)

func init() {
	if err := log.Init("info", "", true); err != nil {
		panic(err)
	}
}

// This example shows when and how to use the error log level.
func Example_error() error {
	conditionWhichShouldBeTrue := true
	// ...

	// create own error
	if !conditionWhichShouldBeTrue {
		return log.Error("package name: condition should be true")
	}

	// calling external package which can produce an error
	_, err := os.Create("filename")
	if err != nil {
		return log.Error(err)
	}
	return nil
}

// This example shows when and how to use the debug log level.
func Example_debug() {
	// one line per trial at most, the fuzzing loop is hot
	log.Debug("fuzz: method raised a D-Bus exception")
}

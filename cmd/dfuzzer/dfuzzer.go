// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// dfuzzer is a black-box robustness fuzzer for processes communicating
// through D-Bus.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mrc0mmand/dfuzzer/fuzzengine"
	"github.com/mrc0mmand/dfuzzer/log"
	"github.com/mrc0mmand/dfuzzer/util"
	"github.com/mrc0mmand/dfuzzer/util/interrupt"
)

func dfuzzerMain() error {
	defer log.Flush()

	// create fuzzing engine
	fe := fuzzengine.New()
	defer fe.Close()

	// add interrupt handler
	interrupt.AddInterruptHandler(func() {
		log.Infof("gracefully shutting down...")
		fe.Close()
	})

	// start fuzzing engine
	go func() {
		interrupt.ShutdownChannel <- fe.Start(os.Args)
	}()

	return <-interrupt.ShutdownChannel
}

func main() {
	// work around defer not working after os.Exit()
	if err := dfuzzerMain(); err != nil {
		var status *fuzzengine.StatusError
		if errors.As(err, &status) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(status.Code)
		}
		util.Fatal(err)
	}
}

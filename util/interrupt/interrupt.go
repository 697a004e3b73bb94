// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interrupt allows to handle interrupts.
package interrupt

import (
	"os"
	"os/signal"
	"sync"

	"github.com/mrc0mmand/dfuzzer/log"
)

// ShutdownChannel is used to signal that shutdown is in progress.
var ShutdownChannel = make(chan error)

var (
	mutex    sync.Mutex
	handlers []func()
	notified bool
)

// AddInterruptHandler adds a handler to call when a SIGINT (Ctrl+C) is
// received. The first registration installs the signal listener; handlers run
// in registration order before the shutdown channel is signaled.
func AddInterruptHandler(handler func()) {
	mutex.Lock()
	defer mutex.Unlock()

	handlers = append(handlers, handler)
	if notified {
		return
	}
	notified = true

	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, os.Interrupt)
	go func() {
		<-interruptChannel
		log.Infof("received SIGINT (Ctrl+C). Shutting down...")
		mutex.Lock()
		callbacks := append([]func(){}, handlers...)
		mutex.Unlock()
		for _, callback := range callbacks {
			callback()
		}
		// Signal the main goroutine to shutdown.
		ShutdownChannel <- nil
	}()
}

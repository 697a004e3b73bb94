// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LiveState is the verdict of a liveness check on the target process.
type LiveState int

const (
	// StateAlive means the process runs normally.
	StateAlive LiveState = iota
	// StateCrashed means the process is gone or terminating abnormally.
	StateCrashed
)

// procRoot is the root of the kernel process filesystem; tests point it at a
// fixture tree.
var procRoot = "/proc"

// CheckLiveness inspects the status record of pid. A missing record means
// the process exited. A record with an active core dump means the process
// has already begun terminating abnormally; there is no point waiting for
// the dump to finish. A read error mid-scan is conservatively treated as a
// crash, false suspicion is cheaper to investigate than a masked one. That
// heuristic can mistake transient permission errors for crashes; it is kept
// because the alternative misses real crashes.
func CheckLiveness(pid int) (LiveState, error) {
	f, err := os.Open(filepath.Join(procRoot, strconv.Itoa(pid), "status"))
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return StateCrashed, nil
		}
		return StateCrashed, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rest, found := strings.CutPrefix(scanner.Text(), "CoreDumping:")
		if !found {
			continue
		}
		dumping, err := strconv.Atoi(strings.TrimSpace(rest))
		if err == nil && dumping > 0 {
			return StateCrashed, nil
		}
		break
	}
	if scanner.Err() != nil {
		return StateCrashed, nil
	}
	return StateAlive, nil
}

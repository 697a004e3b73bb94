// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Outcome is the terminal result of one method's fuzzing pass.
type Outcome int

const (
	// OutcomeSuccess means the method survived all trials.
	OutcomeSuccess Outcome = iota
	// OutcomeUnsupported means the method has container-typed arguments and
	// was skipped as a whole.
	OutcomeUnsupported
	// OutcomeRemoteException means the method kept raising D-Bus exceptions
	// until the per-method budget was exhausted; this counts as a pass.
	OutcomeRemoteException
	// OutcomeNoReply means the method stopped replying; no response at all
	// is suspicious and treated as target misbehavior.
	OutcomeNoReply
	// OutcomeVoidViolation means a method declared void returned a
	// non-empty result.
	OutcomeVoidViolation
	// OutcomeCrashed means the target process exited or started dumping
	// core. The target is unusable for further tests.
	OutcomeCrashed
	// OutcomeCheckFailed means the configured external check command
	// returned a non-zero exit status after a call.
	OutcomeCheckFailed
	// OutcomeInternalError marks failures of the fuzzer itself.
	OutcomeInternalError
)

// String returns the outcome label used in the machine-parsable log.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeUnsupported:
		return "Skip"
	case OutcomeRemoteException:
		return "Exception"
	case OutcomeNoReply:
		return "NoReply"
	case OutcomeVoidViolation:
		return "VoidContractViolation"
	case OutcomeCrashed:
		return "Crash"
	case OutcomeCheckFailed:
		return "Command execution error"
	default:
		return "InternalError"
	}
}

// Code maps the outcome to the per-method status code contract:
// 0 success, -1 internal error, 1 target crashed or stopped replying,
// 2 void contract violated, 4 check command failed. Code 3 is reserved
// for warnings and currently never produced.
func (o Outcome) Code() int {
	switch o {
	case OutcomeSuccess, OutcomeUnsupported, OutcomeRemoteException:
		return 0
	case OutcomeNoReply, OutcomeCrashed:
		return 1
	case OutcomeVoidViolation:
		return 2
	case OutcomeCheckFailed:
		return 4
	default:
		return -1
	}
}

// busErrKind is the closed classification of a failed bus call, derived once
// at the boundary where the bus library reports the failure.
type busErrKind int

const (
	errKindNone busErrKind = iota
	// errKindNoReply: the target sent no response at all.
	errKindNoReply
	// errKindTimeout: the bus-level call timeout fired.
	errKindTimeout
	// errKindAccessDenied: the call was rejected by bus policy or
	// authentication, not by the target's handler.
	errKindAccessDenied
	// errKindBenignTimeout: a timeout reported only in the error text.
	errKindBenignTimeout
	// errKindRemote: any other exception raised by the target.
	errKindRemote
)

const (
	errNameNoReply    = "org.freedesktop.DBus.Error.NoReply"
	errNameTimeout    = "org.freedesktop.DBus.Error.Timeout"
	errNameAccess     = "org.freedesktop.DBus.Error.AccessDenied"
	errNameAuthFailed = "org.freedesktop.DBus.Error.AuthFailed"
)

// classifyBusError maps a call error to its kind. First match wins, in the
// priority order of the error names above.
func classifyBusError(err error) busErrKind {
	if err == nil {
		return errKindNone
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case errNameNoReply:
			return errKindNoReply
		case errNameTimeout:
			return errKindTimeout
		case errNameAccess, errNameAuthFailed:
			return errKindAccessDenied
		}
	}
	if strings.Contains(err.Error(), "Timeout") {
		return errKindBenignTimeout
	}
	return errKindRemote
}

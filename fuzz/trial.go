// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fuzz implements the method-fuzzing engine: it assembles one call
// payload per trial from generated argument values, invokes the method on
// the live target, and classifies whether the target survived, raised a
// legitimate exception, broke its void-return contract, or crashed.
package fuzz

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/godbus/dbus/v5"

	"github.com/mrc0mmand/dfuzzer/gen"
	"github.com/mrc0mmand/dfuzzer/log"
)

const (
	// MinBufSize is the smallest accepted string buffer budget in bytes.
	MinBufSize = 512
	// MaxBufLen is the budget substituted when none (or a too-small one)
	// was supplied.
	MaxBufLen = 50000
	// MaxExceptions bounds the counted D-Bus exceptions per method; once
	// reached, remaining trials are treated as an implicit pass.
	MaxExceptions = 10
)

// timeoutCooldown is slept after a bus-level timeout before the method is
// declared misbehaving; processing of large fuzzed inputs may simply be
// slow. Variable so tests do not have to wait it out.
var timeoutCooldown = 10 * time.Second

// Caller is the subset of dbus.BusObject the trial loop needs. The object
// handles returned by dbus.Conn.Object satisfy it.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// TestOptions carries the per-method test parameters.
type TestOptions struct {
	// BufSize is the maximum size of generated strings in bytes. Zero means
	// unset; values below MinBufSize select MaxBufLen.
	BufSize int64
	// PID of the target process, for liveness checks.
	PID int
	// Void marks a method that declares no out-arguments.
	Void bool
	// CheckCmd is an optional shell command run after every call; a
	// non-zero exit status fails the method.
	CheckCmd string
}

// Fuzzer fuzzes the methods of one interface on one object.
type Fuzzer struct {
	obj     Caller
	busName string
	objPath dbus.ObjectPath
	iface   string
	fullLog *FullLog
	out     io.Writer
}

// New returns a Fuzzer calling methods of iface on the object obj, which
// must live at objPath under the bus name busName.
func New(obj Caller, busName string, objPath dbus.ObjectPath, iface string) *Fuzzer {
	return &Fuzzer{
		obj:     obj,
		busName: busName,
		objPath: objPath,
		iface:   iface,
		out:     os.Stdout,
	}
}

// SetFullLog directs the machine-parsable per-trial log to l.
func (f *Fuzzer) SetFullLog(l *FullLog) {
	f.fullLog = l
}

// SetOutput redirects the human-readable progress output, default stdout.
func (f *Fuzzer) SetOutput(w io.Writer) {
	f.out = w
}

// trialResult classifies a single invocation.
type trialResult int

const (
	trialSuccess trialResult = iota
	// trialException is counted toward the per-method exception budget.
	trialException
	// trialSkip is a benign exception: neither counted nor logged.
	trialSkip
	trialFatalException
	trialVoidViolation
)

// TestMethod runs the fuzzing loop for m: while the generator's continuation
// predicate holds, it builds a payload, invokes the method, runs the
// optional check command, verifies the target is alive, and classifies the
// response. The returned error is non-nil only for internal failures of the
// fuzzer itself; target misbehavior is expressed through the Outcome.
func (f *Fuzzer) TestMethod(m *Method, opts TestOptions) (Outcome, error) {
	bufSize := opts.BufSize
	explicitBuf := bufSize != 0
	if bufSize < MinBufSize {
		bufSize = MaxBufLen
	}
	r := gen.NewRand(bufSize)
	defer r.Close()

	log.Debugf("method: %s(%s)", m.Name, strings.Join(m.Signatures(), ", "))

	outcome := OutcomeSuccess
loop:
	for r.Continue(m.StringBiasing, m.ArgCount()) {
		// The previous trial's payload and values are dropped wholesale by
		// the rebuild; a payload is never reused across iterations.
		payload, err := buildPayload(m, r)
		if err != nil {
			var unsup *UnsupportedSignatureError
			if errors.As(err, &unsup) {
				log.Debugf("unsupported argument signature: %s", unsup.Sig)
				f.printSkip(m, "complex signatures not yet implemented")
				return OutcomeUnsupported, nil
			}
			return OutcomeInternalError, log.Error(err)
		}
		log.Tracef("payload %s: %s", payload.Signature(), spew.Sdump(payload.Args()))

		res := f.invoke(m, payload, opts.Void)

		execr, err := runCheck(opts.CheckCmd)
		if err != nil {
			return OutcomeInternalError, log.Errorf("fuzz: check command did not run: %s", err)
		}
		if execr < 0 {
			return OutcomeInternalError, log.Errorf("fuzz: check command '%s' terminated abnormally", opts.CheckCmd)
		}
		if execr > 0 {
			f.printFail(m, fmt.Sprintf("'%s' returned %d", opts.CheckCmd, execr))
			outcome = OutcomeCheckFailed
			break
		}

		state, err := CheckLiveness(opts.PID)
		if err != nil {
			return OutcomeInternalError, log.Errorf("fuzz: cannot read status of process %d: %s", opts.PID, err)
		}
		if state == StateCrashed {
			f.printFail(m, fmt.Sprintf("process %d exited", opts.PID))
			outcome = OutcomeCrashed
			break
		}

		switch res {
		case trialSuccess:
			f.logTrial(m, OutcomeSuccess.String())
		case trialSkip:
			// benign exception, loop continues without penalty
		case trialException:
			m.exceptions++
			if m.exceptions >= MaxExceptions {
				log.Debugf("method %s exhausted the exception budget (%d), ending trials", m.Name, MaxExceptions)
				break loop
			}
		case trialFatalException:
			f.printFail(m, "method did not reply")
			outcome = OutcomeNoReply
			break loop
		case trialVoidViolation:
			outcome = OutcomeVoidViolation
			break loop
		}
	}

	if outcome == OutcomeSuccess {
		f.printPass(m)
		return OutcomeSuccess, nil
	}
	f.reportFailure(m, outcome, opts, explicitBuf, bufSize)
	return outcome, nil
}

// invoke calls the method synchronously with the payload values and
// classifies the response.
func (f *Fuzzer) invoke(m *Method, p *Payload, void bool) trialResult {
	call := f.obj.Call(f.iface+"."+m.Name, 0, p.Args()...)
	if call.Err != nil {
		switch classifyBusError(call.Err) {
		case errKindNoReply:
			return trialFatalException
		case errKindTimeout:
			log.Debugf("method %s timed out, waiting %s for the target to catch up", m.Name, timeoutCooldown)
			time.Sleep(timeoutCooldown)
			return trialFatalException
		case errKindAccessDenied:
			log.Debugf("method %s raised exception '%s'", m.Name, call.Err)
			return trialSkip
		case errKindBenignTimeout:
			log.Debugf("method %s: timeout reached", m.Name)
			return trialSkip
		default:
			log.Debugf("method %s: D-Bus exception thrown: %.60s", m.Name, call.Err.Error())
			return trialException
		}
	}
	if void && len(call.Body) != 0 {
		f.printFail(m, fmt.Sprintf("void method returns '(%s)' instead of '()'",
			dbus.SignatureOf(call.Body...).String()))
		return trialVoidViolation
	}
	return trialSuccess
}

// runCheck executes cmd through the shell with its output discarded. It
// returns the command's exit status; err is set only when the command could
// not be run at all.
func runCheck(cmd string) (int, error) {
	if cmd == "" {
		return 0, nil
	}
	c := exec.Command("/bin/sh", "-c", cmd)
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

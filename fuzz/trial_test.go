// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller implements Caller for the trial loop tests.
type fakeCaller struct {
	calls int
	fn    func(method string, args []interface{}) *dbus.Call
}

func (c *fakeCaller) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	c.calls++
	if c.fn == nil {
		return &dbus.Call{}
	}
	return c.fn(method, args)
}

func newTestFuzzer(c Caller) (*Fuzzer, *bytes.Buffer, *bytes.Buffer) {
	f := New(c, "com.example.Target", "/com/example/Target", "com.example.Target")
	var out, logBuf bytes.Buffer
	f.SetOutput(&out)
	f.SetFullLog(NewFullLog(&logBuf))
	return f, &out, &logBuf
}

func TestPingSuccess(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{}
	f, out, logBuf := newTestFuzzer(caller)

	m := NewMethod("Ping")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234, Void: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 0, outcome.Code())
	// zero-argument methods are called exactly once
	assert.Equal(t, 1, caller.calls)
	assert.Contains(t, out.String(), "PASS")

	for _, line := range strings.Split(strings.TrimSpace(logBuf.String()), "\n") {
		assert.Equal(t, "com.example.Target;/com/example/Target;Ping;Success", line)
	}
}

func TestSetNameTargetCrash(t *testing.T) {
	procDir := fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			// target dies while handling the call
			require.NoError(t, os.RemoveAll(procDir))
			return &dbus.Call{}
		},
	}
	f, out, _ := newTestFuzzer(caller)

	m := NewMethod("SetName")
	m.AppendArg("s")
	outcome, err := f.TestMethod(m, TestOptions{BufSize: 1024, PID: 1234, Void: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCrashed, outcome)
	assert.Equal(t, 1, outcome.Code())
	assert.Equal(t, 1, caller.calls)

	assert.Contains(t, out.String(), "process 1234 exited")
	assert.Contains(t, out.String(), "on input:")
	assert.Contains(t, out.String(), "-t SetName")
	// explicitly supplied budget shows up in the reproducer
	assert.Contains(t, out.String(), "-b 1024")
}

func TestVoidContractViolation(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			return &dbus.Call{Body: []interface{}{"unexpected"}}
		},
	}
	f, out, _ := newTestFuzzer(caller)

	m := NewMethod("GetValue")
	m.AppendArg("i")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234, Void: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeVoidViolation, outcome)
	assert.Equal(t, 2, outcome.Code())
	// the loop must halt on the first violating trial
	assert.Equal(t, 1, caller.calls)
	assert.Contains(t, out.String(), "void method returns '(s)' instead of '()'")
	// no explicit budget, no -b in the reproducer
	assert.NotContains(t, out.String(), "-b ")
}

func TestVoidEmptyTupleIsSuccess(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{}
	f, _, _ := newTestFuzzer(caller)

	m := NewMethod("Ping")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234, Void: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestExceptionBudgetExhausted(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			return &dbus.Call{Err: dbusErr("com.example.Error.Invalid", "no such value")}
		},
	}
	f, out, _ := newTestFuzzer(caller)

	m := NewMethod("GetValue")
	m.AppendArg("i")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234})
	require.NoError(t, err)
	// exhausting the exception budget is an implicit pass
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 0, outcome.Code())
	assert.Equal(t, MaxExceptions, caller.calls)
	assert.Contains(t, out.String(), "PASS")
}

func TestBenignExceptionsDoNotCount(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			return &dbus.Call{Err: dbusErr(errNameAccess, "not allowed")}
		},
	}
	f, _, _ := newTestFuzzer(caller)

	m := NewMethod("GetValue")
	m.AppendArg("i")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	// the loop ran to its natural end instead of stopping at the budget
	assert.Greater(t, caller.calls, MaxExceptions)
}

func TestNoReplyIsFatal(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			return &dbus.Call{Err: dbusErr(errNameNoReply, "did not reply")}
		},
	}
	f, out, _ := newTestFuzzer(caller)

	m := NewMethod("SetName")
	m.AppendArg("s")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoReply, outcome)
	assert.Equal(t, 1, outcome.Code())
	assert.Equal(t, 1, caller.calls)
	assert.Contains(t, out.String(), "reproducer:")
}

func TestBusTimeoutCoolsDownThenFails(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	oldCooldown := timeoutCooldown
	timeoutCooldown = time.Millisecond
	t.Cleanup(func() { timeoutCooldown = oldCooldown })

	caller := &fakeCaller{
		fn: func(string, []interface{}) *dbus.Call {
			return &dbus.Call{Err: dbusErr(errNameTimeout, "timed out")}
		},
	}
	f, _, _ := newTestFuzzer(caller)

	m := NewMethod("SetName")
	m.AppendArg("s")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoReply, outcome)
	assert.Equal(t, 1, caller.calls)
}

func TestUnsupportedSignatureSkipsMethod(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{}
	f, out, logBuf := newTestFuzzer(caller)

	m := NewMethod("Configure")
	m.AppendArg("i")
	m.AppendArg("a{sv}")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsupported, outcome)
	assert.Equal(t, 0, outcome.Code())
	// the method must never be invoked
	assert.Zero(t, caller.calls)
	assert.Contains(t, out.String(), "SKIP")
	assert.NotContains(t, out.String(), "PASS")
	assert.NotContains(t, out.String(), "FAIL")
	assert.Empty(t, logBuf.String())
}

func TestCheckCommandFailure(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{}
	f, out, _ := newTestFuzzer(caller)

	m := NewMethod("SetName")
	m.AppendArg("i")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234, CheckCmd: "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckFailed, outcome)
	assert.Equal(t, 4, outcome.Code())
	assert.Equal(t, 1, caller.calls)
	assert.Contains(t, out.String(), "'exit 3' returned 3")
	assert.Contains(t, out.String(), "-e 'exit 3'")
}

func TestCheckCommandSuccess(t *testing.T) {
	fakeProc(t, 1234, aliveStatus)
	caller := &fakeCaller{}
	f, _, _ := newTestFuzzer(caller)

	m := NewMethod("Ping")
	outcome, err := f.TestMethod(m, TestOptions{PID: 1234, Void: true, CheckCmd: "true"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestRunCheck(t *testing.T) {
	code, err := runCheck("")
	require.NoError(t, err)
	assert.Zero(t, code)

	code, err = runCheck("exit 7")
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	code, err = runCheck("true")
	require.NoError(t, err)
	assert.Zero(t, code)
}

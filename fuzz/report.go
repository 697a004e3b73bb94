// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/godbus/dbus/v5"
)

var (
	colorPass = color.New(color.FgGreen).SprintFunc()
	colorFail = color.New(color.FgRed).SprintFunc()
	colorSkip = color.New(color.FgBlue).SprintFunc()
	colorRepr = color.New(color.FgYellow).SprintFunc()
)

// FullLog writes the machine-parsable per-trial log: one semicolon-delimited
// line per trial of the shape interface;object;method;sig;value;...;outcome.
// A nil FullLog discards everything.
type FullLog struct {
	w io.Writer
}

// NewFullLog returns a FullLog writing to w.
func NewFullLog(w io.Writer) *FullLog {
	return &FullLog{w: w}
}

func (l *FullLog) enabled() bool {
	return l != nil && l.w != nil
}

func (l *FullLog) printf(format string, args ...interface{}) {
	if !l.enabled() {
		return
	}
	fmt.Fprintf(l.w, format, args...)
}

// logTrial records one finished trial of m in the machine log.
func (f *Fuzzer) logTrial(m *Method, outcome string) {
	if !f.fullLog.enabled() {
		return
	}
	f.fullLog.printf("%s;%s;%s;", f.iface, f.objPath, m.Name)
	for i := range m.args {
		a := &m.args[i]
		f.fullLog.printf("%s;%s;", a.Sig, machineValue(a.value))
	}
	f.fullLog.printf("%s\n", outcome)
}

func (f *Fuzzer) printPass(m *Method) {
	fmt.Fprintf(f.out, "  %s %s\n", colorPass("PASS"), m.Name)
}

func (f *Fuzzer) printFail(m *Method, reason string) {
	fmt.Fprintf(f.out, "  %s %s - %s\n", colorFail("FAIL"), m.Name, reason)
}

func (f *Fuzzer) printSkip(m *Method, reason string) {
	fmt.Fprintf(f.out, "  %s %s - %s\n", colorSkip("SKIP"), m.Name, reason)
}

// reportFailure prints the argument values of the failed trial and a
// directly re-runnable reproduction command line, and records the terminal
// outcome in the machine log.
func (f *Fuzzer) reportFailure(m *Method, outcome Outcome, opts TestOptions, explicitBuf bool, bufSize int64) {
	if m.ArgCount() > 0 {
		fmt.Fprintf(f.out, "   on input:\n")
		for i := range m.args {
			a := &m.args[i]
			fmt.Fprintf(f.out, "    --%s-- %s\n", a.Sig, humanValue(a.value))
		}
	}
	f.logTrial(m, outcome.String())

	repro := fmt.Sprintf("dfuzzer -v -n %s -o %s -i %s -t %s",
		f.busName, f.objPath, f.iface, m.Name)
	if explicitBuf {
		repro += fmt.Sprintf(" -b %d", bufSize)
	}
	if opts.CheckCmd != "" {
		repro += fmt.Sprintf(" -e '%s'", opts.CheckCmd)
	}
	fmt.Fprintf(f.out, "   reproducer: %s\n", colorRepr(repro))
}

// humanValue renders a generated value for the progress output: integers as
// decimal, booleans as true/false, string-like values as text with their
// byte length, variants unwrapped when they carry a string payload.
func humanValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<none>"
	case string:
		return fmt.Sprintf("[length: %d B] '%s'", len(val), val)
	case dbus.ObjectPath:
		return fmt.Sprintf("[length: %d B] '%s'", len(val), string(val))
	case dbus.Signature:
		s := val.String()
		return fmt.Sprintf("[length: %d B] '%s'", len(s), s)
	case dbus.Variant:
		if s, ok := variantString(val); ok {
			return fmt.Sprintf("[length: %d B] '%s'", len(s), s)
		}
		return fmt.Sprintf("'%v'", val.Value())
	case bool:
		if val {
			return "'true'"
		}
		return "'false'"
	case float64:
		return fmt.Sprintf("'%g'", val)
	default:
		// the integer widths and file descriptors
		return fmt.Sprintf("'%d'", v)
	}
}

// machineValue renders a generated value for the machine log. String-like
// values are hex dumped so the log stays parsable whatever bytes were
// generated.
func machineValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return hex.EncodeToString([]byte(val))
	case dbus.ObjectPath:
		return hex.EncodeToString([]byte(val))
	case dbus.Signature:
		return hex.EncodeToString([]byte(val.String()))
	case dbus.Variant:
		if s, ok := variantString(val); ok {
			return hex.EncodeToString([]byte(s))
		}
		return "variant"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// variantString unwraps nested variants down to a string payload.
func variantString(v dbus.Variant) (string, bool) {
	switch inner := v.Value().(type) {
	case string:
		return inner, true
	case dbus.Variant:
		return variantString(inner)
	}
	return "", false
}

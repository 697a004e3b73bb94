// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import "strings"

// Argument is one formal parameter of the method under test: its D-Bus type
// signature and, during an active trial, the value generated for it. The
// value is replaced wholesale at the start of every trial.
type Argument struct {
	Sig   string
	value interface{}
}

// Method is the unit of work for one fuzzing pass: the method name, its
// arguments in call-position order, and the per-method trial bookkeeping.
// A Method is owned by whoever runs the test; it must not be shared across
// concurrent tests.
type Method struct {
	Name string
	// StringBiasing is set when any argument is string-like or a variant;
	// it switches the generator to length-doubling pacing.
	StringBiasing bool

	args       []Argument
	exceptions int
}

// NewMethod returns a fresh Method for name with no arguments.
func NewMethod(name string) *Method {
	return &Method{Name: name}
}

// AppendArg appends one argument signature. An empty signature is a no-op,
// some introspection call sites use it as a "no more arguments" sentinel.
func (m *Method) AppendArg(sig string) {
	if sig == "" {
		return
	}
	m.args = append(m.args, Argument{Sig: sig})
	if strings.ContainsAny(sig, "sv") {
		m.StringBiasing = true
	}
}

// ArgCount returns the number of arguments of the method.
func (m *Method) ArgCount() int {
	return len(m.args)
}

// Signatures returns the argument signatures in call-position order.
func (m *Method) Signatures() []string {
	sigs := make([]string, len(m.args))
	for i := range m.args {
		sigs[i] = m.args[i].Sig
	}
	return sigs
}

// Clear resets the method to the freshly-populated state: generated values
// are dropped and counters reset. Required before a Method value is reused
// for another fuzzing pass.
func (m *Method) Clear() {
	m.dropValues()
	m.exceptions = 0
}

// dropValues releases the generated values of the last trial.
func (m *Method) dropValues() {
	for i := range m.args {
		m.args[i].value = nil
	}
}

// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"fmt"

	"github.com/mrc0mmand/dfuzzer/gen"
)

// maxTupleSig bounds the tuple descriptor, including the surrounding
// parentheses. Methods whose signatures do not fit are rejected before any
// call is made.
const maxTupleSig = 255

// Payload is one fully-formed call: the tuple descriptor of all argument
// signatures and the generated values in call-position order. A Payload is
// immutable; its values stay readable for diagnostics after the call.
type Payload struct {
	sig  string
	args []interface{}
}

// Signature returns the tuple descriptor, e.g. "(sis)".
func (p *Payload) Signature() string {
	return p.sig
}

// Args returns the generated argument values in call-position order.
func (p *Payload) Args() []interface{} {
	return p.args
}

// tupleBuilder accumulates one typed value per argument and finalizes into
// an immutable Payload. The builder itself is transient: after seal it no
// longer references the values.
type tupleBuilder struct {
	sig  []byte
	args []interface{}
	max  int
}

func newTupleBuilder(max int) *tupleBuilder {
	b := &tupleBuilder{max: max}
	b.sig = append(make([]byte, 0, max), '(')
	return b
}

func (b *tupleBuilder) append(sig string, v interface{}) error {
	// reserve one byte for the closing parenthesis
	if len(b.sig)+len(sig) > b.max-1 {
		return ErrDescriptorOverflow
	}
	b.sig = append(b.sig, sig...)
	b.args = append(b.args, v)
	return nil
}

// seal converts the transient builder state into an owned Payload. The
// builder is spent afterwards.
func (b *tupleBuilder) seal() *Payload {
	p := &Payload{sig: string(append(b.sig, ')')), args: b.args}
	b.sig, b.args = nil, nil
	return p
}

// buildPayload generates a fresh value for every argument of m and packs
// them into a Payload. A container-typed argument aborts the whole pass with
// UnsupportedSignatureError; values generated so far are dropped.
func buildPayload(m *Method, r *gen.Rand) (*Payload, error) {
	b := newTupleBuilder(maxTupleSig)
	for i := range m.args {
		a := &m.args[i]
		switch {
		case len(a.Sig) == 0:
			m.dropValues()
			return nil, ErrEmptySignature
		case len(a.Sig) > 1:
			m.dropValues()
			return nil, &UnsupportedSignatureError{Sig: a.Sig}
		}
		v, err := generateValue(a.Sig[0], r)
		if err != nil {
			m.dropValues()
			return nil, err
		}
		a.value = v
		if err := b.append(a.Sig, v); err != nil {
			m.dropValues()
			return nil, err
		}
	}
	return b.seal(), nil
}

// generateValue produces one value for a single-character base type code.
func generateValue(code byte, r *gen.Rand) (interface{}, error) {
	switch code {
	case 'y':
		return r.Uint8(), nil
	case 'b':
		return r.Bool(), nil
	case 'n':
		return r.Int16(), nil
	case 'q':
		return r.Uint16(), nil
	case 'i':
		return r.Int32(), nil
	case 'u':
		return r.Uint32(), nil
	case 'x':
		return r.Int64(), nil
	case 't':
		return r.Uint64(), nil
	case 'd':
		return r.Double(), nil
	case 's':
		s, err := r.String()
		if err != nil {
			return nil, err
		}
		return s, nil
	case 'o':
		o, err := r.ObjectPath()
		if err != nil {
			return nil, err
		}
		return o, nil
	case 'g':
		g, err := r.Signature()
		if err != nil {
			return nil, err
		}
		return g, nil
	case 'v':
		v, err := r.Variant()
		if err != nil {
			return nil, err
		}
		return v, nil
	case 'h':
		h, err := r.UnixFD()
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("fuzz: unknown argument signature %q", string(code))
	}
}

// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrc0mmand/dfuzzer/gen"
)

const allBaseCodes = "ybnqiuxtdsogvh"

func TestBuildPayloadAllBaseCodes(t *testing.T) {
	m := NewMethod("M")
	for _, c := range allBaseCodes {
		m.AppendArg(string(c))
	}
	r := gen.NewRand(MinBufSize)
	defer r.Close()

	p, err := buildPayload(m, r)
	require.NoError(t, err)
	assert.Equal(t, "("+allBaseCodes+")", p.Signature())
	require.Len(t, p.Args(), len(allBaseCodes))

	// signatures must survive payload construction unchanged
	assert.Equal(t, strings.Split(allBaseCodes, ""), m.Signatures())

	args := p.Args()
	assert.IsType(t, uint8(0), args[0])
	assert.IsType(t, false, args[1])
	assert.IsType(t, int16(0), args[2])
	assert.IsType(t, uint16(0), args[3])
	assert.IsType(t, int32(0), args[4])
	assert.IsType(t, uint32(0), args[5])
	assert.IsType(t, int64(0), args[6])
	assert.IsType(t, uint64(0), args[7])
	assert.IsType(t, float64(0), args[8])
	assert.IsType(t, "", args[9])
	assert.IsType(t, dbus.ObjectPath(""), args[10])
	assert.IsType(t, dbus.Signature{}, args[11])
	assert.IsType(t, dbus.Variant{}, args[12])
	assert.IsType(t, dbus.UnixFD(0), args[13])
}

func TestBuildPayloadUnsupported(t *testing.T) {
	m := NewMethod("M")
	m.AppendArg("i")
	m.AppendArg("a{sv}")
	r := gen.NewRand(MinBufSize)
	defer r.Close()

	_, err := buildPayload(m, r)
	var unsup *UnsupportedSignatureError
	require.ErrorAs(t, err, &unsup)
	assert.Equal(t, "a{sv}", unsup.Sig)
	// the value generated for the first argument must have been dropped
	assert.Nil(t, m.args[0].value)
}

func TestBuildPayloadEmptySignature(t *testing.T) {
	m := NewMethod("M")
	m.args = []Argument{{Sig: ""}}
	r := gen.NewRand(MinBufSize)
	defer r.Close()

	_, err := buildPayload(m, r)
	assert.ErrorIs(t, err, ErrEmptySignature)
}

func TestBuildPayloadDescriptorOverflow(t *testing.T) {
	m := NewMethod("M")
	for i := 0; i < maxTupleSig; i++ {
		m.AppendArg("i")
	}
	r := gen.NewRand(MinBufSize)
	defer r.Close()

	_, err := buildPayload(m, r)
	assert.ErrorIs(t, err, ErrDescriptorOverflow)
}

func FuzzTupleBuilder(f *testing.F) {
	f.Add("sis")
	f.Add("ybnqiuxtdsogvh")
	f.Add(strings.Repeat("i", 300))
	f.Fuzz(func(t *testing.T, sigs string) {
		b := newTupleBuilder(maxTupleSig)
		var kept []string
		for _, c := range sigs {
			sig := string(c)
			if err := b.append(sig, nil); err != nil {
				if err != ErrDescriptorOverflow {
					t.Fatalf("unexpected append error: %v", err)
				}
				return
			}
			kept = append(kept, sig)
		}
		p := b.seal()
		if len(p.Args()) != len(kept) {
			t.Fatalf("payload has %d args, appended %d", len(p.Args()), len(kept))
		}
		want := "(" + strings.Join(kept, "") + ")"
		if p.Signature() != want {
			t.Fatalf("payload signature %q, want %q", p.Signature(), want)
		}
		if len(p.Signature()) > maxTupleSig {
			t.Fatalf("descriptor exceeds bound: %d", len(p.Signature()))
		}
	})
}

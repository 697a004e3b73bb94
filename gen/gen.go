// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen produces the random argument values fed into fuzzed D-Bus
// method calls and paces the trial loop. One Rand is created per tested
// method with the effective string buffer budget; its Continue method decides
// whether another trial should run.
package gen

import (
	"fmt"
	"math"
	mrand "math/rand"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"
)

// minStrLen is the string length requested in the first trial of a method
// with string-like arguments. The length doubles each following trial until
// it would exceed the budget.
const minStrLen = 16

// boundary64 are the integer values most likely to trip naive input
// handling. Narrower generators truncate them to their width.
var boundary64 = []uint64{
	0,
	1,
	math.MaxUint8,
	math.MaxUint16,
	math.MaxUint32,
	math.MaxInt64,
	math.MaxInt64 + 1, // sign flip
	math.MaxUint64,
}

// plainTrials is the number of trials for methods without string-like
// arguments, sized so every boundary value has a fair chance to appear in
// every argument position.
var plainTrials = 4 * len(boundary64)

// fragments are mixed into generated strings between random printable runs.
var fragments = []string{
	"%s%s%s%n",
	"../../../../etc/passwd",
	"bofhroot",
	"\xc3\xa4\xe2\x98\xa0\xf0\x9f\x90\x9b", // multi-byte UTF-8
	"''\"\"``",
	";echo 1>&2",
	strings.Repeat("A", 64),
	"\t\n\r ",
}

// signaturePool holds well-formed D-Bus type signatures used as values for
// signature-typed arguments.
var signaturePool = []string{
	"",
	"s",
	"v",
	"i",
	"t",
	"as",
	"ai",
	"a{sv}",
	"a{ss}",
	"(ii)",
	"a(ss)",
	"siv",
	"aaaai",
	"(((s)))",
}

// Rand generates one value per base D-Bus type code and drives the
// continuation decision of the trial loop.
type Rand struct {
	budget  int64
	strLen  int64
	trial   int
	rng     *mrand.Rand
	devNull int
}

// NewRand returns a Rand generating strings of at most budget bytes.
func NewRand(budget int64) *Rand {
	return &Rand{
		budget:  budget,
		strLen:  minStrLen,
		rng:     mrand.New(mrand.NewSource(time.Now().UnixNano())),
		devNull: -1,
	}
}

// Continue reports whether another trial should run for the current method.
// Methods without arguments are called exactly once. With stringBiasing the
// requested string length doubles per trial and the loop runs until it would
// exceed the budget, otherwise a fixed number of trials is run.
func (r *Rand) Continue(stringBiasing bool, argCount int) bool {
	r.trial++
	if argCount == 0 {
		return r.trial == 1
	}
	if stringBiasing {
		if r.trial == 1 {
			return true
		}
		if r.strLen*2 > r.budget {
			return false
		}
		r.strLen *= 2
		return true
	}
	return r.trial <= plainTrials
}

// StrLen returns the string length requested in the current trial.
func (r *Rand) StrLen() int64 {
	return r.strLen
}

// Close releases descriptors opened for file-descriptor-typed values.
func (r *Rand) Close() {
	if r.devNull >= 0 {
		unix.Close(r.devNull)
		r.devNull = -1
	}
}

func (r *Rand) uint64n() uint64 {
	if r.rng.Intn(2) == 0 {
		return boundary64[r.rng.Intn(len(boundary64))]
	}
	return r.rng.Uint64()
}

// Uint8 returns a random byte value.
func (r *Rand) Uint8() uint8 { return uint8(r.uint64n()) }

// Bool returns a random boolean value.
func (r *Rand) Bool() bool { return r.rng.Intn(2) == 1 }

// Int16 returns a random signed 16-bit value.
func (r *Rand) Int16() int16 { return int16(r.uint64n()) }

// Uint16 returns a random unsigned 16-bit value.
func (r *Rand) Uint16() uint16 { return uint16(r.uint64n()) }

// Int32 returns a random signed 32-bit value.
func (r *Rand) Int32() int32 { return int32(r.uint64n()) }

// Uint32 returns a random unsigned 32-bit value.
func (r *Rand) Uint32() uint32 { return uint32(r.uint64n()) }

// Int64 returns a random signed 64-bit value.
func (r *Rand) Int64() int64 { return int64(r.uint64n()) }

// Uint64 returns a random unsigned 64-bit value.
func (r *Rand) Uint64() uint64 { return r.uint64n() }

// Double returns a random double value, including the usual suspects.
func (r *Rand) Double() float64 {
	switch r.rng.Intn(8) {
	case 0:
		return 0
	case 1:
		return math.MaxFloat64
	case 2:
		return -math.MaxFloat64
	case 3:
		return math.SmallestNonzeroFloat64
	case 4:
		return math.Inf(1)
	case 5:
		return math.NaN()
	default:
		return r.rng.NormFloat64() * math.MaxFloat32
	}
}

// String returns a random UTF-8 string of the length requested in the
// current trial.
func (r *Rand) String() (string, error) {
	n := r.strLen
	if n > r.budget {
		n = r.budget
	}
	var b strings.Builder
	b.Grow(int(n))
	for int64(b.Len()) < n {
		if r.rng.Intn(4) == 0 {
			b.WriteString(fragments[r.rng.Intn(len(fragments))])
			continue
		}
		// printable ASCII run
		run := r.rng.Intn(16) + 1
		for i := 0; i < run; i++ {
			b.WriteByte(byte(r.rng.Intn(0x7e-0x20) + 0x20))
		}
	}
	s := b.String()
	if int64(len(s)) > n {
		s = s[:n]
	}
	// a string cut mid-rune is not valid UTF-8 and would be rejected by the
	// bus library before reaching the target
	s = strings.ToValidUTF8(s, "")
	if s == "" {
		s = "-"
	}
	return s, nil
}

// ObjectPath returns a random well-formed D-Bus object path.
func (r *Rand) ObjectPath() (dbus.ObjectPath, error) {
	segments := r.rng.Intn(4) + 1
	var b strings.Builder
	for i := 0; i < segments; i++ {
		b.WriteByte('/')
		segLen := r.rng.Intn(16) + 1
		for j := 0; j < segLen; j++ {
			const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
			b.WriteByte(chars[r.rng.Intn(len(chars))])
		}
	}
	path := dbus.ObjectPath(b.String())
	if !path.IsValid() {
		return "", fmt.Errorf("gen: generated invalid object path %q", b.String())
	}
	return path, nil
}

// Signature returns a random well-formed D-Bus type signature value.
func (r *Rand) Signature() (dbus.Signature, error) {
	s := signaturePool[r.rng.Intn(len(signaturePool))]
	if s == "" {
		return dbus.Signature{}, nil
	}
	sig, err := dbus.ParseSignature(s)
	if err != nil {
		return dbus.Signature{}, fmt.Errorf("gen: signature pool entry %q: %w", s, err)
	}
	return sig, nil
}

// Variant returns a random variant value. Most variants carry a string
// payload; occasionally the variant is nested one level to exercise
// recursive unpacking in the target.
func (r *Rand) Variant() (dbus.Variant, error) {
	s, err := r.String()
	if err != nil {
		return dbus.Variant{}, err
	}
	if r.rng.Intn(4) == 0 {
		return dbus.MakeVariant(dbus.MakeVariant(s)), nil
	}
	return dbus.MakeVariant(s), nil
}

// UnixFD returns a valid file descriptor to pass as an fd-typed argument.
// The descriptor stays open until Close is called.
func (r *Rand) UnixFD() (dbus.UnixFD, error) {
	if r.devNull < 0 {
		fd, err := unix.Open(os.DevNull, unix.O_RDWR, 0)
		if err != nil {
			return -1, fmt.Errorf("gen: open %s: %w", os.DevNull, err)
		}
		r.devNull = fd
	}
	return dbus.UnixFD(r.devNull), nil
}

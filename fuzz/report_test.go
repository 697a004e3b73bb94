// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzz

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanValue(t *testing.T) {
	assert.Equal(t, "<none>", humanValue(nil))
	assert.Equal(t, "'42'", humanValue(uint8(42)))
	assert.Equal(t, "'-7'", humanValue(int16(-7)))
	assert.Equal(t, "'true'", humanValue(true))
	assert.Equal(t, "'false'", humanValue(false))
	assert.Equal(t, "'1.5'", humanValue(1.5))
	assert.Equal(t, "[length: 3 B] 'abc'", humanValue("abc"))
	assert.Equal(t, "[length: 4 B] '/a/b'", humanValue(dbus.ObjectPath("/a/b")))
	assert.Equal(t, "[length: 5 B] 'inner'", humanValue(dbus.MakeVariant("inner")))
	assert.Equal(t, "[length: 6 B] 'nested'",
		humanValue(dbus.MakeVariant(dbus.MakeVariant("nested"))))
}

func TestMachineValue(t *testing.T) {
	assert.Equal(t, "", machineValue(nil))
	assert.Equal(t, "42", machineValue(uint8(42)))
	assert.Equal(t, "true", machineValue(true))
	assert.Equal(t, hex.EncodeToString([]byte("abc")), machineValue("abc"))
	assert.Equal(t, hex.EncodeToString([]byte("/a")), machineValue(dbus.ObjectPath("/a")))
	assert.Equal(t, hex.EncodeToString([]byte("inner")), machineValue(dbus.MakeVariant("inner")))
}

func TestLogTrialShape(t *testing.T) {
	var buf bytes.Buffer
	f := New(&fakeCaller{}, "com.example.Target", "/obj", "com.example.Iface")
	f.SetFullLog(NewFullLog(&buf))

	m := NewMethod("SetName")
	m.AppendArg("s")
	m.AppendArg("i")
	m.args[0].value = "hi"
	m.args[1].value = int32(-1)

	f.logTrial(m, "Success")
	want := "com.example.Iface;/obj;SetName;s;" + hex.EncodeToString([]byte("hi")) + ";i;-1;Success\n"
	require.Equal(t, want, buf.String())
}

func TestLogTrialDisabled(t *testing.T) {
	f := New(&fakeCaller{}, "n", "/o", "i")
	// no full log configured, must not panic
	m := NewMethod("Ping")
	f.logTrial(m, "Success")

	var l *FullLog
	assert.False(t, l.enabled())
}

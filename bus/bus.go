// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bus wraps D-Bus connection setup, bus name activation, and
// introspection of the target's objects for the fuzzing engine.
package bus

import (
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/jpillora/backoff"

	"github.com/mrc0mmand/dfuzzer/log"
)

// connectAttempts limits how often a failed bus connection is retried before
// giving up.
const connectAttempts = 5

// Connect connects to the session bus, or to the system bus if system is
// true. Transient connection failures are retried with backoff.
func Connect(system bool) (*dbus.Conn, error) {
	connect := dbus.SessionBus
	if system {
		connect = dbus.SystemBus
	}
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: false,
	}
	var (
		conn *dbus.Conn
		err  error
	)
	for {
		conn, err = connect()
		if err == nil {
			return conn, nil
		}
		if b.Attempt() >= connectAttempts-1 {
			break
		}
		d := b.Duration()
		log.Warnf("bus: connection failed, retrying in %s: %s", d, err)
		time.Sleep(d)
	}
	return nil, log.Error(err)
}

// Activate asks the bus to start the service owning name, so activatable
// targets are running before the first method call. A target that is not
// activatable is not an error.
func Activate(conn *dbus.Conn, name string) error {
	var started uint32
	call := conn.BusObject().Call("org.freedesktop.DBus.StartServiceByName", 0, name, uint32(0))
	if call.Err != nil {
		return call.Err
	}
	if err := call.Store(&started); err != nil {
		return log.Error(err)
	}
	log.Debugf("bus: StartServiceByName(%s) = %d", name, started)
	return nil
}

// NameOwnerPID returns the PID of the process currently owning name.
func NameOwnerPID(conn *dbus.Conn, name string) (int, error) {
	var pid uint32
	err := conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, name).Store(&pid)
	if err != nil {
		return 0, log.Error(err)
	}
	return int(pid), nil
}

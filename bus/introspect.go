// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// ErrNoInterface is raised when the requested interface does not exist on
// the introspected object.
var ErrNoInterface = errors.New("bus: interface not found on object")

// MethodInfo describes one introspected method: its in-argument type
// signatures in declaration order and whether the method declares no
// out-arguments.
type MethodInfo struct {
	Name   string
	InArgs []string
	Void   bool
}

// Interfaces returns the names of the non-standard interfaces the object at
// path exposes. The org.freedesktop.DBus.* interfaces every object carries
// are filtered out, fuzzing those would test the bus library, not the target.
func Interfaces(conn *dbus.Conn, dest string, path dbus.ObjectPath) ([]string, error) {
	node, err := introspect.Call(conn.Object(dest, path))
	if err != nil {
		return nil, fmt.Errorf("bus: introspection of %s %s: %w", dest, path, err)
	}
	var names []string
	for _, iface := range node.Interfaces {
		if strings.HasPrefix(iface.Name, "org.freedesktop.DBus.") {
			continue
		}
		names = append(names, iface.Name)
	}
	return names, nil
}

// Methods introspects the object at path and returns the methods of iface.
func Methods(conn *dbus.Conn, dest string, path dbus.ObjectPath, iface string) ([]MethodInfo, error) {
	node, err := introspect.Call(conn.Object(dest, path))
	if err != nil {
		return nil, fmt.Errorf("bus: introspection of %s %s: %w", dest, path, err)
	}
	return flattenMethods(node, iface)
}

// flattenMethods extracts the method list of iface from an introspection
// node. A method argument without an explicit direction counts as an
// in-argument, per the D-Bus introspection format.
func flattenMethods(node *introspect.Node, iface string) ([]MethodInfo, error) {
	for _, ifc := range node.Interfaces {
		if ifc.Name != iface {
			continue
		}
		infos := make([]MethodInfo, 0, len(ifc.Methods))
		for _, m := range ifc.Methods {
			info := MethodInfo{Name: m.Name, Void: true}
			for _, arg := range m.Args {
				switch arg.Direction {
				case "out":
					info.Void = false
				default:
					info.InArgs = append(info.InArgs, arg.Type)
				}
			}
			infos = append(infos, info)
		}
		return infos, nil
	}
	return nil, ErrNoInterface
}

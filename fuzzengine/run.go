// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzengine

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/godbus/dbus/v5"
	"github.com/urfave/cli"

	"github.com/mrc0mmand/dfuzzer/bus"
	"github.com/mrc0mmand/dfuzzer/fuzz"
	"github.com/mrc0mmand/dfuzzer/log"
)

var colorHeader = color.New(color.Bold).SprintFunc()

// run connects to the bus, discovers the target's interfaces and methods,
// and fuzzes each selected method in turn. The worst per-method status code
// observed is returned as a StatusError so it can become the process exit
// status.
func (fe *FuzzEngine) run(c *cli.Context) error {
	name := c.GlobalString("bus-name")
	if name == "" {
		return ErrNoBusName
	}
	objPath := dbus.ObjectPath(c.GlobalString("object"))
	if !objPath.IsValid() {
		return log.Errorf("fuzzengine: invalid object path '%s'", objPath)
	}

	conn, err := bus.Connect(c.GlobalBool("system"))
	if err != nil {
		return err
	}
	fe.conn = conn

	// make sure an activatable target is actually running
	if err := bus.Activate(conn, name); err != nil {
		log.Debugf("activation of %s failed: %s", name, err)
	}
	pid, err := bus.NameOwnerPID(conn, name)
	if err != nil {
		return err
	}
	log.Infof("target %s runs as process %d", name, pid)

	ifaces := []string{c.GlobalString("interface")}
	if ifaces[0] == "" {
		ifaces, err = bus.Interfaces(conn, name, objPath)
		if err != nil {
			return err
		}
	}

	opts := fuzz.TestOptions{
		BufSize:  c.GlobalInt64("buffer-size"),
		PID:      pid,
		CheckCmd: c.GlobalString("command"),
	}
	wantMethod := c.GlobalString("method")
	methodFound := false
	worst := 0

	for _, iface := range ifaces {
		methods, err := bus.Methods(conn, name, objPath, iface)
		if err != nil {
			return log.Error(err)
		}
		fmt.Fprintf(fe.app.Writer, "%s\n", colorHeader(fmt.Sprintf("Interface %s on %s:", iface, objPath)))

		fuzzer := fuzz.New(conn.Object(name, objPath), name, objPath, iface)
		fuzzer.SetFullLog(fe.fullLog)
		fuzzer.SetOutput(fe.app.Writer)

		for _, mi := range methods {
			if wantMethod != "" && mi.Name != wantMethod {
				continue
			}
			methodFound = true

			m := fuzz.NewMethod(mi.Name)
			for _, sig := range mi.InArgs {
				m.AppendArg(sig)
			}
			opts.Void = mi.Void

			outcome, err := fuzzer.TestMethod(m, opts)
			if err != nil {
				return err
			}
			if outcome.Code() > worst {
				worst = outcome.Code()
			}
			if outcome == fuzz.OutcomeCrashed {
				// the target is gone, further trials of any method are
				// pointless
				return &StatusError{Code: worst}
			}
		}
	}

	if wantMethod != "" && !methodFound {
		return log.Error(ErrMethodNotFound)
	}
	if worst > 0 {
		return &StatusError{Code: worst}
	}
	return nil
}

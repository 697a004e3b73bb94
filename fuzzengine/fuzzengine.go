// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fuzzengine implements the command engine for dfuzzer: command-line
// handling, target discovery, and the per-method orchestration of the
// fuzzing passes.
package fuzzengine

import (
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/urfave/cli"

	"github.com/mrc0mmand/dfuzzer/fuzz"
	"github.com/mrc0mmand/dfuzzer/log"
	"github.com/mrc0mmand/dfuzzer/util"
)

const version = "2.0.0"

// FuzzEngine abstracts the dfuzzer command engine.
type FuzzEngine struct {
	prepared  bool
	app       *cli.App
	conn      *dbus.Conn
	fullLog   *fuzz.FullLog
	fullLogFP *os.File
}

// New returns a FuzzEngine with the command-line application set up.
func New() *FuzzEngine {
	var fe FuzzEngine
	// -v is taken by the verbose flag
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
	fe.app = cli.NewApp()
	fe.app.Name = "dfuzzer"
	fe.app.Usage = "tool for fuzz testing processes communicating through D-Bus"
	fe.app.Version = version
	fe.app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bus-name, n",
			Usage: "D-Bus name of the target",
		},
		cli.StringFlag{
			Name:  "object, o",
			Value: "/",
			Usage: "object path to test",
		},
		cli.StringFlag{
			Name:  "interface, i",
			Usage: "interface to test (default: all non-standard interfaces on the object)",
		},
		cli.StringFlag{
			Name:  "method, t",
			Usage: "method to test (default: all methods of the interface)",
		},
		cli.Int64Flag{
			Name:  "buffer-size, b",
			Usage: "maximum size of generated strings in bytes",
		},
		cli.StringFlag{
			Name:  "command, e",
			Usage: "command executed after each method call, a non-zero exit status fails the method",
		},
		cli.BoolFlag{
			Name:  "system",
			Usage: "use the system bus instead of the session bus",
		},
		cli.StringFlag{
			Name:  "log-file, L",
			Usage: "write the machine-parsable per-trial log to this file",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "verbose output",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "debug output (implies --verbose)",
		},
		cli.StringFlag{
			Name:  "loglevel",
			Value: "info",
			Usage: "logging level {trace, debug, info, warn, error, critical}",
		},
		cli.StringFlag{
			Name:  "logdir",
			Usage: "directory to log output",
		},
		cli.BoolFlag{
			Name:  "logconsole",
			Usage: "enable logging to console",
		},
	}
	fe.app.Before = func(c *cli.Context) error {
		return fe.prepare(c)
	}
	fe.app.Action = func(c *cli.Context) error {
		return fe.run(c)
	}
	return &fe
}

// Start starts the command engine with the given command-line arguments.
func (fe *FuzzEngine) Start(args []string) error {
	return fe.app.Run(args)
}

// Close releases the bus connection and the machine log file.
func (fe *FuzzEngine) Close() {
	if fe.conn != nil {
		fe.conn.Close()
		fe.conn = nil
	}
	if fe.fullLogFP != nil {
		fe.fullLogFP.Close()
		fe.fullLogFP = nil
	}
}

func (fe *FuzzEngine) prepare(c *cli.Context) error {
	if fe.prepared {
		return nil
	}

	logLevel := c.GlobalString("loglevel")
	if c.GlobalBool("verbose") {
		logLevel = "debug"
	}
	if c.GlobalBool("debug") {
		logLevel = "trace"
	}
	logDir := c.GlobalString("logdir")
	if logDir != "" {
		if err := util.CreateDirs(logDir); err != nil {
			return err
		}
	}
	if err := log.Init(logLevel, logDir, c.GlobalBool("logconsole")); err != nil {
		return err
	}

	if path := c.GlobalString("log-file"); path != "" {
		fp, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return log.Error(err)
		}
		fe.fullLogFP = fp
		fe.fullLog = fuzz.NewFullLog(fp)
	}

	fe.prepared = true
	return nil
}

// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"

	"github.com/cihub/seelog"
)

var logger seelog.LoggerInterface

func init() {
	// disable logger by default
	logger = seelog.Disabled
}

// Init initializes the dfuzzer logging framework to the given logging level.
// If logDir is not empty logging is done to a logfile in the directory.
// If logToConsole is true logging to the console is activated.
// If the given level is invalid or the initialization fails, an error is
// returned.
func Init(logLevel, logDir string, logToConsole bool) error {
	// check level string
	_, found := seelog.LogLevelFromString(logLevel)
	if !found {
		return fmt.Errorf("log: level '%s' is invalid", logLevel)
	}
	if !logToConsole && logDir == "" {
		// no sink configured, keep the logger disabled
		UseLogger(seelog.Disabled)
		return nil
	}
	// create logger
	console := "<console />"
	if !logToConsole {
		console = ""
	}
	var file string
	if logDir != "" {
		file = fmt.Sprintf("<rollingfile type=\"size\" filename=\"%s\" maxsize=\"10485760\" maxrolls=\"3\" />",
			path.Join(logDir, "dfuzzer.log"))
	}
	config := `
<seelog type="adaptive" mininterval="2000000" maxinterval="100000000"
	critmsgcount="500" minlevel="%s">
	<outputs formatid="all">
		%s
		%s
	</outputs>
	<formats>
		<format id="all" format="%%UTCDate %%UTCTime [dfuzz] [%%LEV] %%Msg%%n" />
	</formats>
</seelog>`
	config = fmt.Sprintf(config, logLevel, console, file)
	logger, err := seelog.LoggerFromConfigAsString(config)
	if err != nil {
		return err
	}
	logger.SetAdditionalStackDepth(1)
	// replace logger
	UseLogger(logger)
	// log info about running binary
	Infof("dfuzzer started (built with %s %s for %s/%s)", runtime.Compiler, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

// Flush flushes all the messages in the logger.
func Flush() {
	Infof("dfuzzer stopping")
	logger.Flush()
}

// Error formats message using the default formats for its operands and writes
// to default logger with log level = Error.
func Error(v ...interface{}) error {
	if len(v) == 1 {
		err, ok := v[0].(error)
		if ok {
			logger.Error(err)
			return err
		}
	}
	return logger.Error(v...)
}

// Errorf formats message according to format specifier and writes to default
// logger with log level = Error.
func Errorf(format string, params ...interface{}) error {
	return logger.Errorf(format, params...)
}

// Warn formats message using the default formats for its operands and writes
// to default logger with log level = Warn.
func Warn(v ...interface{}) error {
	if len(v) == 1 {
		err, ok := v[0].(error)
		if ok {
			logger.Warn(err)
			return err
		}
	}
	return logger.Warn(v...)
}

// Warnf formats message according to format specifier and writes to default
// logger with log level = Warn.
func Warnf(format string, params ...interface{}) error {
	return logger.Warnf(format, params...)
}

// Info formats message using the default formats for its operands and writes
// to default logger with log level = Info.
func Info(v ...interface{}) {
	logger.Info(v...)
}

// Infof formats message according to format specifier and writes to default
// logger with log level = Info.
func Infof(format string, params ...interface{}) {
	logger.Infof(format, params...)
}

// Debug formats message using the default formats for its operands and writes
// to default logger with log level = Debug.
func Debug(v ...interface{}) {
	logger.Debug(v...)
}

// Debugf formats message according to format specifier and writes to default
// logger with log level = Debug.
func Debugf(format string, params ...interface{}) {
	logger.Debugf(format, params...)
}

// Trace formats message using the default formats for its operands and writes
// to default logger with log level = Trace.
func Trace(v ...interface{}) {
	logger.Trace(v...)
}

// Tracef formats message according to format specifier and writes to default
// logger with log level = Trace.
func Tracef(format string, params ...interface{}) {
	logger.Tracef(format, params...)
}

// UseLogger uses a specified seelog.LoggerInterface to output library log.
// Use this func if you are using Seelog logging system in your app.
func UseLogger(newLogger seelog.LoggerInterface) {
	logger = newLogger
}

// SetLogWriter uses a specified io.Writer to output library log.
// Use this func if you are not using Seelog logging system in your app.
func SetLogWriter(writer io.Writer) error {
	if writer == nil {
		return errors.New("log: nil writer")
	}

	newLogger, err := seelog.LoggerFromWriterWithMinLevel(writer, seelog.TraceLvl)
	if err != nil {
		return err
	}

	UseLogger(newLogger)
	return nil
}

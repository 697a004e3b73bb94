// Copyright (c) 2026 dfuzzer authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package log implements the dfuzzer logging framework.

See https://github.com/cihub/seelog/wiki/Log-levels for an introduction to the
different logging levels.

We want to log all error conditions in dfuzzer, but want to avoid logging them
multiple times. Therefore, we log them once as early as possible: When calling
external packages that create an error, we wrap that error in a log.Error()
call. If we create our own errors, we use log.Error[f]() to do that. Debug and
trace are reserved for the per-trial noise of the fuzzing loop (generated
values, raised D-Bus exceptions), which would drown the progress output on
higher levels.
*/
package log

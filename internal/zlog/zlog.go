// Package zlog provides the leveled logging convention zigcat uses
// everywhere: a stdlib *log.Logger writing to stderr with an INFO/WARN/
// ERROR/DEBUG prefix, so stdout is left exclusively for relayed bytes.
package zlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	std     = log.New(os.Stderr, "", log.LstdFlags)
	verbose int32
)

// SetOutput redirects all log output; tests use this to capture lines.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetVerbose enables Debug() output. Mirrors the teacher's DebugEnabled flag.
func SetVerbose(v bool) {
	if v {
		atomic.StoreInt32(&verbose, 1)
	} else {
		atomic.StoreInt32(&verbose, 0)
	}
}

func Info(format string, args ...any) {
	std.Print("INFO: " + fmt.Sprintf(format, args...))
}

func Warn(format string, args ...any) {
	std.Print("WARN: " + fmt.Sprintf(format, args...))
}

func Error(format string, args ...any) {
	std.Print("ERROR: " + fmt.Sprintf(format, args...))
}

func Debug(format string, args ...any) {
	if atomic.LoadInt32(&verbose) != 0 {
		std.Print("DEBUG: " + fmt.Sprintf(format, args...))
	}
}

package transfer

import "github.com/stlalpha/zigcat/internal/zlog"

func logFlushWarning(sink string, err error) {
	zlog.Warn("%s sink flush failed: %v", sink, err)
}

func logSinkWarning(sink string, err error) {
	zlog.Warn("%s sink write failed, disabling for remainder of session: %v", sink, err)
}

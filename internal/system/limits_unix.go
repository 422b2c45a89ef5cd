//go:build unix

package system

import (
	"syscall"

	"go.uber.org/zap"
)

// RaiseFileLimit lifts the soft open file limit to 2048, within the hard
// limit. PDF pages are rendered through one document handle per worker.
func RaiseFileLimit(log *zap.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("could not read open file limit", zap.Error(err))
		return
	}
	if rLimit.Cur >= 2048 {
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("could not raise open file limit", zap.Error(err))
		return
	}
	log.Debug("open file limit raised", zap.Uint64("limit", uint64(rLimit.Cur)))
}

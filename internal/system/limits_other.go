//go:build !unix

package system

import "go.uber.org/zap"

// RaiseFileLimit does nothing on platforms without rlimits.
func RaiseFileLimit(log *zap.Logger) {}

package capture

import (
	"log"
	"os"
	"strings"
	"sync"
)

var (
	debugEnabled     bool
	debugEnabledOnce sync.Once

	debugLogger     *log.Logger
	debugLoggerOnce sync.Once
)

func envDebugEnabled() bool {
	debugEnabledOnce.Do(func() {
		debugEnabled = strings.TrimSpace(os.Getenv("REMOTE_DESK_CAPTURE_DEBUG")) == "1"
	})
	return debugEnabled
}

func debugf(format string, args ...any) {
	if !envDebugEnabled() {
		return
	}
	debugLoggerOnce.Do(func() {
		debugLogger = log.New(os.Stderr, "[capture] ", log.LstdFlags|log.Lmicroseconds)
	})
	debugLogger.Printf(format, args...)
}

package capture

import "time"

// nowMicros returns the current time in microseconds, the timestamp unit
// every backend uses for emitted frames.
func nowMicros() int64 {
	return time.Now().UnixMicro()
}

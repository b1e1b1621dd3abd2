package capture

import (
	"sync"
	"sync/atomic"
	"time"
)

// captureOneFrameFunc performs a single capture attempt. A timeout / no-
// new-frame poll should return Success without calling the frame callback;
// other non-Success results are counted as dropped by worker and looped
// past, with ErrorAccessDenied/ErrorInitialization also handed to onFatal
// (the engine is expected to recover on its own, or surface a fatal
// condition for the caller to notice via the next Initialize/UpdateConfig
// call).
type captureOneFrameFunc func() Result

// worker runs the common capture loop described in spec §4.3: wake roughly
// every frame interval, call captureOneFrame, sleep briefly otherwise, and
// exit cooperatively when stopped.
type worker struct {
	shouldStop atomic.Bool
	wg         sync.WaitGroup
}

func (w *worker) start(frameRate int, capture captureOneFrameFunc, onFatal func(Result)) {
	w.shouldStop.Store(false)
	w.wg.Add(1)
	go w.run(frameRate, capture, onFatal)
}

func (w *worker) run(frameRate int, capture captureOneFrameFunc, onFatal func(Result)) {
	defer w.wg.Done()

	if frameRate < 1 {
		frameRate = 1
	}
	frameInterval := time.Second / time.Duration(frameRate)
	lastFrameTime := time.Now()

	for !w.shouldStop.Load() {
		elapsed := time.Since(lastFrameTime)
		if elapsed >= frameInterval {
			captureStart := time.Now()
			result := capture()
			componentStats().ProcessingTime.Observe(time.Since(captureStart).Seconds())
			if result == Success {
				componentStats().FramesProcessed.Inc()
			} else {
				componentStats().FramesDropped.Inc()
			}
			lastFrameTime = time.Now()
			if result == ErrorAccessDenied || result == ErrorInitialization {
				if onFatal != nil {
					onFatal(result)
				}
			}
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

func (w *worker) stop() {
	w.shouldStop.Store(true)
	w.wg.Wait()
}

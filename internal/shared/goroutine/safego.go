// Package goroutine runs functions with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// SafeGo launches fn in a goroutine. A panic is logged with its stack instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go Run(log, name, fn)
}

// Run calls fn synchronously and recovers from a panic. It reports whether fn completed normally.
func Run(log logger.Interface, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()
	fn()
	return true
}

// Package safego launches goroutines whose panics are written to the session log
// before the process crashes. The terminal UI owns stdout, so a bare panic
// trace would otherwise be lost.
package safego

import (
	"log"
	"runtime/debug"
	"sync"
)

// Go runs fn on a new goroutine. A panic is logged with its stack and re-raised.
func Go(logger *log.Logger, name string, fn func()) {
	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

// GoWait is Go with wg.Add/wg.Done handled around fn
func GoWait(logger *log.Logger, wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer recoverAndLog(logger, name)
		fn()
	}()
}

func recoverAndLog(logger *log.Logger, name string) {
	if r := recover(); r != nil {
		logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
		panic(r)
	}
}

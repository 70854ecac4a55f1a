package safego

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoWait_RunsAndSignals(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		GoWait(logger, &wg, "counter", func() {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, 5, ran)
	assert.Empty(t, buf.String())
}

func TestRecoverAndLog_LogsAndRepanics(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	assert.PanicsWithValue(t, "boom", func() {
		defer recoverAndLog(logger, "exploder")
		panic("boom")
	})
	assert.Contains(t, buf.String(), "PANIC in exploder: boom")
}

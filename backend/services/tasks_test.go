package services

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskRunnerLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	runner := NewTaskRunner(log.New(&buf, "", 0))

	runner.Go("log-login", func() error {
		return errors.New("insert failed")
	})
	runner.Wait()

	assert.Contains(t, buf.String(), "log-login")
	assert.Contains(t, buf.String(), "insert failed")
}

func TestTaskRunnerRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	runner := NewTaskRunner(log.New(&buf, "", 0))

	runner.Go("boom", func() error {
		panic("unexpected")
	})
	runner.Wait()

	assert.Contains(t, buf.String(), "panicked")
}

func TestTaskRunnerQuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	runner := NewTaskRunner(log.New(&buf, "", 0))

	ran := make(chan struct{})
	runner.Go("ok", func() error {
		close(ran)
		return nil
	})
	runner.Wait()

	<-ran
	assert.Empty(t, buf.String())
}

package services

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// TaskRunner executes fire-and-forget side effects (progress recompute,
// activity logging, event publishing) off the request path. Failures are
// logged with a correlation id and never reach the caller.
type TaskRunner struct {
	logger *log.Logger
	wg     sync.WaitGroup
}

func NewTaskRunner(logger *log.Logger) *TaskRunner {
	return &TaskRunner{logger: logger}
}

func (r *TaskRunner) Go(name string, fn func() error) {
	taskID := uuid.NewString()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Printf("task %s (%s) panicked: %v", name, taskID, rec)
			}
		}()
		if err := fn(); err != nil {
			r.logger.Printf("task %s (%s) failed: %v", name, taskID, err)
		}
	}()
}

// Wait blocks until in-flight tasks drain. Used on shutdown.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}

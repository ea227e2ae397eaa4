/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package startStop wraps a pair of start/stop functions into a restartable,
// self-monitoring background task: Start launches the start function in its
// own goroutine and returns immediately, Stop cancels it and waits for it to
// unwind, and Restart is Stop-then-Start. Errors from either function never
// propagate through Start/Stop - they accumulate in an error list an owner
// can poll instead.
package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FuncStart is the function a StartStop runs in the background. It must
// block until ctx is done.
type FuncStart func(ctx context.Context) error

// FuncStop is the function a StartStop calls once its FuncStart has
// returned, to release whatever the start function was holding onto.
type FuncStop func(ctx context.Context) error

// StartStop manages the lifecycle of one background task.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

// New builds a StartStop around the given start/stop pair. Either may be
// nil: calling Start or Stop then records an "invalid start/stop function"
// error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{start: start, stop: stop}
}

type runner struct {
	mu sync.Mutex

	start FuncStart
	stop  FuncStop

	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  *sync.Once

	errs []error
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	wasRunning := r.running
	r.mu.Unlock()

	if wasRunning {
		_ = r.Stop(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.running = true
	r.startedAt = time.Now()
	r.stopOnce = &sync.Once{}
	r.errs = nil
	start := r.start
	r.mu.Unlock()

	go func() {
		defer close(done)

		var err error
		if start == nil {
			err = fmt.Errorf("invalid start function")
		} else {
			err = start(runCtx)
		}

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()

		if err != nil {
			r.addError(err)
		}
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	done := r.done
	once := r.stopOnce
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	once.Do(func() {
		stop := r.stop

		var err error
		if stop == nil {
			err = fmt.Errorf("invalid stop function")
		} else {
			err = stop(ctx)
		}

		if err != nil {
			r.addError(err)
		}
	})

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	if err := r.Stop(ctx); err != nil {
		return err
	}
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

// errorListMax bounds how many errors a runner keeps, so a task that fails
// in a tight loop does not grow the list without limit.
const errorListMax = 32

func (r *runner) addError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
	if len(r.errs) > errorListMax {
		r.errs = r.errs[len(r.errs)-errorListMax:]
	}
}

func (r *runner) ErrorsLast() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.errs) == 0 {
		return nil
	}
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package job

import (
	"container/list"
	"sync"

	"github.com/sabouaram/netsim/internal/ticket"
)

// Queue is a first-in-first-out job queue. Per node it is touched only by
// that node's own loop, so the locking here is a cheap safety net rather
// than a cross-goroutine requirement.
type Queue struct {
	mu sync.Mutex
	l  *list.List
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{l: list.New()}
}

// Enqueue appends j to the tail of the queue.
func (q *Queue) Enqueue(j *Job) {
	if j == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.l.PushBack(j)
}

// Dequeue removes and returns the job at the head of the queue, or nil if
// the queue is empty.
func (q *Queue) Dequeue() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.l.Front()
	if e == nil {
		return nil
	}

	q.l.Remove(e)
	return e.Value.(*Job)
}

// Length returns the number of jobs currently queued.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.l.Len()
}

// FindByTicket returns the first queued job carrying the given ticket, or
// nil if none matches.
func (q *Queue) FindByTicket(tk ticket.Ticket) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for e := q.l.Front(); e != nil; e = e.Next() {
		if j := e.Value.(*Job); j.Ticket == tk {
			return j
		}
	}

	return nil
}

// DeleteByTicket removes the first queued job carrying the given ticket and
// returns it, or nil if none matches. The caller is responsible for calling
// Close on the returned job to release its file handle.
func (q *Queue) DeleteByTicket(tk ticket.Ticket) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for e := q.l.Front(); e != nil; e = e.Next() {
		if j := e.Value.(*Job); j.Ticket == tk {
			q.l.Remove(e)
			return j
		}
	}

	return nil
}

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

// Package ticket implements the 4-ASCII-digit request/response correlation
// id prefixing every application payload ("TTTT:<data>"), plus the
// skip-over-live allocator that hands out fresh tickets to a host.
package ticket

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Digits is the fixed width of a ticket's decimal representation.
const Digits = 4

// Modulo is one past the largest value a ticket can hold (10000 for 4 digits).
const Modulo = 10000

// Ticket is a 4-decimal-digit request/response correlation id.
type Ticket uint16

// String renders the ticket as its zero-padded 4-digit decimal form.
func (t Ticket) String() string {
	return fmt.Sprintf("%0*d", Digits, uint16(t)%Modulo)
}

// Format builds the "TTTT:<data>" application payload for this ticket.
func (t Ticket) Format(data string) string {
	return t.String() + ":" + data
}

// Parse splits an application payload "TTTT:<data>" into its ticket and data.
func Parse(payload string) (Ticket, string, error) {
	idx := strings.IndexByte(payload, ':')
	if idx != Digits {
		return 0, "", MalformedPayload.Errorf(payload)
	}

	n, err := strconv.ParseUint(payload[:idx], 10, 16)
	if err != nil {
		return 0, "", MalformedPayload.Errorf(payload)
	}

	return Ticket(n), payload[idx+1:], nil
}

// IsLive reports whether a ticket is still associated with a pending job;
// callers of Allocator.Next supply it to drive skip-over-live behavior.
type IsLive func(t Ticket) bool

// Allocator produces fresh tickets using a monotone counter modulo 10000,
// skipping any ticket value an IsLive predicate reports as still in use.
type Allocator struct {
	mu   sync.Mutex
	next uint16
}

// NewAllocator returns an Allocator starting its counter at 0.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next available ticket, advancing the internal counter
// past it. If live reports every one of the 10000 possible values as in
// use, Next returns ExhaustedSpace.
func (a *Allocator) Next(live IsLive) (Ticket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < Modulo; i++ {
		candidate := Ticket(a.next % Modulo)
		a.next++

		if live == nil || !live(candidate) {
			return candidate, nil
		}
	}

	return 0, ExhaustedSpace.Error()
}

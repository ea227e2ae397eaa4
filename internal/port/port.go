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

// Package port implements the bidirectional, non-blocking link endpoint
// abstraction: a local-pipe transport for in-process topologies and a
// per-frame TCP transport for cross-process ones. Both are driven by a
// background pump goroutine feeding a buffered channel, so TryRecv never
// blocks the node loop.
package port

import (
	"github.com/sabouaram/netsim/internal/packet"
)

// recvBuffer is the depth of the channel a pump goroutine feeds; a node's
// own loop drains it once per tick, so a handful of in-flight frames is
// enough slack without unbounded memory growth.
const recvBuffer = 64

// Port is a bidirectional, non-blocking link endpoint owned by exactly one
// node. TryRecv never blocks: it returns (nil, nil) when nothing is
// available. Send is best-effort: a transport failure is reported but the
// port is left in place, per the "log, continue" transport error policy.
type Port interface {
	// TryRecv returns the next available frame, or (nil, nil) if none.
	TryRecv() (*packet.Packet, error)

	// Send transmits p. A TransportError is returned on unrecoverable I/O
	// failure; the caller retains ownership of p in that case.
	Send(p *packet.Packet) error

	// LinkNodeID is the remote node id this port connects to, when known.
	// Switch-facing ports that have not yet observed traffic may return -1.
	LinkNodeID() int

	// Close releases the transport resources held by the port.
	Close() error
}

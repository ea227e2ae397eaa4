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

// Package job implements the in-flight work item and its FIFO queue that
// drive a node's per-tick state machine: requests awaiting a response,
// responses in flight, forwards, broadcasts and transfers.
package job

import (
	"os"

	"github.com/google/uuid"

	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/ticket"
)

// Kind is the closed set of work a Job can represent.
type Kind uint8

const (
	SendRequest Kind = iota
	SendResponse
	SendPacket
	WaitForResponse
	Upload
	BroadcastPkt
	ForwardPkt
	DNSRegister
	DNSQuery
)

func (k Kind) String() string {
	switch k {
	case SendRequest:
		return "SEND_REQUEST"
	case SendResponse:
		return "SEND_RESPONSE"
	case SendPacket:
		return "SEND_PACKET"
	case WaitForResponse:
		return "WAIT_FOR_RESPONSE"
	case Upload:
		return "UPLOAD"
	case BroadcastPkt:
		return "BROADCAST_PKT"
	case ForwardPkt:
		return "FORWARD_PKT"
	case DNSRegister:
		return "DNS_REGISTER"
	case DNSQuery:
		return "DNS_QUERY"
	default:
		return "UNKNOWN_KIND"
	}
}

// State is the closed set of lifecycle states a Job moves through.
type State uint8

const (
	Pending State = iota
	Ready
	Complete
	Error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Ready:
		return "READY"
	case Complete:
		return "COMPLETE"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN_STATE"
	}
}

// Job is a single work item owned, at any instant, by exactly one queue.
type Job struct {
	// ID is a correlation id for cross-cutting observability (logs, metrics);
	// it is distinct from Ticket, which is the wire-level request/response key.
	ID uuid.UUID

	Kind  Kind
	State State

	Ticket ticket.Ticket
	TTL    int

	Packet *packet.Packet

	// PortHint carries the ingress port index for a switch's BroadcastPkt job
	// (the port to exclude) or the egress port index for a ForwardPkt job
	// (the single learned port to send on). Unused by other job kinds; -1
	// means "not set".
	PortHint int

	FileHandle *os.File
	FilePath   string
	FileOffset int64

	ErrorMsg string
}

// New creates a Job in Pending state carrying pkt, tagged with its own
// correlation id.
func New(kind Kind, tk ticket.Ticket, ttl int, pkt *packet.Packet) *Job {
	return &Job{
		ID:       uuid.New(),
		Kind:     kind,
		State:    Pending,
		Ticket:   tk,
		TTL:      ttl,
		Packet:   pkt,
		PortHint: -1,
	}
}

// Close releases the job's file handle, if any, mirroring job_delete's
// cleanup of the transfer's open FILE*.
func (j *Job) Close() error {
	if j == nil || j.FileHandle == nil {
		return nil
	}

	err := j.FileHandle.Close()
	j.FileHandle = nil

	if err != nil {
		return CloseFailed.Error(err)
	}

	return nil
}

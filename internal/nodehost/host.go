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

// Package nodehost implements the host application protocol: the operator
// command surface (s/m/p/u/d/a/l), ping, file upload/download, and name
// resolution against the name server, all driven by one node.Handler.
package nodehost

import (
	"os"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/ticket"
)

// ChunkSize is the largest slice of file content one UPLOAD packet carries,
// leaving room in the 100-byte payload for the 4-digit ticket and its colon.
const ChunkSize = packet.PayloadMax - ticket.Digits - 1

// Request is one command frame arriving over the management channel, with
// Reply used to deliver exactly one response frame back to the operator.
// Progress, if set, receives the cumulative byte count of an upload or
// download started by this command as it streams; it is never closed by
// the host and may be left nil.
type Request struct {
	Command  string
	Reply    chan<- string
	Progress chan<- int64
}

// deferred captures a command whose destination name did not resolve
// locally; it resumes once the matching DNS_QUERY_RESPONSE lands.
type deferred struct {
	name   string
	reply  chan<- string
	resume func(id uint8)
}

// Host is the node.Handler for a host: local directory, name cache, pending
// manager replies and open file transfers.
type Host struct {
	id uint8

	localDir string

	nameCache map[string]uint8

	mgmt <-chan Request

	// pending maps an outstanding request's ticket to the manager reply
	// channel waiting on its outcome (ping, upload/download handshake).
	pending map[ticket.Ticket]chan<- string

	// progress maps a streaming transfer's ticket to the manager's optional
	// byte-count sink, so an upload or download in flight can feed a
	// progress bar without holding up the reply.
	progress map[ticket.Ticket]chan<- int64

	// inboundUploads holds open file handles receiving UPLOAD chunks, for
	// both a genuine upload's destination and a download's requester,
	// keyed by the ticket that correlates their packets.
	inboundUploads map[ticket.Ticket]*os.File

	// awaitingDNS holds commands paused on a name lookup, keyed by the
	// ticket of the DNS_QUERY that was sent out.
	awaitingDNS map[ticket.Ticket]deferred
}

// New returns a Host at id, reading management commands from mgmt.
func New(id uint8, mgmt <-chan Request) *Host {
	return &Host{
		id:             id,
		nameCache:      make(map[string]uint8),
		mgmt:           mgmt,
		pending:        make(map[ticket.Ticket]chan<- string),
		progress:       make(map[ticket.Ticket]chan<- int64),
		inboundUploads: make(map[ticket.Ticket]*os.File),
		awaitingDNS:    make(map[ticket.Ticket]deferred),
	}
}

// LocalDir returns the host's configured local directory, or "" if none.
func (h *Host) LocalDir() string { return h.localDir }

// EmitControl broadcasts one STP leaf advertisement per port.
func (h *Host) EmitControl(rt *node.Runtime) {
	st := node.ControlState{RootID: h.id, Dist: 0, Kind: node.Host.Letter(), IsChild: false}

	pkt, err := node.BuildControlPacket(h.id, st)
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build control packet", nil, err)
		}
		return
	}

	rt.SendTo(pkt)
}

// DrainManagement pops at most one pending operator command and dispatches it.
func (h *Host) DrainManagement(rt *node.Runtime) {
	select {
	case req, ok := <-h.mgmt:
		if !ok {
			return
		}
		h.dispatch(rt, req)
	default:
	}
}

// HandlePacket classifies one inbound frame and acts on it inline or via a
// queued job, per the packet's type.
func (h *Host) HandlePacket(rt *node.Runtime, portIdx int, pkt *packet.Packet) {
	switch pkt.Type {
	case packet.Control:
		return

	case packet.PingReq:
		h.handlePingRequest(rt, pkt)
	case packet.PingResponse:
		h.handlePingResponse(rt, pkt)

	case packet.UploadReq:
		h.handleUploadRequest(rt, pkt)
	case packet.UploadResponse:
		h.handleUploadResponse(rt, pkt)
	case packet.Upload:
		h.handleUploadChunk(rt, pkt)
	case packet.UploadEnd:
		h.handleUploadEnd(rt, pkt)

	case packet.DownloadReq:
		h.handleDownloadRequest(rt, pkt)
	case packet.DownloadResponse:
		h.handleDownloadResponse(rt, pkt)

	case packet.DNSRegistrationResponse:
		h.handleDNSRegistrationResponse(rt, pkt)
	case packet.DNSQueryResponse:
		h.handleDNSQueryResponse(rt, pkt)

	default:
		if rt.Log != nil {
			rt.Log.Warning("host received an unexpected packet type", nil,
				node.UnknownPacketType.Errorf(pkt.Type.String()))
		}
	}
}

// HandleJob advances one queued job a single step, per its kind.
func (h *Host) HandleJob(rt *node.Runtime, j *job.Job) {
	switch j.Kind {
	case job.SendRequest, job.DNSQuery, job.DNSRegister:
		h.handleSendRequest(rt, j)
	case job.WaitForResponse:
		h.handleWaitForResponse(rt, j)
	case job.Upload:
		h.handleUploadTick(rt, j)
	case job.SendResponse:
		rt.SendTo(j.Packet)
		j.State = job.Complete
	default:
		if rt.Log != nil {
			rt.Log.Warning("host received a job kind it does not handle", nil, j.Kind.String())
		}
		j.State = job.Complete
	}
}

// newTicket allocates a ticket not currently live in this host's queue,
// pending replies, open transfers or deferred DNS lookups.
func (h *Host) newTicket(rt *node.Runtime) (ticket.Ticket, error) {
	return rt.Tickets.Next(func(tk ticket.Ticket) bool {
		if rt.Jobs.FindByTicket(tk) != nil {
			return true
		}
		if _, ok := h.pending[tk]; ok {
			return true
		}
		if _, ok := h.inboundUploads[tk]; ok {
			return true
		}
		if _, ok := h.awaitingDNS[tk]; ok {
			return true
		}
		return false
	})
}

// reply delivers one frame to the operator, dropping it if nobody is
// listening (the console moved on, e.g. after a timeout already reported).
func reply(ch chan<- string, msg string) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// progressUpdate reports a transfer's cumulative byte count, dropping it if
// the sink is unset or a previous update is still unconsumed.
func progressUpdate(ch chan<- int64, n int64) {
	if ch == nil {
		return
	}
	select {
	case ch <- n:
	default:
	}
}

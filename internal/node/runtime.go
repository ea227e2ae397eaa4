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

package node

import (
	"context"
	"time"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/port"
	"github.com/sabouaram/netsim/internal/ticket"
	"github.com/sabouaram/netsim/logger"
	logfld "github.com/sabouaram/netsim/logger/fields"
)

// Handler is implemented by each node kind (host, switch, name server) to
// supply the behavior the generic Runtime.Run loop delegates to at each
// step of the tick described in the system overview.
type Handler interface {
	// EmitControl sends one STP control packet on every port.
	EmitControl(rt *Runtime)

	// DrainManagement reads and processes at most one pending management
	// channel command. Hosts implement this; switches and the name server
	// are no-ops.
	DrainManagement(rt *Runtime)

	// HandlePacket processes one packet received on the given port index.
	HandlePacket(rt *Runtime, portIdx int, pkt *packet.Packet)

	// HandleJob advances one job dequeued this tick.
	HandleJob(rt *Runtime, j *job.Job)
}

// Runtime is the state common to every node kind: identity, ports, job
// queue, ticket allocator, logger and STP emission bookkeeping.
type Runtime struct {
	ID   uint8
	Kind Kind

	Ports []port.Port
	Jobs  *job.Queue

	Tickets *ticket.Allocator

	Log logger.Logger

	lastControl   time.Time
	controlSent   int
	controlSeeded bool
}

// New builds a Runtime for a node of the given kind and id, with a
// per-node logger carrying node_id/node_kind fields.
func New(id uint8, kind Kind, ports []port.Port, log logger.Logger) *Runtime {
	nodeLog, err := log.Clone()
	if err != nil || nodeLog == nil {
		nodeLog = log
	}

	flds := logfld.New(context.Background()).
		Add("node_id", id).
		Add("node_kind", kind.String())
	nodeLog.SetFields(flds)

	return &Runtime{
		ID:      id,
		Kind:    kind,
		Ports:   ports,
		Jobs:    job.NewQueue(),
		Tickets: ticket.NewAllocator(),
		Log:     nodeLog,
	}
}

// ShouldEmitControl reports whether enough simulated time has elapsed, and
// the convergence round cap has not been reached, to emit another round of
// STP control packets.
func (r *Runtime) ShouldEmitControl(now time.Time) bool {
	if r.controlSent >= ConvergenceRounds {
		return false
	}

	if !r.controlSeeded {
		return true
	}

	return now.Sub(r.lastControl) >= ControlPeriod
}

// MarkControlSent records that a round of STP control packets was just
// emitted, advancing the convergence-round counter.
func (r *Runtime) MarkControlSent(now time.Time) {
	r.lastControl = now
	r.controlSeeded = true
	r.controlSent++
}

// SendTo transmits pkt on the port whose LinkNodeID matches pkt.Dst; if no
// port is known for that destination (or the destination is the broadcast
// id), it sends on every port, mirroring the host/name-server sendPacketTo
// fallback behavior.
func (r *Runtime) SendTo(pkt *packet.Packet) {
	if pkt.Dst != packet.Broadcast {
		for _, p := range r.Ports {
			if p.LinkNodeID() == int(pkt.Dst) {
				if err := p.Send(pkt); err != nil && r.Log != nil {
					r.Log.Warning("send failed", nil, err)
				}
				return
			}
		}
	}

	for _, p := range r.Ports {
		if err := p.Send(pkt); err != nil && r.Log != nil {
			r.Log.Warning("broadcast send failed", nil, err)
		}
	}
}

// Run drives the cooperative tick loop until ctx is canceled: emit STP if
// due, drain one management command, poll every port once, advance one
// job, then sleep the fixed quantum.
func (r *Runtime) Run(ctx context.Context, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		now := time.Now()
		if r.ShouldEmitControl(now) {
			h.EmitControl(r)
			r.MarkControlSent(now)
		}

		h.DrainManagement(r)

		for i, p := range r.Ports {
			pkt, err := p.TryRecv()
			if err != nil {
				if r.Log != nil {
					r.Log.Warning("port recv failed", nil, err)
				}
				continue
			}
			if pkt != nil {
				h.HandlePacket(r, i, pkt)
			}
		}

		if r.Jobs.Length() > 0 {
			if j := r.Jobs.Dequeue(); j != nil {
				h.HandleJob(r, j)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(TickInterval):
		}
	}
}

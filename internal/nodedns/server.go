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

// Package nodedns implements the name server node.Handler: a hostname to
// node-id directory that hosts register into and query against.
package nodedns

import (
	"strconv"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/ticket"
)

// Server is the fixed-id directory node: it never originates a request, it
// only answers registrations and queries from hosts. The authoritative
// table maps node id to its one canonical name, matched in reverse to
// answer a query.
type Server struct {
	id    uint8
	table map[uint8]string
}

// New returns an empty Server at id (conventionally node.StaticDNSID).
func New(id uint8) *Server {
	return &Server{id: id, table: make(map[uint8]string)}
}

// Lookup returns the node id registered under name, if any.
func (s *Server) Lookup(name string) (uint8, bool) {
	for id, n := range s.table {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// EmitControl advertises this node as a tree leaf on every port; the name
// server never carries STP state of its own.
func (s *Server) EmitControl(rt *node.Runtime) {
	st := node.ControlState{RootID: s.id, Dist: 0, Kind: node.DNS.Letter(), IsChild: false}

	pkt, err := node.BuildControlPacket(s.id, st)
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build control packet", nil, err)
		}
		return
	}

	rt.SendTo(pkt)
}

// DrainManagement is a no-op: the name server exposes no interactive console.
func (s *Server) DrainManagement(rt *node.Runtime) {}

// HandlePacket answers a registration or query inline and queues the
// response for the next tick.
func (s *Server) HandlePacket(rt *node.Runtime, portIdx int, pkt *packet.Packet) {
	switch pkt.Type {
	case packet.Control:
		return

	case packet.DNSRegistration:
		s.handleRegistration(rt, pkt)

	case packet.DNSQuery:
		s.handleQuery(rt, pkt)

	default:
		if rt.Log != nil {
			rt.Log.Warning("name server received an unexpected packet type", nil,
				node.UnknownPacketType.Errorf(pkt.Type.String()))
		}
	}
}

func (s *Server) handleRegistration(rt *node.Runtime, pkt *packet.Packet) {
	tk, name, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed registration", nil, MalformedPayload.Errorf(err))
		}
		return
	}

	s.table[pkt.Src] = name

	s.respond(rt, pkt.Src, packet.DNSRegistrationResponse, tk, "OK")
}

func (s *Server) handleQuery(rt *node.Runtime, pkt *packet.Packet) {
	tk, name, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed query", nil, MalformedPayload.Errorf(err))
		}
		return
	}

	id, ok := s.Lookup(name)
	if !ok {
		s.respond(rt, pkt.Src, packet.DNSQueryResponse, tk, "-1")
		return
	}

	s.respond(rt, pkt.Src, packet.DNSQueryResponse, tk, strconv.Itoa(int(id)))
}

func (s *Server) respond(rt *node.Runtime, dst uint8, typ packet.Type, tk ticket.Ticket, data string) {
	resp, err := packet.New(s.id, dst, typ, []byte(tk.Format(data)))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build response packet", nil, err)
		}
		return
	}

	rt.Jobs.Enqueue(job.New(job.SendResponse, tk, 0, resp))
}

// HandleJob sends one queued response packet.
func (s *Server) HandleJob(rt *node.Runtime, j *job.Job) {
	defer func() { j.State = job.Complete }()

	switch j.Kind {
	case job.SendResponse:
		rt.SendTo(j.Packet)
	default:
		if rt.Log != nil {
			rt.Log.Warning("name server received a job kind it does not handle", nil, j.Kind.String())
		}
	}
}

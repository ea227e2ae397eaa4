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

// Package nodeswitch implements a learning-switch node.Handler: source-port
// learning for unicast forwarding, and a minimal spanning-tree protocol that
// blocks ports sitting on a loop so broadcasts converge instead of circling.
package nodeswitch

import (
	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
)

// Switch is a learning bridge: it forwards unicast traffic to the port a
// destination id was last observed on, floods everything else, and runs STP
// to keep a redundant topology from looping a broadcast forever.
type Switch struct {
	id uint8

	// routes maps an observed source id to the single port it was most
	// recently seen on; a later sighting on a different port overwrites it.
	routes map[uint8]int

	rootID     uint8
	rootDist   int
	parentPort int // -1 until a smaller root is heard

	// portInTree gates flooding: ports start open so an unconverged topology
	// can still carry traffic, and get closed only when STP identifies them
	// as the losing side of a loop.
	portInTree []bool
}

// New returns a Switch with id, ready to operate numPorts links, initially
// believing itself the root of its own tree.
func New(id uint8, numPorts int) *Switch {
	portInTree := make([]bool, numPorts)
	for i := range portInTree {
		portInTree[i] = true
	}

	return &Switch{
		id:         id,
		routes:     make(map[uint8]int),
		rootID:     id,
		rootDist:   0,
		parentPort: -1,
		portInTree: portInTree,
	}
}

// EmitControl broadcasts one STP control frame per port, marking exactly
// the parent port (if any) as the sender's child link.
func (s *Switch) EmitControl(rt *node.Runtime) {
	for i, p := range rt.Ports {
		st := node.ControlState{
			RootID:  s.rootID,
			Dist:    s.rootDist,
			Kind:    node.Switch.Letter(),
			IsChild: i == s.parentPort,
		}

		pkt, err := node.BuildControlPacket(s.id, st)
		if err != nil {
			if rt.Log != nil {
				rt.Log.Warning("failed to build control packet", nil, err)
			}
			continue
		}

		if err := p.Send(pkt); err != nil && rt.Log != nil {
			rt.Log.Warning("control send failed", nil, err)
		}
	}
}

// DrainManagement is a no-op: switches expose no interactive console.
func (s *Switch) DrainManagement(rt *node.Runtime) {}

// HandlePacket routes a frame received on portIdx: control frames feed STP,
// everything else is learned and queued for forward or flood.
func (s *Switch) HandlePacket(rt *node.Runtime, portIdx int, pkt *packet.Packet) {
	if pkt.Type == packet.Control {
		s.handleControl(rt, portIdx, pkt)
		return
	}

	s.learn(pkt.Src, portIdx)

	if pkt.Dst != packet.Broadcast {
		if outPort, ok := s.routes[pkt.Dst]; ok {
			j := job.New(job.ForwardPkt, 0, 0, pkt.Clone())
			j.PortHint = outPort
			rt.Jobs.Enqueue(j)
			return
		}
	}

	j := job.New(job.BroadcastPkt, 0, 0, pkt.Clone())
	j.PortHint = portIdx
	rt.Jobs.Enqueue(j)
}

// HandleJob executes one queued forward or flood.
func (s *Switch) HandleJob(rt *node.Runtime, j *job.Job) {
	defer func() { j.State = job.Complete }()

	switch j.Kind {
	case job.ForwardPkt:
		if j.PortHint < 0 || j.PortHint >= len(rt.Ports) {
			if rt.Log != nil {
				rt.Log.Error("forward job carries an invalid port hint", nil, InvalidPortHint.Errorf(j.PortHint))
			}
			j.State = job.Error
			return
		}
		if err := rt.Ports[j.PortHint].Send(j.Packet); err != nil && rt.Log != nil {
			rt.Log.Warning("forward send failed", nil, err)
		}

	case job.BroadcastPkt:
		s.flood(rt, j.Packet, j.PortHint)

	default:
		if rt.Log != nil {
			rt.Log.Warning("switch received a job kind it does not handle", nil, j.Kind.String())
		}
	}
}

// RootID is the id of the switch this node currently believes is the STP root.
func (s *Switch) RootID() uint8 { return s.rootID }

// RootDistance is the hop count to the current believed root.
func (s *Switch) RootDistance() int { return s.rootDist }

// ParentPort is the port this node reaches its root through, or -1 if this
// node believes itself the root.
func (s *Switch) ParentPort() int { return s.parentPort }

// PortInTree reports whether port i currently carries flooded traffic.
func (s *Switch) PortInTree(i int) bool {
	if i < 0 || i >= len(s.portInTree) {
		return false
	}
	return s.portInTree[i]
}

// learn records that id was last seen arriving on portIdx.
func (s *Switch) learn(id uint8, portIdx int) {
	s.routes[id] = portIdx
}

// flood sends pkt out every in-tree port other than exclude.
func (s *Switch) flood(rt *node.Runtime, pkt *packet.Packet, exclude int) {
	for i, p := range rt.Ports {
		if i == exclude {
			continue
		}
		if i < len(s.portInTree) && !s.portInTree[i] {
			continue
		}
		if err := p.Send(pkt); err != nil && rt.Log != nil {
			rt.Log.Warning("flood send failed", nil, err)
		}
	}
}

// handleControl folds one neighbor's STP frame into local state: possibly
// adopting a better root through portIdx, then deciding whether portIdx
// stays open for flooding.
func (s *Switch) handleControl(rt *node.Runtime, portIdx int, pkt *packet.Packet) {
	st, err := node.DecodeControl(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed control frame", nil, err)
		}
		return
	}

	if portIdx >= len(s.portInTree) {
		return
	}

	if st.Kind != node.Switch.Letter() {
		// Hosts and the name server are always leaves: the link to them
		// never sits on a loop.
		s.portInTree[portIdx] = true
		return
	}

	switch {
	case st.RootID < s.rootID:
		s.rootID, s.rootDist, s.parentPort = st.RootID, st.Dist+1, portIdx
	case st.RootID == s.rootID && st.Dist+1 < s.rootDist:
		s.rootDist, s.parentPort = st.Dist+1, portIdx
	case st.RootID == s.rootID && st.Dist+1 == s.rootDist && portIdx < s.parentPort:
		s.parentPort = portIdx
	}

	s.portInTree[portIdx] = st.IsChild || (st.Dist == s.rootDist-1 && pkt.Src < s.id)
}

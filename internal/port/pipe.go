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

package port

import (
	"io"

	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/logger"
)

// PipePort is a Port backed by a pair of local, in-process pipes — the
// transport used for "P" links in the topology file.
type PipePort struct {
	linkNodeID int
	w          io.WriteCloser
	r          io.ReadCloser
	log        logger.Logger
	recvCh     chan *packet.Packet
}

// NewPipePort wraps an already-connected read/write pair as a Port whose
// peer is linkNodeID. It starts the background pump immediately.
func NewPipePort(linkNodeID int, r io.ReadCloser, w io.WriteCloser, log logger.Logger) *PipePort {
	p := &PipePort{
		linkNodeID: linkNodeID,
		w:          w,
		r:          r,
		log:        log,
		recvCh:     make(chan *packet.Packet, recvBuffer),
	}

	go p.pump()

	return p
}

// NewPipeLink creates a pair of connected PipePorts simulating a
// bidirectional local-pipe link between two nodes.
func NewPipeLink(nodeAID, nodeBID int, log logger.Logger) (Port, Port) {
	aToB_r, aToB_w := io.Pipe()
	bToA_r, bToA_w := io.Pipe()

	portA := NewPipePort(nodeBID, bToA_r, aToB_w, log)
	portB := NewPipePort(nodeAID, aToB_r, bToA_w, log)

	return portA, portB
}

func (p *PipePort) pump() {
	for {
		pkt, err := packet.ReadFrom(p.r)
		if err != nil {
			if err != io.EOF && err != io.ErrClosedPipe && p.log != nil {
				p.log.Warning("pipe port read failed", nil, err)
			}
			return
		}

		select {
		case p.recvCh <- pkt:
		default:
			// Receiver is behind by recvBuffer frames; drop the oldest
			// rather than block the pump (best-effort delivery).
			<-p.recvCh
			p.recvCh <- pkt
		}
	}
}

// TryRecv implements Port.
func (p *PipePort) TryRecv() (*packet.Packet, error) {
	select {
	case pkt := <-p.recvCh:
		return pkt, nil
	default:
		return nil, nil
	}
}

// Send implements Port.
func (p *PipePort) Send(pkt *packet.Packet) error {
	if _, err := pkt.WriteTo(p.w); err != nil {
		return TransportError.Error(err)
	}

	return nil
}

// LinkNodeID implements Port.
func (p *PipePort) LinkNodeID() int {
	return p.linkNodeID
}

// Close implements Port.
func (p *PipePort) Close() error {
	rerr := p.r.Close()
	werr := p.w.Close()

	if rerr != nil {
		return TransportError.Error(rerr)
	}
	if werr != nil {
		return TransportError.Error(werr)
	}

	return nil
}

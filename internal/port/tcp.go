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
	"net"
	"strings"
	"time"

	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/logger"
)

// dialTimeout bounds the connect-on-send half of the per-frame TCP pattern.
const dialTimeout = 2 * time.Second

// TCPPort is a Port backed by a connect-on-send/accept-on-recv TCP pattern:
// every outbound frame is its own short-lived connection, and the accept
// loop discards any connection whose peer address does not match the
// configured remote domain, used for "S" links in the topology file.
type TCPPort struct {
	linkNodeID int
	remoteAddr string
	remoteHost string
	listener   net.Listener
	log        logger.Logger
	recvCh     chan *packet.Packet
	closed     chan struct{}
}

// NewTCPPort binds localAddr and starts accepting per-frame connections
// from remoteHost, discarding any connection from a different peer.
func NewTCPPort(linkNodeID int, localAddr, remoteAddr, remoteHost string, log logger.Logger) (*TCPPort, error) {
	l, err := net.Listen("tcp", localAddr)
	if err != nil {
		return nil, TransportError.Error(err)
	}

	p := &TCPPort{
		linkNodeID: linkNodeID,
		remoteAddr: remoteAddr,
		remoteHost: remoteHost,
		listener:   l,
		log:        log,
		recvCh:     make(chan *packet.Packet, recvBuffer),
		closed:     make(chan struct{}),
	}

	go p.acceptLoop()

	return p, nil
}

func (p *TCPPort) acceptLoop() {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			select {
			case <-p.closed:
			default:
				if p.log != nil {
					p.log.Warning("tcp port accept failed", nil, err)
				}
			}
			return
		}

		go p.handleConn(conn)
	}
}

func (p *TCPPort) handleConn(conn net.Conn) {
	defer conn.Close() // nolint

	if p.remoteHost != "" {
		host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
		if err == nil && !strings.EqualFold(host, p.remoteHost) {
			// Mismatched peer: discard per the documented accept-side match.
			return
		}
	}

	pkt, err := packet.ReadFrom(conn)
	if err != nil {
		if p.log != nil {
			p.log.Warning("tcp port frame read failed", nil, err)
		}
		return
	}

	select {
	case p.recvCh <- pkt:
	default:
		<-p.recvCh
		p.recvCh <- pkt
	}
}

// TryRecv implements Port.
func (p *TCPPort) TryRecv() (*packet.Packet, error) {
	select {
	case pkt := <-p.recvCh:
		return pkt, nil
	default:
		return nil, nil
	}
}

// Send implements Port, dialing a fresh connection for this one frame.
func (p *TCPPort) Send(pkt *packet.Packet) error {
	conn, err := net.DialTimeout("tcp", p.remoteAddr, dialTimeout)
	if err != nil {
		return TransportError.Error(err)
	}
	defer conn.Close() // nolint

	if _, err = pkt.WriteTo(conn); err != nil {
		return TransportError.Error(err)
	}

	return nil
}

// LinkNodeID implements Port.
func (p *TCPPort) LinkNodeID() int {
	return p.linkNodeID
}

// Close implements Port.
func (p *TCPPort) Close() error {
	close(p.closed)

	if err := p.listener.Close(); err != nil {
		return TransportError.Error(err)
	}

	return nil
}

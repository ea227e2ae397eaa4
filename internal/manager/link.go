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

package manager

import (
	"bufio"
	"net"
	"time"

	"github.com/sabouaram/netsim/internal/nodehost"
)

// ChannelLink reaches a host's management port directly through the Go
// channel nodehost.Host reads from, for a topology whose pipe links keep
// every node in one process alongside the manager itself.
type ChannelLink struct {
	mgmt chan<- nodehost.Request
}

// NewChannelLink wraps a host's management channel.
func NewChannelLink(mgmt chan<- nodehost.Request) *ChannelLink {
	return &ChannelLink{mgmt: mgmt}
}

func (l *ChannelLink) Send(cmd string, progress chan<- int64) (string, error) {
	rep := make(chan string, 1)
	req := nodehost.Request{Command: cmd, Reply: rep, Progress: progress}

	select {
	case l.mgmt <- req:
	case <-time.After(requestTimeout):
		return "", RequestTimedOut.Error()
	}

	select {
	case msg := <-rep:
		return msg, nil
	case <-time.After(requestTimeout):
		return "", RequestTimedOut.Error()
	}
}

func (l *ChannelLink) Close() error { return nil }

// TCPLink reaches a host's management port over a line-delimited TCP
// connection: one command frame out, one reply frame in, matching spec.md
// §4.6's "bidirectional byte-stream handle" for a cross-process topology.
// It does not carry live transfer progress (the wire has no sideband), so
// Send ignores its progress argument and the manager falls back to an
// indeterminate spinner for remote hosts.
type TCPLink struct {
	conn net.Conn
	r    *bufio.Reader
}

// DialTCPLink connects to a host's management listener at addr.
func DialTCPLink(addr string) (*TCPLink, error) {
	conn, err := net.DialTimeout("tcp", addr, requestTimeout)
	if err != nil {
		return nil, err
	}
	return &TCPLink{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (l *TCPLink) Send(cmd string, _ chan<- int64) (string, error) {
	_ = l.conn.SetDeadline(time.Now().Add(requestTimeout))

	if _, err := l.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", err
	}

	line, err := l.r.ReadString('\n')
	if err != nil {
		return "", err
	}

	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line, nil
}

func (l *TCPLink) Close() error { return l.conn.Close() }

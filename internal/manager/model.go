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

// Package manager implements the interactive operator console: one REPL
// that multiplexes a single "active" host at a time, forwarding letter
// commands over a HostLink and rendering replies, errors and transfer
// progress in the original manager's coloring.
package manager

import (
	"sort"
	"time"

	"github.com/sabouaram/netsim/internal/config"
	"github.com/sabouaram/netsim/logger"
)

// requestTimeout bounds how long the manager waits for a host's reply frame
// before surfacing a timeout to the operator; the simulated network itself
// already times out a stuck ping/transfer well inside this window.
const requestTimeout = 5 * time.Second

// HostLink is one bidirectional command/reply channel to a host's
// management port, satisfied both by an in-process Go channel (pipe-linked
// topologies sharing one process) and by a TCP connection (cross-process
// topologies), per spec.md §4.6's "bidirectional byte-stream handle"
// contract.
type HostLink interface {
	// Send writes one command frame and blocks for its reply, or returns an
	// error on timeout or a closed link. Progress, if non-nil, receives
	// cumulative byte counts for a streaming upload/download; the caller
	// must drain it until Send returns.
	Send(cmd string, progress chan<- int64) (string, error)

	// Close releases the underlying transport.
	Close() error
}

// Manager multiplexes the operator's commands to whichever host is current.
type Manager struct {
	topo *config.Topology
	log  logger.Logger

	links   map[uint8]HostLink
	current uint8
}

// New returns a Manager over topo, reaching each host through links. The
// first host found in topo.Nodes (in declaration order) becomes current.
func New(topo *config.Topology, links map[uint8]HostLink, log logger.Logger) *Manager {
	m := &Manager{topo: topo, log: log, links: links}

	for _, n := range topo.Nodes {
		if _, ok := links[n.ID]; ok {
			m.current = n.ID
			break
		}
	}

	return m
}

// Current returns the currently selected host id.
func (m *Manager) Current() uint8 { return m.current }

// SetCurrent changes the active host, rejecting any id without a link.
func (m *Manager) SetCurrent(id uint8) error {
	if _, ok := m.links[id]; !ok {
		return UnknownHost.Errorf(id)
	}
	m.current = id
	return nil
}

// Close releases every host link.
func (m *Manager) Close() {
	for _, l := range m.links {
		_ = l.Close()
	}
}

// hostIDs returns every reachable host id, ascending.
func (m *Manager) hostIDs() []uint8 {
	ids := make([]uint8, 0, len(m.links))
	for id := range m.links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) logWarn(msg string, err error) {
	if m.log != nil {
		m.log.Warning(msg, nil, err)
	}
}

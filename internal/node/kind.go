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

// Package node implements the per-node cooperative tick loop shared by
// hosts, switches and the name server: periodic STP emission, management
// channel draining, per-port packet classification and one job advance
// per tick, each delegated to a node-kind-specific Handler.
package node

import "time"

// Kind identifies what role a node plays in the topology.
type Kind uint8

const (
	Host Kind = iota
	Switch
	DNS
)

// Letter returns the single-character sender_kind tag carried in STP
// control packets ('H', 'S' or 'D').
func (k Kind) Letter() byte {
	switch k {
	case Switch:
		return 'S'
	case DNS:
		return 'D'
	default:
		return 'H'
	}
}

func (k Kind) String() string {
	switch k {
	case Switch:
		return "switch"
	case DNS:
		return "nameserver"
	default:
		return "host"
	}
}

// TickInterval is the quantum a node sleeps at the end of each loop
// iteration, yielding the scheduler between cooperative nodes. A package
// default, overridable at startup (see cmd/netsim run's --tick-interval).
var TickInterval = 10 * time.Millisecond

// ControlPeriod is how often a node re-emits its STP control packets. A
// package default, overridable at startup (see cmd/netsim run's
// --control-period).
var ControlPeriod = 500 * time.Millisecond

// ConvergenceRounds is the number of broadcast rounds after which a node
// stops emitting STP control packets, assuming a static topology.
const ConvergenceRounds = 10

// DefaultTTL is the default time-to-live, in ticks, of a WaitForResponse job.
const DefaultTTL = 20

// StaticDNSID is the fixed, reserved node id of the name server.
const StaticDNSID = 100

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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/sabouaram/netsim/cobra"
	"github.com/sabouaram/netsim/duration"
	"github.com/sabouaram/netsim/internal/config"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/nodedns"
	"github.com/sabouaram/netsim/internal/nodehost"
	"github.com/sabouaram/netsim/internal/nodeswitch"
	"github.com/sabouaram/netsim/internal/port"
	"github.com/sabouaram/netsim/logger"
)

// unknownLinkNodeID marks a socket port whose remote node id is not a
// locally declared node (the far end lives in another process's topology
// file); it never matches a real packet destination, so a node falls back
// to broadcasting on it, which is the correct behavior for an unknown peer.
const unknownLinkNodeID = -1

type runFlags struct {
	topology      string
	initialDir    string
	mgmtBase      int
	metrics       string
	tickInterval  string
	controlPeriod string
}

func newRunCommand(app libcbr.Cobra) *spfcbr.Command {
	var fl runFlags

	cmd := app.NewCommand(
		"run",
		"boot a topology in this process",
		"Parses a topology file, wires every declared node's ports and runs "+
			"each node's tick loop until interrupted. Pipe-linked nodes share "+
			"this process; socket-linked nodes may live in a different one.",
		"--topology FILE",
		"--topology lab.topo --mgmt-base 9000",
	)

	cmd.Flags().StringVarP(&fl.topology, "topology", "t", "", "topology file to load")
	cmd.Flags().StringVarP(&fl.initialDir, "dir", "d", "", "local directory every host serves uploads/downloads from")
	cmd.Flags().IntVar(&fl.mgmtBase, "mgmt-base", 0, "base TCP port for per-host management bridges (0 disables; host id N listens on base+N)")
	cmd.Flags().StringVar(&fl.metrics, "metrics-addr", "", "address to serve /metrics on (empty disables)")
	cmd.Flags().StringVar(&fl.tickInterval, "tick-interval", "", "override the node loop's sleep quantum (e.g. 10ms, 1d2h)")
	cmd.Flags().StringVar(&fl.controlPeriod, "control-period", "", "override the STP control-packet re-emit period (e.g. 500ms)")
	_ = cmd.MarkFlagRequired("topology")

	cmd.RunE = func(_ *spfcbr.Command, _ []string) error {
		return runTopology(fl)
	}

	return cmd
}

func runTopology(fl runFlags) error {
	if err := applyTimingOverrides(fl); err != nil {
		return err
	}

	f, err := os.Open(fl.topology)
	if err != nil {
		return err
	}
	defer f.Close() // nolint

	topo, err := config.Parse(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New(ctx)

	nodes := declaredNodes(topo)
	ports := buildPorts(topo, log)

	if fl.metrics != "" {
		stop, mErr := serveMetrics(fl.metrics, nodes, func(id uint8) int { return len(ports[id]) })
		if mErr != nil {
			return mErr
		}
		defer stop()
	}

	var wg sync.WaitGroup
	for _, n := range nodes {
		handler, mgmt := newHandler(n, len(ports[n.ID]))
		rt := node.New(n.ID, n.Kind, ports[n.ID], log)

		if mgmt != nil && fl.mgmtBase > 0 {
			addr := fmt.Sprintf("localhost:%d", fl.mgmtBase+int(n.ID))
			startManagementBridge(ctx, addr, mgmt, log, n.ID)
		}

		if mgmt != nil && fl.initialDir != "" {
			seedInitialDir(mgmt, fl.initialDir)
		}

		wg.Add(1)
		go func(rt *node.Runtime, h node.Handler) {
			defer wg.Done()
			rt.Run(ctx, h)
		}(rt, handler)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down", nil)
	cancel()
	wg.Wait()

	return nil
}

// applyTimingOverrides parses --tick-interval/--control-period with the
// days-aware duration.Parse (richer than time.ParseDuration for the long
// convergence periods a slow-tick lab run might want) and, if given,
// replaces node.TickInterval/node.ControlPeriod for this process.
func applyTimingOverrides(fl runFlags) error {
	if fl.tickInterval != "" {
		d, err := duration.Parse(fl.tickInterval)
		if err != nil {
			return fmt.Errorf("--tick-interval: %w", err)
		}
		node.TickInterval = d.Time()
	}

	if fl.controlPeriod != "" {
		d, err := duration.Parse(fl.controlPeriod)
		if err != nil {
			return fmt.Errorf("--control-period: %w", err)
		}
		node.ControlPeriod = d.Time()
	}

	return nil
}

// declaredNodes returns every node.NodeSpec the topology names, plus the
// reserved name server (node.StaticDNSID) if some link reaches it without
// it being one of topo.Nodes.
func declaredNodes(topo *config.Topology) []config.NodeSpec {
	nodes := append([]config.NodeSpec(nil), topo.Nodes...)

	if _, ok := topo.NodeByID(node.StaticDNSID); ok {
		return nodes
	}
	for _, l := range topo.Links {
		if l.A == node.StaticDNSID || (l.Kind == config.Pipe && l.B == node.StaticDNSID) {
			nodes = append(nodes, config.NodeSpec{ID: node.StaticDNSID, Kind: node.DNS})
			break
		}
	}
	return nodes
}

// buildPorts wires every declared link into the port list of each endpoint
// it names: a Pipe link creates a shared in-process pair, a Socket link
// creates one listening/dialing TCPPort owned by its A endpoint.
func buildPorts(topo *config.Topology, log logger.Logger) map[uint8][]port.Port {
	ports := make(map[uint8][]port.Port)

	for _, l := range topo.Links {
		switch l.Kind {
		case config.Pipe:
			pa, pb := port.NewPipeLink(int(l.A), int(l.B), log)
			ports[l.A] = append(ports[l.A], pa)
			ports[l.B] = append(ports[l.B], pb)

		case config.Socket:
			localAddr := l.LocalDomain + ":" + strconv.Itoa(l.LocalPort)
			remoteAddr := l.RemoteDomain + ":" + strconv.Itoa(l.RemotePort)

			tp, err := port.NewTCPPort(unknownLinkNodeID, localAddr, remoteAddr, l.RemoteDomain, log)
			if err != nil {
				if log != nil {
					log.Warning("socket link setup failed", nil, err)
				}
				continue
			}
			ports[l.A] = append(ports[l.A], tp)
		}
	}

	return ports
}

// startManagementBridge launches ServeManagement in the background: it
// blocks accepting connections until ctx is cancelled, so it cannot run
// inline with the per-node setup loop without starving every later node.
func startManagementBridge(ctx context.Context, addr string, mgmt chan nodehost.Request, log logger.Logger, id uint8) {
	go func() {
		if err := nodehost.ServeManagement(ctx, addr, mgmt); err != nil {
			log.Error("management bridge stopped", nil, err)
		}
	}()
	log.Info(fmt.Sprintf("management bridge for node %d listening on %s", id, addr), nil)
}

// newHandler builds the node.Handler for a declared node, returning the
// management channel too (non-nil only for a host). numPorts must match
// the node's actual port count: Switch preallocates its per-port STP state
// from it.
func newHandler(n config.NodeSpec, numPorts int) (node.Handler, chan nodehost.Request) {
	switch n.Kind {
	case node.Switch:
		return nodeswitch.New(n.ID, numPorts), nil
	case node.DNS:
		return nodedns.New(n.ID), nil
	default:
		mgmt := make(chan nodehost.Request)
		return nodehost.New(n.ID, mgmt), mgmt
	}
}

// seedInitialDir pushes one "m <dir>" command through mgmt so a host starts
// with a local directory configured without an operator having to do it by
// hand over the console first.
func seedInitialDir(mgmt chan<- nodehost.Request, dir string) {
	rep := make(chan string, 1)
	go func() {
		mgmt <- nodehost.Request{Command: "m " + dir, Reply: rep}
		<-rep
	}()
}

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

	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/sabouaram/netsim/cobra"
	"github.com/sabouaram/netsim/internal/config"
	"github.com/sabouaram/netsim/internal/manager"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/logger"
)

type managerFlags struct {
	topology string
	mgmtHost string
	mgmtBase int
}

func newManagerCommand(app libcbr.Cobra) *spfcbr.Command {
	var fl managerFlags

	cmd := app.NewCommand(
		"manager",
		"operate a running topology",
		"Dials every host's management bridge (started by `netsim run "+
			"--mgmt-base`) and opens the interactive operator console against "+
			"the first one reachable.",
		"--topology FILE --mgmt-base 9000",
		"--topology lab.topo --mgmt-base 9000",
	)

	cmd.Flags().StringVarP(&fl.topology, "topology", "t", "", "topology file describing the running network")
	cmd.Flags().StringVar(&fl.mgmtHost, "mgmt-host", "localhost", "host the management bridges listen on")
	cmd.Flags().IntVar(&fl.mgmtBase, "mgmt-base", 0, "base TCP port of the management bridges (host id N listens on base+N)")
	_ = cmd.MarkFlagRequired("topology")
	_ = cmd.MarkFlagRequired("mgmt-base")

	cmd.RunE = func(_ *spfcbr.Command, _ []string) error {
		return runManager(fl)
	}

	return cmd
}

func runManager(fl managerFlags) error {
	f, err := os.Open(fl.topology)
	if err != nil {
		return err
	}
	defer f.Close() // nolint

	topo, err := config.Parse(f)
	if err != nil {
		return err
	}

	log := logger.New(context.Background())

	links := make(map[uint8]manager.HostLink)
	for _, n := range topo.Nodes {
		if n.Kind != node.Host {
			continue
		}

		addr := fmt.Sprintf("%s:%d", fl.mgmtHost, fl.mgmtBase+int(n.ID))
		link, dialErr := manager.DialTCPLink(addr)
		if dialErr != nil {
			log.Warning("host unreachable, skipping", nil, dialErr)
			continue
		}
		links[n.ID] = link
	}

	if len(links) == 0 {
		return UnreachableNode.Errorf(fl.mgmtHost)
	}

	mgr := manager.New(topo, links, log)
	return mgr.Run()
}

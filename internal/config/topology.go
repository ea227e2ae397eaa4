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

// Package config parses and validates the plain-text topology file: a node
// list (hosts and switches) followed by a link list (in-process pipes or
// cross-process sockets) that together describe one simulation run.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sabouaram/netsim/errors"
	"github.com/sabouaram/netsim/internal/node"
)

// LinkKind distinguishes an in-process pipe from a cross-process socket link.
type LinkKind uint8

const (
	Pipe LinkKind = iota
	Socket
)

// NodeSpec is one declared node: its dense id and its role.
type NodeSpec struct {
	ID   uint8
	Kind node.Kind
}

// Link is one declared link, either a local pipe between two declared node
// ids or a socket endpoint owned by node A, dialing out to a remote host:port
// it does not itself validate (the far side is a different config file).
type Link struct {
	Kind LinkKind

	A uint8
	B uint8

	LocalDomain  string `validate:"omitempty,hostname|ip"`
	LocalPort    int    `validate:"omitempty,gte=1,lte=65535"`
	RemoteDomain string `validate:"omitempty,hostname|ip"`
	RemotePort   int    `validate:"omitempty,gte=1,lte=65535"`
}

// Topology is a fully parsed, not-yet-validated configuration file.
type Topology struct {
	Nodes []NodeSpec
	Links []Link `validate:"dive"`
}

// NodeByID returns the declared node with id, if any.
func (t *Topology) NodeByID(id uint8) (NodeSpec, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// Parse reads a topology file from r: node_count lines of "(H|S) <id>"
// followed by link_count lines of "P <a> <b>" or "S <a> <localDomain>
// <localPort> <remoteDomain> <remotePort>", all whitespace-separated.
func Parse(r io.Reader) (*Topology, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func(field string) (string, error) {
		if !sc.Scan() {
			return "", MissingField.Errorf(field)
		}
		return sc.Text(), nil
	}

	nodeCountTok, err := next("node_count")
	if err != nil {
		return nil, err
	}
	nodeCount, err := strconv.Atoi(nodeCountTok)
	if err != nil || nodeCount < 0 {
		return nil, InvalidField.Errorf("node_count", nodeCountTok)
	}

	topo := &Topology{}

	for i := 0; i < nodeCount; i++ {
		kindTok, err := next("node kind")
		if err != nil {
			return nil, err
		}
		idTok, err := next("node id")
		if err != nil {
			return nil, err
		}

		id, err := parseNodeID(idTok)
		if err != nil {
			return nil, err
		}

		var kind node.Kind
		switch strings.ToUpper(kindTok) {
		case "H":
			kind = node.Host
		case "S":
			kind = node.Switch
		default:
			return nil, InvalidField.Errorf("node kind", kindTok)
		}

		topo.Nodes = append(topo.Nodes, NodeSpec{ID: id, Kind: kind})
	}

	linkCountTok, err := next("link_count")
	if err != nil {
		return nil, err
	}
	linkCount, err := strconv.Atoi(linkCountTok)
	if err != nil || linkCount < 0 {
		return nil, InvalidField.Errorf("link_count", linkCountTok)
	}

	for i := 0; i < linkCount; i++ {
		letterTok, err := next("link kind")
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(letterTok) {
		case "P":
			aTok, err := next("pipe node a")
			if err != nil {
				return nil, err
			}
			bTok, err := next("pipe node b")
			if err != nil {
				return nil, err
			}
			a, err := parseNodeID(aTok)
			if err != nil {
				return nil, err
			}
			b, err := parseNodeID(bTok)
			if err != nil {
				return nil, err
			}
			topo.Links = append(topo.Links, Link{Kind: Pipe, A: a, B: b})

		case "S":
			aTok, err := next("socket node a")
			if err != nil {
				return nil, err
			}
			a, err := parseNodeID(aTok)
			if err != nil {
				return nil, err
			}
			localDomain, err := next("socket local domain")
			if err != nil {
				return nil, err
			}
			localPortTok, err := next("socket local port")
			if err != nil {
				return nil, err
			}
			remoteDomain, err := next("socket remote domain")
			if err != nil {
				return nil, err
			}
			remotePortTok, err := next("socket remote port")
			if err != nil {
				return nil, err
			}

			localPort, err := strconv.Atoi(localPortTok)
			if err != nil {
				return nil, InvalidField.Errorf("socket local port", localPortTok)
			}
			remotePort, err := strconv.Atoi(remotePortTok)
			if err != nil {
				return nil, InvalidField.Errorf("socket remote port", remotePortTok)
			}

			topo.Links = append(topo.Links, Link{
				Kind:         Socket,
				A:            a,
				LocalDomain:  localDomain,
				LocalPort:    localPort,
				RemoteDomain: remoteDomain,
				RemotePort:   remotePort,
			})

		default:
			return nil, InvalidField.Errorf("link kind", letterTok)
		}
	}

	if verr := topo.Validate(); verr != nil {
		return nil, verr
	}

	return topo, nil
}

func parseNodeID(tok string) (uint8, error) {
	n, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, InvalidField.Errorf("node id", tok)
	}
	return uint8(n), nil
}

// Validate runs struct-tag validation over the link list plus the
// topology's own cross-reference rules: dense 0..n-1 node ids, no duplicate
// ids, and every link endpoint naming either a declared node or the
// reserved name-server id.
func (t *Topology) Validate() errors.Error {
	out := InvalidTopology.Error(nil)

	val := validator.New()
	if verr := val.Struct(t); verr != nil {
		if _, ok := verr.(*validator.InvalidValidationError); ok {
			out.Add(verr)
		} else {
			for _, fe := range verr.(validator.ValidationErrors) {
				//nolint goerr113
				out.Add(fmt.Errorf("link field %q fails constraint %q", fe.Field(), fe.ActualTag()))
			}
		}
	}

	seen := make(map[uint8]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		if seen[n.ID] {
			//nolint goerr113
			out.Add(fmt.Errorf("duplicate node id %d", n.ID))
			continue
		}
		seen[n.ID] = true
	}
	for i := range t.Nodes {
		if !seen[uint8(i)] {
			//nolint goerr113
			out.Add(fmt.Errorf("node ids must be dense 0..%d, missing %d", len(t.Nodes)-1, i))
		}
	}

	knownID := func(id uint8) bool {
		return seen[id] || id == node.StaticDNSID
	}
	for _, l := range t.Links {
		if !knownID(l.A) {
			//nolint goerr113
			out.Add(fmt.Errorf("link references unknown node id %d", l.A))
		}
		if l.Kind == Pipe {
			if !knownID(l.B) {
				//nolint goerr113
				out.Add(fmt.Errorf("link references unknown node id %d", l.B))
			}
			if l.A == l.B {
				//nolint goerr113
				out.Add(fmt.Errorf("pipe link connects node %d to itself", l.A))
			}
		}
	}

	if out.HasParent() {
		return out
	}
	return nil
}

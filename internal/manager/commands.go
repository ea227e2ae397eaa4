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
	"fmt"
	"strconv"
	"strings"
)

// Result is the outcome of one dispatched operator command: the text to
// display and whether it reads as an error (for coloring) or an
// acknowledgement.
type Result struct {
	Text    string
	IsError bool
	Quit    bool
}

// ask prompts for a missing argument; it is swapped out in tests.
type ask func(prompt string) (string, error)

// Dispatch runs one manager-level command line (already split on
// whitespace, letter first) against the current host, prompting for any
// missing argument via askFn.
func (m *Manager) Dispatch(fields []string, askFn ask, onProgress func(label string, progress <-chan int64)) Result {
	if len(fields) == 0 {
		return Result{}
	}

	switch strings.ToLower(fields[0]) {
	case "q":
		return Result{Text: "goodbye", Quit: true}

	case "h":
		return m.cmdHostList()

	case "l":
		return m.cmdNodeList()

	case "c":
		return m.cmdChangeHost(fields, askFn)

	case "s":
		return m.forward("s")

	case "m":
		dir, err := arg(fields, 1, askFn, "directory: ")
		if err != nil {
			return errResult(err)
		}
		return m.forward("m " + dir)

	case "p":
		dst, err := arg(fields, 1, askFn, "destination: ")
		if err != nil {
			return errResult(err)
		}
		return m.forward("p " + dst)

	case "a":
		name, err := arg(fields, 1, askFn, "name: ")
		if err != nil {
			return errResult(err)
		}
		return m.forward("a " + name)

	case "u", "d":
		return m.cmdTransfer(fields, askFn, onProgress)

	default:
		return Result{Text: "unknown command: " + fields[0], IsError: true}
	}
}

func errResult(err error) Result {
	return Result{Text: err.Error(), IsError: true}
}

// arg returns fields[idx] if present, else prompts for it with label.
func arg(fields []string, idx int, askFn ask, label string) (string, error) {
	if len(fields) > idx && fields[idx] != "" {
		return fields[idx], nil
	}
	return askFn(label)
}

func (m *Manager) forward(cmd string) Result {
	link, ok := m.links[m.current]
	if !ok {
		return errResult(NoCurrentHost.Error())
	}

	msg, err := link.Send(cmd, nil)
	if err != nil {
		m.logWarn("host link send failed", err)
		return errResult(err)
	}

	return Result{Text: msg, IsError: strings.Contains(msg, "refused") || strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "error") || strings.Contains(msg, "unknown") || strings.Contains(msg, "not a")}
}

func (m *Manager) cmdHostList() Result {
	var b strings.Builder
	for _, id := range m.hostIDs() {
		marker := "  "
		if id == m.current {
			marker = "* "
		}
		kind := "host"
		if n, ok := m.topo.NodeByID(id); ok {
			kind = n.Kind.String()
		}
		fmt.Fprintf(&b, "%s%d (%s)\n", marker, id, kind)
	}
	return Result{Text: strings.TrimSuffix(b.String(), "\n")}
}

// cmdNodeList lists every node declared in the topology and its kind,
// independent of which hosts the manager can actually reach; this is the
// restored two-pane listing (man.h/manager.c), distinct from a host's own
// name-cache "l" command.
func (m *Manager) cmdNodeList() Result {
	var b strings.Builder
	for _, n := range m.topo.Nodes {
		fmt.Fprintf(&b, "%d=%s\n", n.ID, n.Kind.String())
	}
	if b.Len() == 0 {
		return Result{Text: "(no nodes)"}
	}
	return Result{Text: strings.TrimSuffix(b.String(), "\n")}
}

func (m *Manager) cmdChangeHost(fields []string, askFn ask) Result {
	idStr, err := arg(fields, 1, askFn, "host id: ")
	if err != nil {
		return errResult(err)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil || id < 0 || id > 255 {
		return Result{Text: "invalid host id: " + idStr, IsError: true}
	}

	if setErr := m.SetCurrent(uint8(id)); setErr != nil {
		return errResult(setErr)
	}

	return Result{Text: fmt.Sprintf("current host is now %d", id)}
}

func (m *Manager) cmdTransfer(fields []string, askFn ask, onProgress func(label string, progress <-chan int64)) Result {
	letter := strings.ToLower(fields[0])

	dst, err := arg(fields, 1, askFn, "destination: ")
	if err != nil {
		return errResult(err)
	}
	file, err := arg(fields, 2, askFn, "file: ")
	if err != nil {
		return errResult(err)
	}

	link, ok := m.links[m.current]
	if !ok {
		return errResult(NoCurrentHost.Error())
	}

	progress := make(chan int64, 8)
	if onProgress != nil {
		verb := "uploading"
		if letter == "d" {
			verb = "downloading"
		}
		go onProgress(fmt.Sprintf("%s %s", verb, file), progress)
	}

	msg, sendErr := link.Send(letter+" "+dst+" "+file, progress)
	close(progress)
	if sendErr != nil {
		m.logWarn("host link send failed", sendErr)
		return errResult(sendErr)
	}

	return Result{Text: msg, IsError: strings.Contains(msg, "refused") || strings.Contains(msg, "failed") ||
		strings.Contains(msg, "timed out")}
}

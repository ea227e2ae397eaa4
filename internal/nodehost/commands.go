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

package nodehost

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
)

var errNoLocalDirectory = NoLocalDirectory.Error().Error()

// dispatch parses one operator command frame and routes it to its handler.
func (h *Host) dispatch(rt *node.Runtime, req Request) {
	fields := strings.Fields(req.Command)
	if len(fields) == 0 {
		reply(req.Reply, "empty command")
		return
	}

	switch strings.ToLower(fields[0]) {
	case "s":
		h.cmdStatus(req.Reply)

	case "m":
		if len(fields) < 2 {
			reply(req.Reply, "usage: m <dir>")
			return
		}
		h.cmdSetDir(fields[1], req.Reply)

	case "p":
		if len(fields) < 2 {
			reply(req.Reply, "usage: p <dst>")
			return
		}
		h.cmdPing(rt, fields[1], req.Reply)

	case "u":
		if len(fields) < 3 {
			reply(req.Reply, "usage: u <dst> <file>")
			return
		}
		h.cmdUpload(rt, fields[1], fields[2], req.Reply, req.Progress)

	case "d":
		if len(fields) < 3 {
			reply(req.Reply, "usage: d <dst> <file>")
			return
		}
		h.cmdDownload(rt, fields[1], fields[2], req.Reply, req.Progress)

	case "a":
		if len(fields) < 2 {
			reply(req.Reply, "usage: a <name>")
			return
		}
		h.cmdRegister(rt, fields[1], req.Reply)

	case "l":
		h.cmdList(req.Reply)

	default:
		reply(req.Reply, "unknown command: "+fields[0])
	}
}

func (h *Host) cmdStatus(rep chan<- string) {
	dir := h.localDir
	if dir == "" {
		dir = "(unset)"
	}
	reply(rep, fmt.Sprintf("id=%d dir=%s", h.id, dir))
}

func (h *Host) cmdSetDir(dir string, rep chan<- string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		reply(rep, "not a directory: "+dir)
		return
	}
	h.localDir = dir
	reply(rep, "directory set")
}

func (h *Host) cmdList(rep chan<- string) {
	if len(h.nameCache) == 0 {
		reply(rep, "(no cached names)")
		return
	}

	names := make([]string, 0, len(h.nameCache))
	for name, id := range h.nameCache {
		names = append(names, fmt.Sprintf("%s=%d", name, id))
	}
	sort.Strings(names)
	reply(rep, strings.Join(names, " "))
}

func (h *Host) cmdPing(rt *node.Runtime, dstStr string, rep chan<- string) {
	action := func(id uint8) { h.startPing(rt, id, rep) }
	if id, ok := h.resolve(rt, dstStr, rep, action); ok {
		action(id)
	}
}

func (h *Host) startPing(rt *node.Runtime, dst uint8, rep chan<- string) {
	tk, err := h.newTicket(rt)
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	pkt, err := packet.New(h.id, dst, packet.PingReq, []byte(tk.Format("")))
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	rt.Jobs.Enqueue(job.New(job.SendRequest, tk, node.DefaultTTL, pkt))
	h.pending[tk] = rep
}

func (h *Host) cmdUpload(rt *node.Runtime, dstStr, filename string, rep chan<- string, prog chan<- int64) {
	if h.localDir == "" {
		reply(rep, errNoLocalDirectory)
		return
	}

	path := filepath.Join(h.localDir, filename)
	if _, err := os.Stat(path); err != nil {
		reply(rep, FileNotFound.Errorf(filename).Error())
		return
	}

	action := func(id uint8) { h.startUpload(rt, id, path, rep, prog) }
	if id, ok := h.resolve(rt, dstStr, rep, action); ok {
		action(id)
	}
}

func (h *Host) startUpload(rt *node.Runtime, dst uint8, path string, rep chan<- string, prog chan<- int64) {
	tk, err := h.newTicket(rt)
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	pkt, err := packet.New(h.id, dst, packet.UploadReq, []byte(tk.Format(filepath.Base(path))))
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	j := job.New(job.SendRequest, tk, node.DefaultTTL, pkt)
	j.FilePath = path
	rt.Jobs.Enqueue(j)
	h.pending[tk] = rep
	if prog != nil {
		h.progress[tk] = prog
	}
}

func (h *Host) cmdDownload(rt *node.Runtime, dstStr, filename string, rep chan<- string, prog chan<- int64) {
	if h.localDir == "" {
		reply(rep, errNoLocalDirectory)
		return
	}

	target := filepath.Join(h.localDir, filename)
	if _, err := os.Stat(target); err == nil {
		reply(rep, "file already exists locally")
		return
	}

	action := func(id uint8) { h.startDownload(rt, id, filename, rep, prog) }
	if id, ok := h.resolve(rt, dstStr, rep, action); ok {
		action(id)
	}
}

func (h *Host) startDownload(rt *node.Runtime, dst uint8, filename string, rep chan<- string, prog chan<- int64) {
	tk, err := h.newTicket(rt)
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	pkt, err := packet.New(h.id, dst, packet.DownloadReq, []byte(tk.Format(filename)))
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	j := job.New(job.SendRequest, tk, node.DefaultTTL, pkt)
	j.FilePath = filename
	rt.Jobs.Enqueue(j)
	h.pending[tk] = rep
	if prog != nil {
		h.progress[tk] = prog
	}
}

func (h *Host) cmdRegister(rt *node.Runtime, name string, rep chan<- string) {
	tk, err := h.newTicket(rt)
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	pkt, err := packet.New(h.id, node.StaticDNSID, packet.DNSRegistration, []byte(tk.Format(name)))
	if err != nil {
		reply(rep, "error: "+err.Error())
		return
	}

	rt.Jobs.Enqueue(job.New(job.DNSRegister, tk, node.DefaultTTL, pkt))
	h.pending[tk] = rep
}

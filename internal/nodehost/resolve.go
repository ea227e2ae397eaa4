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
	"strconv"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
)

// resolve turns a command's destination argument into a node id: a decimal
// literal is used as-is, a cached name resolves instantly, and anything
// else triggers a DNS query whose resume callback fires when the response
// (or a timeout) lands.
func (h *Host) resolve(rt *node.Runtime, dst string, rep chan<- string, resume func(id uint8)) (uint8, bool) {
	if n, err := strconv.ParseUint(dst, 10, 8); err == nil {
		return uint8(n), true
	}

	if id, ok := h.nameCache[dst]; ok {
		return id, true
	}

	tk, err := h.newTicket(rt)
	if err != nil {
		reply(rep, "error: "+err.Error())
		return 0, false
	}

	pkt, err := packet.New(h.id, node.StaticDNSID, packet.DNSQuery, []byte(tk.Format(dst)))
	if err != nil {
		reply(rep, "error: "+err.Error())
		return 0, false
	}

	rt.Jobs.Enqueue(job.New(job.DNSQuery, tk, node.DefaultTTL, pkt))
	h.pending[tk] = rep
	h.awaitingDNS[tk] = deferred{name: dst, reply: rep, resume: resume}

	return 0, false
}

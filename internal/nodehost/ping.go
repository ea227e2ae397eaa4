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
	"strconv"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/ticket"
)

// handleSendRequest sends the job's packet and converts it to a
// WaitForResponse awaiting the matching reply, regardless of which request
// kind (ping, upload/download handshake, DNS) originated it.
func (h *Host) handleSendRequest(rt *node.Runtime, j *job.Job) {
	rt.SendTo(j.Packet)
	j.Kind = job.WaitForResponse
	j.State = job.Pending
	rt.Jobs.Enqueue(j)
}

// handleWaitForResponse ticks down the job's TTL; at 0 it fails and
// surfaces a type-specific timeout message to the operator.
func (h *Host) handleWaitForResponse(rt *node.Runtime, j *job.Job) {
	j.TTL--
	if j.TTL > 0 {
		rt.Jobs.Enqueue(j)
		return
	}

	j.State = job.Error
	j.ErrorMsg = timeoutMessage(j.Packet.Type)

	reply(h.pending[j.Ticket], j.ErrorMsg)
	delete(h.pending, j.Ticket)
	delete(h.awaitingDNS, j.Ticket)

	if cerr := j.Close(); cerr != nil && rt.Log != nil {
		rt.Log.Warning("failed to release timed-out job", nil, cerr)
	}
}

func timeoutMessage(t packet.Type) string {
	switch t {
	case packet.PingReq:
		return "ping request timed out"
	case packet.UploadReq:
		return "upload request timed out"
	case packet.DownloadReq:
		return "download request timed out"
	case packet.DNSQuery:
		return "dns query timed out"
	case packet.DNSRegistration:
		return "dns registration timed out"
	default:
		return "request timed out"
	}
}

// handlePingRequest echoes a PING_REQ back to its sender as a PING_RESPONSE.
func (h *Host) handlePingRequest(rt *node.Runtime, pkt *packet.Packet) {
	resp, err := packet.New(h.id, pkt.Src, packet.PingResponse, append([]byte(nil), pkt.Data()...))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build ping response", nil, err)
		}
		return
	}

	rt.SendTo(resp)
}

// handlePingResponse resolves the originating WaitForResponse job and
// surfaces an acknowledgement to the operator.
func (h *Host) handlePingResponse(rt *node.Runtime, pkt *packet.Packet) {
	tk, _, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed ping response", nil, err)
		}
		return
	}

	j := rt.Jobs.DeleteByTicket(tk)
	if j == nil {
		return
	}
	j.State = job.Complete

	reply(h.pending[tk], fmt.Sprintf("ping: host %d is alive", pkt.Src))
	delete(h.pending, tk)

	if cerr := j.Close(); cerr != nil && rt.Log != nil {
		rt.Log.Warning("failed to release ping job", nil, cerr)
	}
}

// handleDNSRegistrationResponse resolves a pending "a <name>" command.
func (h *Host) handleDNSRegistrationResponse(rt *node.Runtime, pkt *packet.Packet) {
	tk, msg, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed dns registration response", nil, err)
		}
		return
	}

	if j := rt.Jobs.DeleteByTicket(tk); j != nil {
		j.State = job.Complete
		_ = j.Close()
	}

	reply(h.pending[tk], "register: "+msg)
	delete(h.pending, tk)
}

// handleDNSQueryResponse resolves a paused command once the name server
// answers, caching a hit for future lookups.
func (h *Host) handleDNSQueryResponse(rt *node.Runtime, pkt *packet.Packet) {
	tk, idStr, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed dns query response", nil, err)
		}
		return
	}

	def, ok := h.awaitingDNS[tk]
	if !ok {
		return
	}
	delete(h.awaitingDNS, tk)
	delete(h.pending, tk)

	if j := rt.Jobs.DeleteByTicket(tk); j != nil {
		j.State = job.Complete
		_ = j.Close()
	}

	if idStr == "-1" {
		reply(def.reply, "name not found: "+def.name)
		return
	}

	id64, perr := strconv.ParseUint(idStr, 10, 8)
	if perr != nil {
		reply(def.reply, "dns response malformed")
		return
	}

	id := uint8(id64)
	h.nameCache[def.name] = id
	def.resume(id)
}

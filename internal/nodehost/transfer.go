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
	"io"
	"os"
	"path/filepath"

	libsha256 "github.com/sabouaram/netsim/encoding/sha256"
	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/ticket"
)

// handleUploadRequest is the passive side of a genuine upload: it validates
// the target file does not already exist and, if accepted, opens it for
// writing ahead of the chunks that follow.
func (h *Host) handleUploadRequest(rt *node.Runtime, pkt *packet.Packet) {
	tk, filename, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed upload request", nil, err)
		}
		return
	}

	if h.localDir == "" {
		h.respond(rt, pkt.Src, packet.UploadResponse, tk, errNoLocalDirectory)
		return
	}

	target := filepath.Join(h.localDir, filename)
	if _, statErr := os.Stat(target); statErr == nil {
		h.respond(rt, pkt.Src, packet.UploadResponse, tk, FileAlreadyExists.Errorf(filename).Error())
		return
	}

	f, createErr := os.Create(target)
	if createErr != nil {
		h.respond(rt, pkt.Src, packet.UploadResponse, tk, "cannot create file")
		return
	}

	h.inboundUploads[tk] = f
	h.respond(rt, pkt.Src, packet.UploadResponse, tk, "Ready")
}

// handleUploadResponse is the active side: on "Ready" it opens the local
// file for reading and starts the per-tick streaming job; otherwise it
// surfaces the refusal.
func (h *Host) handleUploadResponse(rt *node.Runtime, pkt *packet.Packet) {
	tk, msg, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed upload response", nil, err)
		}
		return
	}

	j := rt.Jobs.DeleteByTicket(tk)
	if j == nil {
		return
	}

	if msg != "Ready" {
		j.State = job.Error
		reply(h.pending[tk], "upload refused: "+msg)
		delete(h.pending, tk)
		delete(h.progress, tk)
		_ = j.Close()
		return
	}

	f, openErr := os.Open(j.FilePath)
	if openErr != nil {
		reply(h.pending[tk], "upload failed: "+openErr.Error())
		delete(h.pending, tk)
		_ = j.Close()
		return
	}

	j.FileHandle = f
	j.Kind = job.Upload
	j.State = job.Ready
	rt.Jobs.Enqueue(j)
}

// handleUploadTick sends the next chunk of an open transfer, or the
// UPLOAD_END trailer once its file is exhausted.
func (h *Host) handleUploadTick(rt *node.Runtime, j *job.Job) {
	buf := make([]byte, ChunkSize)
	n, readErr := j.FileHandle.Read(buf)

	if n > 0 {
		chunk, err := packet.New(h.id, j.Packet.Dst, packet.Upload, []byte(j.Ticket.Format(string(buf[:n]))))
		if err != nil {
			if rt.Log != nil {
				rt.Log.Warning("failed to build upload chunk", nil, err)
			}
		} else {
			rt.SendTo(chunk)
		}
		j.FileOffset += int64(n)
		progressUpdate(h.progress[j.Ticket], j.FileOffset)
	}

	if readErr == io.EOF {
		end, err := packet.New(h.id, j.Packet.Dst, packet.UploadEnd, []byte(j.Ticket.Format("")))
		if err == nil {
			rt.SendTo(end)
		}

		j.State = job.Complete
		if cerr := j.Close(); cerr != nil && rt.Log != nil {
			rt.Log.Warning("failed to close uploaded file", nil, cerr)
		}

		if ch, ok := h.pending[j.Ticket]; ok {
			reply(ch, "upload complete")
			delete(h.pending, j.Ticket)
		}
		delete(h.progress, j.Ticket)
		return
	}

	if readErr != nil {
		j.State = job.Error
		j.ErrorMsg = readErr.Error()
		_ = j.Close()

		if ch, ok := h.pending[j.Ticket]; ok {
			reply(ch, "upload failed: "+readErr.Error())
			delete(h.pending, j.Ticket)
		}
		delete(h.progress, j.Ticket)
		return
	}

	rt.Jobs.Enqueue(j)
}

// handleDownloadRequest is the file owner's side: validated requests start
// streaming the file back using the same Upload job machinery as a genuine
// upload, addressed to the requester.
func (h *Host) handleDownloadRequest(rt *node.Runtime, pkt *packet.Packet) {
	tk, filename, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed download request", nil, err)
		}
		return
	}

	if h.localDir == "" {
		h.respond(rt, pkt.Src, packet.DownloadResponse, tk, errNoLocalDirectory)
		return
	}

	path := filepath.Join(h.localDir, filename)
	f, openErr := os.Open(path)
	if openErr != nil {
		h.respond(rt, pkt.Src, packet.DownloadResponse, tk, FileNotFound.Errorf(filename).Error())
		return
	}

	skeleton, err := packet.New(h.id, pkt.Src, packet.Upload, nil)
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build download stream skeleton", nil, err)
		}
		_ = f.Close()
		return
	}

	j := job.New(job.Upload, tk, 0, skeleton)
	j.FileHandle = f
	j.FilePath = path
	j.State = job.Ready
	rt.Jobs.Enqueue(j)
}

// handleDownloadResponse only ever carries a refusal: a successful download
// skips straight to UPLOAD chunks.
func (h *Host) handleDownloadResponse(rt *node.Runtime, pkt *packet.Packet) {
	tk, msg, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed download response", nil, err)
		}
		return
	}

	if j := rt.Jobs.DeleteByTicket(tk); j != nil {
		j.State = job.Error
		_ = j.Close()
	}

	reply(h.pending[tk], "download refused: "+msg)
	delete(h.pending, tk)
	delete(h.progress, tk)
}

// handleUploadChunk appends to an open transfer. The first chunk of a
// download response lazily opens the local destination file, keyed off the
// WaitForResponse job the original DOWNLOAD_REQ left behind.
func (h *Host) handleUploadChunk(rt *node.Runtime, pkt *packet.Packet) {
	tk, chunk, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed upload chunk", nil, err)
		}
		return
	}

	f, ok := h.inboundUploads[tk]
	if !ok {
		j := rt.Jobs.FindByTicket(tk)
		if j == nil || j.Kind != job.WaitForResponse || j.Packet.Type != packet.DownloadReq {
			if rt.Log != nil {
				rt.Log.Warning("upload chunk for unknown ticket", nil, tk.String())
			}
			return
		}
		rt.Jobs.DeleteByTicket(tk)

		dst := filepath.Join(h.localDir, j.FilePath)
		nf, createErr := os.Create(dst)
		if createErr != nil {
			reply(h.pending[tk], "download failed: "+createErr.Error())
			delete(h.pending, tk)
			_ = j.Close()
			return
		}

		h.inboundUploads[tk] = nf
		_ = j.Close()
		f = nf
	}

	if _, writeErr := f.Write([]byte(chunk)); writeErr != nil && rt.Log != nil {
		rt.Log.Warning("failed to write upload chunk", nil, writeErr)
		return
	}

	if off, seekErr := f.Seek(0, io.SeekCurrent); seekErr == nil {
		progressUpdate(h.progress[tk], off)
	}
}

// handleUploadEnd closes an open transfer and, if an operator is waiting on
// it (a download they requested), surfaces completion.
func (h *Host) handleUploadEnd(rt *node.Runtime, pkt *packet.Packet) {
	tk, _, err := ticket.Parse(string(pkt.Data()))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("dropping malformed upload-end", nil, err)
		}
		return
	}

	f, ok := h.inboundUploads[tk]
	if !ok {
		return
	}
	delete(h.inboundUploads, tk)

	path := f.Name()
	if cerr := f.Close(); cerr != nil && rt.Log != nil {
		rt.Log.Warning("failed to close received file", nil, cerr)
	} else if rt.Log != nil {
		logFileChecksum(rt, path)
	}

	if ch, ok := h.pending[tk]; ok {
		reply(ch, "download complete")
		delete(h.pending, tk)
	}
	delete(h.progress, tk)
}

// logFileChecksum streams path's content through a sha256 coder and logs
// the resulting digest, so a received transfer leaves behind the same kind
// of integrity record an operator would get from running sha256sum by hand.
func logFileChecksum(rt *node.Runtime, path string) {
	r, err := os.Open(path)
	if err != nil {
		rt.Log.Warning("could not verify received file", nil, err)
		return
	}
	defer func() { _ = r.Close() }()

	hasher := libsha256.New()
	rc := hasher.EncodeReader(r)
	defer func() { _ = rc.Close() }()

	if _, err := io.Copy(io.Discard, rc); err != nil {
		rt.Log.Warning("could not verify received file", nil, err)
		return
	}

	rt.Log.Info(fmt.Sprintf("received file checksum: %s sha256:%x", filepath.Base(path), hasher.Encode(nil)), nil)
}

// respond queues an immediate protocol acknowledgement (upload/download
// Ready-or-refuse).
func (h *Host) respond(rt *node.Runtime, dst uint8, typ packet.Type, tk ticket.Ticket, msg string) {
	pkt, err := packet.New(h.id, dst, typ, []byte(tk.Format(msg)))
	if err != nil {
		if rt.Log != nil {
			rt.Log.Warning("failed to build response packet", nil, err)
		}
		return
	}

	rt.Jobs.Enqueue(job.New(job.SendResponse, tk, 0, pkt))
}

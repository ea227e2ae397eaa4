package nodehost_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/nodehost"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/port"
	"github.com/sabouaram/netsim/logger"
)

var _ = Describe("Upload and download transfers", func() {
	var rt *node.Runtime
	var mgmt chan nodehost.Request
	var h *nodehost.Host
	var dir string

	BeforeEach(func() {
		log := logger.New(context.Background())
		dir = GinkgoT().TempDir()
		mgmt = make(chan nodehost.Request, 1)
		h = nodehost.New(1, mgmt)
		rt = node.New(1, node.Host, []port.Port{}, log)

		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "m " + dir, Reply: rep}
		h.DrainManagement(rt)
		<-rep
	})

	It("streams a local file to its destination once the peer is ready", func() {
		Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644)).To(Succeed())

		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "u 2 a.txt", Reply: rep}
		h.DrainManagement(rt)

		j := rt.Jobs.Dequeue()
		Expect(j.Packet.Type).To(Equal(packet.UploadReq))
		tk := j.Ticket
		h.HandleJob(rt, j)

		ready, err := packet.New(2, 1, packet.UploadResponse, []byte(tk.Format("Ready")))
		Expect(err).NotTo(HaveOccurred())
		h.HandlePacket(rt, 0, ready)

		j = rt.Jobs.Dequeue()
		h.HandleJob(rt, j)
		Expect(rt.Jobs.Length()).To(Equal(1))

		j = rt.Jobs.Dequeue()
		h.HandleJob(rt, j)

		Expect(<-rep).To(Equal("upload complete"))
		Expect(rt.Jobs.Length()).To(Equal(0))
	})

	It("surfaces a refusal when the peer already has the file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644)).To(Succeed())

		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "u 2 a.txt", Reply: rep}
		h.DrainManagement(rt)

		j := rt.Jobs.Dequeue()
		tk := j.Ticket
		h.HandleJob(rt, j)

		refusal, err := packet.New(2, 1, packet.UploadResponse, []byte(tk.Format("file already exists")))
		Expect(err).NotTo(HaveOccurred())
		h.HandlePacket(rt, 0, refusal)

		Expect(<-rep).To(Equal("upload refused: file already exists"))
	})

	It("writes incoming chunks to the requested download's destination", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "d 2 b.txt", Reply: rep}
		h.DrainManagement(rt)

		j := rt.Jobs.Dequeue()
		Expect(j.Packet.Type).To(Equal(packet.DownloadReq))
		tk := j.Ticket
		h.HandleJob(rt, j)

		chunk, err := packet.New(2, 1, packet.Upload, []byte(tk.Format("chunk1")))
		Expect(err).NotTo(HaveOccurred())
		h.HandlePacket(rt, 0, chunk)

		end, err := packet.New(2, 1, packet.UploadEnd, []byte(tk.Format("")))
		Expect(err).NotTo(HaveOccurred())
		h.HandlePacket(rt, 0, end)

		Expect(<-rep).To(Equal("download complete"))

		data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("chunk1"))
	})

	It("surfaces a refusal when the remote file is missing", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "d 2 missing.txt", Reply: rep}
		h.DrainManagement(rt)

		j := rt.Jobs.Dequeue()
		tk := j.Ticket
		h.HandleJob(rt, j)

		refusal, err := packet.New(2, 1, packet.DownloadResponse, []byte(tk.Format("file not found: missing.txt")))
		Expect(err).NotTo(HaveOccurred())
		h.HandlePacket(rt, 0, refusal)

		Expect(<-rep).To(Equal("download refused: file not found: missing.txt"))
	})
})

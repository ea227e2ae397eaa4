package node_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/netsim/internal/job"
	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/packet"
	"github.com/sabouaram/netsim/internal/port"
	"github.com/sabouaram/netsim/logger"
)

type recordingHandler struct {
	controlCalls int
	jobCalls     int
	packetCalls  int
}

func (h *recordingHandler) EmitControl(rt *node.Runtime)     { h.controlCalls++ }
func (h *recordingHandler) DrainManagement(rt *node.Runtime) {}
func (h *recordingHandler) HandlePacket(rt *node.Runtime, portIdx int, pkt *packet.Packet) {
	h.packetCalls++
}
func (h *recordingHandler) HandleJob(rt *node.Runtime, j *job.Job) { h.jobCalls++ }

var _ = Describe("Runtime", func() {
	It("emits STP once immediately, then polls ports and jobs every tick", func() {
		log := logger.New(context.Background())
		portA, portB := port.NewPipeLink(1, 2, log)
		defer portA.Close() // nolint
		defer portB.Close() // nolint

		rt := node.New(1, node.Host, []port.Port{portA}, log)
		rt.Jobs.Enqueue(job.New(job.SendPacket, 1, 0, nil))

		pkt, err := packet.New(2, 1, packet.PingReq, []byte("0001:"))
		Expect(err).NotTo(HaveOccurred())
		Expect(portB.Send(pkt)).To(Succeed())

		h := &recordingHandler{}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()

		rt.Run(ctx, h)

		Expect(h.controlCalls).To(BeNumerically(">=", 1))
		Expect(h.packetCalls).To(BeNumerically(">=", 1))
		Expect(h.jobCalls).To(Equal(1))
	})
})

package nodehost_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/netsim/internal/node"
	"github.com/sabouaram/netsim/internal/nodehost"
	"github.com/sabouaram/netsim/internal/port"
	"github.com/sabouaram/netsim/logger"
)

var _ = Describe("Host management commands", func() {
	var rt *node.Runtime
	var mgmt chan nodehost.Request
	var h *nodehost.Host

	BeforeEach(func() {
		log := logger.New(context.Background())
		mgmt = make(chan nodehost.Request, 1)
		h = nodehost.New(1, mgmt)
		rt = node.New(1, node.Host, []port.Port{}, log)
	})

	It("reports status with no directory set", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "s", Reply: rep}
		h.DrainManagement(rt)
		Expect(<-rep).To(Equal("id=1 dir=(unset)"))
	})

	It("sets the local directory", func() {
		dir := GinkgoT().TempDir()
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "m " + dir, Reply: rep}
		h.DrainManagement(rt)
		Expect(<-rep).To(Equal("directory set"))
		Expect(h.LocalDir()).To(Equal(dir))
	})

	It("rejects a non-directory path", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "m /no/such/path", Reply: rep}
		h.DrainManagement(rt)
		Expect(<-rep).To(ContainSubstring("not a directory"))
	})

	It("reports no cached names initially", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "l", Reply: rep}
		h.DrainManagement(rt)
		Expect(<-rep).To(Equal("(no cached names)"))
	})

	It("rejects an unknown command", func() {
		rep := make(chan string, 1)
		mgmt <- nodehost.Request{Command: "z", Reply: rep}
		h.DrainManagement(rt)
		Expect(<-rep).To(ContainSubstring("unknown command"))
	})
})

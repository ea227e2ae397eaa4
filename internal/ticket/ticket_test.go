package ticket_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/netsim/internal/ticket"
)

var _ = Describe("Ticket", func() {
	It("formats as a zero-padded 4-digit payload prefix", func() {
		Expect(ticket.Ticket(7).Format("hello")).To(Equal("0007:hello"))
		Expect(ticket.Ticket(9999).String()).To(Equal("9999"))
	})

	It("parses a payload back into ticket and data", func() {
		tk, data, err := ticket.Parse("0042:alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(tk).To(Equal(ticket.Ticket(42)))
		Expect(data).To(Equal("alice"))
	})

	It("rejects payloads missing the ticket delimiter", func() {
		_, _, err := ticket.Parse("not-a-ticket")
		Expect(err).To(HaveOccurred())
	})

	It("skips over tickets still reported live", func() {
		alloc := ticket.NewAllocator()
		live := map[ticket.Ticket]bool{0: true, 1: true}

		tk, err := alloc.Next(func(t ticket.Ticket) bool { return live[t] })
		Expect(err).NotTo(HaveOccurred())
		Expect(tk).To(Equal(ticket.Ticket(2)))
	})

	It("reports ExhaustedSpace when every ticket is live", func() {
		alloc := ticket.NewAllocator()
		_, err := alloc.Next(func(ticket.Ticket) bool { return true })
		Expect(err).To(HaveOccurred())
	})
})

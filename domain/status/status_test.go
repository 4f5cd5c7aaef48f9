package status_test

import (
	"prodflow/domain/status"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Status", func() {
	Describe("ValidNextStatuses", func() {
		It("should encode the fixed transition table", func() {
			Expect(status.ValidNextStatuses(status.Planned)).To(Equal([]status.Status{status.InProgress, status.Cancelled}))
			Expect(status.ValidNextStatuses(status.InProgress)).To(Equal([]status.Status{status.QualityCheck, status.OnHold, status.Cancelled}))
			Expect(status.ValidNextStatuses(status.QualityCheck)).To(Equal([]status.Status{status.Completed, status.InProgress, status.Cancelled}))
			Expect(status.ValidNextStatuses(status.OnHold)).To(Equal([]status.Status{status.InProgress, status.Cancelled}))
		})

		It("should give terminal states no successors", func() {
			Expect(status.ValidNextStatuses(status.Completed)).To(BeEmpty())
			Expect(status.ValidNextStatuses(status.Cancelled)).To(BeEmpty())
		})

		It("should give unknown statuses no successors", func() {
			Expect(status.ValidNextStatuses(status.Status("BOGUS"))).To(BeEmpty())
		})
	})

	Describe("CanTransit", func() {
		It("should accept exactly the pairs of the rule table", func() {
			allowed := map[status.Status][]status.Status{
				status.Planned:      {status.InProgress, status.Cancelled},
				status.InProgress:   {status.QualityCheck, status.OnHold, status.Cancelled},
				status.QualityCheck: {status.Completed, status.InProgress, status.Cancelled},
				status.OnHold:       {status.InProgress, status.Cancelled},
				status.Completed:    {},
				status.Cancelled:    {},
			}

			for _, from := range status.All {
				for _, to := range status.All {
					want := false
					for _, a := range allowed[from] {
						if a == to {
							want = true
						}
					}
					Expect(status.CanTransit(from, to)).To(Equal(want), "from %s to %s", from, to)
				}
			}
		})

		It("should let every non-terminal state reach CANCELLED", func() {
			for _, from := range status.All {
				if from.IsTerminal() {
					continue
				}
				Expect(status.CanTransit(from, status.Cancelled)).To(BeTrue(), "from %s", from)
			}
		})
	})

	Describe("IsTerminal", func() {
		It("should be true only for COMPLETED and CANCELLED", func() {
			Expect(status.Completed.IsTerminal()).To(BeTrue())
			Expect(status.Cancelled.IsTerminal()).To(BeTrue())
			Expect(status.Planned.IsTerminal()).To(BeFalse())
			Expect(status.InProgress.IsTerminal()).To(BeFalse())
			Expect(status.QualityCheck.IsTerminal()).To(BeFalse())
			Expect(status.OnHold.IsTerminal()).To(BeFalse())
		})
	})

	Describe("Parse", func() {
		It("should accept members of the vocabulary only", func() {
			s, err := status.Parse("QUALITY_CHECK")
			Expect(err).To(BeNil())
			Expect(s).To(Equal(status.QualityCheck))

			_, err = status.Parse("SHIPPED")
			Expect(err).ToNot(BeNil())
		})
	})
})

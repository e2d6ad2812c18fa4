package budget_test

import (
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/tokens"
)

var _ = Describe("StatusFor", func() {
	It("maps bands with inclusive lower bounds", func() {
		Expect(budget.StatusFor(0.0)).To(Equal(budget.StatusNormal))
		Expect(budget.StatusFor(0.6999)).To(Equal(budget.StatusNormal))
		Expect(budget.StatusFor(0.70)).To(Equal(budget.StatusAutoCompress))
		Expect(budget.StatusFor(0.8499)).To(Equal(budget.StatusAutoCompress))
		Expect(budget.StatusFor(0.85)).To(Equal(budget.StatusWarnUser))
		Expect(budget.StatusFor(0.9499)).To(Equal(budget.StatusWarnUser))
		Expect(budget.StatusFor(0.95)).To(Equal(budget.StatusForceCompress))
		Expect(budget.StatusFor(1.2)).To(Equal(budget.StatusForceCompress))
	})

	It("has no hysteresis", func() {
		Expect(budget.StatusFor(0.71)).To(Equal(budget.StatusAutoCompress))
		Expect(budget.StatusFor(0.69)).To(Equal(budget.StatusNormal))
		Expect(budget.StatusFor(0.71)).To(Equal(budget.StatusAutoCompress))
	})
})

var _ = Describe("Status JSON", func() {
	It("round-trips snake_case names", func() {
		data, err := json.Marshal(budget.StatusAutoCompress)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`"auto_compress"`))

		var s budget.Status
		Expect(json.Unmarshal([]byte(`"force_compress"`), &s)).To(Succeed())
		Expect(s).To(Equal(budget.StatusForceCompress))
	})

	It("rejects unknown names", func() {
		var s budget.Status
		Expect(json.Unmarshal([]byte(`"panic"`), &s)).NotTo(Succeed())
	})
})

var _ = Describe("Assess", func() {
	var (
		mem memory.TieredMemory
		now time.Time
	)

	BeforeEach(func() {
		mem = memory.TieredMemory{}
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	It("reports usage equal to the live tier sum", func() {
		mem.SetHead(strings.Repeat("h", 400), now)
		mem.Append(strings.Repeat("r", 800), now)

		snap := budget.Assess(&mem, 6000, tokens.Estimate)
		Expect(snap.Used).To(Equal(300))
		Expect(snap.Total).To(Equal(6000))
		Expect(snap.Status).To(Equal(budget.StatusNormal))
	})

	It("never counts ARCHIVED fragments", func() {
		mem.Archived = append(mem.Archived, memory.NewFragment(strings.Repeat("a", 40000), now))

		snap := budget.Assess(&mem, 6000, tokens.Estimate)
		Expect(snap.Used).To(Equal(0))
		Expect(snap.Status).To(Equal(budget.StatusNormal))
	})

	It("counts HEAD fully even when HEAD is over its own target", func() {
		// 900 tokens of HEAD against a 1000-token total: 90%, warn band.
		mem.SetHead(strings.Repeat("h", 3600), now)

		snap := budget.Assess(&mem, 1000, tokens.Estimate)
		Expect(snap.Used).To(Equal(900))
		Expect(snap.Percentage).To(BeNumerically("~", 0.90, 1e-9))
		Expect(snap.Status).To(Equal(budget.StatusWarnUser))
	})

	It("handles a zero total without dividing by zero", func() {
		mem.Append("text", now)
		snap := budget.Assess(&mem, 0, tokens.Estimate)
		Expect(snap.Percentage).To(Equal(0.0))
	})
})

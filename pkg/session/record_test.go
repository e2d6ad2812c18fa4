package session_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/session"
)

var _ = Describe("Status", func() {
	DescribeTable("CanTransition",
		func(from, to session.Status, want bool) {
			Expect(session.CanTransition(from, to)).To(Equal(want))
		},
		Entry("backlog to exploring", session.StatusBacklog, session.StatusExploring, true),
		Entry("exploring to tensions", session.StatusExploring, session.StatusTensions, true),
		Entry("forward skip", session.StatusBacklog, session.StatusSynthesizing, true),
		Entry("reopen formed to exploring", session.StatusFormed, session.StatusExploring, true),
		Entry("formed back to backlog", session.StatusFormed, session.StatusBacklog, false),
		Entry("tensions back to exploring", session.StatusTensions, session.StatusExploring, false),
		Entry("same state", session.StatusExploring, session.StatusExploring, false),
		Entry("unknown status", session.Status("limbo"), session.StatusFormed, false),
	)
})

var _ = Describe("Record", func() {
	var (
		rec *session.Record
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rec = session.New("sess-1", "test session", now)
	})

	Describe("Transition", func() {
		It("logs the move as a pass and a RECENT fragment", func() {
			p, err := rec.Transition(session.StatusExploring, now.Add(time.Minute))
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.Status).To(Equal(session.StatusExploring))
			Expect(rec.Passes).To(HaveLen(1))
			Expect(rec.Passes[0].Type).To(Equal("transition"))
			Expect(p.Summary).To(ContainSubstring("backlog -> exploring"))

			recent := rec.Memory.Fragments(memory.TierRecent)
			Expect(recent).To(HaveLen(1))
			Expect(recent[0].Text).To(Equal(p.Summary))
		})

		It("rejects backward moves", func() {
			_, err := rec.Transition(session.StatusTensions, now)
			Expect(err).NotTo(HaveOccurred())

			_, err = rec.Transition(session.StatusExploring, now)
			Expect(err).To(BeAssignableToTypeOf(session.InvalidTransitionError{}))
			Expect(rec.Status).To(Equal(session.StatusTensions))
		})

		It("increments the cycle counter on reopen", func() {
			_, err := rec.Transition(session.StatusFormed, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Cycle).To(Equal(0))

			_, err = rec.Transition(session.StatusExploring, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Cycle).To(Equal(1))
		})
	})

	Describe("ResolveTension", func() {
		It("resolves an open tension in place", func() {
			a := rec.AppendClaim("claim a", "src", nil, now)
			b := rec.AppendClaim("claim b", "src", nil, now)
			t := rec.AppendTension(a.ID, b.ID, "a contradicts b", now)

			Expect(rec.ResolveTension(t.ID, "a wins", now)).To(Succeed())
			Expect(rec.Tensions[0].Resolved()).To(BeTrue())
			Expect(*rec.Tensions[0].Resolution).To(Equal("a wins"))
		})

		It("refuses to resolve twice", func() {
			t := rec.AppendTension("a", "b", "conflict", now)
			Expect(rec.ResolveTension(t.ID, "done", now)).To(Succeed())
			Expect(rec.ResolveTension(t.ID, "again", now)).To(MatchError(session.ErrTensionResolved))
		})

		It("errors for unknown tensions", func() {
			Expect(rec.ResolveTension("missing", "x", now)).To(MatchError(session.ErrTensionNotFound))
		})
	})

	Describe("SetThesis", func() {
		It("keeps the full non-monotonic confidence history", func() {
			rec.SetThesis("v1", 0.6, now)
			rec.SetThesis("v2", 0.8, now)
			rec.SetThesis("v3", 0.4, now)

			Expect(rec.ConfidenceHistory).To(Equal([]float64{0.6, 0.8, 0.4}))
			Expect(rec.Thesis.Confidence).To(Equal(0.4))
		})
	})

	Describe("Touch", func() {
		It("never moves updated_at backwards", func() {
			rec.Touch(now.Add(time.Hour))
			rec.Touch(now)
			Expect(rec.UpdatedAt).To(Equal(now.Add(time.Hour)))
		})
	})

	Describe("Fork", func() {
		It("carries entities and memory, resets passes and cycle", func() {
			rec.AppendClaim("finding", "src", nil, now)
			rec.SetThesis("position", 0.7, now)
			rec.Memory.Append("context", now)
			rec.AppendPass("explore", "did work", now)
			_, err := rec.Transition(session.StatusFormed, now)
			Expect(err).NotTo(HaveOccurred())

			child := rec.Fork("sess-2", "branch", now.Add(time.Minute))

			Expect(*child.ParentID).To(Equal("sess-1"))
			Expect(child.Status).To(Equal(session.StatusExploring))
			Expect(child.Claims).To(HaveLen(1))
			Expect(child.Thesis.Content).To(Equal("position"))
			Expect(child.Passes).To(BeEmpty())
			Expect(child.Cycle).To(Equal(0))
			Expect(child.Memory.FragmentCount(memory.TierRecent)).
				To(Equal(rec.Memory.FragmentCount(memory.TierRecent)))
		})
	})

	Describe("ContentHash", func() {
		It("is stable across bookkeeping-only changes", func() {
			rec.AppendClaim("content", "src", nil, now)
			h1 := rec.ContentHash()

			rec.Version++
			rec.Touch(now.Add(time.Hour))
			Expect(rec.ContentHash()).To(Equal(h1))
		})

		It("changes when content changes", func() {
			h1 := rec.ContentHash()
			rec.Memory.Append("new fragment", now)
			Expect(rec.ContentHash()).NotTo(Equal(h1))
		})
	})

	Describe("Validate", func() {
		It("accepts a fresh record", func() {
			Expect(rec.Validate()).To(Succeed())
		})

		It("rejects unknown schema versions", func() {
			rec.SchemaVersion = 99
			Expect(rec.Validate()).NotTo(Succeed())
		})

		It("rejects unknown statuses", func() {
			rec.Status = session.Status("limbo")
			Expect(rec.Validate()).NotTo(Succeed())
		})
	})
})

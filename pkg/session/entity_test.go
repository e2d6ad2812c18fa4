package session_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/session"
)

var _ = Describe("Envelope", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	env := func(t session.EntityType, data string) session.Envelope {
		return session.Envelope{Type: t, Data: json.RawMessage(data)}
	}

	It("decodes a claim", func() {
		decoded, err := env(session.EntityClaim, `{"content":"x","source":"doc"}`).Decode()
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(session.ClaimInput{Content: "x", Source: "doc"}))
	})

	It("rejects unknown entity types", func() {
		_, err := env("opinion", `{}`).Decode()
		Expect(err).To(BeAssignableToTypeOf(session.EnvelopeError{}))
	})

	It("rejects claims without content", func() {
		_, err := env(session.EntityClaim, `{"source":"doc"}`).Decode()
		Expect(err).To(HaveOccurred())
	})

	It("rejects tensions missing claim ids", func() {
		_, err := env(session.EntityTension, `{"description":"conflict"}`).Decode()
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed payloads", func() {
		_, err := env(session.EntityPass, `{"summary": 12`).Decode()
		Expect(err).To(HaveOccurred())
	})

	It("rejects payloads carrying unknown fields", func() {
		_, err := env(session.EntityClaim, `{"content":"x","bogus_field":123}`).Decode()
		Expect(err).To(BeAssignableToTypeOf(session.EnvelopeError{}))
	})

	It("rejects trailing data after the payload", func() {
		_, err := env(session.EntityClaim, `{"content":"x"}{"content":"y"}`).Decode()
		Expect(err).To(HaveOccurred())
	})

	It("rejects out-of-range thesis confidence", func() {
		_, err := env(session.EntityThesis, `{"content":"x","confidence":1.5}`).Decode()
		Expect(err).To(HaveOccurred())
	})

	Describe("Apply", func() {
		It("appends the decoded entity to the record", func() {
			rec := session.New("sess-1", "", now)

			Expect(env(session.EntityClaim, `{"content":"c1"}`).Apply(rec, now)).To(Succeed())
			Expect(env(session.EntityThesis, `{"content":"t","confidence":0.5}`).Apply(rec, now)).To(Succeed())

			Expect(rec.Claims).To(HaveLen(1))
			Expect(rec.Thesis).NotTo(BeNil())
			Expect(rec.ConfidenceHistory).To(Equal([]float64{0.5}))
		})

		It("leaves the record untouched on rejection", func() {
			rec := session.New("sess-1", "", now)
			before := rec.ContentHash()

			Expect(env("opinion", `{}`).Apply(rec, now)).NotTo(Succeed())
			Expect(rec.ContentHash()).To(Equal(before))
		})
	})
})

package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals SessionSettledEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.SessionSettledEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeSessionSettled,
			EventID:       "evt_123",
			EmittedAt:     now,
			SessionID:     "prod-latency",
			ContentHash:   "abc123",
			Changed:       true,
			Budget: budget.Snapshot{
				Used:       4200,
				Total:      6000,
				Percentage: 0.7,
				Status:     budget.StatusAutoCompress,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("session_id"))
		Expect(got).To(HaveKey("content_hash"))
		Expect(got).To(HaveKey("changed"))
		Expect(got).To(HaveKey("budget"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeSessionSettled).To(Equal("trail.session.settled"))
	})

	It("provides ErrNilSettledEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilSettledEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilSettledEvent).To(MatchError("nil settled event"))
	})
})

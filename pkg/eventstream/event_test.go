package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals JobCompletedEvent with expected top-level keys", func() {
		now := time.Unix(1767225600, 0).UTC()
		event := eventstream.JobCompletedEvent{
			SchemaVersion:  eventstream.SchemaVersionV1,
			EventType:      eventstream.EventTypeJobCompleted,
			EventID:        "evt_123",
			EmittedAt:      now,
			JobID:          "job_123",
			ConversationID: "conv_123",
			AgentID:        "agent-1",
			CallerID:       "caller-1",
			Status:         "completed",
			Outcome: eventstream.JobOutcome{
				Stored:          4,
				Reinforced:      2,
				Failed:          0,
				Conflicts:       1,
				ChunksSucceeded: 3,
				ChunksFailed:    0,
				Attempts:        1,
				DurationMs:      8200,
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
		Expect(got).To(HaveKey("job_id"))
		Expect(got).To(HaveKey("conversation_id"))
		Expect(got).To(HaveKey("status"))
		Expect(got).To(HaveKey("outcome"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeJobCompleted).To(Equal("recollect.job.completed"))
	})

	It("provides ErrNilJobEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilJobEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilJobEvent).To(MatchError("nil job event"))
	})
})

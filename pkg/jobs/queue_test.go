package jobs_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/jobs"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

func newJob(conversationID string) *jobs.Job {
	return jobs.NewJob(conversationID, "agent-1", "caller-1", []transcript.Message{
		{Role: transcript.RoleUser, Text: "hello"},
	}, 30)
}

var _ = Describe("Queue", func() {
	It("hands jobs back in arrival order", func() {
		q := jobs.NewQueue(4)

		Expect(q.Enqueue(newJob("conv-1"))).To(Succeed())
		Expect(q.Enqueue(newJob("conv-2"))).To(Succeed())

		first, ok := q.Dequeue(time.Second)
		Expect(ok).To(BeTrue())
		Expect(first.ConversationID).To(Equal("conv-1"))

		second, ok := q.Dequeue(time.Second)
		Expect(ok).To(BeTrue())
		Expect(second.ConversationID).To(Equal("conv-2"))
	})

	It("rejects instead of blocking when full", func() {
		q := jobs.NewQueue(1)

		Expect(q.Enqueue(newJob("conv-1"))).To(Succeed())
		Expect(q.Enqueue(newJob("conv-2"))).To(MatchError(jobs.ErrQueueFull))
	})

	It("times out an empty dequeue", func() {
		q := jobs.NewQueue(1)

		start := time.Now()
		_, ok := q.Dequeue(20 * time.Millisecond)
		Expect(ok).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically(">=", 20*time.Millisecond))
	})

	It("rejects enqueues after close but still drains", func() {
		q := jobs.NewQueue(2)
		Expect(q.Enqueue(newJob("conv-1"))).To(Succeed())

		q.Close()

		Expect(q.Enqueue(newJob("conv-2"))).To(MatchError(jobs.ErrQueueClosed))

		job, ok := q.Dequeue(time.Second)
		Expect(ok).To(BeTrue())
		Expect(job.ConversationID).To(Equal("conv-1"))
	})

	It("marks fresh jobs queued", func() {
		job := newJob("conv-1")
		Expect(job.Status).To(Equal(jobs.StatusQueued))
		Expect(job.ID).NotTo(BeEmpty())
	})
})

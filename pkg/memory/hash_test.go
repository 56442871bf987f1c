package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/covoxlabs/recollect/pkg/memory"
)

var _ = Describe("ContentHash", func() {
	It("is case and whitespace insensitive", func() {
		Expect(memory.ContentHash(" Hello  WORLD ")).To(Equal(memory.ContentHash("hello world")))
	})

	It("differs for different normalized content", func() {
		Expect(memory.ContentHash("hello world")).NotTo(Equal(memory.ContentHash("hello there")))
	})

	It("hashes empty content to the empty string", func() {
		Expect(memory.ContentHash("")).To(BeEmpty())
		Expect(memory.ContentHash("   ")).To(BeEmpty())
	})

	It("is deterministic", func() {
		Expect(memory.ContentHash("Caller's first name is Jane")).
			To(Equal(memory.ContentHash("Caller's first name is Jane")))
	})
})

var _ = Describe("Normalize", func() {
	It("collapses interior whitespace runs", func() {
		Expect(memory.Normalize("a\t b\n\nc")).To(Equal("a b c"))
	})
})

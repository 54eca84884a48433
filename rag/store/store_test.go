package store_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/recollect/recollect/rag/store"
)

var _ = Describe("Store", func() {
	var s *Store

	BeforeEach(func() {
		s = New()
	})

	Describe("Insert", func() {
		It("should add new content", func() {
			outcome, doc := s.Insert("Priya Sharma is the CEO of TechCorp", map[string]string{"type": "file"})
			Expect(outcome).To(Equal(Added))
			Expect(doc).ToNot(BeNil())
			Expect(doc.ID).ToNot(BeEmpty())
			Expect(s.Count()).To(Equal(1))
		})

		It("should reject content that is empty after trimming", func() {
			outcome, doc := s.Insert("   \n\t  ", nil)
			Expect(outcome).To(Equal(RejectedEmpty))
			Expect(doc).To(BeNil())
			Expect(s.Count()).To(Equal(0))
		})

		It("should report duplicates without mutating state", func() {
			outcome, first := s.Insert("same content", nil)
			Expect(outcome).To(Equal(Added))

			outcome, second := s.Insert("same content", nil)
			Expect(outcome).To(Equal(Duplicate))
			Expect(second).To(BeIdenticalTo(first))
			Expect(s.Count()).To(Equal(1))
		})

		It("should treat whitespace-normalized text as the same content", func() {
			outcome, _ := s.Insert("hello   world", nil)
			Expect(outcome).To(Equal(Added))

			outcome, _ = s.Insert("  hello\nworld  ", nil)
			Expect(outcome).To(Equal(Duplicate))
			Expect(s.Count()).To(Equal(1))
		})

		It("should keep case-differing content separate by default", func() {
			outcome, _ := s.Insert("Hello World", nil)
			Expect(outcome).To(Equal(Added))

			outcome, _ = s.Insert("hello world", nil)
			Expect(outcome).To(Equal(Added))
			Expect(s.Count()).To(Equal(2))
		})

		It("should merge case-differing content with case folding enabled", func() {
			folding := New(WithCaseFolding())

			outcome, _ := folding.Insert("Hello World", nil)
			Expect(outcome).To(Equal(Added))

			outcome, _ = folding.Insert("hello world", nil)
			Expect(outcome).To(Equal(Duplicate))
			Expect(folding.Count()).To(Equal(1))
		})

		It("should assign stable identifiers for identical content", func() {
			_, doc := s.Insert("stable content", nil)

			other := New()
			_, otherDoc := other.Insert("stable content", nil)
			Expect(otherDoc.ID).To(Equal(doc.ID))
		})

		It("should stamp an ingestion timestamp", func() {
			_, doc := s.Insert("timestamped", map[string]string{"source": "x"})
			Expect(doc.Metadata).To(HaveKey("ingested_at"))
			Expect(doc.Metadata["source"]).To(Equal("x"))
		})

		It("should be safe under concurrent ingestion", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					for j := 0; j < 20; j++ {
						s.Insert(fmt.Sprintf("chunk %d-%d", n, j), nil)
						s.Insert("shared chunk", nil)
					}
				}(i)
			}
			wg.Wait()

			// 10*20 distinct chunks plus exactly one shared chunk.
			Expect(s.Count()).To(Equal(201))
		})
	})

	Describe("All", func() {
		It("should preserve insertion order", func() {
			s.Insert("first", nil)
			s.Insert("second", nil)
			s.Insert("third", nil)

			docs := s.All()
			Expect(docs).To(HaveLen(3))
			Expect(docs[0].Content).To(Equal("first"))
			Expect(docs[1].Content).To(Equal("second"))
			Expect(docs[2].Content).To(Equal("third"))
		})

		It("should return a snapshot detached from later inserts", func() {
			s.Insert("first", nil)
			snapshot := s.All()
			s.Insert("second", nil)
			Expect(snapshot).To(HaveLen(1))
		})
	})

	Describe("Get", func() {
		It("should find documents by identifier", func() {
			_, doc := s.Insert("findable", nil)

			found, ok := s.Get(doc.ID)
			Expect(ok).To(BeTrue())
			Expect(found).To(BeIdenticalTo(doc))
		})

		It("should report unknown identifiers", func() {
			_, ok := s.Get("nope")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Statistics", func() {
		It("should count documents, fingerprints, characters and origins", func() {
			s.Insert("alpha", map[string]string{"type": "file"})
			s.Insert("beta content", map[string]string{"type": "file"})
			s.Insert("gamma", map[string]string{"type": "source"})
			s.Insert("alpha", map[string]string{"type": "file"})
			s.Insert("", nil)

			stats := s.Statistics()
			Expect(stats.TotalDocuments).To(Equal(3))
			Expect(stats.UniqueFingerprints).To(Equal(3))
			Expect(stats.TotalCharacters).To(Equal(len("alpha") + len("beta content") + len("gamma")))
			Expect(stats.ByOrigin).To(HaveKeyWithValue("file", 2))
			Expect(stats.ByOrigin).To(HaveKeyWithValue("source", 1))
		})

		It("should never report more fingerprints than documents", func() {
			for i := 0; i < 50; i++ {
				s.Insert(fmt.Sprintf("doc %d", i%10), nil)
			}
			stats := s.Statistics()
			Expect(stats.UniqueFingerprints).To(BeNumerically("<=", stats.TotalDocuments))
		})
	})

	Describe("Clear", func() {
		It("should drop all documents and fingerprints", func() {
			s.Insert("content", nil)
			s.Clear()

			Expect(s.Count()).To(Equal(0))
			Expect(s.Statistics().UniqueFingerprints).To(Equal(0))

			// After clearing, previously seen content is new again.
			outcome, _ := s.Insert("content", nil)
			Expect(outcome).To(Equal(Added))
		})
	})
})

var _ = Describe("Fingerprint", func() {
	It("should be deterministic", func() {
		Expect(Fingerprint("some text", nil)).To(Equal(Fingerprint("some text", nil)))
	})

	It("should normalize whitespace by default", func() {
		Expect(Fingerprint("a  b\nc", nil)).To(Equal(Fingerprint("a b c", nil)))
	})

	It("should differ for different text", func() {
		Expect(Fingerprint("a", nil)).ToNot(Equal(Fingerprint("b", nil)))
	})
})

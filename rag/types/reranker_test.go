package types_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/recollect/recollect/rag/types"
)

func fusedDoc(id, content string, score float64) FusedCandidate {
	return FusedCandidate{
		Document:   &Document{ID: id, Content: content},
		FusedScore: score,
	}
}

var _ = Describe("WeightedReranker", func() {
	It("should keep combined scores within [0,1]", func() {
		reranker := NewWeightedReranker()
		candidates := []FusedCandidate{
			fusedDoc("a", strings.Repeat("alpha beta ", 50), 0.9),
			fusedDoc("b", "beta", 0.0),
			fusedDoc("c", strings.Repeat("x", 5000), 2.5),
		}

		results, err := reranker.Rerank("alpha beta", candidates, 0)
		Expect(err).ToNot(HaveOccurred())
		for _, r := range results {
			Expect(r.Score).To(BeNumerically(">=", 0))
			Expect(r.Score).To(BeNumerically("<=", 1))
		}
	})

	It("should order by descending combined score and truncate to topK", func() {
		reranker := NewWeightedReranker()
		candidates := []FusedCandidate{
			fusedDoc("worst", "nothing relevant here", 0.0),
			fusedDoc("best", "alpha beta "+strings.Repeat("filler ", 70), 1.0),
			fusedDoc("middle", "alpha only", 0.5),
		}

		results, err := reranker.Rerank("alpha beta", candidates, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("best"))
		Expect(results[0].Score).To(BeNumerically(">=", results[1].Score))
	})

	It("should preserve input order for exact ties", func() {
		reranker := NewWeightedReranker()
		candidates := []FusedCandidate{
			fusedDoc("first", "identical content", 0.4),
			fusedDoc("second", "identical content", 0.4),
		}

		results, err := reranker.Rerank("unrelated", candidates, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].ID).To(Equal("first"))
		Expect(results[1].ID).To(Equal("second"))
	})

	It("should score an unset fused score as neutral", func() {
		reranker := NewWeightedRerankerWithWeights(1, 0, 0, DefaultIdealLength)
		candidates := []FusedCandidate{
			fusedDoc("unset", "content", UnsetFusedScore),
			fusedDoc("low", "content", 0.2),
			fusedDoc("high", "content", 0.8),
		}

		results, err := reranker.Rerank("", candidates, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].ID).To(Equal("high"))
		Expect(results[1].ID).To(Equal("unset"))
		Expect(results[1].Score).To(BeNumerically("~", 0.5, 1e-9))
		Expect(results[2].ID).To(Equal("low"))
	})

	Describe("length fitness", func() {
		scoreFor := func(content string) float64 {
			reranker := NewWeightedRerankerWithWeights(0, 1, 0, 100)
			results, err := reranker.Rerank("", []FusedCandidate{fusedDoc("d", content, 0)}, 0)
			Expect(err).ToNot(HaveOccurred())
			return results[0].Score
		}

		It("should peak at the ideal length", func() {
			Expect(scoreFor(strings.Repeat("x", 100))).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should decay linearly away from the ideal", func() {
			Expect(scoreFor(strings.Repeat("x", 50))).To(BeNumerically("~", 0.5, 1e-9))
			Expect(scoreFor(strings.Repeat("x", 150))).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should bottom out at zero beyond twice the ideal", func() {
			Expect(scoreFor(strings.Repeat("x", 300))).To(BeZero())
		})
	})

	Describe("keyword overlap", func() {
		scoreFor := func(query, content string) float64 {
			reranker := NewWeightedRerankerWithWeights(0, 0, 1, DefaultIdealLength)
			results, err := reranker.Rerank(query, []FusedCandidate{fusedDoc("d", content, 0)}, 0)
			Expect(err).ToNot(HaveOccurred())
			return results[0].Score
		}

		It("should count the fraction of distinct query terms present", func() {
			Expect(scoreFor("alpha beta gamma delta", "alpha and beta appear")).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should match case-insensitively", func() {
			Expect(scoreFor("ALPHA", "only alpha here")).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should count repeated query terms once", func() {
			Expect(scoreFor("alpha alpha beta", "alpha only")).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should score an empty query as zero", func() {
			Expect(scoreFor("", "any content at all")).To(BeZero())
		})
	})

	Describe("weight handling", func() {
		It("should normalize custom weights to sum to one", func() {
			reranker := NewWeightedRerankerWithWeights(5, 2, 3, DefaultIdealLength)
			// A perfect candidate on all three signals scores exactly 1.
			content := "alpha " + strings.Repeat("x", DefaultIdealLength-6)
			results, err := reranker.Rerank("alpha", []FusedCandidate{fusedDoc("d", content, 1.0)}, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should fall back to defaults on negative weights", func() {
			custom := NewWeightedRerankerWithWeights(-1, 0.5, 0.5, DefaultIdealLength)
			standard := NewWeightedReranker()
			candidates := []FusedCandidate{fusedDoc("d", "alpha content", 0.3)}

			a, err := custom.Rerank("alpha", candidates, 0)
			Expect(err).ToNot(HaveOccurred())
			b, err := standard.Rerank("alpha", candidates, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(a[0].Score).To(BeNumerically("~", b[0].Score, 1e-9))
		})

		It("should fall back to defaults on a zero weight sum", func() {
			custom := NewWeightedRerankerWithWeights(0, 0, 0, DefaultIdealLength)
			standard := NewWeightedReranker()
			candidates := []FusedCandidate{fusedDoc("d", "alpha content", 0.3)}

			a, err := custom.Rerank("alpha", candidates, 0)
			Expect(err).ToNot(HaveOccurred())
			b, err := standard.Rerank("alpha", candidates, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(a[0].Score).To(BeNumerically("~", b[0].Score, 1e-9))
		})
	})

	It("should carry the fused score through to the result", func() {
		reranker := NewWeightedReranker()
		results, err := reranker.Rerank("q", []FusedCandidate{fusedDoc("d", "content", 0.42)}, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].FusedScore).To(BeNumerically("~", 0.42, 1e-9))
	})

	It("should skip candidates without a document", func() {
		reranker := NewWeightedReranker()
		results, err := reranker.Rerank("q", []FusedCandidate{{Document: nil, FusedScore: 1}}, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})

var _ = Describe("ParseMode", func() {
	It("should default an empty mode to hybrid", func() {
		mode, err := ParseMode("")
		Expect(err).ToNot(HaveOccurred())
		Expect(mode).To(Equal(ModeHybrid))
	})

	It("should accept the three known modes", func() {
		for _, name := range []string{"keyword", "semantic", "hybrid"} {
			mode, err := ParseMode(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(mode)).To(Equal(name))
		}
	})

	It("should reject unknown modes", func() {
		_, err := ParseMode("psychic")
		Expect(err).To(HaveOccurred())
	})
})

package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recollect/recollect/pkg/client"
	"github.com/recollect/recollect/rag/types"
)

var _ = Describe("Retrieval modes", func() {
	var api *client.Client

	BeforeEach(func() {
		_, api = newTestClients()
		api.CreateCollection(TestCollection)

		Expect(api.Upload(TestCollection, writeTempFile("company.txt", companyFacts))).To(Succeed())
		Expect(api.Upload(TestCollection, writeTempFile("weather.txt", weatherFacts))).To(Succeed())
	})

	It("should answer keyword queries with literal matches", func() {
		resp, err := api.Query(TestCollection, "CEO of TechCorp", types.ModeKeyword, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Results).ToNot(BeEmpty())
		Expect(resp.Results[0].Content).To(ContainSubstring("John Smith"))
	})

	It("should answer semantic queries without literal overlap", func() {
		resp, err := api.Query(TestCollection, "who runs the company", types.ModeSemantic, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Results).ToNot(BeEmpty())
	})

	It("should answer hybrid queries", func() {
		resp, err := api.Query(TestCollection, "what is the climate like in Lisbon", types.ModeHybrid, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Results).ToNot(BeEmpty())
		Expect(resp.Warnings).To(BeEmpty())

		contents := []string{}
		for _, r := range resp.Results {
			contents = append(contents, r.Content)
		}
		Expect(contents).To(ContainElement(ContainSubstring("mild")))
	})

	It("should default to hybrid mode for an empty mode", func() {
		resp, err := api.Query(TestCollection, "electric delivery vans", "", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Results).ToNot(BeEmpty())
	})

	It("should respect the result limit", func() {
		resp, err := api.Query(TestCollection, "TechCorp", types.ModeHybrid, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(len(resp.Results)).To(BeNumerically("<=", 1))
	})

	It("should use the convenience search wrapper", func() {
		results, err := api.Search(TestCollection, "battery health charging", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).ToNot(BeEmpty())
	})
})

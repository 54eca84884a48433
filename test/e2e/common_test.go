package e2e_test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recollect/recollect/pkg/client"
	"github.com/sashabaranov/go-openai"
)

const (
	// TestCollection is the default collection name used in tests
	TestCollection = "foo"

	// EmbeddingModel is the model used for embeddings in tests
	EmbeddingModel = "granite-embedding-107m-multilingual"

	// TestTimeout is the default timeout for Eventually blocks
	TestTimeout = 1 * time.Minute

	// TestPollingInterval is the default polling interval for Eventually blocks
	TestPollingInterval = 500 * time.Millisecond
)

// newTestClients waits for the embeddings service and the API to come up,
// then hands back connected clients with the test collection reset. Skips
// unless E2E=true.
func newTestClients() (*openai.Client, *client.Client) {
	if os.Getenv("E2E") != "true" {
		Skip("Skipping E2E tests")
	}

	config := openai.DefaultConfig("foo")
	config.BaseURL = embeddingsEndpoint
	embeddings := openai.NewClientWithConfig(config)
	api := client.NewClient(apiEndpoint)

	Eventually(func() error {
		res, err := embeddings.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
			Model: EmbeddingModel,
			Input: "foo",
		})
		if err != nil {
			return err
		}
		if len(res.Data) == 0 {
			return fmt.Errorf("no embedding data")
		}
		return nil
	}, 5*time.Minute, time.Second).Should(Succeed())

	Eventually(func() error {
		_, err := api.ListCollections()
		return err
	}, 5*time.Minute, time.Second).Should(Succeed())

	api.Reset(TestCollection)
	return embeddings, api
}

// writeTempFile drops content into a fresh temp file and returns its path.
func writeTempFile(name, content string) string {
	dir, err := os.MkdirTemp("", "e2e_*")
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(func() { os.RemoveAll(dir) })

	path := dir + "/" + name
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path
}

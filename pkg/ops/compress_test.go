package ops_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/valkyrie-os/valkforge/pkg/ops"
)

var _ = Describe("CompressArtifact", Label("compress"), func() {
	It("writes a decodable .zst next to the artifact", func() {
		path := filepath.Join(GinkgoT().TempDir(), "valkyrie.img")
		payload := bytes.Repeat([]byte("valkyrie"), 4096)
		Expect(os.WriteFile(path, payload, 0644)).To(Succeed())

		out, err := ops.CompressArtifact(path)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(out).To(Equal(path + ".zst"))

		// The original stays in place.
		_, err = os.Stat(path)
		Expect(err).ShouldNot(HaveOccurred())

		compressed, err := os.ReadFile(out)
		Expect(err).ShouldNot(HaveOccurred())
		dec, err := zstd.NewReader(nil)
		Expect(err).ShouldNot(HaveOccurred())
		defer dec.Close()
		decoded, err := dec.DecodeAll(compressed, nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(decoded).To(Equal(payload))
	})

	It("fails on a missing artifact", func() {
		_, err := ops.CompressArtifact("/does/not/exist.img")
		Expect(err).To(HaveOccurred())
	})
})

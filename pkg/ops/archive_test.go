package ops_test

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/valkyrie-os/valkforge/pkg/ops"
)

// readTar collects header name -> content for regular files and name ->
// linkname for symlinks.
func readTar(path string) (map[string]string, map[string]string) {
	f, err := os.Open(path)
	Expect(err).ShouldNot(HaveOccurred())
	defer f.Close()

	files := map[string]string{}
	links := map[string]string{}
	tr := tar.NewReader(f)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		Expect(err).ShouldNot(HaveOccurred())
		switch h.Typeflag {
		case tar.TypeReg:
			b, err := io.ReadAll(tr)
			Expect(err).ShouldNot(HaveOccurred())
			files[h.Name] = string(b)
		case tar.TypeSymlink:
			links[h.Name] = h.Linkname
		}
	}
	return files, links
}

var _ = Describe("TarDir", Label("archive"), func() {
	var src, dst string

	BeforeEach(func() {
		src = GinkgoT().TempDir()
		dst = filepath.Join(GinkgoT().TempDir(), "out.tar")

		Expect(os.MkdirAll(filepath.Join(src, "boot", "grub"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "boot", "valkyrix"), []byte("kernel"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "boot", "grub", "grub.cfg"), []byte("cfg"), 0644)).To(Succeed())
	})

	It("archives the tree with relative paths", func() {
		Expect(ops.TarDir(src, dst, false)).To(Succeed())
		files, _ := readTar(dst)
		Expect(files).To(HaveKeyWithValue("boot/valkyrix", "kernel"))
		Expect(files).To(HaveKeyWithValue("boot/grub/grub.cfg", "cfg"))
	})

	It("preserves symlinks by default", func() {
		Expect(os.Symlink("valkyrix", filepath.Join(src, "boot", "kernel"))).To(Succeed())

		Expect(ops.TarDir(src, dst, false)).To(Succeed())
		_, links := readTar(dst)
		Expect(links).To(HaveKeyWithValue("boot/kernel", "valkyrix"))
	})

	It("materializes symlinks on request", func() {
		Expect(os.Symlink("valkyrix", filepath.Join(src, "boot", "kernel"))).To(Succeed())

		Expect(ops.TarDir(src, dst, true)).To(Succeed())
		files, links := readTar(dst)
		Expect(links).To(BeEmpty())
		Expect(files).To(HaveKeyWithValue("boot/kernel", "kernel"))
	})

	It("materializes a directory symlink with its whole subtree", func() {
		Expect(os.MkdirAll(filepath.Join(src, "real", "nested"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "real", "inner.txt"), []byte("payload"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "real", "nested", "deep.txt"), []byte("deep"), 0644)).To(Succeed())
		Expect(os.Symlink("real", filepath.Join(src, "link"))).To(Succeed())

		Expect(ops.TarDir(src, dst, true)).To(Succeed())
		files, links := readTar(dst)
		Expect(links).To(BeEmpty())
		Expect(files).To(HaveKeyWithValue("real/inner.txt", "payload"))
		Expect(files).To(HaveKeyWithValue("link/inner.txt", "payload"))
		Expect(files).To(HaveKeyWithValue("link/nested/deep.txt", "deep"))
	})

	It("fails on a dangling symlink when materializing", func() {
		Expect(os.Symlink("does-not-exist", filepath.Join(src, "broken"))).To(Succeed())

		err := ops.TarDir(src, dst, true)
		Expect(err).To(MatchError(ops.ErrUnsupportedFeature))
		_, statErr := os.Stat(dst)
		Expect(statErr).To(HaveOccurred())
	})
})

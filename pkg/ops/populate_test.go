package ops_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/v5"
	"github.com/twpayne/go-vfs/v5/vfst"

	"github.com/valkyrie-os/valkforge/pkg/ops"
)

var _ = Describe("CheckCapacity", Label("capacity"), func() {
	var fs vfs.FS
	var cleanup func()

	AfterEach(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("accepts a staging tree that fits the image", func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/staging/boot/valkyrix": "kernel",
		})
		Expect(err).ShouldNot(HaveOccurred())
		spec, err := ops.NewImageSpec("/work/disk.img", 1024*1024)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(ops.CheckCapacity(fs, "/staging", spec)).To(Succeed())
	})

	It("rejects a staging tree larger than the image", func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/staging/boot/valkyrix": "a kernel image larger than the tiny target",
		})
		Expect(err).ShouldNot(HaveOccurred())
		spec, err := ops.NewImageSpec("/work/disk.img", 8)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(ops.CheckCapacity(fs, "/staging", spec)).To(MatchError(ops.ErrInsufficientSpace))
	})
})

var _ = Describe("CopyStaging", Label("populate"), func() {
	var staging, dst string

	BeforeEach(func() {
		staging = GinkgoT().TempDir()
		dst = GinkgoT().TempDir()

		Expect(os.MkdirAll(filepath.Join(staging, "boot"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(staging, "boot", "valkyrix"), []byte("kernel"), 0644)).To(Succeed())
	})

	It("keeps symlinks on ext2", func() {
		Expect(os.Symlink("valkyrix", filepath.Join(staging, "boot", "kernel"))).To(Succeed())
		ext2, _ := ops.ParseFilesystem("ext2")

		Expect(ops.CopyStaging(staging, dst, ext2)).To(Succeed())
		fi, err := os.Lstat(filepath.Join(dst, "boot", "kernel"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(fi.Mode() & os.ModeSymlink).NotTo(BeZero())
	})

	It("materializes symlinks on FAT", func() {
		Expect(os.Symlink("valkyrix", filepath.Join(staging, "boot", "kernel"))).To(Succeed())
		fat32, _ := ops.ParseFilesystem("fat32")

		Expect(ops.CopyStaging(staging, dst, fat32)).To(Succeed())
		fi, err := os.Lstat(filepath.Join(dst, "boot", "kernel"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(fi.Mode() & os.ModeSymlink).To(BeZero())

		content, err := os.ReadFile(filepath.Join(dst, "boot", "kernel"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(content)).To(Equal("kernel"))
	})

	It("materializes a directory symlink with its whole subtree on FAT", func() {
		Expect(os.MkdirAll(filepath.Join(staging, "real"), 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(staging, "real", "inner.txt"), []byte("payload"), 0644)).To(Succeed())
		Expect(os.Symlink("real", filepath.Join(staging, "link"))).To(Succeed())
		fat32, _ := ops.ParseFilesystem("fat32")

		Expect(ops.CopyStaging(staging, dst, fat32)).To(Succeed())
		content, err := os.ReadFile(filepath.Join(dst, "link", "inner.txt"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(content)).To(Equal("payload"))
	})

	It("fails on a dangling symlink on FAT", func() {
		Expect(os.Symlink("does-not-exist", filepath.Join(staging, "broken"))).To(Succeed())
		fat32, _ := ops.ParseFilesystem("fat32")

		err := ops.CopyStaging(staging, dst, fat32)
		Expect(err).To(MatchError(ops.ErrUnsupportedFeature))
	})
})

var _ = Describe("CopySysroot", Label("sysroot"), func() {
	var staging, toolchain string

	BeforeEach(func() {
		staging = GinkgoT().TempDir()
		toolchain = GinkgoT().TempDir()
	})

	It("skips quietly when the sysroot is missing", func() {
		cfg := i686Config()
		Expect(ops.CopySysroot(staging, toolchain, cfg)).To(Succeed())
		_, err := os.Stat(filepath.Join(staging, "lib"))
		Expect(err).To(HaveOccurred())
	})

	It("copies libc, startup objects and the dynamic linker", func() {
		cfg := i686Config()
		sysrootLib := filepath.Join(toolchain, cfg.TargetTriple, "sysroot", "usr", "lib")
		Expect(os.MkdirAll(sysrootLib, 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(sysrootLib, "libc.so"), []byte("libc"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(sysrootLib, "crt1.o"), []byte("crt1"), 0644)).To(Succeed())

		Expect(ops.CopySysroot(staging, toolchain, cfg)).To(Succeed())

		content, err := os.ReadFile(filepath.Join(staging, "lib", "libc.so"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(content)).To(Equal("libc"))

		_, err = os.Stat(filepath.Join(staging, "lib", "crt1.o"))
		Expect(err).ShouldNot(HaveOccurred())

		// The linker is a plain copy of libc.so, never a symlink.
		fi, err := os.Lstat(filepath.Join(staging, "lib", cfg.LdMuslName))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(fi.Mode() & os.ModeSymlink).To(BeZero())
	})

	It("copies what exists and skips missing objects", func() {
		cfg := i686Config()
		sysrootLib := filepath.Join(toolchain, cfg.TargetTriple, "sysroot", "usr", "lib")
		Expect(os.MkdirAll(sysrootLib, 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(sysrootLib, "crti.o"), []byte("crti"), 0644)).To(Succeed())

		Expect(ops.CopySysroot(staging, toolchain, cfg)).To(Succeed())
		_, err := os.Stat(filepath.Join(staging, "lib", "crti.o"))
		Expect(err).ShouldNot(HaveOccurred())
		_, err = os.Stat(filepath.Join(staging, "lib", "libc.so"))
		Expect(err).To(HaveOccurred())
	})
})

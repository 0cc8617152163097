package ops_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/valkyrie-os/valkforge/pkg/ops"
)

var _ = Describe("BuildQemuArgs", Label("qemu"), func() {
	It("builds the default disk invocation", func() {
		args, gdbPort, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media: ops.MediaDisk,
			Image: "/out/valkyrie.img",
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(gdbPort).To(BeZero())
		Expect(args).To(Equal([]string{
			"-m", "4G",
			"-machine", "pc",
			"-smp", "1",
			"-debugcon", "stdio",
			"-drive", "file=/out/valkyrie.img,format=raw,if=ide,index=0,media=disk",
		}))
	})

	It("uses -fda for floppies and -cdrom for ISOs", func() {
		args, _, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media: ops.MediaFloppy,
			Image: "/out/valkyrie.img",
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(args).To(ContainElements("-fda", "/out/valkyrie.img"))

		args, _, err = ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media: ops.MediaCdrom,
			Image: "/out/valkyrie.iso",
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(args).To(ContainElements("-cdrom", "/out/valkyrie.iso"))
	})

	It("honors memory and smp overrides", func() {
		args, _, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media:  ops.MediaDisk,
			Image:  "/out/valkyrie.img",
			Memory: "512M",
			SMP:    4,
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(args).To(ContainElements("-m", "512M"))
		Expect(args).To(ContainElements("-smp", "4"))
	})

	It("opens a gdb stub on a free port and freezes the CPU", func() {
		args, gdbPort, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media: ops.MediaDisk,
			Image: "/out/valkyrie.img",
			Gdb:   true,
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(gdbPort).NotTo(BeZero())
		Expect(args).To(ContainElement("-gdb"))
		Expect(args).To(ContainElement("-S"))
	})

	It("rejects unknown media", func() {
		_, _, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media: "tape",
			Image: "/out/valkyrie.img",
		})
		Expect(err).To(HaveOccurred())
	})

	It("appends extra args last", func() {
		args, _, err := ops.BuildQemuArgs(i686Config(), ops.QemuOptions{
			Media:     ops.MediaDisk,
			Image:     "/out/valkyrie.img",
			ExtraArgs: []string{"-no-reboot"},
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(args[len(args)-1]).To(Equal("-no-reboot"))
	})
})

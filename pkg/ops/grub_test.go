package ops_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/valkyrie-os/valkforge/pkg/constants"
	"github.com/valkyrie-os/valkforge/pkg/ops"
	"github.com/valkyrie-os/valkforge/pkg/utils"
)

var _ = Describe("Grub", Label("grub"), func() {
	var staging string

	BeforeEach(func() {
		staging = GinkgoT().TempDir()
	})

	Describe("EnsureGrubConfig", func() {
		It("writes the disk config with root discovery", func() {
			Expect(ops.EnsureGrubConfig(staging, constants.FormatHD)).To(Succeed())

			content, err := os.ReadFile(filepath.Join(staging, "boot", "grub", "grub.cfg"))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("search --no-floppy --file /boot/valkyrix"))
			Expect(string(content)).To(ContainSubstring("--label VALKYRIE"))
			Expect(string(content)).To(ContainSubstring("multiboot /boot/valkyrix"))
		})

		It("writes the fixed path config for ISOs", func() {
			Expect(ops.EnsureGrubConfig(staging, constants.FormatISO)).To(Succeed())

			content, err := os.ReadFile(filepath.Join(staging, "boot", "grub", "grub.cfg"))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(content)).NotTo(ContainSubstring("search"))
			Expect(string(content)).To(ContainSubstring("multiboot /boot/valkyrix"))
		})

		It("keeps an existing config", func() {
			cfgPath := filepath.Join(staging, "boot", "grub", "grub.cfg")
			Expect(os.MkdirAll(filepath.Dir(cfgPath), 0755)).To(Succeed())
			Expect(os.WriteFile(cfgPath, []byte("custom"), 0644)).To(Succeed())

			Expect(ops.EnsureGrubConfig(staging, constants.FormatHD)).To(Succeed())
			content, err := os.ReadFile(cfgPath)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(content)).To(Equal("custom"))
		})
	})

	Describe("MakeEltorito", func() {
		It("builds the standalone image next to the config", func() {
			runner := utils.NewFakeRunner()
			Expect(ops.EnsureGrubConfig(staging, constants.FormatISO)).To(Succeed())

			Expect(ops.MakeEltorito(runner, staging)).To(Succeed())
			cmds := runner.CmdsFor("grub-mkstandalone")
			Expect(cmds).To(HaveLen(1))
			Expect(cmds[0]).To(ContainElement("--format=i386-pc-eltorito"))
			Expect(cmds[0]).To(ContainElement("--output=" + filepath.Join(staging, "boot", "grub", "eltorito.img")))
			Expect(cmds[0]).To(ContainElement("boot/grub/grub.cfg=" + filepath.Join(staging, "boot", "grub", "grub.cfg")))
		})
	})
})

package ops_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/valkyrie-os/valkforge/pkg/ops"
)

var _ = Describe("Image", Label("image"), func() {
	Describe("NewImageSpec", func() {
		It("rejects an empty path", func() {
			_, err := ops.NewImageSpec("", 1024)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a zero size", func() {
			_, err := ops.NewImageSpec("disk.img", 0)
			Expect(err).To(HaveOccurred())
		})

		It("rounds sizes up to whole sectors", func() {
			spec, err := ops.NewImageSpec("disk.img", 1024*1024)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(spec.Sectors()).To(Equal(uint64(2048)))

			spec, err = ops.NewImageSpec("disk.img", 1024*1024+1)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(spec.Sectors()).To(Equal(uint64(2049)))
		})
	})

	Describe("NewPartitionLayout", func() {
		var fat32 ops.FilesystemKind

		BeforeEach(func() {
			var err error
			fat32, err = ops.ParseFilesystem("fat32")
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("defaults the start sector", func() {
			spec, err := ops.NewImageSpec("disk.img", 64*1024*1024)
			Expect(err).ShouldNot(HaveOccurred())
			layout, err := ops.NewPartitionLayout(spec, 0, fat32)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(layout.StartSector).To(Equal(uint64(2048)))
			Expect(layout.OffsetBytes()).To(Equal(uint64(2048 * 512)))
		})

		It("fails when the start offset leaves no data sectors", func() {
			// 2048 sectors total, default start 2048: nothing left.
			spec, err := ops.NewImageSpec("disk.img", 1024*1024)
			Expect(err).ShouldNot(HaveOccurred())
			_, err = ops.NewPartitionLayout(spec, 0, fat32)
			Expect(err).To(MatchError(ops.ErrInsufficientSpace))

			_, err = ops.NewPartitionLayout(spec, 2047, fat32)
			Expect(err).To(MatchError(ops.ErrInsufficientSpace))
		})

		It("accepts a start that leaves at least one data sector", func() {
			spec, err := ops.NewImageSpec("disk.img", 1024*1024)
			Expect(err).ShouldNot(HaveOccurred())
			layout, err := ops.NewPartitionLayout(spec, 2046, fat32)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(layout.StartSector).To(Equal(uint64(2046)))
		})
	})
})

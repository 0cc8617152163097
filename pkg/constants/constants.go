package constants

import "os"

const (
	// SectorSize is the logical sector size every supported on-disk format
	// assumes. All sector arithmetic in the pipeline is in 512-byte units.
	SectorSize = 512

	// DefaultPartitionStart is the first sector of the single data
	// partition, leaving the customary 1MiB gap for the MBR and the
	// bootloader's core image.
	DefaultPartitionStart = 2048

	// DefaultLabel is the volume label applied to every filesystem and ISO
	// unless overridden. The HD grub config falls back to searching for it.
	DefaultLabel = "VALKYRIE"

	// KernelName is the kernel artifact the grub menu entries boot.
	KernelName = "valkyrix"

	BootDir     = "boot"
	GrubDir     = "boot/grub"
	GrubCfg     = "grub.cfg"
	EltoritoImg = "eltorito.img"

	// ReleaseFile is an optional env-format file inside the staging tree
	// carrying NAME/VERSION used for artifact naming.
	ReleaseFile = "etc/valkyrie-release"

	FormatHD  = "hd"
	FormatISO = "iso"

	BackendAuto      = "auto"
	BackendLoopback  = "loopback"
	BackendGuestfish = "guestfish"

	// Default directory and file fileModes
	DirPerm  = os.ModeDir | os.ModePerm
	FilePerm = 0666

	// Device readiness poll after attaching a loop device.
	DeviceWaitAttempts = 10
	DeviceWaitDelayMs  = 500
)

// Op names for the build DAG. Each is suffixed with the target name when
// registered, so concurrent targets never share an op.
const (
	OpAllocate    = "allocate"
	OpPartition   = "partition"
	OpFormat      = "format"
	OpPrepStaging = "prep-staging"
	OpPopulate    = "populate"
	OpEltorito    = "eltorito"
	OpPackageISO  = "package-iso"
	OpVerify      = "verify"
	OpCompress    = "compress"
)

// GrubCfgHD is the grub config for disk images. The boot medium identity
// changes between builds, so root is discovered by scanning for the kernel
// file first and the volume label second.
const GrubCfgHD = `set timeout=0
set default=0

menuentry "Valkyrie OS" {
    search --no-floppy --file /boot/` + KernelName + ` --set=root || search --no-floppy --label ` + DefaultLabel + ` --set=root
    multiboot /boot/` + KernelName + `
    boot
}
`

// GrubCfgISO is the grub config embedded into the El-Torito image. There is
// no ambiguity about which medium booted, so the kernel path is fixed.
const GrubCfgISO = `set timeout=0
set default=0

menuentry "Valkyrie OS" {
    multiboot /boot/` + KernelName + `
    boot
}
`

const MB = int64(1024 * 1024)
const GB = 1024 * MB

// CrtFiles are the musl startup objects copied from the toolchain sysroot
// onto the image next to libc.so.
var CrtFiles = []string{"Scrt1.o", "crt1.o", "crti.o", "crtn.o"}

// GetXorrisoArgs returns the xorriso invocation for mastering the staging
// tree into an ISO 9660 image with Rock Ridge and Joliet extensions.
// bootImage is the El-Torito boot image path relative to the ISO root, or
// empty for a non-bootable ISO.
func GetXorrisoArgs(staging, output, label, bootImage string) []string {
	args := []string{
		"-as", "mkisofs",
		"-R", "-J",
		"-V", label,
		"-o", output,
	}
	if bootImage != "" {
		args = append(args,
			"-b", bootImage,
			"-no-emul-boot",
			"-boot-load-size", "4",
			"-boot-info-table",
		)
	}
	return append(args, staging)
}

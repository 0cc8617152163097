// Package arch holds the per-architecture build settings: target triples for
// the cross toolchain, the musl dynamic linker name copied onto images, and
// the QEMU machine identity used to boot the result.
package arch

import (
	"fmt"
	"sort"
)

type Config struct {
	TargetTriple    string
	ToolchainPrefix string
	Bits            int
	LdMuslName      string
	QemuSystem      string
	QemuMachine     string
}

// configs is plain immutable data. Nothing mutates it after init.
var configs = map[string]Config{
	"i686": {
		TargetTriple:    "i686-linux-musl",
		ToolchainPrefix: "i686-linux-musl-",
		Bits:            32,
		LdMuslName:      "ld-musl-i386.so.1",
		QemuSystem:      "qemu-system-i386",
		QemuMachine:     "pc",
	},
	"x64": {
		TargetTriple:    "x86_64-linux-musl",
		ToolchainPrefix: "x86_64-linux-musl-",
		Bits:            64,
		LdMuslName:      "ld-musl-x86_64.so.1",
		QemuSystem:      "qemu-system-x86_64",
		QemuMachine:     "pc",
	},
	"aarch64": {
		TargetTriple:    "aarch64-linux-musl",
		ToolchainPrefix: "aarch64-linux-musl-",
		Bits:            64,
		LdMuslName:      "ld-musl-aarch64.so.1",
		QemuSystem:      "qemu-system-aarch64",
		QemuMachine:     "virt",
	},
}

// Get returns the configuration for the named architecture.
func Get(name string) (Config, error) {
	c, ok := configs[name]
	if !ok {
		return Config{}, fmt.Errorf("unsupported architecture %q, supported: %v", name, Supported())
	}
	return c, nil
}

// Supported returns the known architecture names, sorted.
func Supported() []string {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package utils

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// ErrInvalidSizeFormat is returned when a size expression does not match
// `<number>[k|m|g]`.
var ErrInvalidSizeFormat = errors.New("invalid size format")

var sizeRegexp = regexp.MustCompile(`^([0-9.]+)([kKmMgG]?)$`)

// ParseSize parses a human size expression like "64M" or "1.5g" into bytes.
// The suffix is case-insensitive and multiplies by 1024, 1024^2 or 1024^3.
// Fractional numbers are computed with exact rational arithmetic so inputs
// like "1.5M" never pick up binary floating point rounding.
func ParseSize(size string) (uint64, error) {
	m := sizeRegexp.FindStringSubmatch(size)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, size)
	}

	value, ok := new(big.Rat).SetString(m[1])
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, size)
	}

	switch strings.ToLower(m[2]) {
	case "k":
		value.Mul(value, big.NewRat(1024, 1))
	case "m":
		value.Mul(value, big.NewRat(1024*1024, 1))
	case "g":
		value.Mul(value, big.NewRat(1024*1024*1024, 1))
	}

	bytes := new(big.Int).Quo(value.Num(), value.Denom())
	if !bytes.IsUint64() {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidSizeFormat, size)
	}
	return bytes.Uint64(), nil
}

// SizeToSectors converts a byte count to 512-byte sectors, rounding up.
func SizeToSectors(bytes uint64) uint64 {
	return (bytes + constants.SectorSize - 1) / constants.SectorSize
}

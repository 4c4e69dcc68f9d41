package util

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor parses a hex color string (#RRGGBB) into an opaque color.
func ParseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %s", hex)
	}

	var ri, gi, bi int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %s", hex)
	}

	return color.RGBA{R: uint8(ri), G: uint8(gi), B: uint8(bi), A: 0xff}, nil //nolint:gosec // Values are validated to be 0-255 by hex parsing
}

package sdfscene

import "fmt"

// Colors travel through the word stream as packed 32-bit values with the
// red channel in the low byte: a<<24 | b<<16 | g<<8 | r. On little-endian
// devices a shader reading the word as four RGBA8 bytes sees r,g,b,a in
// memory order.

// PackColor packs 8-bit channels into a wire color word.
func PackColor(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// UnpackColor splits a wire color word into 8-bit channels.
func UnpackColor(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// ParseColor parses a hex color string into a wire color word.
// Supported forms: "RGB", "RRGGBB", "RRGGBBAA", each with an optional
// leading '#'. Missing alpha defaults to opaque.
func ParseColor(s string) (uint32, error) {
	orig := s
	if s != "" && s[0] == '#' {
		s = s[1:]
	}

	var r, g, b, a uint32
	a = 255

	switch len(s) {
	case 3: // RGB
		if !parseHex(s[0:1], &r) || !parseHex(s[1:2], &g) || !parseHex(s[2:3], &b) {
			return 0, fmt.Errorf("sdfscene: invalid color %q", orig)
		}
		r, g, b = r*17, g*17, b*17
	case 6: // RRGGBB
		if !parseHex(s[0:2], &r) || !parseHex(s[2:4], &g) || !parseHex(s[4:6], &b) {
			return 0, fmt.Errorf("sdfscene: invalid color %q", orig)
		}
	case 8: // RRGGBBAA
		if !parseHex(s[0:2], &r) || !parseHex(s[2:4], &g) ||
			!parseHex(s[4:6], &b) || !parseHex(s[6:8], &a) {
			return 0, fmt.Errorf("sdfscene: invalid color %q", orig)
		}
	default:
		return 0, fmt.Errorf("sdfscene: invalid color %q", orig)
	}

	//nolint:gosec // channels are masked to 8 bits by the parse above
	return PackColor(uint8(r), uint8(g), uint8(b), uint8(a)), nil
}

// parseHex is a helper for hex parsing. Reports whether s was valid hex.
func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

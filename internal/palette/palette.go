// Package palette maps arbitrary RGB colors onto the fixed set of swatches
// the Toggl API accepts for projects.
package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// Toggl is the set of project colors Toggl accepts, in the order the
// quantizer scans them.
var Toggl = []RGB{
	{11, 131, 217},
	{158, 91, 217},
	{217, 65, 130},
	{227, 106, 0},
	{191, 112, 0},
	{45, 166, 8},
	{6, 168, 147},
	{201, 128, 107},
	{70, 91, 179},
	{153, 0, 153},
	{199, 175, 20},
	{86, 102, 20},
	{217, 43, 43},
	{82, 82, 102},
	{153, 17, 2},
}

// Hex renders the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "rrggbb" with an optional leading '#'.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("palette: invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("palette: invalid hex color %q", s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Nearest returns the palette member closest to c using Manhattan distance
// over the three channels. Only a strictly smaller distance replaces the
// current candidate, so ties keep the earlier palette entry. The metric is
// kept as-is for output compatibility with previously synced projects.
func Nearest(c RGB, pal []RGB) RGB {
	closest := pal[0]
	best := -1
	for _, p := range pal {
		d := dist(p, c)
		if d < best || best == -1 {
			best = d
			closest = p
		}
	}
	return closest
}

func dist(a, b RGB) int {
	return abs(int(a.R)-int(b.R)) + abs(int(a.G)-int(b.G)) + abs(int(a.B)-int(b.B))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ClosestToggl quantizes a raw Float hex color to a Toggl swatch hex.
// Malformed input yields ok == false so callers can omit the color instead
// of failing the item.
func ClosestToggl(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	c, err := ParseHex(raw)
	if err != nil {
		return "", false
	}
	return Nearest(c, Toggl).Hex(), true
}

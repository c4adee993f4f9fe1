package region

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Entry binds a region name to the colour that marks it in an image.
type Entry struct {
	Name  string
	Color color.RGBA
}

// Palette maps image colours to region names. Alpha is ignored when
// matching.
type Palette struct {
	entries []Entry
	byRGB   map[uint32]string
}

// NewPalette builds a palette from explicit entries. Empty names are
// reserved for the background; two names sharing one colour fail with
// ErrDuplicateColor.
func NewPalette(entries ...Entry) (Palette, error) {
	p := Palette{byRGB: make(map[uint32]string, len(entries))}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return Palette{}, fmt.Errorf("%w: region name must not be empty", ErrInvalidColor)
		}
		if seen[e.Name] {
			return Palette{}, fmt.Errorf("region %q listed twice", e.Name)
		}
		seen[e.Name] = true
		key := rgbKey(e.Color.R, e.Color.G, e.Color.B)
		if other, ok := p.byRGB[key]; ok {
			return Palette{}, fmt.Errorf("%w: %q and %q are both %s", ErrDuplicateColor, other, e.Name, hexColor(key))
		}
		p.byRGB[key] = e.Name
		p.entries = append(p.entries, e)
	}
	return p, nil
}

// ParsePalette builds a palette from region name to colour strings, as
// written in run files: an X11/CSS colour name ("Blue", "dark blue") or a
// hex triplet ("#0000ff", "#00f"). Entries are processed in name order so
// errors are deterministic.
func ParsePalette(colors map[string]string) (Palette, error) {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]Entry, 0, len(names))
	for _, name := range names {
		c, err := ParseColor(colors[name])
		if err != nil {
			return Palette{}, fmt.Errorf("region %q: %w", name, err)
		}
		list = append(list, Entry{Name: name, Color: c})
	}
	return NewPalette(list...)
}

// ParseColor parses a colour name or hex triplet.
func ParseColor(s string) (color.RGBA, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "#") {
		return parseHex(trimmed)
	}
	key := strings.ToLower(trimmed)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	c, ok := colornames.Map[key]
	if !ok {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

func parseHex(s string) (color.RGBA, error) {
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Entries returns the palette entries in insertion order.
func (p Palette) Entries() []Entry { return append([]Entry(nil), p.entries...) }

// Len returns the number of entries.
func (p Palette) Len() int { return len(p.entries) }

// lookup returns the region name for an exact RGB match.
func (p Palette) lookup(r, g, b uint8) (string, bool) {
	name, ok := p.byRGB[rgbKey(r, g, b)]
	return name, ok
}

func rgbKey(r, g, b uint8) uint32 { return uint32(r)<<16 | uint32(g)<<8 | uint32(b) }

func hexColor(key uint32) string { return fmt.Sprintf("#%06x", key) }

package placement

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Palette maps the 2017 color index to its hex code.
var Palette = [16]string{
	"#FFFFFF", "#E4E4E4", "#888888", "#222222",
	"#FFA7D1", "#E50000", "#E59500", "#A06A42",
	"#E5D900", "#94E044", "#02BE01", "#00E5F0",
	"#0083C7", "#0000EA", "#E04AFF", "#820080",
}

// zoned layouts carry their own offset; utcLayouts are tried after a literal
// " UTC" suffix has been stripped.
var (
	zonedLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
	}
	utcLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// DecodeTimestamp parses an absolute timestamp and returns Unix seconds.
// Accepted forms are RFC 3339 (T or space separator, optional fraction) and
// the dump form "2022-04-04 00:53:51.577 UTC". Inputs without a zone are
// rejected.
func DecodeTimestamp(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if base, ok := strings.CutSuffix(s, " UTC"); ok {
		for _, layout := range utcLayouts {
			if t, err := time.ParseInLocation(layout, base, time.UTC); err == nil {
				return t.Unix(), nil
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// DecodeCoordinate parses a base-10 integer in [0, 65535]. One leading '+'
// is allowed, matching DecodeColorIndex.
func DecodeCoordinate(raw string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}
	return uint16(n), nil
}

// DecodeColorIndex maps a palette index in [0, 15] to its hex code.
func DecodeColorIndex(raw string) (string, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n >= len(Palette) {
		return "", fmt.Errorf("%w: %q (want 0-%d)", ErrInvalidColorIndex, raw, len(Palette)-1)
	}
	return Palette[n], nil
}

// DecodeCoordinateList splits a comma-separated coordinate field. Only two
// (x,y) or four (x1,y1,x2,y2) parts are valid.
func DecodeCoordinateList(raw string) ([]uint16, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 && len(parts) != 4 {
		return nil, fmt.Errorf("%w: %d parts in %q (want 2 or 4)", ErrInvalidCoordinateList, len(parts), raw)
	}
	out := make([]uint16, len(parts))
	for i, p := range parts {
		v, err := DecodeCoordinate(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: part %d: %w", ErrInvalidCoordinateList, i, err)
		}
		out[i] = v
	}
	return out, nil
}

package overlay

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/brandatlas/footprint/internal/model"
)

// Venue status palette. Hex strings are what map SDKs take directly.
const (
	colorBlocked     = "#7C3AED"
	colorCaptured    = "#DC2626"
	colorBlueOcean   = "#0EA5E9"
	colorOpportunity = "#F59E0B"
	colorGap         = "#16A34A"
	colorNeutral     = "#9CA3AF"

	colorContested = "#E11D48"
	colorTarget    = "#FB923C"

	defaultClusterColor = "#64748B"
	defaultPointColor   = "#6B7280"
)

var statusColors = map[model.Status]string{
	model.StatusBlocked:     colorBlocked,
	model.StatusCaptured:    colorCaptured,
	model.StatusBlueOcean:   colorBlueOcean,
	model.StatusOpportunity: colorOpportunity,
	model.StatusGap:         colorGap,
	model.StatusNeutral:     colorNeutral,
}

// StatusColor maps a venue status to its marker color. Unknown statuses
// render neutral rather than erroring.
func StatusColor(s model.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return colorNeutral
}

// CompetitiveColor picks a marker color straight from presence signals,
// first match wins. Unlike StatusColor it paints sole-brand presence in
// that brand's own color, so a glance at the map separates "ours", "theirs",
// and "both" without reading a legend.
func CompetitiveColor(s model.Signals, brands model.BrandSet) string {
	switch {
	case s.Exclusive:
		return colorBlocked
	case s.FocalOpened && s.RivalOpened:
		return colorContested
	case s.FocalOpened:
		return brandColor(brands.Focal)
	case s.RivalOpened:
		return brandColor(brands.Rival)
	case s.Target, s.Reported:
		return colorTarget
	default:
		return colorNeutral
	}
}

func brandColor(b model.Brand) string {
	if b.Color != "" {
		return b.Color
	}
	return defaultPointColor
}

// BlendHex linearly interpolates two #RRGGBB colors. t is clamped to
// [0, 1]: 0 yields a, 1 yields b. Malformed input falls back to the
// neutral color so a bad registry entry degrades visibly instead of
// breaking the fill pass.
func BlendHex(a, b string, t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	ar, ag, ab, okA := parseHex(a)
	br, bg, bb, okB := parseHex(b)
	if !okA || !okB {
		return colorNeutral
	}
	lerp := func(x, y int64) int64 {
		return x + int64(math.Round(t*float64(y-x)))
	}
	return fmt.Sprintf("#%02X%02X%02X", lerp(ar, br), lerp(ag, bg), lerp(ab, bb))
}

func parseHex(hex string) (r, g, b int64, ok bool) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	var err error
	if r, err = strconv.ParseInt(h[0:2], 16, 0); err != nil {
		return 0, 0, 0, false
	}
	if g, err = strconv.ParseInt(h[2:4], 16, 0); err != nil {
		return 0, 0, 0, false
	}
	if b, err = strconv.ParseInt(h[4:6], 16, 0); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}

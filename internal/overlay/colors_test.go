package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandatlas/footprint/internal/model"
)

func TestBlendHex(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		t    float64
		want string
	}{
		{"zero yields a", "#6E3FA3", "#2F5BB7", 0, "#6E3FA3"},
		{"one yields b", "#6E3FA3", "#2F5BB7", 1, "#2F5BB7"},
		{"midpoint", "#000000", "#FFFFFF", 0.5, "#808080"},
		{"clamps below", "#000000", "#FFFFFF", -3, "#000000"},
		{"clamps above", "#000000", "#FFFFFF", 7, "#FFFFFF"},
		{"lowercase input", "#ff0000", "#ff0000", 0.5, "#FF0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BlendHex(tt.a, tt.b, tt.t))
		})
	}
}

func TestBlendHexMalformedFallsBackToNeutral(t *testing.T) {
	assert.Equal(t, colorNeutral, BlendHex("purple", "#2F5BB7", 0.5))
	assert.Equal(t, colorNeutral, BlendHex("#2F5BB7", "#12345", 0.5))
	assert.Equal(t, colorNeutral, BlendHex("", "", 0))
}

func TestStatusColor(t *testing.T) {
	for _, s := range model.AllStatuses() {
		assert.NotEmpty(t, StatusColor(s), "status %s has a color", s)
	}
	assert.Equal(t, colorBlocked, StatusColor(model.StatusBlocked))
	assert.Equal(t, colorNeutral, StatusColor(model.Status("bogus")), "unknown statuses render neutral")
}

func TestCompetitiveColorPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		signals model.Signals
		want    string
	}{
		{"exclusive beats everything", model.Signals{Exclusive: true, FocalOpened: true, RivalOpened: true}, colorBlocked},
		{"both opened is contested", model.Signals{FocalOpened: true, RivalOpened: true}, colorContested},
		{"focal only takes the focal color", model.Signals{FocalOpened: true}, testBrands.Focal.Color},
		{"rival only takes the rival color", model.Signals{RivalOpened: true}, testBrands.Rival.Color},
		{"target without presence", model.Signals{Target: true}, colorTarget},
		{"reported without presence", model.Signals{Reported: true}, colorTarget},
		{"no signals is neutral", model.Signals{}, colorNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompetitiveColor(tt.signals, testBrands))
		})
	}
}

func TestCompetitiveColorMissingBrandColor(t *testing.T) {
	plain := model.BrandSet{Focal: model.Brand{Code: "a"}, Rival: model.Brand{Code: "b"}}
	assert.Equal(t, defaultPointColor, CompetitiveColor(model.Signals{FocalOpened: true}, plain))
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    Coordinate
		expected Coordinate
		ok       bool
	}{
		{
			name:     "plausible point unchanged",
			input:    Coordinate{Lat: 23.13, Lng: 113.26},
			expected: Coordinate{Lat: 23.13, Lng: 113.26},
			ok:       true,
		},
		{
			name:     "swapped order recovered",
			input:    Coordinate{Lat: 113.26, Lng: 23.13},
			expected: Coordinate{Lat: 23.13, Lng: 113.26},
			ok:       true,
		},
		{
			name:     "zero point rejected",
			input:    Coordinate{},
			expected: Coordinate{},
			ok:       false,
		},
		{
			name:     "overseas point rejected",
			input:    Coordinate{Lat: 40.71, Lng: -74.0},
			expected: Coordinate{Lat: 40.71, Lng: -74.0},
			ok:       false,
		},
		{
			name:     "northern border kept",
			input:    Coordinate{Lat: 53.5, Lng: 122.3},
			expected: Coordinate{Lat: 53.5, Lng: 122.3},
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.input.Sanitize()
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStoreOpenedSince(t *testing.T) {
	cutoff := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	recent := cutoff.AddDate(0, 1, 0)
	old := cutoff.AddDate(0, -6, 0)

	tests := []struct {
		name     string
		opened   *time.Time
		expected bool
	}{
		{name: "recent opening is new", opened: &recent, expected: true},
		{name: "exactly at cutoff is new", opened: &cutoff, expected: true},
		{name: "old opening is not new", opened: &old, expected: false},
		{name: "unknown opening date is not new", opened: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StoreRecord{OpenedAt: tt.opened}
			assert.Equal(t, tt.expected, s.OpenedSince(cutoff))
		})
	}
}

func TestMallStatusDerived(t *testing.T) {
	m := MallRecord{
		ID:      "m-1",
		Name:    "万达广场",
		Signals: Signals{RivalOpened: true, Target: true},
	}
	assert.Equal(t, StatusCaptured, m.Status())

	// Status follows the signals; there is no independent status field to
	// drift out of sync.
	m.Signals.Exclusive = true
	assert.Equal(t, StatusBlocked, m.Status())
}

func TestBrandSetSides(t *testing.T) {
	set := BrandSet{
		Focal: Brand{Code: "LK", Name: "瑞幸", Color: "#2563EB"},
		Rival: Brand{Code: "CD", Name: "库迪", Color: "#DC2626"},
	}

	assert.True(t, set.IsFocal("LK"))
	assert.False(t, set.IsFocal("CD"))
	assert.True(t, set.IsRival("CD"))
	assert.False(t, set.IsRival("LK"))
	assert.False(t, set.IsFocal(""))
	assert.False(t, set.IsRival(""))
}

package dataset

import (
	"strings"
	"time"

	"github.com/brandatlas/footprint/internal/model"
)

// StoreFilter selects a subset of store records. Zero-valued criteria are
// ignored. Filtering happens before records reach the engine, so the
// engine's baseline aggregation always sees the unfiltered dataset.
type StoreFilter struct {
	Brand      string // brand code
	Type       string
	Province   string
	City       string
	Keyword    string // substring of name or address
	OpenedFrom *time.Time
	OpenedTo   *time.Time
}

// Apply returns the records matching every set criterion.
func (f StoreFilter) Apply(records []model.StoreRecord) []model.StoreRecord {
	out := make([]model.StoreRecord, 0, len(records))
	for _, r := range records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f StoreFilter) matches(r model.StoreRecord) bool {
	if f.Brand != "" && r.Brand != f.Brand {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Province != "" && model.NormalizeProvince(r.Province) != model.NormalizeProvince(f.Province) {
		return false
	}
	if f.City != "" && !model.CityMatches(r.City, f.City) {
		return false
	}
	if f.Keyword != "" && !containsFold(r.Name, f.Keyword) && !containsFold(r.Address, f.Keyword) {
		return false
	}
	if f.OpenedFrom != nil {
		if r.OpenedAt == nil || r.OpenedAt.Before(*f.OpenedFrom) {
			return false
		}
	}
	if f.OpenedTo != nil {
		if r.OpenedAt == nil || r.OpenedAt.After(*f.OpenedTo) {
			return false
		}
	}
	return true
}

// MallFilter selects a subset of venue records. Zero-valued criteria are
// ignored.
type MallFilter struct {
	Status   model.Status
	Province string
	City     string
	Keyword  string
}

// Apply returns the venues matching every set criterion.
func (f MallFilter) Apply(records []model.MallRecord) []model.MallRecord {
	out := make([]model.MallRecord, 0, len(records))
	for _, r := range records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f MallFilter) matches(r model.MallRecord) bool {
	if f.Status != "" && r.Status() != f.Status {
		return false
	}
	if f.Province != "" && model.NormalizeProvince(r.Province) != model.NormalizeProvince(f.Province) {
		return false
	}
	if f.City != "" && !model.CityMatches(r.City, f.City) {
		return false
	}
	if f.Keyword != "" && !containsFold(r.Name, f.Keyword) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

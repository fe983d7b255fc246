// Package aggregate builds regional brand-count statistics from store
// collections. Aggregation is a single linear pass and carries no ordering
// guarantee; callers that need ranked output must sort explicitly via Ranked.
package aggregate

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/brandatlas/footprint/internal/model"
)

// Stats holds per-brand store counts for one region key.
type Stats struct {
	Key      string `json:"key"`
	Province string `json:"province"`
	City     string `json:"city,omitempty"`
	Focal    int    `json:"focal"`
	Rival    int    `json:"rival"`
	Total    int    `json:"total"`
}

// FocalShare returns the focal brand's share of counted stores in the
// region. The second return is false when neither brand has presence, in
// which case the share is meaningless and choropleth consumers should fall
// back to a neutral fill.
func (s Stats) FocalShare() (float64, bool) {
	sum := s.Focal + s.Rival
	if sum == 0 {
		return 0, false
	}
	return float64(s.Focal) / float64(sum), true
}

// ByRegion aggregates store records into per-region counts at the given
// level. Every record increments exactly one key's total; the focal and
// rival counters only move for records carrying a matching brand code, so
// totals may exceed the brand sum when foreign brands appear in the input.
func ByRegion(records []model.StoreRecord, level model.Level, brands model.BrandSet) map[string]*Stats {
	out := make(map[string]*Stats)
	for _, rec := range records {
		key := model.RegionKey(level, rec.Province, rec.City)
		st, ok := out[key]
		if !ok {
			st = &Stats{
				Key:      key,
				Province: model.NormalizeProvince(rec.Province),
			}
			if level == model.LevelCity {
				st.City = model.NormalizeCity(rec.City)
			}
			out[key] = st
		}
		switch {
		case brands.IsFocal(rec.Brand):
			st.Focal++
		case brands.IsRival(rec.Brand):
			st.Rival++
		}
		st.Total++
	}
	return out
}

// Ranked flattens an aggregation into a slice ordered by total descending,
// breaking ties with a locale-aware comparison of the region key so
// same-count regions list in stable dictionary order.
func Ranked(stats map[string]*Stats) []Stats {
	out := make([]Stats, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	coll := collate.New(language.Chinese)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return coll.CompareString(out[i].Key, out[j].Key) < 0
	})
	return out
}

// StatusCounts tallies malls by classified status. The zero count for a
// status never appears in the map; consumers iterate model.AllStatuses for
// a fixed display order.
func StatusCounts(malls []model.MallRecord) map[model.Status]int {
	out := make(map[model.Status]int)
	for _, m := range malls {
		out[m.Status()]++
	}
	return out
}

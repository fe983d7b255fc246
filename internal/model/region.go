package model

import "strings"

// Level selects the granularity of a regional aggregation.
type Level string

const (
	LevelProvince Level = "province"
	LevelCity     Level = "city"
)

// UnknownRegion is the key under which records with a missing province or
// city are aggregated.
const UnknownRegion = "未知"

// Administrative suffixes stripped during name normalization, longest first
// so compound suffixes win over their tails.
var (
	provinceSuffixes = []string{
		"维吾尔自治区",
		"壮族自治区",
		"回族自治区",
		"特别行政区",
		"自治区",
		"省",
		"市",
	}
	citySuffixes = []string{
		"自治州",
		"自治县",
		"地区",
		"新区",
		"市",
		"区",
		"县",
		"州",
		"盟",
		"旗",
	}
)

func stripSuffix(name string, suffixes []string) string {
	for _, suf := range suffixes {
		if !strings.HasSuffix(name, suf) {
			continue
		}
		trimmed := strings.TrimSuffix(name, suf)
		// Keep short names like 沙市 intact rather than reducing them to a
		// single character.
		if len([]rune(trimmed)) >= 2 {
			return trimmed
		}
	}
	return name
}

// NormalizeProvince collapses administrative variants of a province name
// (广东省 and 广东 share one key). Empty input maps to UnknownRegion.
func NormalizeProvince(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownRegion
	}
	return stripSuffix(name, provinceSuffixes)
}

// NormalizeCity collapses administrative variants of a city or district name
// (朝阳区 and 朝阳 share one key). Empty input maps to UnknownRegion.
func NormalizeCity(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownRegion
	}
	return stripSuffix(name, citySuffixes)
}

// RegionKey builds the aggregation key for a record at the given level.
// Province keys are the normalized province name; city keys are the
// normalized province and city joined with "/" so same-named cities in
// different provinces do not collide.
func RegionKey(level Level, province, city string) string {
	p := NormalizeProvince(province)
	if level == LevelProvince {
		return p
	}
	return p + "/" + NormalizeCity(city)
}

// CityMatches reports whether two city names refer to the same place under
// the lenient rule used for drill scoping: equal after normalization, or one
// normalized name is a prefix of the other. The prefix rule tolerates
// administrative naming drift (朝阳区 vs 朝阳) at the cost of conflating
// genuinely distinct cities that share a prefix.
func CityMatches(a, b string) bool {
	na, nb := NormalizeCity(a), NormalizeCity(b)
	if na == UnknownRegion || nb == UnknownRegion {
		return false
	}
	return na == nb || strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

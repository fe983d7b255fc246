package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProvince(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips 省", input: "广东省", expected: "广东"},
		{name: "strips 市 from municipality", input: "北京市", expected: "北京"},
		{name: "strips compound autonomous suffix", input: "新疆维吾尔自治区", expected: "新疆"},
		{name: "strips 自治区", input: "内蒙古自治区", expected: "内蒙古"},
		{name: "strips special administrative region", input: "香港特别行政区", expected: "香港"},
		{name: "already bare", input: "广东", expected: "广东"},
		{name: "abbreviated key untouched", input: "粤", expected: "粤"},
		{name: "whitespace trimmed", input: " 广东省 ", expected: "广东"},
		{name: "empty falls back", input: "", expected: UnknownRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeProvince(tt.input))
		})
	}
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips 市", input: "广州市", expected: "广州"},
		{name: "strips 区", input: "朝阳区", expected: "朝阳"},
		{name: "strips 县", input: "武功县", expected: "武功"},
		{name: "strips 自治州", input: "延边朝鲜族自治州", expected: "延边朝鲜族"},
		{name: "strips 盟", input: "锡林郭勒盟", expected: "锡林郭勒"},
		{name: "short name kept intact", input: "沙市", expected: "沙市"},
		{name: "already bare", input: "朝阳", expected: "朝阳"},
		{name: "empty falls back", input: "", expected: UnknownRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCity(tt.input))
		})
	}
}

func TestRegionKey(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		province string
		city     string
		expected string
	}{
		{name: "province level", level: LevelProvince, province: "广东省", city: "广州市", expected: "广东"},
		{name: "city level composes province", level: LevelCity, province: "广东省", city: "广州市", expected: "广东/广州"},
		{name: "same city name different provinces", level: LevelCity, province: "辽宁省", city: "朝阳市", expected: "辽宁/朝阳"},
		{name: "missing province", level: LevelProvince, province: "", city: "", expected: UnknownRegion},
		{name: "missing city", level: LevelCity, province: "北京市", city: "", expected: "北京/" + UnknownRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RegionKey(tt.level, tt.province, tt.city))
		})
	}
}

func TestCityMatches(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{name: "exact after normalization", a: "朝阳区", b: "朝阳", expected: true},
		{name: "reverse direction", a: "朝阳", b: "朝阳区", expected: true},
		{name: "prefix tolerance", a: "张家口", b: "张家口市", expected: true},
		{name: "superset name", a: "通州", b: "通州区新城", expected: true},
		{name: "distinct cities", a: "广州", b: "深圳", expected: false},
		{name: "empty never matches", a: "", b: "朝阳", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CityMatches(tt.a, tt.b))
		})
	}
}

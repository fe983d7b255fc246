package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandatlas/footprint/internal/model"
)

var testBrands = model.BrandSet{
	Focal: model.Brand{Code: "luckin", Name: "瑞幸咖啡", Color: "#2F5BB7"},
	Rival: model.Brand{Code: "cotti", Name: "库迪咖啡", Color: "#6E3FA3"},
}

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStoresFoldsAliases(t *testing.T) {
	path := writeFeed(t, "stores.json", `[
		{"id": "s1", "name": "瑞幸咖啡(人民广场店)", "brand": "luckin",
		 "province": "上海", "city": "上海", "lat": 31.23, "lng": 121.47,
		 "opened_at": "2026-07-15"},
		{"id": "s2", "store_name": "库迪咖啡南京东路店", "brand": "库迪咖啡",
		 "province": "上海", "city": "上海", "latitude": "31.24", "longitude": "121.48",
		 "open_date": "2026-07-15T10:30:00Z"},
		{"id": "s3", "name": "测试店", "brand": "luckin",
		 "province": "广东", "city": "广州", "lat": 23.13, "lon": 113.26}
	]`)

	records, err := LoadStores(path, testBrands)
	require.NoError(t, err)
	require.Len(t, records, 3)

	s1 := records[0]
	assert.Equal(t, "瑞幸咖啡(人民广场店)", s1.Name)
	assert.True(t, s1.Located)
	assert.InDelta(t, 121.47, s1.Location.Lng, 1e-9)
	require.NotNil(t, s1.OpenedAt)
	assert.Equal(t, 2026, s1.OpenedAt.Year())

	s2 := records[1]
	assert.Equal(t, "库迪咖啡南京东路店", s2.Name, "store_name is an accepted alias")
	assert.Equal(t, "cotti", s2.Brand, "display names fold to the brand code")
	assert.True(t, s2.Located, "string-typed coordinates parse")
	assert.InDelta(t, 31.24, s2.Location.Lat, 1e-9)
	require.NotNil(t, s2.OpenedAt)

	s3 := records[2]
	assert.True(t, s3.Located, "lon is an accepted alias")
	assert.InDelta(t, 113.26, s3.Location.Lng, 1e-9)
}

func TestLoadStoresSanitizesCoordinates(t *testing.T) {
	path := writeFeed(t, "stores.json", `[
		{"id": "swapped", "name": "坐标写反", "brand": "luckin",
		 "province": "上海", "city": "上海", "lat": 121.47, "lng": 31.23},
		{"id": "nowhere", "name": "无坐标", "brand": "luckin",
		 "province": "上海", "city": "上海"},
		{"id": "offworld", "name": "出界", "brand": "luckin",
		 "province": "上海", "city": "上海", "lat": -60.0, "lng": -170.0}
	]`)

	records, err := LoadStores(path, testBrands)
	require.NoError(t, err)
	require.Len(t, records, 3)

	swapped := records[0]
	assert.True(t, swapped.Located)
	assert.InDelta(t, 31.23, swapped.Location.Lat, 1e-9, "reversed columns are swapped back")
	assert.InDelta(t, 121.47, swapped.Location.Lng, 1e-9)

	assert.False(t, records[1].Located)
	assert.False(t, records[2].Located, "implausible in both orientations stays unlocated")
}

func TestLoadStoresMintsMissingIDs(t *testing.T) {
	path := writeFeed(t, "stores.json", `[
		{"name": "无编号店", "brand": "luckin", "province": "上海", "city": "上海",
		 "lat": 31.2, "lng": 121.5},
		{"name": "另一家", "brand": "luckin", "province": "上海", "city": "上海",
		 "lat": 31.3, "lng": 121.6}
	]`)

	records, err := LoadStores(path, testBrands)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEmpty(t, records[1].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestLoadStoresEnvelope(t *testing.T) {
	path := writeFeed(t, "stores.json", `{"stores": [
		{"id": "s1", "name": "店", "brand": "luckin", "province": "上海",
		 "city": "上海", "lat": 31.2, "lng": 121.5}
	]}`)

	records, err := LoadStores(path, testBrands)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadStoresBareEmptyArray(t *testing.T) {
	path := writeFeed(t, "stores.json", `[]`)

	records, err := LoadStores(path, testBrands)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadStoresEmptyEnvelopeErrors(t *testing.T) {
	path := writeFeed(t, "stores.json", `{"meta": "only"}`)

	_, err := LoadStores(path, testBrands)
	require.Error(t, err)
}

func TestLoadMalls(t *testing.T) {
	path := writeFeed(t, "malls.json", `[
		{"id": "m1", "name": "正大广场", "province": "上海", "city": "上海",
		 "lat": 31.236, "lng": 121.5,
		 "signals": {"rival_opened": true, "target": true}},
		{"id": "m2", "name": "未落位广场", "province": "广东", "city": "深圳",
		 "signals": {"exclusive": true}}
	]`)

	records, err := LoadMalls(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	m1 := records[0]
	assert.True(t, m1.Located)
	assert.Equal(t, model.StatusCaptured, m1.Status())

	m2 := records[1]
	assert.False(t, m2.Located, "venues without coordinates still load for aggregation")
	assert.Equal(t, model.StatusBlocked, m2.Status())
}

func TestLoadBrands(t *testing.T) {
	path := writeFeed(t, "brands.yaml", `
brands:
  focal: {code: luckin, name: 瑞幸咖啡, color: "#2F5BB7"}
  rival: {code: cotti, name: 库迪咖啡}
`)

	brands, err := LoadBrands(path)
	require.NoError(t, err)
	assert.Equal(t, "luckin", brands.Focal.Code)
	assert.Equal(t, "#2F5BB7", brands.Focal.Color)
	assert.Equal(t, "库迪咖啡", brands.Rival.Name)
	assert.Equal(t, defaultRivalColor, brands.Rival.Color, "missing colors default")
}

func TestLoadBrandsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing rival",
			content: "brands:\n  focal: {code: luckin}\n",
		},
		{
			name:    "duplicate codes",
			content: "brands:\n  focal: {code: luckin}\n  rival: {code: luckin}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFeed(t, "brands.yaml", tt.content)
			_, err := LoadBrands(path)
			require.Error(t, err)
		})
	}
}

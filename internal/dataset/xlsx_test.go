package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/brandatlas/footprint/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("feed")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "feed.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadStoresXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"ID", "Store Name", "Brand", "Province", "City", "Latitude", "Longitude", "Open Date"},
		{"s1", "瑞幸咖啡(体育西路店)", "luckin", "广东", "广州", "23.13", "113.32", "2026-07-01"},
		{"s2", "库迪咖啡天河城店", "库迪咖啡", "广东", "广州", "113.33", "23.14", ""},
		{"", "", "", "", "", "", "", ""},
	})

	records, err := LoadStoresXLSX(path, testBrands)
	require.NoError(t, err)
	require.Len(t, records, 2, "blank rows are skipped")

	s1 := records[0]
	assert.Equal(t, "s1", s1.ID)
	assert.Equal(t, "瑞幸咖啡(体育西路店)", s1.Name, "spaced headers fold to aliases")
	assert.True(t, s1.Located)
	assert.InDelta(t, 23.13, s1.Location.Lat, 1e-9)
	require.NotNil(t, s1.OpenedAt)
	assert.Equal(t, 2026, s1.OpenedAt.Year())

	s2 := records[1]
	assert.Equal(t, "cotti", s2.Brand, "display names fold to the brand code")
	assert.True(t, s2.Located)
	assert.InDelta(t, 23.14, s2.Location.Lat, 1e-9, "reversed columns are swapped back")
	assert.Nil(t, s2.OpenedAt)
}

func TestLoadMallsXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"id", "name", "province", "city", "lat", "lng", "rival_opened", "target", "exclusive"},
		{"m1", "天河城", "广东", "广州", "23.132", "113.319", "true", "1", ""},
		{"m2", "封锁广场", "广东", "佛山", "23.02", "113.12", "", "", "是"},
		{"", "无坐标广场", "河北", "石家庄", "", "", "", "yes", ""},
	})

	records, err := LoadMallsXLSX(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	m1 := records[0]
	assert.Equal(t, model.StatusCaptured, m1.Status(), "truthy cells set presence signals")
	assert.True(t, m1.Located)

	assert.Equal(t, model.StatusBlocked, records[1].Status())

	m3 := records[2]
	assert.NotEmpty(t, m3.ID, "missing ids are minted")
	assert.False(t, m3.Located)
	assert.Equal(t, model.StatusOpportunity, m3.Status())
}

func TestLoadStoresXLSXMissingFile(t *testing.T) {
	_, err := LoadStoresXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), testBrands)
	require.Error(t, err)
}

func TestLoadStoresXLSXEmptySheet(t *testing.T) {
	f := xlsx.NewFile()
	_, err := f.AddSheet("feed")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.Save(path))

	_, err = LoadStoresXLSX(path, testBrands)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row")
}

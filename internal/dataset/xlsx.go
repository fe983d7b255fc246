package dataset

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brandatlas/footprint/internal/model"
)

// Spreadsheet feeds carry one record per row with a header row naming the
// columns. Headers accept the same aliases as the JSON feeds, matched after
// lowercasing and folding spaces and dashes to underscores.

// LoadStoresXLSX reads a store feed from the first sheet of a workbook.
func LoadStoresXLSX(path string, brands model.BrandSet) ([]model.StoreRecord, error) {
	header, rows, err := readFeedSheet(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read stores %s", path)
	}

	cols := headerIndex(header)
	raws := make([]rawStore, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, rawStore{
			ID:       cols.get(row, "id", "store_id"),
			Name:     cols.get(row, "name", "store_name"),
			Brand:    cols.get(row, "brand"),
			Type:     cols.get(row, "type", "store_type"),
			Province: cols.get(row, "province"),
			City:     cols.get(row, "city"),
			Address:  cols.get(row, "address"),
			MallID:   cols.get(row, "mall_id"),
			Lat:      cellFloat(cols.get(row, "lat", "latitude")),
			Lng:      cellFloat(cols.get(row, "lng", "longitude", "lon")),
			OpenedAt: cols.get(row, "opened_at", "open_date"),
		})
	}

	return storeRecords(raws, brands, path), nil
}

// LoadMallsXLSX reads a venue feed from the first sheet of a workbook.
// Presence signals arrive as truthy cells in the signal columns.
func LoadMallsXLSX(path string) ([]model.MallRecord, error) {
	header, rows, err := readFeedSheet(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read malls %s", path)
	}

	cols := headerIndex(header)
	raws := make([]rawMall, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, rawMall{
			ID:       cols.get(row, "id", "mall_id"),
			Name:     cols.get(row, "name", "mall_name"),
			Province: cols.get(row, "province"),
			City:     cols.get(row, "city"),
			Lat:      cellFloat(cols.get(row, "lat", "latitude")),
			Lng:      cellFloat(cols.get(row, "lng", "longitude", "lon")),
			Signals: model.Signals{
				FocalOpened: cellBool(cols.get(row, "focal_opened")),
				RivalOpened: cellBool(cols.get(row, "rival_opened")),
				Reported:    cellBool(cols.get(row, "reported")),
				Exclusive:   cellBool(cols.get(row, "exclusive")),
				Target:      cellBool(cols.get(row, "target")),
			},
		})
	}

	return mallRecords(raws, path), nil
}

// readFeedSheet returns the header row and data rows of the first sheet.
func readFeedSheet(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("sheet has no header row")
	}

	header := rowStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := rowStrings(row)
		if blankRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return header, rows, nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type columnIndex map[string]int

func headerIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if key != "" {
			idx[key] = i
		}
	}
	return idx
}

// get returns the first non-empty cell among the alias columns.
func (c columnIndex) get(row []string, keys ...string) string {
	for _, key := range keys {
		i, ok := c[key]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func cellFloat(s string) flexFloat {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return flexFloat(v)
}

func cellBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "是":
		return true
	}
	return false
}

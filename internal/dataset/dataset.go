// Package dataset loads the store and venue feeds the engine analyzes.
// Feeds come from scraped and hand-maintained sources that disagree on
// field names, coordinate types, and envelope shape, so loading is lenient:
// aliases are folded, numbers arrive as strings, missing ids are minted,
// and implausible coordinates are swapped or flagged instead of dropped.
package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/model"
)

// flexFloat accepts both JSON numbers and numeric strings, which real
// feeds mix freely.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "dataset: parse number %q", s)
	}
	*f = flexFloat(v)
	return nil
}

// rawStore mirrors every field spelling the store feeds use. Alias columns
// are folded after decode; first non-zero wins in declaration order.
type rawStore struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StoreName string    `json:"store_name"`
	Brand     string    `json:"brand"`
	Type      string    `json:"type"`
	StoreType string    `json:"store_type"`
	Province  string    `json:"province"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	MallID    string    `json:"mall_id"`
	Lat       flexFloat `json:"lat"`
	Latitude  flexFloat `json:"latitude"`
	Lng       flexFloat `json:"lng"`
	Longitude flexFloat `json:"longitude"`
	Lon       flexFloat `json:"lon"`
	OpenedAt  string    `json:"opened_at"`
	OpenDate  string    `json:"open_date"`
}

type rawMall struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Province  string        `json:"province"`
	City      string        `json:"city"`
	Lat       flexFloat     `json:"lat"`
	Latitude  flexFloat     `json:"latitude"`
	Lng       flexFloat     `json:"lng"`
	Longitude flexFloat     `json:"longitude"`
	Lon       flexFloat     `json:"lon"`
	Signals   model.Signals `json:"signals"`
}

// openedAtLayouts are tried in order when parsing store opening dates.
var openedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// LoadStores reads a store feed and returns canonical records. The brand
// field is folded to the matching brand code when it arrives as a display
// name.
func LoadStores(path string, brands model.BrandSet) ([]model.StoreRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read stores %s", path)
	}

	var raws []rawStore
	if err := decodeFeed(data, &raws); err != nil {
		return nil, eris.Wrapf(err, "dataset: decode stores %s", path)
	}

	return storeRecords(raws, brands, path), nil
}

func storeRecords(raws []rawStore, brands model.BrandSet, path string) []model.StoreRecord {
	log := zap.L().With(zap.String("component", "dataset"))

	records := make([]model.StoreRecord, 0, len(raws))
	located := 0
	for _, r := range raws {
		rec := model.StoreRecord{
			ID:       strings.TrimSpace(r.ID),
			Name:     firstNonEmpty(r.Name, r.StoreName),
			Brand:    canonicalBrand(r.Brand, brands),
			Type:     firstNonEmpty(r.Type, r.StoreType),
			Province: strings.TrimSpace(r.Province),
			City:     strings.TrimSpace(r.City),
			Address:  strings.TrimSpace(r.Address),
			MallID:   strings.TrimSpace(r.MallID),
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		rec.Location, rec.Located = coordinate(r.Lat, r.Latitude, r.Lng, r.Longitude, r.Lon)
		if rec.Located {
			located++
		} else {
			log.Debug("store without renderable location", zap.String("id", rec.ID), zap.String("name", rec.Name))
		}

		if opened := parseOpenedAt(firstNonEmpty(r.OpenedAt, r.OpenDate)); opened != nil {
			rec.OpenedAt = opened
		}

		records = append(records, rec)
	}

	log.Info("stores loaded",
		zap.String("path", path),
		zap.Int("total", len(records)),
		zap.Int("located", located))
	return records
}

// LoadMalls reads a venue feed and returns canonical records.
func LoadMalls(path string) ([]model.MallRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read malls %s", path)
	}

	var raws []rawMall
	if err := decodeFeed(data, &raws); err != nil {
		return nil, eris.Wrapf(err, "dataset: decode malls %s", path)
	}

	return mallRecords(raws, path), nil
}

func mallRecords(raws []rawMall, path string) []model.MallRecord {
	log := zap.L().With(zap.String("component", "dataset"))

	records := make([]model.MallRecord, 0, len(raws))
	located := 0
	for _, r := range raws {
		rec := model.MallRecord{
			ID:       strings.TrimSpace(r.ID),
			Name:     strings.TrimSpace(r.Name),
			Province: strings.TrimSpace(r.Province),
			City:     strings.TrimSpace(r.City),
			Signals:  r.Signals,
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		rec.Location, rec.Located = coordinate(r.Lat, r.Latitude, r.Lng, r.Longitude, r.Lon)
		if rec.Located {
			located++
		}

		records = append(records, rec)
	}

	log.Info("malls loaded",
		zap.String("path", path),
		zap.Int("total", len(records)),
		zap.Int("located", located))
	return records
}

// decodeFeed handles both bare arrays and {stores|data|list: [...]}
// envelopes.
func decodeFeed[T any](data []byte, out *[]T) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return eris.New("empty feed")
	}
	if trimmed[0] == '[' {
		return eris.Wrap(json.Unmarshal(trimmed, out), "parse array feed")
	}

	var envelope struct {
		Stores []T `json:"stores"`
		Malls  []T `json:"malls"`
		Data   []T `json:"data"`
		List   []T `json:"list"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return eris.Wrap(err, "parse envelope feed")
	}
	for _, candidate := range [][]T{envelope.Stores, envelope.Malls, envelope.Data, envelope.List} {
		if len(candidate) > 0 {
			*out = candidate
			return nil
		}
	}
	return eris.New("envelope feed has no records")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// coordinate folds the lat/lng alias columns and sanitizes the result.
func coordinate(lat, latitude, lng, longitude, lon flexFloat) (model.Coordinate, bool) {
	c := model.Coordinate{
		Lat: firstNonZero(float64(lat), float64(latitude)),
		Lng: firstNonZero(float64(lng), float64(longitude), float64(lon)),
	}
	if c.Lat == 0 && c.Lng == 0 {
		return model.Coordinate{}, false
	}
	return c.Sanitize()
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func canonicalBrand(raw string, brands model.BrandSet) string {
	b := strings.TrimSpace(raw)
	switch b {
	case brands.Focal.Code, brands.Focal.Name:
		return brands.Focal.Code
	case brands.Rival.Code, brands.Rival.Name:
		return brands.Rival.Code
	}
	return b
}

func parseOpenedAt(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range openedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	zap.L().Debug("dataset: unparseable opening date", zap.String("value", s))
	return nil
}

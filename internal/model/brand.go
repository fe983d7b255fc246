package model

// Brand identifies one side of the comparison and carries its display
// metadata.
type Brand struct {
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"` // hex marker/fill color, e.g. "#2563EB"
}

// BrandSet fixes the focal/rival perspective for a comparison session.
// Classification signals, aggregation counters, and choropleth colors are
// all expressed relative to the focal brand.
type BrandSet struct {
	Focal Brand `json:"focal" yaml:"focal"`
	Rival Brand `json:"rival" yaml:"rival"`
}

// IsFocal reports whether the brand code belongs to the focal brand.
func (b BrandSet) IsFocal(code string) bool {
	return code != "" && code == b.Focal.Code
}

// IsRival reports whether the brand code belongs to the rival brand.
func (b BrandSet) IsRival(code string) bool {
	return code != "" && code == b.Rival.Code
}

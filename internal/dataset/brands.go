package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/brandatlas/footprint/internal/model"
)

// Fallback marker colors used when the registry omits them.
const (
	defaultFocalColor = "#2563EB"
	defaultRivalColor = "#9333EA"
)

type brandFile struct {
	Brands model.BrandSet `yaml:"brands"`
}

// LoadBrands reads the brand registry:
//
//	brands:
//	  focal: {code: luckin, name: 瑞幸咖啡, color: "#2F5BB7"}
//	  rival: {code: cotti, name: 库迪咖啡, color: "#6E3FA3"}
//
// Both codes are required and must differ; colors default when omitted.
func LoadBrands(path string) (model.BrandSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BrandSet{}, eris.Wrapf(err, "dataset: read brands %s", path)
	}

	var bf brandFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return model.BrandSet{}, eris.Wrapf(err, "dataset: parse brands %s", path)
	}

	brands := bf.Brands
	if brands.Focal.Code == "" || brands.Rival.Code == "" {
		return model.BrandSet{}, eris.New("dataset: brand registry needs both focal and rival codes")
	}
	if brands.Focal.Code == brands.Rival.Code {
		return model.BrandSet{}, eris.Errorf("dataset: focal and rival share code %q", brands.Focal.Code)
	}

	if brands.Focal.Color == "" {
		brands.Focal.Color = defaultFocalColor
	}
	if brands.Rival.Color == "" {
		brands.Rival.Color = defaultRivalColor
	}
	if brands.Focal.Name == "" {
		brands.Focal.Name = brands.Focal.Code
	}
	if brands.Rival.Name == "" {
		brands.Rival.Name = brands.Rival.Code
	}
	return brands, nil
}

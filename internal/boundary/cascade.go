package boundary

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CascadeSource tries each child source in order and returns the first
// success. The usual arrangement is the HTTP service first with the
// mirrored shapefile directory as the offline fallback.
type CascadeSource struct {
	sources []Source
}

// NewCascadeSource creates a cascade over the given sources, tried in
// argument order.
func NewCascadeSource(sources ...Source) *CascadeSource {
	return &CascadeSource{sources: sources}
}

// FetchBoundaries implements Source.
func (c *CascadeSource) FetchBoundaries(ctx context.Context, adcode string) ([]Shape, error) {
	if len(c.sources) == 0 {
		return nil, eris.New("boundary: cascade has no sources")
	}

	var lastErr error
	for _, src := range c.sources {
		shapes, err := src.FetchBoundaries(ctx, adcode)
		if err == nil && len(shapes) > 0 {
			return shapes, nil
		}
		if err == nil {
			err = eris.Errorf("boundary: source returned no shapes for %s", adcode)
		}
		lastErr = err
		zap.L().Debug("boundary: source failed, trying next",
			zap.String("adcode", adcode),
			zap.Error(err))
	}
	return nil, eris.Wrapf(lastErr, "boundary: all sources failed for %s", adcode)
}

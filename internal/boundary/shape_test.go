package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"adcode": 440000, "name": "广东省", "center": [113.280637, 23.125178]},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[110,20],[117,20],[117,25],[110,25],[110,20]]]]}
    },
    {
      "type": "Feature",
      "properties": {"adcode": "110000", "name": "北京市", "center": [116.405285, 39.904989]},
      "geometry": {"type": "Polygon", "coordinates": [[[115.4,39.4],[117.5,39.4],[117.5,41.1],[115.4,41.1],[115.4,39.4]]]}
    }
  ]
}`

func TestParseFeatureCollection(t *testing.T) {
	shapes, err := ParseFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)
	require.Len(t, shapes, 2)

	gd := shapes[0]
	assert.Equal(t, "广东省", gd.Name)
	assert.Equal(t, "440000", gd.Adcode)
	assert.InDelta(t, 23.125178, gd.Center.Lat, 1e-9)
	assert.InDelta(t, 113.280637, gd.Center.Lng, 1e-9)
	assert.Equal(t, 1, gd.Geometry.NumPolygons())

	// A string adcode and a bare Polygon geometry normalize the same way.
	bj := shapes[1]
	assert.Equal(t, "110000", bj.Adcode)
	assert.Equal(t, 1, bj.Geometry.NumPolygons())
}

func TestParseFeatureCollectionDropsDegenerate(t *testing.T) {
	payload := `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"adcode": 440100, "name": "", "center": [113.2, 23.1]},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[110,20],[117,20],[117,25],[110,20]]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "无码区"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[110,20],[117,20],[117,25],[110,20]]]]}
    },
    {
      "type": "Feature",
      "properties": {"adcode": 440300, "name": "深圳市"}
    },
    {
      "type": "Feature",
      "properties": {"adcode": 441900, "name": "东莞市", "center": [113.75, 23.04]},
      "geometry": {"type": "Point", "coordinates": [113.75, 23.04]}
    },
    {
      "type": "Feature",
      "properties": {"adcode": 440600, "name": "佛山市", "center": [113.12, 23.02]},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[112.5,22.5],[113.5,22.5],[113.5,23.5],[112.5,23.5],[112.5,22.5]]]]}
    }
  ]
}`

	shapes, err := ParseFeatureCollection([]byte(payload))
	require.NoError(t, err)
	require.Len(t, shapes, 1, "only the fully-formed feature survives")
	assert.Equal(t, "佛山市", shapes[0].Name)
}

func TestParseFeatureCollectionCenterFallback(t *testing.T) {
	payload := `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"adcode": 440600, "name": "佛山市"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[112,22],[114,22],[114,24],[112,24],[112,22]]]]}
    }
  ]
}`

	shapes, err := ParseFeatureCollection([]byte(payload))
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	assert.InDelta(t, 23.0, shapes[0].Center.Lat, 1e-9)
	assert.InDelta(t, 113.0, shapes[0].Center.Lng, 1e-9)
}

func TestParseFeatureCollectionMalformed(t *testing.T) {
	_, err := ParseFeatureCollection([]byte(`{"type": "FeatureCollection", "features": [`))
	assert.Error(t, err)
}

func TestParseFeatureCollectionEmptyIsNotAnError(t *testing.T) {
	shapes, err := ParseFeatureCollection([]byte(`{"type": "FeatureCollection", "features": []}`))
	require.NoError(t, err)
	assert.Empty(t, shapes, "emptiness policy belongs to the sources, not the parser")
}

func TestMarshalFeatureCollectionRoundTrips(t *testing.T) {
	shapes, err := ParseFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)

	data, err := MarshalFeatureCollection(shapes)
	require.NoError(t, err)

	again, err := ParseFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "广东省", again[0].Name)
	assert.Equal(t, "440000", again[0].Adcode)
	assert.InDelta(t, shapes[0].Center.Lng, again[0].Center.Lng, 1e-9)
	assert.Equal(t, shapes[1].Geometry.NumPolygons(), again[1].Geometry.NumPolygons())
}

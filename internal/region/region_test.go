package region

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/geometry"
)

func TestParseSquare(t *testing.T) {
	regions, err := Parse([]byte(`[{"color":[255,0,0],"contour":[[0,0],[10,0],[10,10],[0,10]]}]`))
	require.NoError(t, err)
	require.Len(t, regions, 1)

	assert.Equal(t, colorspec.Spec{255, 0, 0}, regions[0].Color)
	assert.Equal(t, []geometry.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, regions[0].Contour)
	assert.InDelta(t, 100, regions[0].Area(), 1e-9)
}

func TestParseDropsShortContour(t *testing.T) {
	_, err := Parse([]byte(`[{"color":[1,2,3],"contour":[[0,0],[1,1]]}]`))
	assert.ErrorIs(t, err, ErrNoValidPolygons)
}

func TestParseNormalisesRecords(t *testing.T) {
	doc := `[
		{"contour": [[0,0],[4,0],[4,4]]},
		{"color": "red", "contour": [[0,0],[4,0],[4,4]]},
		{"color": [1,"x",3], "contour": [[0,0],[4,0],[4,4]]},
		{"color": [1,2,3], "contour": [[0,0],[1],"bad",[2,"y"],[4,0,9],[4,4],[0,4]]},
		{"color": [1,2,3], "contour": "nope"},
		42,
		null,
		{"color": [9,9,9]}
	]`

	regions, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, regions, 4)

	assert.Equal(t, colorspec.Default(), regions[0].Color)
	assert.Nil(t, regions[1].Color)
	assert.Nil(t, regions[2].Color)
	assert.Equal(t, colorspec.White, colorspec.Resolve(regions[1].Color))
	assert.Equal(t, []geometry.Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, regions[3].Contour)
}

func TestParseWrappedDocument(t *testing.T) {
	regions, err := Parse([]byte(`{"regions":[{"color":[0,0,0],"contour":[[0,0],[1,0],[1,1]]}]}`))
	require.NoError(t, err)
	assert.Len(t, regions, 1)

	_, err = Parse([]byte(`{"shapes":[]}`))
	assert.ErrorIs(t, err, ErrNotRegionList)

	_, err = Parse([]byte(`"hello"`))
	assert.ErrorIs(t, err, ErrNotRegionList)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`[{"color":`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoValidPolygons)

	_, err = Parse(nil)
	assert.Error(t, err)

	_, err = Load(strings.NewReader("[]"))
	assert.ErrorIs(t, err, ErrNoValidPolygons)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(t.TempDir() + "/missing.json")
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	in := Sample()
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSample(t *testing.T) {
	regions := Sample()
	assert.Len(t, regions, 19)
	for _, r := range regions {
		assert.GreaterOrEqual(t, len(r.Contour), MinPoints)
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats([]int{4, 4, 5, 9, 12, 30, 7, 3, 3, 100, 8})
	assert.Equal(t, Stats{Regions: 11, Points: 185, Max: 100, P50: 7, P90: 86, P99: 100}, s)

	seq := make([]int, 150)
	for i := range seq {
		seq[i] = i + 1
	}
	s = ComputeStats(seq)
	assert.Equal(t, 75, s.P50)
	assert.Equal(t, 135, s.P90)
	assert.Equal(t, 149, s.P99)

	even := make([]int, 20)
	for i := range even {
		even[i] = i + 1
	}
	s = ComputeStats(even)
	assert.Equal(t, 10, s.P50)
	assert.Equal(t, 18, s.P90)
	assert.Equal(t, 20, s.P99)

	assert.Equal(t, Stats{}, ComputeStats(nil))
	assert.Equal(t, "regions: 0  points: 0  max: 0  p50: 0  p90: 0  p99: 0", Stats{}.String())
}

func TestRawCounts(t *testing.T) {
	counts, err := RawCounts([]byte(`[{"contour":[[0,0],[1,1]]},{"color":[1,1,1]},{"contour":[[0,0],[1,0],[1,1],[0,1]]},7]`))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 4, 0}, counts)
}

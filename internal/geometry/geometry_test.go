package geometry

import (
	"image"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xy ...int) []image.Point {
	out := make([]image.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, image.Pt(xy[i], xy[i+1]))
	}
	return out
}

func TestCleanupDropsDuplicatesAndShortSegments(t *testing.T) {
	in := pts(0, 0, 0, 0, 1, 0, 5, 0, 5, 0, 5, 5, 0, 5)

	assert.Equal(t, pts(0, 0, 1, 0, 5, 0, 5, 5, 0, 5), Cleanup(in, 0))
	assert.Equal(t, pts(0, 0, 5, 0, 5, 5, 0, 5), Cleanup(in, 2))
}

func TestCleanupKeepsFirstPoint(t *testing.T) {
	assert.Equal(t, pts(3, 3), Cleanup(pts(3, 3, 3, 4, 4, 3), 10))
	assert.Empty(t, Cleanup(nil, 1))
}

func TestCleanupIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		in := make([]image.Point, 50)
		for i := range in {
			in[i] = image.Pt(r.IntN(20), r.IntN(20))
		}
		for _, minSeg := range []float64{0, 0.8, 3, 7.5} {
			once := Cleanup(in, minSeg)
			assert.Equal(t, once, Cleanup(once, minSeg), "minSeg=%v", minSeg)
		}
	}
}

func circle(n int, r float64) []image.Point {
	out := make([]image.Point, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = image.Pt(int(math.Round(r*math.Cos(a))), int(math.Round(r*math.Sin(a))))
	}
	return out
}

func TestSimplifyThresholds(t *testing.T) {
	c := circle(300, 100)

	assert.Equal(t, c, Simplify(c, 0, DefaultSimplifyMinPoints), "epsilon 0 disables")
	assert.Equal(t, c, Simplify(c, 2, 300), "not above threshold")

	out := Simplify(c, 2, DefaultSimplifyMinPoints)
	assert.Less(t, len(out), len(c))
	assert.Equal(t, c[0], out[0])
	assert.Equal(t, c[len(c)-1], out[len(out)-1])
}

func TestSimplifyNeverBelowThree(t *testing.T) {
	line := make([]image.Point, 400)
	for i := range line {
		line[i] = image.Pt(i, 0)
	}
	out := Simplify(line, 1, 10)
	assert.Equal(t, line, out, "collinear points would collapse to 2, so the input is kept")

	r := rand.New(rand.NewPCG(7, 9))
	for range 100 {
		n := 3 + r.IntN(60)
		in := make([]image.Point, n)
		for i := range in {
			in[i] = image.Pt(r.IntN(50), r.IntN(50))
		}
		got := Simplify(in, float64(1+r.IntN(40)), 0)
		require.GreaterOrEqual(t, len(got), 3)
	}
}

func TestSimplifyKeepsCorner(t *testing.T) {
	in := make([]image.Point, 0, 21)
	for i := range 10 {
		in = append(in, image.Pt(i, 0))
	}
	for i := range 11 {
		in = append(in, image.Pt(10, i))
	}
	in = append(in, image.Pt(0, 10))

	assert.Equal(t, pts(0, 0, 10, 0, 10, 10, 0, 10), Simplify(in, 0.5, 3))
}

func square(side float64) []Point {
	return []Point{{0, 0}, {side, 0}, {side, side}, {0, side}}
}

func TestArea(t *testing.T) {
	assert.InDelta(t, 100, Area(square(10)), 1e-9)
	assert.InDelta(t, 6, Area([]Point{{0, 0}, {4, 0}, {0, 3}}), 1e-9)
	assert.Zero(t, Area([]Point{{0, 0}, {1, 1}}))
}

func TestAreaInvariantUnderRotationAndReversal(t *testing.T) {
	poly := []Point{{0, 0}, {7, 1}, {9, 6}, {3, 9}, {-2, 4}}
	want := Area(poly)

	for k := range poly {
		rotated := append(slices.Clone(poly[k:]), poly[:k]...)
		assert.InDelta(t, want, Area(rotated), 1e-9)

		reversed := slices.Clone(rotated)
		slices.Reverse(reversed)
		assert.InDelta(t, want, Area(reversed), 1e-9)
	}
}

func TestBounds(t *testing.T) {
	minX, minY, maxX, maxY, ok := Bounds(square(2), []Point{{-1, 5}})
	require.True(t, ok)
	assert.Equal(t, []float64{-1, 0, 2, 5}, []float64{minX, minY, maxX, maxY})

	_, _, _, _, ok = Bounds()
	assert.False(t, ok)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderArea, o)

	o, err = ParseOrder(" SmallFirst ")
	require.NoError(t, err)
	assert.Equal(t, OrderSmallFirst, o)

	_, err = ParseOrder("biggest")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestSortOrders(t *testing.T) {
	sides := []float64{3, 10, 1, 7, 3}
	area := func(s float64) float64 { return Area(square(s)) }

	byArea := slices.Clone(sides)
	Sort(byArea, OrderArea, area, nil)
	assert.Equal(t, []float64{10, 7, 3, 3, 1}, byArea)
	for i := 1; i < len(byArea); i++ {
		assert.GreaterOrEqual(t, area(byArea[i-1]), area(byArea[i]))
	}

	small := slices.Clone(sides)
	Sort(small, OrderSmallFirst, area, nil)
	assert.Equal(t, []float64{1, 3, 3, 7, 10}, small)

	input := slices.Clone(sides)
	Sort(input, OrderInput, area, nil)
	assert.Equal(t, sides, input)
}

func TestSortRandomIsSeeded(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	a, b := slices.Clone(items), slices.Clone(items)
	noArea := func(int) float64 { return 0 }

	Sort(a, OrderRandom, noArea, rand.New(rand.NewPCG(42, 0)))
	Sort(b, OrderRandom, noArea, rand.New(rand.NewPCG(42, 0)))

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, items, a)
}

func zeroArea(int) float64 { return 0 }

func TestNewRandIsReproducible(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := slices.Clone(a)
	Sort(a, OrderRandom, zeroArea, NewRand(99))
	Sort(b, OrderRandom, zeroArea, NewRand(99))
	assert.Equal(t, a, b)
}

func TestSortRandomWithNilSourceStillShuffles(t *testing.T) {
	in := make([]int, 64)
	for i := range in {
		in[i] = i
	}
	out := slices.Clone(in)
	Sort(out, OrderRandom, zeroArea, nil)

	assert.NotEqual(t, in, out, "64 items keep input order with negligible probability")
	sorted := slices.Clone(out)
	slices.Sort(sorted)
	assert.Equal(t, in, sorted)
}

package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geomio/gserial/errs"
)

func TestNextFloatRounding(t *testing.T) {
	vals := []float64{0, 1, -1, 0.1, -0.1, 1e-40, 1e40, -1e40, math.Pi, -math.Pi, 123456789.123}
	for _, v := range vals {
		down := float64(NextFloatDown(v))
		up := float64(NextFloatUp(v))
		require.LessOrEqual(t, down, v, "down(%v)", v)
		require.GreaterOrEqual(t, up, v, "up(%v)", v)
	}

	t.Run("exact float32 values are fixed points", func(t *testing.T) {
		require.Equal(t, float32(1.5), NextFloatDown(1.5))
		require.Equal(t, float32(1.5), NextFloatUp(1.5))
	})

	t.Run("saturates beyond float32 range", func(t *testing.T) {
		require.Equal(t, float32(math.Inf(1)), NextFloatUp(1e300))
		require.Equal(t, float32(math.MaxFloat32), NextFloatDown(1e300))
		require.Equal(t, float32(math.Inf(-1)), NextFloatDown(-1e300))
		require.Equal(t, float32(-math.MaxFloat32), NextFloatUp(-1e300))
	})
}

func TestGBoxMerge(t *testing.T) {
	var b GBox
	b.SetPoint(Point4D{X: 1, Y: 2, Z: 3, M: 4})
	b.MergePoint(Point4D{X: -1, Y: 5, Z: 0, M: 9})

	require.Equal(t, -1.0, b.XMin)
	require.Equal(t, 1.0, b.XMax)
	require.Equal(t, 2.0, b.YMin)
	require.Equal(t, 5.0, b.YMax)
	require.Equal(t, 0.0, b.ZMin)
	require.Equal(t, 9.0, b.MMax)

	other := &GBox{XMin: -10, XMax: -5, YMin: 0, YMax: 1}
	b.Merge(other)
	require.Equal(t, -10.0, b.XMin)
}

func TestNeedsBBox(t *testing.T) {
	pa := func(ords ...float64) *PointArray {
		p, err := NewPointArrayFromOrds(false, false, ords)
		require.NoError(t, err)

		return p
	}

	t.Run("point never", func(t *testing.T) {
		require.False(t, NeedsBBox(NewPoint(0, false, false, Point4D{X: 1, Y: 1})))
	})

	t.Run("short line no, long line yes", func(t *testing.T) {
		require.False(t, NeedsBBox(NewLineString(0, pa(0, 0, 1, 1))))
		require.True(t, NeedsBBox(NewLineString(0, pa(0, 0, 1, 1, 2, 2))))
	})

	t.Run("singleton multipoint no", func(t *testing.T) {
		one, err := NewCollectionWith(TypeMultiPoint, 0, false, false,
			NewPoint(0, false, false, Point4D{X: 1, Y: 1}))
		require.NoError(t, err)
		require.False(t, NeedsBBox(one))

		two, err := NewCollectionWith(TypeMultiPoint, 0, false, false,
			NewPoint(0, false, false, Point4D{X: 1, Y: 1}),
			NewPoint(0, false, false, Point4D{X: 2, Y: 2}))
		require.NoError(t, err)
		require.True(t, NeedsBBox(two))
	})

	t.Run("singleton short multiline no", func(t *testing.T) {
		short, err := NewCollectionWith(TypeMultiLineString, 0, false, false,
			NewLineString(0, pa(0, 0, 1, 1)))
		require.NoError(t, err)
		require.False(t, NeedsBBox(short))

		long, err := NewCollectionWith(TypeMultiLineString, 0, false, false,
			NewLineString(0, pa(0, 0, 1, 1, 2, 2)))
		require.NoError(t, err)
		require.True(t, NeedsBBox(long))
	})

	t.Run("everything else yes", func(t *testing.T) {
		require.True(t, NeedsBBox(NewCircularString(0, pa(0, 0, 1, 1, 2, 0))))
		require.True(t, NeedsBBox(NewEmptyNurbsCurve(0, false, false)))
	})
}

func TestCalculateGBox(t *testing.T) {
	t.Run("polygon", func(t *testing.T) {
		shell, err := NewPointArrayFromOrds(false, false,
			[]float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0})
		require.NoError(t, err)
		pg, err := NewPolygon(0, false, false, shell)
		require.NoError(t, err)

		box, err := CalculateGBox(pg)
		require.NoError(t, err)
		require.Equal(t, 0.0, box.XMin)
		require.Equal(t, 4.0, box.XMax)
		require.Equal(t, 4.0, box.YMax)
	})

	t.Run("collection spans members", func(t *testing.T) {
		gc, err := NewCollectionWith(TypeGeometryCollection, 0, false, false,
			NewPoint(0, false, false, Point4D{X: -5, Y: 1}),
			NewPoint(0, false, false, Point4D{X: 7, Y: -2}))
		require.NoError(t, err)

		box, err := CalculateGBox(gc)
		require.NoError(t, err)
		require.Equal(t, -5.0, box.XMin)
		require.Equal(t, 7.0, box.XMax)
		require.Equal(t, -2.0, box.YMin)
		require.Equal(t, 1.0, box.YMax)
	})

	t.Run("empty fails", func(t *testing.T) {
		_, err := CalculateGBox(NewEmptyPoint(0, false, false))
		require.ErrorIs(t, err, errs.ErrEmptyGeometry)
	})

	t.Run("box contains coordinates after rounding", func(t *testing.T) {
		pa, err := NewPointArrayFromOrds(false, false,
			[]float64{0.1, 0.2, 0.3, 0.7, 1.0 / 3.0, -0.9})
		require.NoError(t, err)
		ls := NewLineString(0, pa)
		box, err := CalculateGBox(ls)
		require.NoError(t, err)
		box.FloatRound()

		for i := 0; i < pa.Len(); i++ {
			p, err := pa.PointAt(i)
			require.NoError(t, err)
			require.True(t, box.XMin <= p.X && p.X <= box.XMax)
			require.True(t, box.YMin <= p.Y && p.Y <= box.YMax)
		}
	})
}

package blob

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

func mustSerialize(t *testing.T, g geom.Geometry) *Blob {
	t.Helper()
	b, err := Serialize(g)
	require.NoError(t, err)
	require.Equal(t, uint32(len(b.Bytes())), b.Size())

	return b
}

func ordsLine(t *testing.T, hasZ, hasM bool, ords ...float64) *geom.LineString {
	t.Helper()
	pa, err := geom.NewPointArrayFromOrds(hasZ, hasM, ords)
	require.NoError(t, err)

	return geom.NewLineString(0, pa)
}

func TestSerializePointRoundTrip(t *testing.T) {
	t.Run("2d", func(t *testing.T) {
		pt := geom.NewPoint(4326, false, false, geom.Point4D{X: 1.5, Y: -2.25})
		b := mustSerialize(t, pt)

		require.False(t, b.HasBBox())
		require.Equal(t, int32(4326), b.SRID())

		g, err := b.Deserialize()
		require.NoError(t, err)
		out, ok := g.(*geom.Point)
		require.True(t, ok)
		require.Equal(t, int32(4326), out.SRID())
		c, err := out.Coord()
		require.NoError(t, err)
		require.Equal(t, geom.Point4D{X: 1.5, Y: -2.25}, c)
		require.Nil(t, out.BBox())
	})

	t.Run("4d", func(t *testing.T) {
		pt := geom.NewPoint(0, true, true, geom.Point4D{X: 1, Y: 2, Z: 3, M: 4})
		b := mustSerialize(t, pt)
		require.True(t, b.HasZ())
		require.True(t, b.HasM())
		require.Equal(t, 4, b.NDims())

		g, err := b.Deserialize()
		require.NoError(t, err)
		c, err := g.(*geom.Point).Coord()
		require.NoError(t, err)
		require.Equal(t, geom.Point4D{X: 1, Y: 2, Z: 3, M: 4}, c)
	})

	t.Run("empty", func(t *testing.T) {
		pt := geom.NewEmptyPoint(3857, false, true)
		b := mustSerialize(t, pt)

		empty, err := b.IsEmpty()
		require.NoError(t, err)
		require.True(t, empty)

		g, err := b.Deserialize()
		require.NoError(t, err)
		require.True(t, g.IsEmpty())
		require.True(t, g.Flags().HasM())
		require.Equal(t, int32(3857), g.SRID())
	})
}

func TestSerializeLineBBoxPolicy(t *testing.T) {
	t.Run("two points skip the box", func(t *testing.T) {
		ls := ordsLine(t, false, false, 0, 0, 10, 10)
		b := mustSerialize(t, ls)
		require.False(t, b.HasBBox())
	})

	t.Run("three points store one", func(t *testing.T) {
		ls := ordsLine(t, false, false, 0, 0, 5, 9, 10, 1)
		b := mustSerialize(t, ls)
		require.True(t, b.HasBBox())

		box, err := b.ReadGBox()
		require.NoError(t, err)
		require.Equal(t, 0.0, box.XMin)
		require.Equal(t, 10.0, box.XMax)
		require.Equal(t, 0.0, box.YMin)
		require.Equal(t, 9.0, box.YMax)

		g, err := b.Deserialize()
		require.NoError(t, err)
		require.NotNil(t, g.BBox())
		require.True(t, box.Equal(g.BBox()))
	})
}

func TestSerializePolygonPadding(t *testing.T) {
	shell, err := geom.NewPointArrayFromOrds(false, false,
		[]float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0})
	require.NoError(t, err)
	pg, err := geom.NewPolygon(0, false, false, shell)
	require.NoError(t, err)

	b := mustSerialize(t, pg)
	// type + nrings + one count + pad, then 5 2d vertices.
	require.Equal(t, 16+5*16, len(b.Payload()))

	g, err := b.Deserialize()
	require.NoError(t, err)
	out, ok := g.(*geom.Polygon)
	require.True(t, ok)
	require.Equal(t, 1, out.NumRings())
	require.Equal(t, shell.Ords(), out.Ring(0).Ords())
}

func TestSerializeCollection(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		inner, err := geom.NewCollectionWith(geom.TypeMultiPoint, 0, false, false,
			geom.NewPoint(0, false, false, geom.Point4D{X: 1, Y: 1}),
			geom.NewPoint(0, false, false, geom.Point4D{X: 2, Y: 2}))
		require.NoError(t, err)
		outer, err := geom.NewCollectionWith(geom.TypeGeometryCollection, 27700, false, false,
			inner, ordsLine(t, false, false, 0, 0, 1, 1))
		require.NoError(t, err)

		b := mustSerialize(t, outer)
		g, err := b.Deserialize()
		require.NoError(t, err)

		col, ok := g.(*geom.Collection)
		require.True(t, ok)
		require.Equal(t, geom.TypeGeometryCollection, col.Type())
		require.Equal(t, int32(27700), col.SRID())
		require.Equal(t, 2, col.NumGeoms())
		sub, ok := col.Geom(0).(*geom.Collection)
		require.True(t, ok)
		require.Equal(t, geom.TypeMultiPoint, sub.Type())
		require.Equal(t, 2, sub.NumGeoms())
	})

	t.Run("subtype enforced on decode", func(t *testing.T) {
		// A multipoint record whose member claims to be a linestring.
		inner, err := geom.NewCollectionWith(geom.TypeMultiPoint, 0, false, false,
			geom.NewPoint(0, false, false, geom.Point4D{X: 1, Y: 1}))
		require.NoError(t, err)
		b := mustSerialize(t, inner)

		buf := b.Bytes()
		p := b.headerSize()
		// Member type word sits after the collection type and count.
		endian.NativeEngine().PutUint32(buf[p+8:], uint32(geom.TypeLineString))
		_, err = Deserialize(buf)
		require.ErrorIs(t, err, errs.ErrInvalidSubtype)
	})
}

func TestSerializeSolid(t *testing.T) {
	shell, err := geom.NewPointArrayFromOrds(true, false,
		[]float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0})
	require.NoError(t, err)
	face, err := geom.NewPolygon(0, true, false, shell)
	require.NoError(t, err)
	ps, err := geom.NewCollectionWith(geom.TypePolyhedralSurface, 0, true, false, face)
	require.NoError(t, err)
	flags := ps.Flags()
	flags.SetSolid(true)
	ps.SetFlags(flags)

	b := mustSerialize(t, ps)
	require.True(t, b.Flags().HasExtended())
	require.True(t, b.IsSolid())

	g, err := b.Deserialize()
	require.NoError(t, err)
	require.True(t, g.Flags().IsSolid())
}

func TestSerializeNurbs(t *testing.T) {
	pa, err := geom.NewPointArrayFromOrds(false, false,
		[]float64{0, 0, 1, 2, 3, 2, 4, 0})
	require.NoError(t, err)

	t.Run("rational round trip", func(t *testing.T) {
		weights := []float64{1, 2, 2, 1}
		knots, err := geom.UniformKnots(2, 4)
		require.NoError(t, err)
		nc, err := geom.NewNurbsCurve(4326, 2, pa, weights, knots)
		require.NoError(t, err)

		b := mustSerialize(t, nc)
		require.True(t, b.HasBBox())

		g, err := b.Deserialize()
		require.NoError(t, err)
		out, ok := g.(*geom.NurbsCurve)
		require.True(t, ok)
		require.Equal(t, 2, out.Degree())
		require.Equal(t, weights, out.Weights())
		require.Equal(t, knots, out.Knots())
		require.Equal(t, pa.Ords(), out.ControlPoints().Ords())
		require.Equal(t, int32(4326), out.SRID())
	})

	t.Run("implicit knots materialize", func(t *testing.T) {
		nc, err := geom.NewNurbsCurve(0, 3, pa, nil, nil)
		require.NoError(t, err)
		b := mustSerialize(t, nc)

		g, err := b.Deserialize()
		require.NoError(t, err)
		out := g.(*geom.NurbsCurve)
		require.False(t, out.IsRational())
		want, err := geom.UniformKnots(3, 4)
		require.NoError(t, err)
		require.Equal(t, want, out.Knots())
	})

	t.Run("empty curve in collection", func(t *testing.T) {
		col, err := geom.NewCollectionWith(geom.TypeGeometryCollection, 0, false, false,
			geom.NewEmptyNurbsCurve(0, false, false),
			geom.NewEmptyPoint(0, false, false))
		require.NoError(t, err)

		b := mustSerialize(t, col)
		empty, err := b.IsEmpty()
		require.NoError(t, err)
		require.True(t, empty)

		g, err := b.Deserialize()
		require.NoError(t, err)
		require.True(t, g.IsEmpty())
	})
}

func TestSRIDCodec(t *testing.T) {
	tests := []struct {
		name string
		in   int32
		want int32
	}{
		{"plain", 4326, 4326},
		{"zero", 0, geom.SRIDUnknown},
		{"negative clamps to unknown", -15, geom.SRIDUnknown},
		{"above max clamps", geom.SRIDMax + 5, geom.SRIDMax},
		{"max", geom.SRIDMax, geom.SRIDMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := geom.NewPoint(tt.in, false, false, geom.Point4D{X: 1, Y: 1})
			b := mustSerialize(t, pt)
			require.Equal(t, tt.want, b.SRID())
		})
	}

	t.Run("set in place", func(t *testing.T) {
		b := mustSerialize(t, geom.NewPoint(0, false, false, geom.Point4D{}))
		b.SetSRID(312)
		require.Equal(t, int32(312), b.SRID())
	})
}

func TestFromBytesValidation(t *testing.T) {
	valid := mustSerialize(t, geom.NewPoint(0, false, false, geom.Point4D{X: 1, Y: 2})).Bytes()

	t.Run("short buffer", func(t *testing.T) {
		_, err := FromBytes(valid[:6])
		require.ErrorIs(t, err, errs.ErrRecordTooShort)
	})

	t.Run("bad version", func(t *testing.T) {
		buf := make([]byte, len(valid))
		copy(buf, valid)
		buf[7] &^= 0xE0
		_, err := FromBytes(buf)
		require.ErrorIs(t, err, errs.ErrInvalidFlags)
	})

	t.Run("size mismatch", func(t *testing.T) {
		buf := make([]byte, len(valid)+8)
		copy(buf, valid)
		_, err := FromBytes(buf)
		require.ErrorIs(t, err, errs.ErrInvalidRecordSize)
	})
}

func TestPeekGBox(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		b := mustSerialize(t, geom.NewPoint(0, false, false, geom.Point4D{X: 3, Y: 7}))
		box, err := b.PeekGBox()
		require.NoError(t, err)
		require.Equal(t, 3.0, box.XMin)
		require.Equal(t, 3.0, box.XMax)
		require.Equal(t, 7.0, box.YMin)
	})

	t.Run("two point line", func(t *testing.T) {
		b := mustSerialize(t, ordsLine(t, false, false, 9, 1, 2, 8))
		box, err := b.PeekGBox()
		require.NoError(t, err)
		require.Equal(t, 2.0, box.XMin)
		require.Equal(t, 9.0, box.XMax)
		require.Equal(t, 1.0, box.YMin)
		require.Equal(t, 8.0, box.YMax)
	})

	t.Run("singleton multipoint", func(t *testing.T) {
		mp, err := geom.NewCollectionWith(geom.TypeMultiPoint, 0, true, false,
			geom.NewPoint(0, true, false, geom.Point4D{X: 1, Y: 2, Z: 3}))
		require.NoError(t, err)
		b := mustSerialize(t, mp)
		require.False(t, b.HasBBox())

		box, err := b.PeekGBox()
		require.NoError(t, err)
		require.Equal(t, 1.0, box.XMin)
		require.Equal(t, 3.0, box.ZMax)
	})

	t.Run("singleton multiline", func(t *testing.T) {
		ml, err := geom.NewCollectionWith(geom.TypeMultiLineString, 0, false, false,
			ordsLine(t, false, false, -4, 0, 4, 2))
		require.NoError(t, err)
		b := mustSerialize(t, ml)
		require.False(t, b.HasBBox())

		box, err := b.PeekGBox()
		require.NoError(t, err)
		require.Equal(t, -4.0, box.XMin)
		require.Equal(t, 4.0, box.XMax)
	})

	t.Run("boxed record declines", func(t *testing.T) {
		b := mustSerialize(t, ordsLine(t, false, false, 0, 0, 1, 1, 2, 0))
		_, err := b.PeekGBox()
		require.ErrorIs(t, err, errs.ErrNoBoundingBox)
	})

	t.Run("empty point declines", func(t *testing.T) {
		b := mustSerialize(t, geom.NewEmptyPoint(0, false, false))
		_, err := b.PeekGBox()
		require.ErrorIs(t, err, errs.ErrNoBoundingBox)
	})
}

func TestGBoxLadder(t *testing.T) {
	t.Run("full compute fallback", func(t *testing.T) {
		// A 4 point line without a stored box never qualifies for a peek.
		b := mustSerialize(t, ordsLine(t, false, false, 0, 0, 1, 5, 2, -3, 3, 0)).DropGBox()
		require.False(t, b.HasBBox())

		_, err := b.FastGBox()
		require.ErrorIs(t, err, errs.ErrNoBoundingBox)

		box, err := b.GetGBox()
		require.NoError(t, err)
		require.Equal(t, 0.0, box.XMin)
		require.Equal(t, 3.0, box.XMax)
		require.Equal(t, -3.0, box.YMin)
		require.Equal(t, 5.0, box.YMax)
	})

	t.Run("empty has no box", func(t *testing.T) {
		b := mustSerialize(t, geom.NewEmptyPoint(0, false, false))
		_, err := b.GetGBox()
		require.ErrorIs(t, err, errs.ErrEmptyGeometry)
	})
}

func TestSetAndDropGBox(t *testing.T) {
	line := ordsLine(t, false, false, 0, 0, 10, 10)

	t.Run("add to boxless record", func(t *testing.T) {
		b := mustSerialize(t, line)
		require.False(t, b.HasBBox())

		box, err := b.PeekGBox()
		require.NoError(t, err)
		boxed, err := b.SetGBox(box)
		require.NoError(t, err)
		require.True(t, boxed.HasBBox())
		require.Equal(t, len(b.Bytes())+16, len(boxed.Bytes()))
		require.Equal(t, uint32(len(boxed.Bytes())), boxed.Size())

		got, err := boxed.ReadGBox()
		require.NoError(t, err)
		require.True(t, box.Equal(got))

		// The payload must survive the move untouched.
		g, err := boxed.Deserialize()
		require.NoError(t, err)
		require.Equal(t, line.Points().Ords(), g.(*geom.LineString).Points().Ords())
	})

	t.Run("overwrite in place", func(t *testing.T) {
		b := mustSerialize(t, ordsLine(t, false, false, 0, 0, 1, 1, 2, 2))
		require.True(t, b.HasBBox())

		box, err := b.ReadGBox()
		require.NoError(t, err)
		box.XMax = 100
		same, err := b.SetGBox(box)
		require.NoError(t, err)
		require.Same(t, b, same)

		got, err := b.ReadGBox()
		require.NoError(t, err)
		require.Equal(t, 100.0, got.XMax)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		b := mustSerialize(t, line)
		box := &geom.GBox{Flags: geom.MakeFlags(true, false)}
		_, err := b.SetGBox(box)
		require.ErrorIs(t, err, errs.ErrDimensionMismatch)
	})

	t.Run("add then drop restores the record", func(t *testing.T) {
		b := mustSerialize(t, line)
		original := append([]byte(nil), b.Bytes()...)

		box, err := b.PeekGBox()
		require.NoError(t, err)
		boxed, err := b.SetGBox(box)
		require.NoError(t, err)

		require.Equal(t, original, boxed.DropGBox().Bytes())
	})

	t.Run("drop", func(t *testing.T) {
		b := mustSerialize(t, ordsLine(t, false, false, 0, 0, 1, 1, 2, 2))
		require.True(t, b.HasBBox())

		dropped := b.DropGBox()
		require.False(t, dropped.HasBBox())
		require.Equal(t, len(b.Bytes())-16, len(dropped.Bytes()))

		g, err := dropped.Deserialize()
		require.NoError(t, err)
		require.Equal(t, 3, g.(*geom.LineString).Points().Len())
	})
}

func TestPeekFirstPoint(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		b := mustSerialize(t, geom.NewPoint(0, true, false, geom.Point4D{X: 1, Y: 2, Z: 3}))
		p, err := b.PeekFirstPoint()
		require.NoError(t, err)
		require.Equal(t, geom.Point4D{X: 1, Y: 2, Z: 3}, p)
	})

	t.Run("empty point", func(t *testing.T) {
		b := mustSerialize(t, geom.NewEmptyPoint(0, false, false))
		_, err := b.PeekFirstPoint()
		require.ErrorIs(t, err, errs.ErrEmptyGeometry)
	})

	t.Run("not a point", func(t *testing.T) {
		b := mustSerialize(t, ordsLine(t, false, false, 0, 0, 1, 1))
		_, err := b.PeekFirstPoint()
		require.ErrorIs(t, err, errs.ErrInvalidGeometryType)
	})
}

func TestHash(t *testing.T) {
	line := ordsLine(t, false, false, 0, 0, 1, 1, 2, 2)
	line.SetSRID(4326)

	boxed := mustSerialize(t, line)
	require.True(t, boxed.HasBBox())
	dropped := boxed.DropGBox()

	t.Run("box state does not change the hash", func(t *testing.T) {
		require.Equal(t, boxed.Hash(), dropped.Hash())
	})

	t.Run("srid changes the hash", func(t *testing.T) {
		other := boxed.DropGBox()
		other.SetSRID(3857)
		require.NotEqual(t, dropped.Hash(), other.Hash())
	})

	t.Run("coordinates change the hash", func(t *testing.T) {
		other := ordsLine(t, false, false, 0, 0, 1, 1, 2, 3)
		other.SetSRID(4326)
		require.NotEqual(t, boxed.Hash(), mustSerialize(t, other).Hash())
	})
}

func TestGeodeticRecord(t *testing.T) {
	pa, err := geom.NewPointArrayFromOrds(true, false,
		[]float64{0, 0, 0, 10, 10, 0, 20, 0, 5})
	require.NoError(t, err)
	ls := geom.NewLineString(4326, pa)
	flags := ls.Flags()
	flags.SetGeodetic(true)
	ls.SetFlags(flags)

	b := mustSerialize(t, ls)
	require.True(t, b.IsGeodetic())
	require.True(t, b.HasBBox())
	// Geodetic boxes always store three dimensions.
	require.Equal(t, 24, b.boxSize())

	box, err := b.ReadGBox()
	require.NoError(t, err)
	require.True(t, box.Flags.IsGeodetic())
	require.Equal(t, 0.0, box.ZMin)
	require.Equal(t, 5.0, box.ZMax)

	g, err := b.Deserialize()
	require.NoError(t, err)
	require.True(t, g.Flags().IsGeodetic())
}

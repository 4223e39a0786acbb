package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveIdentity(t *testing.T) {
	doc := NewDocument("test")
	a := doc.NewObject("A", nil)
	b := doc.NewObject("B", nil)

	c1 := a.Curve(PathLocation, 0)
	c2 := a.Curve(PathLocation, 0)
	assert.Same(t, c1, c2, "same (object, path, index) must share a curve")

	assert.NotSame(t, c1, a.Curve(PathLocation, 1))
	assert.NotSame(t, c1, b.Curve(PathLocation, 0))
	assert.Len(t, a.Anim.Curves(), 2)
	assert.Equal(t, 3, doc.CurveCount())
	assert.Nil(t, b.Anim.Find(PathScale, 0))
}

func TestEvaluate(t *testing.T) {
	c := &Curve{}
	c.Add(LinearKey(0, 0), LinearKey(10, 10))
	hold := LinearKey(20, 5)
	hold.Interpolation = InterpolationConstant
	c.Add(hold, LinearKey(30, 0))

	tests := []struct {
		x, want float64
	}{
		{-5, 0},   // before first keyframe
		{5, 5},    // linear
		{10, 10},  // on a key
		{15, 7.5}, // linear towards the hold key
		{25, 5},   // held
		{40, 0},   // after last keyframe
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.Evaluate(tt.x), 1e-9, "x=%v", tt.x)
	}
	assert.False(t, c.IsConstant())
}

func TestEvaluateBezier(t *testing.T) {
	// Handles on the chord at thirds reproduce a straight line.
	c := &Curve{}
	c.Add(
		Keyframe{Co: Point{0, 0}, HandleRight: Point{10, 10}, Interpolation: InterpolationBezier},
		Keyframe{Co: Point{30, 30}, HandleLeft: Point{20, 20}, Interpolation: InterpolationBezier},
	)
	for _, x := range []float64{3, 12.5, 29} {
		assert.InDelta(t, x, c.Evaluate(x), 1e-6)
	}

	// Flat handles ease in and out: the midpoint is still half way, the
	// quarter point lags behind linear.
	e := &Curve{}
	e.Add(
		Keyframe{Co: Point{0, 0}, HandleRight: Point{10, 0}, Interpolation: InterpolationBezier},
		Keyframe{Co: Point{20, 10}, HandleLeft: Point{10, 10}, Interpolation: InterpolationBezier},
	)
	assert.InDelta(t, 5, e.Evaluate(10), 1e-6)
	assert.Less(t, e.Evaluate(5), 2.5)
}

func TestEvaluateOvershootingHandles(t *testing.T) {
	c := &Curve{}
	c.Add(
		Keyframe{Co: Point{0, 0}, HandleRight: Point{50, 0}, Interpolation: InterpolationBezier},
		Keyframe{Co: Point{10, 10}, HandleLeft: Point{-40, 10}, Interpolation: InterpolationBezier},
	)
	prev := c.Evaluate(0)
	for x := 0.5; x <= 10; x += 0.5 {
		v := c.Evaluate(x)
		assert.GreaterOrEqual(t, v, prev-1e-9, "x=%v", x)
		prev = v
	}
}

func TestSetParentCycle(t *testing.T) {
	doc := NewDocument("test")
	a := doc.NewObject("A", nil)
	b := doc.NewObject("B", nil)
	c := doc.NewObject("C", nil)

	require.NoError(t, b.SetParent(a))
	require.NoError(t, c.SetParent(b))

	err := a.SetParent(c)
	assert.True(t, errors.Is(err, ErrParentCycle))
	assert.Nil(t, a.Parent)

	assert.ErrorIs(t, a.SetParent(a), ErrParentCycle)

	require.NoError(t, c.SetParent(a))
	assert.Equal(t, []*Object{b, c}, a.Children())
	assert.Empty(t, b.Children())
}

func TestUniqueNames(t *testing.T) {
	doc := NewDocument("test")
	assert.Equal(t, "Camera", doc.NewObject("Camera", NewCamera("Camera")).Name)
	assert.Equal(t, "Camera.001", doc.NewObject("Camera", nil).Name)
	assert.Equal(t, "Camera.002", doc.NewObject("Camera", nil).Name)
	assert.NotNil(t, doc.Object("Camera.001"))
}

func TestTargetSet(t *testing.T) {
	doc := NewDocument("test")
	cam := doc.NewObject("Cam", NewCamera("Cam"))
	empty := doc.NewObject("Empty", nil)

	require.NoError(t, Location(2).Set(cam, 4))
	require.NoError(t, RotationQuaternion(3).Set(cam, 0.5))
	require.NoError(t, Lens().Set(cam, 35))
	assert.Equal(t, 4.0, cam.Location[2])
	assert.Equal(t, 0.5, cam.RotationQuaternion[3])
	assert.Equal(t, 35.0, cam.Camera().Lens)

	assert.Error(t, Lens().Set(empty, 35))
	assert.Error(t, Location(3).Set(empty, 1))
	assert.Error(t, Target{PathLens, 0}.Set(cam, 1))

	v, err := Lens().Get(cam)
	require.NoError(t, err)
	assert.Equal(t, 35.0, v)
}

func TestParsePath(t *testing.T) {
	for p := PathLocation; p <= PathLens; p++ {
		got, err := ParsePath(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePath("color")
	assert.Error(t, err)
}

func TestTimeline(t *testing.T) {
	var tl Timeline
	assert.Nil(t, tl.MarkerAt(10))
	m := tl.NewMarker("M_Cam", 10)
	assert.Same(t, m, tl.MarkerAt(10))
}

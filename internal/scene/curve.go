package scene

import (
	"fmt"
	"math"
)

// Interpolation describes how a curve moves from a keyframe to the next one.
type Interpolation string

const (
	InterpolationConstant Interpolation = "CONSTANT"
	InterpolationLinear   Interpolation = "LINEAR"
	InterpolationBezier   Interpolation = "BEZIER"
)

// HandleType controls whether a Bezier handle is recomputed by the host.
type HandleType string

const (
	HandleFree        HandleType = "FREE"
	HandleAutoClamped HandleType = "AUTO_CLAMPED"
	HandleVector      HandleType = "VECTOR"
)

// Point is a (frame, value) pair.
type Point struct {
	X, Y float64
}

// Keyframe is one control point of a Curve.
type Keyframe struct {
	Co              Point
	HandleLeft      Point
	HandleRight     Point
	Interpolation   Interpolation
	HandleLeftType  HandleType
	HandleRightType HandleType
}

// LinearKey returns a linearly interpolated keyframe with handles collapsed
// onto the point.
func LinearKey(x, y float64) Keyframe {
	p := Point{x, y}
	return Keyframe{
		Co:              p,
		HandleLeft:      p,
		HandleRight:     p,
		Interpolation:   InterpolationLinear,
		HandleLeftType:  HandleVector,
		HandleRightType: HandleVector,
	}
}

// Curve animates one component of one property. Keys are kept in the order
// they were added; importers add them in time order.
type Curve struct {
	Path  Path
	Index int
	Keys  []Keyframe
}

// Target returns the property component this curve drives.
func (c *Curve) Target() Target {
	return Target{c.Path, c.Index}
}

// Add appends keyframes.
func (c *Curve) Add(keys ...Keyframe) {
	c.Keys = append(c.Keys, keys...)
}

// Range returns the frames of the first and last keyframe.
func (c *Curve) Range() (start, end float64, ok bool) {
	if len(c.Keys) == 0 {
		return 0, 0, false
	}
	return c.Keys[0].Co.X, c.Keys[len(c.Keys)-1].Co.X, true
}

// IsConstant reports whether every segment holds its value.
func (c *Curve) IsConstant() bool {
	for _, k := range c.Keys[:max(len(c.Keys)-1, 0)] {
		if k.Interpolation != InterpolationConstant {
			return false
		}
	}
	return true
}

// Evaluate returns the curve value at frame x. Before the first key and after
// the last one the curve holds the end values.
func (c *Curve) Evaluate(x float64) float64 {
	keys := c.Keys
	if len(keys) == 0 {
		return 0
	}
	if x <= keys[0].Co.X {
		return keys[0].Co.Y
	}
	last := keys[len(keys)-1]
	if x >= last.Co.X {
		return last.Co.Y
	}

	// Find surrounding keyframes
	i := 0
	for ; i < len(keys)-1; i++ {
		if x >= keys[i].Co.X && x < keys[i+1].Co.X {
			break
		}
	}
	prev, next := keys[i], keys[i+1]

	switch prev.Interpolation {
	case InterpolationConstant:
		return prev.Co.Y
	case InterpolationBezier:
		return evalBezier(prev.Co, prev.HandleRight, next.HandleLeft, next.Co, x)
	default:
		span := next.Co.X - prev.Co.X
		if span == 0 {
			return next.Co.Y
		}
		return lerp(prev.Co.Y, next.Co.Y, (x-prev.Co.X)/span)
	}
}

// evalBezier evaluates the cubic segment p0-h1-h2-p3 at frame x. Handles that
// reach past the neighboring key are shortened so x(t) stays monotonic.
func evalBezier(p0, h1, h2, p3 Point, x float64) float64 {
	span := p3.X - p0.X
	if span <= 0 {
		return p3.Y
	}
	len1 := math.Max(h1.X-p0.X, 0)
	len2 := math.Max(p3.X-h2.X, 0)
	if len1+len2 > span {
		fac := span / (len1 + len2)
		h1 = Point{p0.X + (h1.X-p0.X)*fac, p0.Y + (h1.Y-p0.Y)*fac}
		h2 = Point{p3.X - (p3.X-h2.X)*fac, p3.Y - (p3.Y-h2.Y)*fac}
	}
	h1.X = math.Max(h1.X, p0.X)
	h2.X = math.Min(h2.X, p3.X)

	lo, hi := 0.0, 1.0
	t := (x - p0.X) / span
	for iter := 0; iter < 64; iter++ {
		bx := bezier(p0.X, h1.X, h2.X, p3.X, t)
		if math.Abs(bx-x) < 1e-10 {
			break
		}
		if bx < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return bezier(p0.Y, h1.Y, h2.Y, p3.Y, t)
}

func bezier(a, b, c, d, t float64) float64 {
	u := 1 - t
	return u*u*u*a + 3*u*u*t*b + 3*u*t*t*c + t*t*t*d
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

type curveKey struct {
	path  Path
	index int
}

// AnimData owns an object's curves. A (path, index) pair maps to exactly one curve.
type AnimData struct {
	byKey  map[curveKey]*Curve
	curves []*Curve
}

func (a *AnimData) curve(path Path, index int) *Curve {
	k := curveKey{path, index}
	if c, ok := a.byKey[k]; ok {
		return c
	}
	c := &Curve{Path: path, Index: index}
	a.byKey[k] = c
	a.curves = append(a.curves, c)
	return c
}

// Curves returns all curves in creation order.
func (a *AnimData) Curves() []*Curve {
	if a == nil {
		return nil
	}
	return a.curves
}

// Find returns the curve for (path, index) without creating it.
func (a *AnimData) Find(path Path, index int) *Curve {
	if a == nil {
		return nil
	}
	return a.byKey[curveKey{path, index}]
}

// Restore rebuilds curves read back from a serialized document.
func (o *Object) Restore(curves []*Curve) error {
	for _, c := range curves {
		if err := c.Target().check(); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		dst := o.Curve(c.Path, c.Index)
		dst.Keys = append(dst.Keys[:0], c.Keys...)
	}
	return nil
}

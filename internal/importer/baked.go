package importer

import (
	"fmt"
	"math"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/mathutil"
	"github.com/ivlev/aecomp/internal/scene"
)

var axisX = mathutil.Vec3{1, 0, 0}

// bakedConversion maps a decomposed After Effects matrix into scene space:
// Y-down/Z-depth becomes Z-up, and the rotation is wrapped so layers face
// the way they do in the comp.
type bakedConversion struct {
	center mathutil.Vec3 // subtracted before scaling
	scale  float64
	pre    mathutil.Quat
	post   mathutil.Quat
}

func newBakedConversion(c *comp.Comp, opts Options, camera bool) bakedConversion {
	conv := bakedConversion{
		scale: opts.ScaleFactor,
		pre:   mathutil.QuatAxisAngle(axisX, mathutil.Deg2Rad(-90)),
		post:  mathutil.QuatAxisAngle(axisX, mathutil.Deg2Rad(90)),
	}
	if camera {
		conv.post = mathutil.QuatAxisAngle(axisX, math.Pi)
	}
	if opts.CompCenterToOrigin {
		conv.center = mathutil.Vec3{float64(c.Width) * 0.5, float64(c.Height) * 0.5, 0}
	}
	return conv
}

func (b bakedConversion) apply(loc mathutil.Vec3, rot mathutil.Quat, scale mathutil.Vec3) (mathutil.Vec3, mathutil.Quat, mathutil.Vec3) {
	loc = loc.Sub(b.center)
	loc = mathutil.Vec3{loc[0] * b.scale, loc[2] * b.scale, -loc[1] * b.scale}
	scale = mathutil.Vec3{scale[0], scale[2], scale[1]}
	rot = b.pre.Mul(rot).Mul(b.post)
	return loc, rot, scale
}

// importBakedTransform keys location, rotation_quaternion and scale from
// one matrix per sample.
func (r *run) importBakedTransform(obj *scene.Object, l *comp.Layer) error {
	bt := l.Transform
	if bt == nil {
		return fmt.Errorf("%w: missing baked transform", comp.ErrMalformed)
	}
	obj.RotationMode = scene.RotationQuaternionMode

	var loc, scale [3]*scene.Curve
	var rot [4]*scene.Curve
	for i := range 3 {
		loc[i] = obj.Curve(scene.PathLocation, i)
		scale[i] = obj.Curve(scene.PathScale, i)
	}
	for i := range 4 {
		rot[i] = obj.Curve(scene.PathRotationQuaternion, i)
	}

	conv := newBakedConversion(r.doc.Comp, r.im.opts, l.Kind() == comp.LayerCamera)
	ss := bt.SupersamplingRate()
	var track mathutil.QuatTrack
	for i, values := range bt.Keyframes {
		m, err := mathutil.Mat4FromAffine(values)
		if err != nil {
			return fmt.Errorf("%w: transform sample %d: %v", comp.ErrMalformed, i, err)
		}
		p, q, s := conv.apply(m.Decompose())
		q = track.Next(q)

		x := calculatedFrame(i, ss, bt.StartFrame, r.rates)
		for j := range 3 {
			loc[j].Add(scene.LinearKey(x, p[j]))
			scale[j].Add(scene.LinearKey(x, s[j]))
		}
		for j := range 4 {
			rot[j].Add(scene.LinearKey(x, q[j]))
		}
		if i == 0 {
			obj.Location, obj.RotationQuaternion, obj.Scale = p, q, s
		}
	}
	return nil
}

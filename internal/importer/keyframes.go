package importer

import (
	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/scene"
)

// importBezier appends one key per After Effects keyframe. Times are in
// seconds and become frames at the desired rate.
//
// Influence is the share of the gap to the neighboring key covered by the
// handle horizontally, speed is the slope in value units per second, so
// the handle's vertical offset is speed * influence * gap seconds.
func importBezier(c *scene.Curve, keys []comp.BezierKeyframe, desired, mul, add float64) {
	for i, k := range keys {
		x := k.Time * desired
		co := scene.Point{X: x, Y: k.Value*mul + add}
		key := scene.Keyframe{
			Co:              co,
			HandleLeft:      co,
			HandleRight:     co,
			Interpolation:   scene.InterpolationBezier,
			HandleLeftType:  scene.HandleFree,
			HandleRightType: scene.HandleFree,
		}
		if k.HoldOut() {
			key.Interpolation = scene.InterpolationConstant
		}
		if i > 0 {
			gap := (k.Time - keys[i-1].Time) * desired
			inf := k.EaseIn.Influence * 0.01
			key.HandleLeft = scene.Point{
				X: x - gap*inf,
				Y: (k.Value-k.EaseIn.Speed*inf*(gap/desired))*mul + add,
			}
		}
		if i < len(keys)-1 {
			gap := (keys[i+1].Time - k.Time) * desired
			inf := k.EaseOut.Influence * 0.01
			key.HandleRight = scene.Point{
				X: x + gap*inf,
				Y: (k.Value+k.EaseOut.Speed*inf*(gap/desired))*mul + add,
			}
		}
		c.Add(key)
	}
}

// calculatedFrame places sample i of a baked channel. Supersampled
// channels record several samples per comp frame; the result is a frame
// number at the desired rate.
func calculatedFrame(i, supersampling int, startFrame float64, rates framerates) float64 {
	return ((float64(i)/float64(supersampling) + startFrame) * rates.desired) / rates.comp
}

// importCalculated appends one linear key per baked sample.
func importCalculated(c *scene.Curve, ch comp.Channel, rates framerates, mul, add float64) {
	ss := ch.SupersamplingRate()
	for i, v := range ch.Samples {
		c.Add(scene.LinearKey(calculatedFrame(i, ss, ch.StartFrame, rates), v*mul+add))
	}
}

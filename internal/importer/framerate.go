package importer

import (
	"math"

	"github.com/ivlev/aecomp/internal/scene"
)

// framerates carries the comp rate and the rate keyframe times are
// converted to.
type framerates struct {
	comp    float64
	desired float64
}

func desiredFramerates(policy FrameratePolicy, compRate float64, render scene.Render) framerates {
	r := framerates{comp: compRate, desired: compRate}
	if policy == RemapTimes {
		r.desired = render.FrameRate()
	}
	return r
}

// sceneFramerate expresses rate as an integer fps and a base divisor.
// Fractional NTSC rates become e.g. 24 / 1.001.
func sceneFramerate(rate float64) (fps int, base float64) {
	if rate == math.Trunc(rate) {
		return int(rate), 1
	}
	c := math.Ceil(rate)
	return int(c), math.Round(c/rate*1e5) / 1e5
}

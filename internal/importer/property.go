package importer

import (
	"fmt"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/scene"
)

// importProperty writes one channel onto t, either as a static value or as
// keys on the object's curve for t. Every value goes through v*mul+add.
func (r *run) importProperty(obj *scene.Object, t scene.Target, ch comp.Channel, mul, add float64) error {
	if !ch.IsKeyframed {
		return t.Set(obj, ch.Value*mul+add)
	}

	c := obj.Curve(t.Path, t.Index)
	switch ch.Format {
	case comp.FormatBezier:
		importBezier(c, ch.Bezier, r.rates.desired, mul, add)
	case comp.FormatCalculated:
		importCalculated(c, ch, r.rates, mul, add)
	default:
		return fmt.Errorf("%s: unknown keyframes format %q", t, ch.Format)
	}
	r.im.log.Debug("imported curve", "object", obj.Name, "target", t.String(), "keys", len(c.Keys))
	return nil
}

// spatialMapping moves a three-channel After Effects property into scene
// axes. Channel i lands on index swizzle[i] after v*mul[i]+add[i].
type spatialMapping struct {
	swizzle [3]int
	mul     [3]float64
	add     [3]float64
}

// importSpatial imports the three channels of p. Missing channels of 2D
// layers read as neutral.
func (r *run) importSpatial(obj *scene.Object, path scene.Path, p *comp.Property, neutral float64, m spatialMapping) error {
	for i := range 3 {
		t := scene.Target{Path: path, Index: m.swizzle[i]}
		if err := r.importProperty(obj, t, p.Channel(i, neutral), m.mul[i], m.add[i]); err != nil {
			return err
		}
	}
	return nil
}

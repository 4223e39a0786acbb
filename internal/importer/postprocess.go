package importer

import (
	"fmt"
	"math"
	"slices"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/mathutil"
	"github.com/ivlev/aecomp/internal/scene"
)

const (
	aspectTolerance = 1e-11
	aspectMaxDen    = 1000
	// workAreaEpsilon absorbs float noise in exported work area times.
	workAreaEpsilon = 1e-13
)

// linkHierarchy parents each layer's outermost transform object to its
// parent layer's primary object. Parents may come later in the document,
// so this runs once every layer exists.
func (r *run) linkHierarchy() error {
	for _, lf := range r.finals {
		if lf.layer.ParentIndex == nil {
			continue
		}
		parent, ok := r.primary[*lf.layer.ParentIndex]
		if !ok {
			return fmt.Errorf("%w: layer %d: parent %d does not exist", comp.ErrMalformed, lf.layer.Index, *lf.layer.ParentIndex)
		}
		if err := lf.target.SetParent(parent); err != nil {
			return fmt.Errorf("layer %d (%s): %w", lf.layer.Index, lf.layer.Name, err)
		}
	}
	return nil
}

// linkCollection links and selects every created object.
func (r *run) linkCollection() *scene.Collection {
	dst := r.dst.Active
	if r.im.opts.CreateNewCollection {
		dst = r.dst.NewCollection(r.dst.Active, r.doc.Comp.Name)
	}
	for _, o := range r.added {
		dst.Link(o)
		o.Selected = true
	}
	return dst
}

func applyResolution(render *scene.Render, c *comp.Comp) {
	render.ResolutionX = c.Width
	render.ResolutionY = c.Height
	render.PixelAspectX, render.PixelAspectY = PixelAspect(c.PixelAspect)
}

// PixelAspect expresses a pixel aspect ratio as x:y. Ratios of small
// integers are kept exact; anything else is a float on one side, with the
// other side pinned to 1 since neither may go below 1.
func PixelAspect(pa float64) (x, y float64) {
	p, q := mathutil.RationalApprox(pa, aspectMaxDen)
	if math.Abs(float64(p)/float64(q)-pa) <= aspectTolerance {
		return float64(p), float64(q)
	}
	if pa > 1 {
		return pa, 1
	}
	return 1, 1 / pa
}

// applyFrameRange copies the work area to the playback range. The comp's
// end is exclusive, the scene's inclusive.
func applyFrameRange(render *scene.Render, workArea [2]float64, rate float64) {
	render.FrameStart = int(math.Floor(workArea[0]*rate + workAreaEpsilon))
	render.FrameEnd = int(math.Ceil(workArea[1]*rate-workAreaEpsilon)) - 1
}

// camerasToMarkers binds a marker to the topmost enabled camera at every
// frame where the active camera changes. Markers already on the timeline
// at that frame are reused, so importing twice does not duplicate them.
func (r *run) camerasToMarkers() int {
	frames := make([]int, 0, 2*len(r.cameras))
	for _, c := range r.cameras {
		frames = append(frames, c.in, c.out)
	}
	slices.Sort(frames)

	bound := 0
	var prev *scene.Object
	for _, f := range frames {
		var active *scene.Object
		for _, c := range r.cameras {
			if c.in <= f && f < c.out {
				active = c.camera
				break
			}
		}
		if active == prev {
			continue
		}
		prev = active
		if active == nil {
			continue
		}
		m := r.dst.Timeline.MarkerAt(f)
		if m == nil {
			m = r.dst.Timeline.NewMarker("M_"+active.Name, f)
		}
		m.Camera = active
		bound++
	}
	return bound
}

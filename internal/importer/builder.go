package importer

import (
	"fmt"
	"math"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/mathutil"
	"github.com/ivlev/aecomp/internal/scene"
)

// zeroEpsilon is the magnitude below which a static channel counts as zero.
const zeroEpsilon = 1e-15

// transformFrame is the object that receives the next transform property
// of a layer. Pivot stages wrap it in a new parent and return that parent.
type transformFrame struct {
	target *scene.Object
}

// stage applies one part of a layer's transform and returns the frame the
// following stages work on.
type stage func(r *run, l *comp.Layer, f transformFrame) (transformFrame, error)

// layerStages run in this order for every layer without baked transforms.
var layerStages = []stage{
	anchorStage,
	scaleStage,
	rotationStage,
	orientationStage,
	pointOfInterestStage,
	positionStage,
}

// cameraSpan is an enabled camera layer's in/out range in frames.
type cameraSpan struct {
	camera  *scene.Object
	in, out int
}

func (r *run) buildLayer(l *comp.Layer) error {
	obj := r.newPrimary(l)
	r.primary[l.Index] = obj

	var err error
	f := transformFrame{target: obj}
	if r.doc.TransformsBaked {
		if err := r.importBakedTransform(obj, l); err != nil {
			return err
		}
	} else {
		for _, st := range layerStages {
			if f, err = st(r, l, f); err != nil {
				return err
			}
		}
	}

	if l.Kind() == comp.LayerCamera {
		if err := r.importZoom(obj, l); err != nil {
			return err
		}
	}
	r.finals = append(r.finals, layerFrame{layer: l, target: f.target})
	r.im.log.Debug("built layer", "index", l.Index, "name", l.Name, "type", l.Kind(), "target", f.target.Name)
	return nil
}

// newPrimary creates the layer's own object: a quad for footage, camera
// data for cameras, an empty for everything else.
func (r *run) newPrimary(l *comp.Layer) *scene.Object {
	var data scene.Data
	switch l.Kind() {
	case comp.LayerAV:
		if !l.NullLayer {
			data = r.newQuad(l)
		}
	case comp.LayerCamera:
		cam := scene.NewCamera(l.Name)
		cam.SensorFit = r.im.opts.SensorFit
		data = cam
	}
	obj := r.dst.NewObject(l.Name, data)
	r.added = append(r.added, obj)

	if l.Kind() == comp.LayerCamera && l.Enabled != nil && *l.Enabled && l.InFrame != nil && l.OutFrame != nil {
		// Exported in/out frames are seconds times rate and rarely integral.
		r.cameras = append(r.cameras, cameraSpan{
			camera: obj,
			in:     int(math.RoundToEven(*l.InFrame)),
			out:    int(math.RoundToEven(*l.OutFrame)),
		})
	}
	return obj
}

// newQuad spans from the layer origin to (w, -h): the top-left corner is
// the origin, as in After Effects.
func (r *run) newQuad(l *comp.Layer) *scene.Mesh {
	src := r.doc.Sources[*l.Source]
	s := r.im.opts.ScaleFactor
	w, h := float64(src.Width)*s, float64(src.Height)*s
	return &scene.Mesh{
		Name: l.Name,
		Vertices: []mathutil.Vec3{
			{0, 0, -h},
			{w, 0, -h},
			{w, 0, 0},
			{0, 0, 0},
		},
		Faces:    [][]int{{0, 1, 2, 3}},
		UVLayers: []string{"UVMap"},
		Color:    src.Color,
		Image:    src.File,
	}
}

func (r *run) newEmpty(name, display string) *scene.Object {
	o := r.dst.NewObject(name, nil)
	if display != "" {
		o.EmptyDisplay = display
	}
	r.added = append(r.added, o)
	return o
}

// wrap parents the current target to pivot and makes pivot the new target.
func wrap(f transformFrame, pivot *scene.Object) (transformFrame, error) {
	if err := f.target.SetParent(pivot); err != nil {
		return f, err
	}
	return transformFrame{target: pivot}, nil
}

func nonZeroStatic(p *comp.Property) bool {
	for _, ch := range p.Channels {
		if !ch.IsKeyframed && math.Abs(ch.Value) >= zeroEpsilon {
			return true
		}
	}
	return false
}

// anchorStage moves the layer by its negated anchor point and hangs it
// under a pivot, so the pivot's origin is the anchor.
func anchorStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	p := l.AnchorPoint
	if p == nil || !(p.AnyKeyframed() || nonZeroStatic(p)) {
		return f, nil
	}
	s := r.im.opts.ScaleFactor
	err := r.importSpatial(f.target, scene.PathLocation, p, 0, spatialMapping{
		swizzle: [3]int{0, 2, 1},
		mul:     [3]float64{-s, s, -s},
	})
	if err != nil {
		return f, fmt.Errorf("anchor point: %w", err)
	}
	return wrap(f, r.newEmpty(l.Name+" Anchor Point", "ARROWS"))
}

func scaleStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	if l.Scale == nil {
		return f, nil
	}
	err := r.importSpatial(f.target, scene.PathScale, l.Scale, 100, spatialMapping{
		swizzle: [3]int{0, 2, 1},
		mul:     [3]float64{0.01, 0.01, 0.01},
	})
	if err != nil {
		return f, fmt.Errorf("scale: %w", err)
	}
	return f, nil
}

// rotationStage imports the per-axis rotations. Cameras look down -Z in
// both applications but the scene is Z-up, hence the extra 90° tilt.
func rotationStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	m := spatialMapping{
		swizzle: [3]int{0, 2, 1},
		mul:     [3]float64{1, -1, 1},
	}
	f.target.RotationMode = scene.RotationYZX
	if l.Kind() == comp.LayerCamera {
		f.target.RotationMode = scene.RotationZYX
		m = spatialMapping{
			swizzle: [3]int{0, 1, 2},
			mul:     [3]float64{1, -1, -1},
			add:     [3]float64{math.Pi / 2, 0, 0},
		}
	}

	for i, p := range []*comp.Property{l.RotationX, l.RotationY, l.RotationZ} {
		if p == nil {
			continue
		}
		t := scene.RotationEuler(m.swizzle[i])
		if err := r.importProperty(f.target, t, p.Channel(0, 0), mathutil.Deg2Rad(m.mul[i]), m.add[i]); err != nil {
			return f, fmt.Errorf("rotation %c: %w", 'X'+rune(i), err)
		}
	}
	return f, nil
}

// orientationStage adds a pivot carrying the layer's 3D orientation.
// Keyframed orientation is always exported per frame and is keyed as
// quaternions; euler keys would flip at the wrap-around.
func orientationStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	p := l.Orientation
	if p == nil {
		return f, nil
	}
	chs := [3]comp.Channel{p.Channel(0, 0), p.Channel(1, 0), p.Channel(2, 0)}
	keyed := 0
	for _, ch := range chs {
		if ch.IsKeyframed {
			keyed++
		}
	}
	switch {
	case keyed != 0 && keyed != len(chs):
		return f, fmt.Errorf("%w: orientation channels must be all keyframed or all static", ErrInvariant)
	case keyed == 0 && !nonZeroStatic(&comp.Property{Channels: chs[:]}):
		return f, nil
	}

	pivot := r.newEmpty(l.Name+" Orientation", "ARROWS")
	if keyed == 0 {
		pivot.RotationMode = scene.RotationYZX
		pivot.RotationEuler = orientationEuler(chs[0].Value, chs[1].Value, chs[2].Value)
		return wrap(f, pivot)
	}

	for _, ch := range chs {
		if ch.Format != comp.FormatCalculated {
			return f, fmt.Errorf("%w: orientation keyframes must be in %q format, got %q",
				ErrInvariant, comp.FormatCalculated, ch.Format)
		}
	}
	pivot.RotationMode = scene.RotationQuaternionMode
	var curves [4]*scene.Curve
	for j := range curves {
		curves[j] = pivot.Curve(scene.PathRotationQuaternion, j)
	}

	n := min(len(chs[0].Samples), len(chs[1].Samples), len(chs[2].Samples))
	start := chs[0].StartFrame
	var track mathutil.QuatTrack
	for i := range n {
		e := orientationEuler(chs[0].Samples[i], chs[1].Samples[i], chs[2].Samples[i])
		q, err := mathutil.EulerQuat(e, mathutil.OrderYZX)
		if err != nil {
			return f, err
		}
		q = track.Next(q)
		for j := range curves {
			curves[j].Add(scene.LinearKey(float64(i)+start, q[j]))
		}
	}
	return wrap(f, pivot)
}

// orientationEuler converts After Effects orientation degrees to YZX
// euler radians in scene axes.
func orientationEuler(x, y, z float64) mathutil.Vec3 {
	return mathutil.Vec3{mathutil.Deg2Rad(x), mathutil.Deg2Rad(z), mathutil.Deg2Rad(-y)}
}

// pointOfInterestStage makes the layer look at its point of interest: a
// pivot tracks a helper empty that carries the animated target position.
func pointOfInterestStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	p := l.PointOfInterest
	if p == nil {
		return f, nil
	}
	pivot := r.newEmpty(l.Name+" Point Of Interest Constraint", "ARROWS")
	helper := r.newEmpty(l.Name+" Point Of Interest", "")

	if err := r.importSpatial(helper, scene.PathLocation, p, 0, r.positionMapping(r.im.opts.CompCenterToOrigin)); err != nil {
		return f, fmt.Errorf("point of interest: %w", err)
	}

	c := pivot.AddTrackTo(helper)
	c.OwnerSpace = "LOCAL"
	c.TrackAxis = "TRACK_Y"
	c.UpAxis = "UP_Z"
	return wrap(f, pivot)
}

func positionStage(r *run, l *comp.Layer, f transformFrame) (transformFrame, error) {
	if l.Position == nil {
		return f, nil
	}
	center := r.im.opts.CompCenterToOrigin && l.ParentIndex == nil
	if err := r.importSpatial(f.target, scene.PathLocation, l.Position, 0, r.positionMapping(center)); err != nil {
		return f, fmt.Errorf("position: %w", err)
	}
	return f, nil
}

// positionMapping converts comp pixels (Y down) to scene units. center
// shifts the comp center onto the origin.
func (r *run) positionMapping(center bool) spatialMapping {
	s := r.im.opts.ScaleFactor
	m := spatialMapping{
		swizzle: [3]int{0, 2, 1},
		mul:     [3]float64{s, -s, s},
	}
	if center {
		m.add = [3]float64{
			-float64(r.doc.Comp.Width) * 0.5 * s,
			float64(r.doc.Comp.Height) * 0.5 * s,
			0,
		}
	}
	return m
}

// importZoom converts the camera zoom (in pixels) to a focal length for a
// fixed sensor.
func (r *run) importZoom(obj *scene.Object, l *comp.Layer) error {
	cam := obj.Camera()
	if l.Zoom == nil || cam == nil {
		return nil
	}
	mul := cam.SensorHeight / float64(r.doc.Comp.Height)
	if cam.SensorFit == scene.SensorFitHorizontal {
		mul = cam.SensorWidth / float64(r.doc.Comp.Width)
	}
	if err := r.importProperty(obj, scene.Lens(), l.Zoom.Channel(0, 0), mul, 0); err != nil {
		return fmt.Errorf("zoom: %w", err)
	}
	return nil
}

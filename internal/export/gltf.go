package export

import (
	"fmt"
	"math"
	"slices"

	"github.com/ivlev/aecomp/internal/mathutil"
	"github.com/ivlev/aecomp/internal/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFWriter writes glTF 2.0, either as .gltf with embedded buffers or as
// a binary .glb.
type GLTFWriter struct {
	Binary bool
	// Generator goes into asset.generator; empty means "aecomp".
	Generator string
}

func (w GLTFWriter) Ext() string {
	if w.Binary {
		return ".glb"
	}
	return ".gltf"
}

// Write converts doc and saves it to path.
func (w GLTFWriter) Write(doc *scene.Document, path string) error {
	g, err := buildGLTF(doc)
	if err != nil {
		return err
	}
	if w.Generator != "" {
		g.Asset.Generator = w.Generator
	}
	if w.Binary {
		return gltf.SaveBinary(g, path)
	}
	for _, b := range g.Buffers {
		b.EmbeddedResource()
	}
	return gltf.Save(g, path)
}

// zUpRoot turns the scene's Z-up axes into glTF's Y-up ones.
var zUpRoot = mathutil.QuatAxisAngle(mathutil.Vec3{1, 0, 0}, -math.Pi/2)

type gltfBuilder struct {
	src   *scene.Document
	doc   *gltf.Document
	nodes map[*scene.Object]int
	anim  *gltf.Animation
	// origin is the frame played at time 0: the earliest key, or frame 0
	// when no key comes before it. Sampler times must not be negative.
	origin float64
}

func buildGLTF(src *scene.Document) (*gltf.Document, error) {
	b := &gltfBuilder{
		src:   src,
		doc:   gltf.NewDocument(),
		nodes: make(map[*scene.Object]int, len(src.Objects)),
		anim:  &gltf.Animation{Name: src.Name},
	}
	b.doc.Asset.Generator = "aecomp"

	root := len(b.doc.Nodes)
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:     "Z-up",
		Rotation: zUpRoot.XYZW(),
		Scale:    [3]float64{1, 1, 1},
	})
	for _, o := range src.Objects {
		if o.Parent == nil {
			b.doc.Nodes[root].Children = append(b.doc.Nodes[root].Children, b.addNode(o))
		}
	}
	if len(b.nodes) != len(src.Objects) {
		return nil, fmt.Errorf("gltf: %d objects unreachable from the scene root", len(src.Objects)-len(b.nodes))
	}

	for _, o := range src.Objects {
		b.addConstraints(o)
	}

	b.origin = animationOrigin(src)
	for _, o := range src.Objects {
		if err := b.animate(o); err != nil {
			return nil, fmt.Errorf("gltf: object %q: %w", o.Name, err)
		}
	}
	if len(b.anim.Channels) > 0 {
		b.doc.Animations = append(b.doc.Animations, b.anim)
	}

	sc := b.doc.Scenes[0]
	sc.Name = src.Name
	sc.Nodes = []int{root}
	extras := sceneExtras(src)
	extras["animation_start_frame"] = b.origin
	sc.Extras = extras
	return b.doc, nil
}

// addConstraints records track-to constraints in the node extras. glTF
// has no constraints, so node rotations do not include the aim; importers
// rebuild it from the target node and axes.
func (b *gltfBuilder) addConstraints(o *scene.Object) {
	if len(o.Constraints) == 0 {
		return
	}
	var tracks []map[string]any
	for _, c := range o.Constraints {
		tracks = append(tracks, map[string]any{
			"target":      c.Target.Name,
			"target_node": b.nodes[c.Target],
			"track_axis":  c.TrackAxis,
			"up_axis":     c.UpAxis,
			"owner_space": c.OwnerSpace,
		})
	}
	b.doc.Nodes[b.nodes[o]].Extras.(map[string]any)["track_to"] = tracks
}

// animationOrigin returns the earliest key frame of the document, capped
// at 0.
func animationOrigin(doc *scene.Document) float64 {
	origin := 0.0
	for _, o := range doc.Objects {
		for _, c := range o.Anim.Curves() {
			for _, k := range c.Keys {
				origin = min(origin, k.Co.X)
			}
		}
	}
	return origin
}

func (b *gltfBuilder) addNode(o *scene.Object) int {
	idx := len(b.doc.Nodes)
	n := &gltf.Node{
		Name:        o.Name,
		Translation: o.Location,
		Rotation:    staticRotation(o).XYZW(),
		Scale:       o.Scale,
	}
	b.doc.Nodes = append(b.doc.Nodes, n)
	b.nodes[o] = idx

	extras := map[string]any{"rotation_mode": string(o.RotationMode)}
	switch d := o.Data.(type) {
	case *scene.Mesh:
		n.Mesh = gltf.Index(b.addMesh(d))
	case *scene.Camera:
		n.Camera = gltf.Index(b.addCamera(d))
	default:
		extras["empty_display"] = o.EmptyDisplay
	}
	n.Extras = extras

	for _, c := range o.Children() {
		child := b.addNode(c)
		n.Children = append(n.Children, child)
	}
	return idx
}

func staticRotation(o *scene.Object) mathutil.Quat {
	if order, ok := o.RotationMode.EulerOrder(); ok {
		q, _ := mathutil.EulerQuat(o.RotationEuler, order)
		return q
	}
	return o.RotationQuaternion.Normalize()
}

func (b *gltfBuilder) addMesh(m *scene.Mesh) int {
	pos := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		pos[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	var indices []uint16
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f); i++ {
			indices = append(indices, uint16(f[0]), uint16(f[i]), uint16(f[i+1]))
		}
	}

	attrs := map[string]int{gltf.POSITION: modeler.WritePosition(b.doc, pos)}
	if len(m.UVLayers) > 0 {
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(b.doc, planarUVs(m.Vertices))
	}
	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(modeler.WriteIndices(b.doc, indices)),
	}
	if mat, ok := b.addMaterial(m); ok {
		prim.Material = gltf.Index(mat)
	}

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
	return len(b.doc.Meshes) - 1
}

// planarUVs projects vertices onto the XZ plane the layer quads lie in.
// V grows downwards, as in images.
func planarUVs(vs []mathutil.Vec3) [][2]float32 {
	uv := make([][2]float32, len(vs))
	if len(vs) == 0 {
		return uv
	}
	minX, maxX, minZ, maxZ := vs[0][0], vs[0][0], vs[0][2], vs[0][2]
	for _, v := range vs {
		minX, maxX = min(minX, v[0]), max(maxX, v[0])
		minZ, maxZ = min(minZ, v[2]), max(maxZ, v[2])
	}
	w, h := maxX-minX, maxZ-minZ
	for i, v := range vs {
		var u, t float64
		if w > 0 {
			u = (v[0] - minX) / w
		}
		if h > 0 {
			t = (maxZ - v[2]) / h
		}
		uv[i] = [2]float32{float32(u), float32(t)}
	}
	return uv
}

// addMaterial gives solids their color and file footage an image
// reference. Other layers get no material.
func (b *gltfBuilder) addMaterial(m *scene.Mesh) (int, bool) {
	pbr := &gltf.PBRMetallicRoughness{}
	switch {
	case m.Image != "":
		b.doc.Images = append(b.doc.Images, &gltf.Image{Name: m.Name, URI: m.Image})
		b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Source: gltf.Index(len(b.doc.Images) - 1)})
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: len(b.doc.Textures) - 1}
	case len(m.Color) >= 3:
		pbr.BaseColorFactor = &[4]float64{m.Color[0], m.Color[1], m.Color[2], 1}
	default:
		return 0, false
	}
	b.doc.Materials = append(b.doc.Materials, &gltf.Material{
		Name:                 m.Name,
		DoubleSided:          true,
		PBRMetallicRoughness: pbr,
	})
	return len(b.doc.Materials) - 1, true
}

func (b *gltfBuilder) addCamera(c *scene.Camera) int {
	aspect := b.aspect()
	b.doc.Cameras = append(b.doc.Cameras, &gltf.Camera{
		Name: c.Name,
		Perspective: &gltf.Perspective{
			AspectRatio: &aspect,
			Yfov:        yfov(c, aspect),
			Znear:       0.1,
		},
	})
	return len(b.doc.Cameras) - 1
}

func (b *gltfBuilder) aspect() float64 {
	r := b.src.Render
	if r.ResolutionY == 0 || r.PixelAspectY == 0 {
		return 1
	}
	return float64(r.ResolutionX) * r.PixelAspectX / (float64(r.ResolutionY) * r.PixelAspectY)
}

// yfov returns the vertical field of view for the camera's lens. An AUTO
// sensor fit applies the sensor width to the larger image dimension.
func yfov(c *scene.Camera, aspect float64) float64 {
	switch {
	case c.SensorFit == scene.SensorFitVertical:
		return 2 * math.Atan(c.SensorHeight/2/c.Lens)
	case c.SensorFit == scene.SensorFitAuto && aspect < 1:
		return 2 * math.Atan(c.SensorWidth/2/c.Lens)
	}
	// horizontal: the width spans the image width
	return 2 * math.Atan(c.SensorWidth/2/c.Lens/aspect)
}

// animate adds TRS channels for every animated property of o.
func (b *gltfBuilder) animate(o *scene.Object) error {
	if len(o.Anim.Curves()) == 0 {
		return nil
	}
	node := b.nodes[o]
	fps := b.src.Render.FrameRate()

	if curves := findCurves(o, scene.PathLocation); curves != nil {
		frames, step := sampleFrames(curves)
		out := make([][3]float32, len(frames))
		for i, f := range frames {
			out[i] = vec3f(sampleVec3(curves, o.Location, f))
		}
		b.addChannel(node, gltf.TRSTranslation, frames, fps, step, out)
	}
	if curves := findCurves(o, scene.PathScale); curves != nil {
		frames, step := sampleFrames(curves)
		out := make([][3]float32, len(frames))
		for i, f := range frames {
			out[i] = vec3f(sampleVec3(curves, o.Scale, f))
		}
		b.addChannel(node, gltf.TRSScale, frames, fps, step, out)
	}

	order, euler := o.RotationMode.EulerOrder()
	path := scene.PathRotationQuaternion
	if euler {
		path = scene.PathRotationEuler
	}
	curves := findCurves(o, path)
	if curves == nil {
		return nil
	}
	frames, step := sampleFrames(curves)
	out := make([][4]float32, len(frames))
	var track mathutil.QuatTrack
	for i, f := range frames {
		var q mathutil.Quat
		if euler {
			var err error
			if q, err = mathutil.EulerQuat(sampleVec3(curves, o.RotationEuler, f), order); err != nil {
				return err
			}
		} else {
			for j := range q {
				q[j] = sample(curves[j], o.RotationQuaternion[j], f)
			}
			q = q.Normalize()
		}
		xyzw := track.Next(q).XYZW()
		out[i] = [4]float32{float32(xyzw[0]), float32(xyzw[1]), float32(xyzw[2]), float32(xyzw[3])}
	}
	b.addChannel(node, gltf.TRSRotation, frames, fps, step, out)
	return nil
}

func (b *gltfBuilder) addChannel(node int, path gltf.TRSProperty, frames []float64, fps float64, step bool, output any) {
	times := make([]float32, len(frames))
	for i, f := range frames {
		times[i] = float32((f - b.origin) / fps)
	}
	input := modeler.WriteAccessor(b.doc, gltf.TargetNone, times)
	acc := b.doc.Accessors[input]
	acc.Min = []float64{float64(times[0])}
	acc.Max = []float64{float64(times[len(times)-1])}

	interp := gltf.InterpolationLinear
	if step {
		interp = gltf.InterpolationStep
	}
	b.anim.Samplers = append(b.anim.Samplers, &gltf.AnimationSampler{
		Input:         input,
		Output:        modeler.WriteAccessor(b.doc, gltf.TargetNone, output),
		Interpolation: interp,
	})
	b.anim.Channels = append(b.anim.Channels, &gltf.AnimationChannel{
		Sampler: len(b.anim.Samplers) - 1,
		Target:  gltf.AnimationChannelTarget{Node: gltf.Index(node), Path: path},
	})
}

// findCurves returns the curves of path by component index, nil entries
// for static components. It returns nil when no component is animated.
func findCurves(o *scene.Object, path scene.Path) []*scene.Curve {
	curves := make([]*scene.Curve, path.Width())
	found := false
	for i := range curves {
		if c := o.Anim.Find(path, i); c != nil && len(c.Keys) > 0 {
			curves[i] = c
			found = true
		}
	}
	if !found {
		return nil
	}
	return curves
}

// sampleFrames returns the frames to sample: every key, plus every whole
// frame in between unless all keys hold their value, in which case the
// keys alone with STEP interpolation reproduce the curves exactly.
func sampleFrames(curves []*scene.Curve) (frames []float64, step bool) {
	step = true
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		if c == nil {
			continue
		}
		for _, k := range c.Keys {
			frames = append(frames, k.Co.X)
			if k.Interpolation != scene.InterpolationConstant {
				step = false
			}
		}
		if s, e, ok := c.Range(); ok {
			lo, hi = min(lo, s), max(hi, e)
		}
	}
	if !step {
		for f := math.Ceil(lo); f <= hi; f++ {
			frames = append(frames, f)
		}
	}
	slices.Sort(frames)
	return slices.Compact(frames), step
}

func sample(c *scene.Curve, static, frame float64) float64 {
	if c == nil {
		return static
	}
	return c.Evaluate(frame)
}

func sampleVec3(curves []*scene.Curve, static mathutil.Vec3, frame float64) mathutil.Vec3 {
	var v mathutil.Vec3
	for i := range v {
		v[i] = sample(curves[i], static[i], frame)
	}
	return v
}

func vec3f(v mathutil.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func sceneExtras(doc *scene.Document) map[string]any {
	r := doc.Render
	markers := make([]map[string]any, 0, len(doc.Timeline.Markers))
	for _, m := range doc.Timeline.Markers {
		mk := map[string]any{"name": m.Name, "frame": m.Frame}
		if m.Camera != nil {
			mk["camera"] = m.Camera.Name
		}
		markers = append(markers, mk)
	}
	return map[string]any{
		"render": map[string]any{
			"fps":            r.FPS,
			"fps_base":       r.FPSBase,
			"resolution_x":   r.ResolutionX,
			"resolution_y":   r.ResolutionY,
			"pixel_aspect_x": r.PixelAspectX,
			"pixel_aspect_y": r.PixelAspectY,
			"frame_start":    r.FrameStart,
			"frame_end":      r.FrameEnd,
		},
		"markers": markers,
	}
}

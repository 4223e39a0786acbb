package export

import (
	"fmt"
	"os"

	"github.com/ivlev/aecomp/internal/mathutil"
	"github.com/ivlev/aecomp/internal/scene"
	"gopkg.in/yaml.v3"
)

const sceneFileVersion = "1.0"

// sceneFile is the YAML layout of a scene document. Objects refer to each
// other by name.
type sceneFile struct {
	Version     string         `yaml:"version"`
	Name        string         `yaml:"name"`
	Render      renderFile     `yaml:"render"`
	Active      string         `yaml:"active_collection"`
	Collections collectionFile `yaml:"collections"`
	Objects     []objectFile   `yaml:"objects"`
	Markers     []markerFile   `yaml:"markers,omitempty"`
}

type renderFile struct {
	FPS          int     `yaml:"fps"`
	FPSBase      float64 `yaml:"fps_base"`
	ResolutionX  int     `yaml:"resolution_x"`
	ResolutionY  int     `yaml:"resolution_y"`
	PixelAspectX float64 `yaml:"pixel_aspect_x"`
	PixelAspectY float64 `yaml:"pixel_aspect_y"`
	FrameStart   int     `yaml:"frame_start"`
	FrameEnd     int     `yaml:"frame_end"`
}

type collectionFile struct {
	Name     string           `yaml:"name"`
	Objects  []string         `yaml:"objects,omitempty"`
	Children []collectionFile `yaml:"children,omitempty"`
}

type objectFile struct {
	Name               string           `yaml:"name"`
	Type               string           `yaml:"type"`
	Parent             string           `yaml:"parent,omitempty"`
	Location           [3]float64       `yaml:"location,flow"`
	RotationMode       string           `yaml:"rotation_mode"`
	RotationEuler      [3]float64       `yaml:"rotation_euler,flow"`
	RotationQuaternion [4]float64       `yaml:"rotation_quaternion,flow"`
	Scale              [3]float64       `yaml:"scale,flow"`
	EmptyDisplay       string           `yaml:"empty_display,omitempty"`
	Selected           bool             `yaml:"selected,omitempty"`
	Mesh               *meshFile        `yaml:"mesh,omitempty"`
	Camera             *cameraFile      `yaml:"camera,omitempty"`
	Constraints        []constraintFile `yaml:"constraints,omitempty"`
	Curves             []curveFile      `yaml:"curves,omitempty"`
}

type meshFile struct {
	Name     string       `yaml:"name"`
	Vertices [][3]float64 `yaml:"vertices,flow"`
	Faces    [][]int      `yaml:"faces,flow"`
	UVLayers []string     `yaml:"uv_layers,omitempty,flow"`
	Color    []float64    `yaml:"color,omitempty,flow"`
	Image    string       `yaml:"image,omitempty"`
}

type cameraFile struct {
	Name         string  `yaml:"name"`
	Lens         float64 `yaml:"lens"`
	SensorFit    string  `yaml:"sensor_fit"`
	SensorWidth  float64 `yaml:"sensor_width"`
	SensorHeight float64 `yaml:"sensor_height"`
}

type constraintFile struct {
	Type       string `yaml:"type"`
	Target     string `yaml:"target"`
	OwnerSpace string `yaml:"owner_space"`
	TrackAxis  string `yaml:"track_axis"`
	UpAxis     string `yaml:"up_axis"`
}

type curveFile struct {
	Path  string    `yaml:"path"`
	Index int       `yaml:"index"`
	Keys  []keyFile `yaml:"keys"`
}

type keyFile struct {
	Co            [2]float64 `yaml:"co,flow"`
	HandleLeft    [2]float64 `yaml:"handle_left,flow"`
	HandleRight   [2]float64 `yaml:"handle_right,flow"`
	Interpolation string     `yaml:"interpolation"`
	LeftType      string     `yaml:"handle_left_type"`
	RightType     string     `yaml:"handle_right_type"`
}

type markerFile struct {
	Name   string `yaml:"name"`
	Frame  int    `yaml:"frame"`
	Camera string `yaml:"camera,omitempty"`
}

// YAMLWriter writes the whole scene document as YAML.
type YAMLWriter struct{}

func (YAMLWriter) Ext() string { return ".yaml" }

// Write writes doc to path.
func (YAMLWriter) Write(doc *scene.Document, path string) error {
	data, err := yaml.Marshal(toSceneFile(doc))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadYAML reads a document written by YAMLWriter.
func ReadYAML(path string) (*scene.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sf sceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	if sf.Version != sceneFileVersion {
		return nil, fmt.Errorf("%s: unsupported scene file version %q", path, sf.Version)
	}

	doc, err := fromSceneFile(&sf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func toSceneFile(doc *scene.Document) *sceneFile {
	r := doc.Render
	sf := &sceneFile{
		Version: sceneFileVersion,
		Name:    doc.Name,
		Render: renderFile{
			FPS:          r.FPS,
			FPSBase:      r.FPSBase,
			ResolutionX:  r.ResolutionX,
			ResolutionY:  r.ResolutionY,
			PixelAspectX: r.PixelAspectX,
			PixelAspectY: r.PixelAspectY,
			FrameStart:   r.FrameStart,
			FrameEnd:     r.FrameEnd,
		},
		Active:      doc.Active.Name,
		Collections: toCollectionFile(doc.Root),
	}

	for _, o := range doc.Objects {
		sf.Objects = append(sf.Objects, toObjectFile(o))
	}
	for _, m := range doc.Timeline.Markers {
		mf := markerFile{Name: m.Name, Frame: m.Frame}
		if m.Camera != nil {
			mf.Camera = m.Camera.Name
		}
		sf.Markers = append(sf.Markers, mf)
	}
	return sf
}

func toCollectionFile(c *scene.Collection) collectionFile {
	cf := collectionFile{Name: c.Name}
	for _, o := range c.Objects {
		cf.Objects = append(cf.Objects, o.Name)
	}
	for _, ch := range c.Children {
		cf.Children = append(cf.Children, toCollectionFile(ch))
	}
	return cf
}

func toObjectFile(o *scene.Object) objectFile {
	of := objectFile{
		Name:               o.Name,
		Type:               scene.DataKind(o.Data),
		Location:           o.Location,
		RotationMode:       string(o.RotationMode),
		RotationEuler:      o.RotationEuler,
		RotationQuaternion: o.RotationQuaternion,
		Scale:              o.Scale,
		Selected:           o.Selected,
	}
	if o.Parent != nil {
		of.Parent = o.Parent.Name
	}

	switch d := o.Data.(type) {
	case *scene.Mesh:
		mf := &meshFile{Name: d.Name, Faces: d.Faces, UVLayers: d.UVLayers, Color: d.Color, Image: d.Image}
		for _, v := range d.Vertices {
			mf.Vertices = append(mf.Vertices, v)
		}
		of.Mesh = mf
	case *scene.Camera:
		of.Camera = &cameraFile{
			Name:         d.Name,
			Lens:         d.Lens,
			SensorFit:    string(d.SensorFit),
			SensorWidth:  d.SensorWidth,
			SensorHeight: d.SensorHeight,
		}
	default:
		of.EmptyDisplay = o.EmptyDisplay
	}

	for _, c := range o.Constraints {
		of.Constraints = append(of.Constraints, constraintFile{
			Type:       "TRACK_TO",
			Target:     c.Target.Name,
			OwnerSpace: c.OwnerSpace,
			TrackAxis:  c.TrackAxis,
			UpAxis:     c.UpAxis,
		})
	}

	for _, c := range o.Anim.Curves() {
		cf := curveFile{Path: c.Path.String(), Index: c.Index}
		for _, k := range c.Keys {
			cf.Keys = append(cf.Keys, keyFile{
				Co:            [2]float64{k.Co.X, k.Co.Y},
				HandleLeft:    [2]float64{k.HandleLeft.X, k.HandleLeft.Y},
				HandleRight:   [2]float64{k.HandleRight.X, k.HandleRight.Y},
				Interpolation: string(k.Interpolation),
				LeftType:      string(k.HandleLeftType),
				RightType:     string(k.HandleRightType),
			})
		}
		of.Curves = append(of.Curves, cf)
	}
	return of
}

func fromSceneFile(sf *sceneFile) (*scene.Document, error) {
	doc := scene.NewDocument(sf.Name)
	doc.Render = scene.Render{
		FPS:          sf.Render.FPS,
		FPSBase:      sf.Render.FPSBase,
		ResolutionX:  sf.Render.ResolutionX,
		ResolutionY:  sf.Render.ResolutionY,
		PixelAspectX: sf.Render.PixelAspectX,
		PixelAspectY: sf.Render.PixelAspectY,
		FrameStart:   sf.Render.FrameStart,
		FrameEnd:     sf.Render.FrameEnd,
	}

	byName := make(map[string]*scene.Object, len(sf.Objects))
	for _, of := range sf.Objects {
		o, err := fromObjectFile(doc, of)
		if err != nil {
			return nil, err
		}
		if o.Name != of.Name {
			return nil, fmt.Errorf("duplicate object name %q", of.Name)
		}
		byName[o.Name] = o
	}

	lookup := func(name string) (*scene.Object, error) {
		o, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown object %q", name)
		}
		return o, nil
	}

	for _, of := range sf.Objects {
		o := byName[of.Name]
		if of.Parent != "" {
			p, err := lookup(of.Parent)
			if err != nil {
				return nil, err
			}
			if err := o.SetParent(p); err != nil {
				return nil, err
			}
		}
		for _, cf := range of.Constraints {
			target, err := lookup(cf.Target)
			if err != nil {
				return nil, err
			}
			c := o.AddTrackTo(target)
			c.OwnerSpace, c.TrackAxis, c.UpAxis = cf.OwnerSpace, cf.TrackAxis, cf.UpAxis
		}
	}

	var err error
	doc.Root.Name = sf.Collections.Name
	if err = fillCollection(doc, doc.Root, sf.Collections, lookup); err != nil {
		return nil, err
	}
	for _, c := range doc.Collections() {
		if c.Name == sf.Active {
			doc.Active = c
			break
		}
	}

	for _, mf := range sf.Markers {
		m := doc.Timeline.NewMarker(mf.Name, mf.Frame)
		if mf.Camera != "" {
			if m.Camera, err = lookup(mf.Camera); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func fillCollection(doc *scene.Document, c *scene.Collection, cf collectionFile, lookup func(string) (*scene.Object, error)) error {
	for _, name := range cf.Objects {
		o, err := lookup(name)
		if err != nil {
			return err
		}
		c.Link(o)
	}
	for _, child := range cf.Children {
		if err := fillCollection(doc, doc.NewCollection(c, child.Name), child, lookup); err != nil {
			return err
		}
	}
	return nil
}

func fromObjectFile(doc *scene.Document, of objectFile) (*scene.Object, error) {
	var data scene.Data
	switch {
	case of.Mesh != nil:
		m := &scene.Mesh{Name: of.Mesh.Name, Faces: of.Mesh.Faces, UVLayers: of.Mesh.UVLayers, Color: of.Mesh.Color, Image: of.Mesh.Image}
		for _, v := range of.Mesh.Vertices {
			m.Vertices = append(m.Vertices, mathutil.Vec3(v))
		}
		data = m
	case of.Camera != nil:
		data = &scene.Camera{
			Name:         of.Camera.Name,
			Lens:         of.Camera.Lens,
			SensorFit:    scene.SensorFit(of.Camera.SensorFit),
			SensorWidth:  of.Camera.SensorWidth,
			SensorHeight: of.Camera.SensorHeight,
		}
	}

	o := doc.NewObject(of.Name, data)
	o.Location = of.Location
	o.RotationMode = scene.RotationMode(of.RotationMode)
	o.RotationEuler = of.RotationEuler
	o.RotationQuaternion = of.RotationQuaternion
	o.Scale = of.Scale
	o.Selected = of.Selected
	if of.EmptyDisplay != "" {
		o.EmptyDisplay = of.EmptyDisplay
	}

	curves := make([]*scene.Curve, 0, len(of.Curves))
	for _, cf := range of.Curves {
		path, err := scene.ParsePath(cf.Path)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", of.Name, err)
		}
		c := &scene.Curve{Path: path, Index: cf.Index}
		for _, kf := range cf.Keys {
			c.Keys = append(c.Keys, scene.Keyframe{
				Co:              scene.Point{X: kf.Co[0], Y: kf.Co[1]},
				HandleLeft:      scene.Point{X: kf.HandleLeft[0], Y: kf.HandleLeft[1]},
				HandleRight:     scene.Point{X: kf.HandleRight[0], Y: kf.HandleRight[1]},
				Interpolation:   scene.Interpolation(kf.Interpolation),
				HandleLeftType:  scene.HandleType(kf.LeftType),
				HandleRightType: scene.HandleType(kf.RightType),
			})
		}
		curves = append(curves, c)
	}
	if err := o.Restore(curves); err != nil {
		return nil, err
	}
	return o, nil
}

package scene

import (
	"errors"
	"fmt"

	"github.com/ivlev/aecomp/internal/mathutil"
)

// ErrParentCycle is returned when a parent assignment would make an object
// its own ancestor.
var ErrParentCycle = errors.New("parent cycle")

// RotationMode selects which rotation property drives an object.
type RotationMode string

const (
	RotationQuaternionMode RotationMode = "QUATERNION"
	RotationXYZ            RotationMode = "XYZ"
	RotationXZY            RotationMode = "XZY"
	RotationYXZ            RotationMode = "YXZ"
	RotationYZX            RotationMode = "YZX"
	RotationZXY            RotationMode = "ZXY"
	RotationZYX            RotationMode = "ZYX"
)

// EulerOrder returns the axis order of an euler mode. ok is false for
// quaternion mode.
func (m RotationMode) EulerOrder() (order mathutil.EulerOrder, ok bool) {
	order = mathutil.EulerOrder(m)
	return order, order.Valid()
}

// Data is the payload attached to an object: *Mesh, *Camera, or nil for an empty.
type Data interface {
	dataKind() string
}

// Mesh is polygon geometry with one optional UV layer. Color and Image
// describe the footage it stands in for, when known.
type Mesh struct {
	Name     string
	Vertices []mathutil.Vec3
	Faces    [][]int
	UVLayers []string
	Color    []float64
	Image    string
}

func (*Mesh) dataKind() string { return "mesh" }

// SensorFit decides which sensor dimension the lens maps onto.
type SensorFit string

const (
	SensorFitAuto       SensorFit = "AUTO"
	SensorFitHorizontal SensorFit = "HORIZONTAL"
	SensorFitVertical   SensorFit = "VERTICAL"
)

// Camera is perspective camera data. Lens and sensor sizes are in millimeters.
type Camera struct {
	Name         string
	Lens         float64
	SensorFit    SensorFit
	SensorWidth  float64
	SensorHeight float64
}

func (*Camera) dataKind() string { return "camera" }

// NewCamera returns camera data with the host defaults (50mm lens, 36×24mm sensor).
func NewCamera(name string) *Camera {
	return &Camera{
		Name:         name,
		Lens:         50,
		SensorFit:    SensorFitAuto,
		SensorWidth:  36,
		SensorHeight: 24,
	}
}

// DataKind names the payload type: "mesh", "camera" or "empty".
func DataKind(d Data) string {
	if d == nil {
		return "empty"
	}
	return d.dataKind()
}

// TrackTo points the owner's track axis at Target.
type TrackTo struct {
	Target     *Object
	OwnerSpace string
	TrackAxis  string
	UpAxis     string
}

// Object is a node of the destination scene graph.
type Object struct {
	Name   string
	Data   Data
	Parent *Object

	Location           mathutil.Vec3
	RotationMode       RotationMode
	RotationEuler      mathutil.Vec3
	RotationQuaternion mathutil.Quat
	Scale              mathutil.Vec3

	// EmptyDisplay is the viewport glyph for objects without data.
	EmptyDisplay string
	Constraints  []*TrackTo
	Selected     bool

	Anim *AnimData

	children []*Object
}

func newObject(name string, data Data) *Object {
	return &Object{
		Name:               name,
		Data:               data,
		RotationMode:       RotationXYZ,
		RotationQuaternion: mathutil.QuatIdentity,
		Scale:              mathutil.Vec3{1, 1, 1},
		EmptyDisplay:       "PLAIN_AXES",
	}
}

// Camera returns the object's camera data, or nil.
func (o *Object) Camera() *Camera {
	c, _ := o.Data.(*Camera)
	return c
}

// Children returns the direct children in the order they were parented.
func (o *Object) Children() []*Object {
	return o.children
}

// SetParent reparents o. A nil parent detaches it. Assigning an ancestor
// chain that leads back to o fails with ErrParentCycle and leaves the graph
// unchanged.
func (o *Object) SetParent(parent *Object) error {
	for p := parent; p != nil; p = p.Parent {
		if p == o {
			return fmt.Errorf("%w: %q cannot be parented to %q", ErrParentCycle, o.Name, parent.Name)
		}
	}
	if o.Parent != nil {
		siblings := o.Parent.children
		for i, c := range siblings {
			if c == o {
				o.Parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	o.Parent = parent
	if parent != nil {
		parent.children = append(parent.children, o)
	}
	return nil
}

// AddTrackTo appends a track-to constraint and returns it.
func (o *Object) AddTrackTo(target *Object) *TrackTo {
	c := &TrackTo{Target: target, OwnerSpace: "WORLD", TrackAxis: "TRACK_NEGATIVE_Z", UpAxis: "UP_Y"}
	o.Constraints = append(o.Constraints, c)
	return c
}

// Curve returns the animation curve driving (path, index) on this object,
// creating it on first use.
func (o *Object) Curve(path Path, index int) *Curve {
	if o.Anim == nil {
		o.Anim = &AnimData{byKey: make(map[curveKey]*Curve)}
	}
	return o.Anim.curve(path, index)
}

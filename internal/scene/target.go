package scene

import "fmt"

// Path identifies an animatable property. The set is closed: every value has
// a typed setter in Target.Set.
type Path int

const (
	PathLocation Path = iota
	PathRotationEuler
	PathRotationQuaternion
	PathScale
	PathLens
)

var pathNames = map[Path]string{
	PathLocation:           "location",
	PathRotationEuler:      "rotation_euler",
	PathRotationQuaternion: "rotation_quaternion",
	PathScale:              "scale",
	PathLens:               "lens",
}

func (p Path) String() string {
	if n, ok := pathNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Path(%d)", int(p))
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	for p, n := range pathNames {
		if n == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown property path %q", s)
}

// Width is the number of components: 3, 4, or 1 for lens.
func (p Path) Width() int {
	switch p {
	case PathRotationQuaternion:
		return 4
	case PathLens:
		return 1
	}
	return 3
}

// NoIndex marks a scalar property.
const NoIndex = -1

// Target is one component of one property: location[0..2], scale[0..2],
// rotation_euler[0..2], rotation_quaternion[0..3] or lens.
type Target struct {
	Path  Path
	Index int
}

func Location(i int) Target           { return Target{PathLocation, i} }
func Scale(i int) Target              { return Target{PathScale, i} }
func RotationEuler(i int) Target      { return Target{PathRotationEuler, i} }
func RotationQuaternion(i int) Target { return Target{PathRotationQuaternion, i} }
func Lens() Target                    { return Target{PathLens, NoIndex} }

func (t Target) String() string {
	if t.Index == NoIndex {
		return t.Path.String()
	}
	return fmt.Sprintf("%s[%d]", t.Path, t.Index)
}

func (t Target) check() error {
	if t.Path == PathLens {
		if t.Index != NoIndex {
			return fmt.Errorf("%s: lens is scalar", t)
		}
		return nil
	}
	if t.Index < 0 || t.Index >= t.Path.Width() {
		return fmt.Errorf("%s: index out of range", t)
	}
	return nil
}

// Set writes a static value into the object.
func (t Target) Set(o *Object, v float64) error {
	if err := t.check(); err != nil {
		return err
	}
	switch t.Path {
	case PathLocation:
		o.Location[t.Index] = v
	case PathScale:
		o.Scale[t.Index] = v
	case PathRotationEuler:
		o.RotationEuler[t.Index] = v
	case PathRotationQuaternion:
		o.RotationQuaternion[t.Index] = v
	case PathLens:
		cam := o.Camera()
		if cam == nil {
			return fmt.Errorf("%s: object %q has no camera data", t, o.Name)
		}
		cam.Lens = v
	}
	return nil
}

// Get reads the static value of the property.
func (t Target) Get(o *Object) (float64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	switch t.Path {
	case PathLocation:
		return o.Location[t.Index], nil
	case PathScale:
		return o.Scale[t.Index], nil
	case PathRotationEuler:
		return o.RotationEuler[t.Index], nil
	case PathRotationQuaternion:
		return o.RotationQuaternion[t.Index], nil
	}
	cam := o.Camera()
	if cam == nil {
		return 0, fmt.Errorf("%s: object %q has no camera data", t, o.Name)
	}
	return cam.Lens, nil
}

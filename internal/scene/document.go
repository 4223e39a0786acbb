package scene

import (
	"fmt"
	"slices"
)

// Render holds output settings of the scene.
type Render struct {
	FPS          int
	FPSBase      float64
	ResolutionX  int
	ResolutionY  int
	PixelAspectX float64
	PixelAspectY float64
	FrameStart   int
	FrameEnd     int
}

// FrameRate returns the effective frames per second.
func (r Render) FrameRate() float64 {
	if r.FPSBase == 0 {
		return float64(r.FPS)
	}
	return float64(r.FPS) / r.FPSBase
}

// DefaultRender matches a freshly created host scene.
func DefaultRender() Render {
	return Render{
		FPS:          24,
		FPSBase:      1,
		ResolutionX:  1920,
		ResolutionY:  1080,
		PixelAspectX: 1,
		PixelAspectY: 1,
		FrameStart:   1,
		FrameEnd:     250,
	}
}

// Collection groups objects. Objects may be linked into several collections.
type Collection struct {
	Name     string
	Objects  []*Object
	Children []*Collection
}

// Link adds o unless it is already linked.
func (c *Collection) Link(o *Object) {
	if !slices.Contains(c.Objects, o) {
		c.Objects = append(c.Objects, o)
	}
}

// Document is the destination scene: every object that exists, the
// collection tree, render settings and markers.
type Document struct {
	Name     string
	Objects  []*Object
	Root     *Collection
	Active   *Collection
	Render   Render
	Timeline Timeline

	names map[string]bool
}

// NewDocument returns an empty scene with a root collection that is also
// the active one.
func NewDocument(name string) *Document {
	root := &Collection{Name: "Scene Collection"}
	return &Document{
		Name:   name,
		Root:   root,
		Active: root,
		Render: DefaultRender(),
		names:  make(map[string]bool),
	}
}

// NewObject creates an object that is not linked into any collection yet.
// Names are made unique with a ".001"-style suffix.
func (d *Document) NewObject(name string, data Data) *Object {
	o := newObject(d.uniqueName(name), data)
	d.Objects = append(d.Objects, o)
	return o
}

// NewCollection creates a collection under parent.
func (d *Document) NewCollection(parent *Collection, name string) *Collection {
	c := &Collection{Name: name}
	parent.Children = append(parent.Children, c)
	return c
}

// Object returns the object with the given name, or nil.
func (d *Document) Object(name string) *Object {
	for _, o := range d.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Collections walks the tree depth-first starting at the root.
func (d *Document) Collections() []*Collection {
	var out []*Collection
	var walk func(c *Collection)
	walk = func(c *Collection) {
		out = append(out, c)
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(d.Root)
	return out
}

// CurveCount returns the number of animation curves across all objects.
func (d *Document) CurveCount() int {
	n := 0
	for _, o := range d.Objects {
		n += len(o.Anim.Curves())
	}
	return n
}

func (d *Document) uniqueName(name string) string {
	if d.names == nil {
		d.names = make(map[string]bool)
	}
	candidate := name
	for i := 1; d.names[candidate]; i++ {
		candidate = fmt.Sprintf("%s.%03d", name, i)
	}
	d.names[candidate] = true
	return candidate
}

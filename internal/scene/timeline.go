package scene

// Marker is a named timeline marker. A bound Camera becomes the active
// camera from Frame onwards.
type Marker struct {
	Name   string
	Frame  int
	Camera *Object
}

// Timeline holds the scene's markers. Several markers may share a frame;
// MarkerAt returns the first one.
type Timeline struct {
	Markers []*Marker
}

// MarkerAt returns the first marker at frame, or nil.
func (t *Timeline) MarkerAt(frame int) *Marker {
	for _, m := range t.Markers {
		if m.Frame == frame {
			return m
		}
	}
	return nil
}

// NewMarker adds a marker and returns it.
func (t *Timeline) NewMarker(name string, frame int) *Marker {
	m := &Marker{Name: name, Frame: frame}
	t.Markers = append(t.Markers, m)
	return m
}

package comp

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants the importer relies on. It
// does not look for parent cycles; those surface when the hierarchy is
// linked.
func (d *Document) Validate() error {
	if d.Comp == nil {
		return fmt.Errorf("%w: missing comp", ErrMalformed)
	}
	c := d.Comp
	if !(c.FrameRate > 0) || math.IsInf(c.FrameRate, 0) {
		return fmt.Errorf("%w: frame rate must be positive, got %v", ErrMalformed, c.FrameRate)
	}
	if c.WorkArea[0] > c.WorkArea[1] {
		return fmt.Errorf("%w: work area start %v after end %v", ErrMalformed, c.WorkArea[0], c.WorkArea[1])
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: comp size %dx%d", ErrMalformed, c.Width, c.Height)
	}
	if !(c.PixelAspect > 0) {
		return fmt.Errorf("%w: pixel aspect must be positive, got %v", ErrMalformed, c.PixelAspect)
	}

	indices := make(map[int]bool, len(d.Layers))
	for i := range d.Layers {
		l := &d.Layers[i]
		if indices[l.Index] {
			return fmt.Errorf("%w: duplicate layer index %d", ErrMalformed, l.Index)
		}
		indices[l.Index] = true
	}

	for i := range d.Layers {
		l := &d.Layers[i]
		if err := d.validateLayer(l, indices); err != nil {
			return fmt.Errorf("layer %d (%s): %w", l.Index, l.Name, err)
		}
	}
	return nil
}

func (d *Document) validateLayer(l *Layer, indices map[int]bool) error {
	if l.ParentIndex != nil && !indices[*l.ParentIndex] {
		return fmt.Errorf("%w: parent %d does not exist", ErrMalformed, *l.ParentIndex)
	}

	if l.Kind() == LayerAV && !l.NullLayer {
		if l.Source == nil {
			return fmt.Errorf("%w: av layer without source", ErrMalformed)
		}
		if *l.Source < 0 || *l.Source >= len(d.Sources) {
			return fmt.Errorf("%w: source %d out of range", ErrMalformed, *l.Source)
		}
	}

	if d.TransformsBaked {
		if l.Transform == nil {
			return fmt.Errorf("%w: baked document without transform", ErrMalformed)
		}
		for i, m := range l.Transform.Keyframes {
			if len(m) != 12 {
				return fmt.Errorf("%w: transform sample %d has %d values, want 12", ErrMalformed, i, len(m))
			}
		}
	}

	if l.Kind() == LayerCamera && l.Zoom == nil {
		return fmt.Errorf("%w: camera without zoom", ErrMalformed)
	}

	for name, p := range l.properties() {
		if err := validateProperty(p); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (l *Layer) properties() map[string]*Property {
	all := map[string]*Property{
		"position":        l.Position,
		"anchorPoint":     l.AnchorPoint,
		"scale":           l.Scale,
		"rotationX":       l.RotationX,
		"rotationY":       l.RotationY,
		"rotationZ":       l.RotationZ,
		"orientation":     l.Orientation,
		"pointOfInterest": l.PointOfInterest,
		"zoom":            l.Zoom,
		"opacity":         l.Opacity,
	}
	for k, p := range all {
		if p == nil {
			delete(all, k)
		}
	}
	return all
}

func validateProperty(p *Property) error {
	if len(p.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrMalformed)
	}
	for ci, ch := range p.Channels {
		prev := math.Inf(-1)
		for ki, k := range ch.Bezier {
			if k.Time < prev {
				return fmt.Errorf("%w: channel %d keyframe %d out of time order", ErrMalformed, ci, ki)
			}
			prev = k.Time
			for _, inf := range []float64{k.EaseIn.Influence, k.EaseOut.Influence} {
				if inf < 0 || inf > 100 {
					return fmt.Errorf("%w: channel %d keyframe %d influence %v outside [0,100]", ErrMalformed, ci, ki, inf)
				}
			}
		}
	}
	return nil
}

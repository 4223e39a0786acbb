// Package importer turns an exported After Effects composition into objects,
// curves and settings of a scene document.
package importer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ivlev/aecomp/internal/comp"
	"github.com/ivlev/aecomp/internal/scene"
)

// ErrInvariant is returned when the input breaks a rule the importer
// refuses to guess around, such as half-keyframed orientation.
var ErrInvariant = errors.New("invariant violation")

// Importer converts compositions with a fixed set of options. It holds no
// per-import state and may be shared between goroutines as long as each
// import targets its own scene document.
type Importer struct {
	opts Options
	log  *slog.Logger
}

// New returns an importer. A nil logger falls back to slog.Default().
func New(opts Options, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{opts: opts, log: logger}
}

// Result summarizes one import.
type Result struct {
	// Objects are all objects created, primary and synthetic, in creation order.
	Objects    []*scene.Object
	Collection *scene.Collection
	Curves     int
	// Markers counts camera markers created or rebound.
	Markers int
}

// Import converts doc into dst. The version gate and structural validation
// run before dst is touched; a *comp.VersionError leaves dst unchanged.
// Failures after that point leave whatever was already created in place.
func (im *Importer) Import(doc *comp.Document, dst *scene.Document) (*Result, error) {
	if err := comp.CheckVersion(doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := im.opts.Validate(); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}

	r := &run{
		im:      im,
		doc:     doc,
		dst:     dst,
		primary: make(map[int]*scene.Object, len(doc.Layers)),
	}
	return r.execute()
}

// run is the state of a single import.
type run struct {
	im    *Importer
	doc   *comp.Document
	dst   *scene.Document
	rates framerates

	added   []*scene.Object
	primary map[int]*scene.Object // by layer index
	finals  []layerFrame
	cameras []cameraSpan
}

// layerFrame pairs a layer with the outermost object that carries its
// transform; that object is what gets parented.
type layerFrame struct {
	layer  *comp.Layer
	target *scene.Object
}

func (r *run) execute() (*Result, error) {
	c := r.doc.Comp
	r.rates = desiredFramerates(r.im.opts.HandleFramerate, c.FrameRate, r.dst.Render)
	if r.im.opts.HandleFramerate == SetFramerate {
		r.dst.Render.FPS, r.dst.Render.FPSBase = sceneFramerate(c.FrameRate)
	}
	r.im.log.Info("importing composition",
		"comp", c.Name, "layers", len(r.doc.Layers), "baked", r.doc.TransformsBaked,
		"comp_fps", r.rates.comp, "desired_fps", r.rates.desired)

	for i := range r.doc.Layers {
		l := &r.doc.Layers[i]
		if err := r.buildLayer(l); err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", l.Index, l.Name, err)
		}
	}

	if !r.doc.TransformsBaked {
		if err := r.linkHierarchy(); err != nil {
			return nil, err
		}
	}
	res := &Result{Objects: r.added}
	res.Collection = r.linkCollection()
	if r.im.opts.UseCompResolution {
		applyResolution(&r.dst.Render, c)
	}
	if r.im.opts.AdjustFrameStartEnd {
		applyFrameRange(&r.dst.Render, c.WorkArea, r.rates.desired)
	}
	if r.im.opts.CamerasToMarkers {
		res.Markers = r.camerasToMarkers()
	}

	for _, o := range r.added {
		res.Curves += len(o.Anim.Curves())
	}
	r.im.log.Info("composition imported",
		"comp", c.Name, "objects", len(res.Objects), "curves", res.Curves, "markers", res.Markers)
	return res, nil
}

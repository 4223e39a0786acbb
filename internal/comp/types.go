// Package comp models the JSON document written by the After Effects
// composition exporter.
package comp

import "strings"

// Document is the root of an exported composition.
type Document struct {
	Version         *int     `json:"version"`
	Comp            *Comp    `json:"comp"`
	Sources         []Source `json:"sources"`
	TransformsBaked bool     `json:"transformsBaked"`
	Layers          []Layer  `json:"layers"`
}

// Comp describes the exported composition. Times are in seconds.
type Comp struct {
	Name        string     `json:"name"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	FrameRate   float64    `json:"frameRate"`
	PixelAspect float64    `json:"pixelAspect"`
	WorkArea    [2]float64 `json:"workArea"`
	Duration    float64    `json:"duration,omitempty"`
}

// Source is a footage item referenced by av layers.
type Source struct {
	Name   string    `json:"name,omitempty"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Type   string    `json:"type,omitempty"` // "solid", "file" or "unknown"
	File   string    `json:"file,omitempty"`
	Color  []float64 `json:"color,omitempty"`
}

// LayerType is the kind of timeline element.
type LayerType string

const (
	LayerAV      LayerType = "av"
	LayerCamera  LayerType = "camera"
	LayerUnknown LayerType = "unknown"
)

// Layer is one timeline element. Transform properties are either given per
// channel (position, scale, rotation...) or, when the document has
// TransformsBaked set, as one matrix per frame in Transform.
type Layer struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	Type        LayerType `json:"type"`
	ParentIndex *int      `json:"parentIndex"`

	// av only
	Source    *int `json:"source,omitempty"`
	NullLayer bool `json:"nullLayer,omitempty"`

	Position        *Property `json:"position,omitempty"`
	AnchorPoint     *Property `json:"anchorPoint,omitempty"`
	Scale           *Property `json:"scale,omitempty"`
	RotationX       *Property `json:"rotationX,omitempty"`
	RotationY       *Property `json:"rotationY,omitempty"`
	RotationZ       *Property `json:"rotationZ,omitempty"`
	Orientation     *Property `json:"orientation,omitempty"`
	PointOfInterest *Property `json:"pointOfInterest,omitempty"`
	Zoom            *Property `json:"zoom,omitempty"`
	Opacity         *Property `json:"opacity,omitempty"`

	Transform *BakedTransform `json:"transform,omitempty"`

	// camera only; older exports omit them
	InFrame  *float64 `json:"inFrame,omitempty"`
	OutFrame *float64 `json:"outFrame,omitempty"`
	Enabled  *bool    `json:"enabled,omitempty"`
}

// Kind folds unrecognized type tags into LayerUnknown.
func (l *Layer) Kind() LayerType {
	switch l.Type {
	case LayerAV, LayerCamera:
		return l.Type
	}
	return LayerUnknown
}

// Property is a single- or multi-channel layer property.
type Property struct {
	NumDimensions int       `json:"numDimensions,omitempty"`
	Channels      []Channel `json:"channels"`
}

// Channel returns channel i. Exports of 2D properties carry fewer channels;
// the missing ones read as a static neutral value.
func (p *Property) Channel(i int, neutral float64) Channel {
	if i < len(p.Channels) {
		return p.Channels[i]
	}
	return Channel{Value: neutral}
}

// AnyKeyframed reports whether at least one channel is animated.
func (p *Property) AnyKeyframed() bool {
	for _, ch := range p.Channels {
		if ch.IsKeyframed {
			return true
		}
	}
	return false
}

// KeyframesFormat tells how a keyframed channel is encoded.
type KeyframesFormat string

const (
	// FormatBezier keeps After Effects keyframes with temporal ease.
	FormatBezier KeyframesFormat = "bezier"
	// FormatCalculated is one sample per frame (times supersampling).
	FormatCalculated KeyframesFormat = "calculated"
)

// Channel is one dimension of a property. Static channels only carry Value;
// keyframed ones carry either Bezier keyframes or baked Samples.
type Channel struct {
	IsKeyframed bool
	Value       float64

	Format        KeyframesFormat
	StartFrame    float64
	Supersampling int
	Bezier        []BezierKeyframe
	Samples       []float64
}

// SupersamplingRate returns the number of samples per frame, at least 1.
func (c Channel) SupersamplingRate() int {
	if c.Supersampling < 1 {
		return 1
	}
	return c.Supersampling
}

// Interpolation is an After Effects keyframe interpolation type.
type Interpolation string

const (
	InterpolationLinear Interpolation = "linear"
	InterpolationBezier Interpolation = "bezier"
	InterpolationHold   Interpolation = "hold"
)

// Ease is the temporal ease of one side of a keyframe. Influence is a
// percentage (0–100) of the time to the neighboring key, Speed is in value
// units per second.
type Ease struct {
	Speed     float64 `json:"speed"`
	Influence float64 `json:"influence"`
}

// BezierKeyframe is an After Effects keyframe. Time is in seconds.
type BezierKeyframe struct {
	Time             float64       `json:"time"`
	Value            float64       `json:"value"`
	InterpolationIn  Interpolation `json:"interpolationIn,omitempty"`
	InterpolationOut Interpolation `json:"interpolationOut,omitempty"`
	EaseIn           Ease          `json:"easeIn"`
	EaseOut          Ease          `json:"easeOut"`
}

// HoldOut reports whether the segment after this key is held. Exporters
// have written the tag in both cases.
func (k BezierKeyframe) HoldOut() bool {
	return strings.EqualFold(string(k.InterpolationOut), string(InterpolationHold))
}

// BakedTransform holds one row-major 3×4 affine matrix per sample.
type BakedTransform struct {
	StartFrame    float64     `json:"startFrame"`
	Supersampling int         `json:"supersampling,omitempty"`
	Keyframes     [][]float64 `json:"keyframes"`
}

// SupersamplingRate returns the number of samples per frame, at least 1.
func (b *BakedTransform) SupersamplingRate() int {
	if b.Supersampling < 1 {
		return 1
	}
	return b.Supersampling
}

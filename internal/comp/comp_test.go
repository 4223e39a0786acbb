package comp

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "version": 3,
  "comp": {"name": "Main", "width": 1920, "height": 1080, "frameRate": 24,
           "pixelAspect": 1, "workArea": [0, 5]},
  "sources": [{"width": 640, "height": 480, "name": "Plate", "type": "file"}],
  "transformsBaked": false,
  "layers": [
    {"index": 1, "name": "Camera 1", "type": "camera", "parentIndex": null,
     "zoom": {"channels": [{"isKeyframed": false, "value": 1500}]},
     "inFrame": 0, "outFrame": 120, "enabled": true},
    {"index": 2, "name": "Plate", "type": "av", "parentIndex": 3, "source": 0,
     "nullLayer": false,
     "position": {"numDimensions": 2, "channels": [
        {"isKeyframed": true, "keyframesFormat": "bezier", "keyframes": [
          {"time": 0, "value": 0, "interpolationIn": "bezier", "interpolationOut": "HOLD",
           "easeIn": {"speed": 0, "influence": 16.67}, "easeOut": {"speed": 5, "influence": 50}},
          {"time": 1, "value": 10, "interpolationIn": "linear", "interpolationOut": "linear",
           "easeIn": {"speed": 0, "influence": 33}, "easeOut": {"speed": 0, "influence": 33}}
        ]},
        {"isKeyframed": true, "keyframesFormat": "calculated", "startFrame": 10,
         "supersampling": 2, "keyframes": [1, 2, 3]}
     ]}},
    {"index": 3, "name": "Null", "type": "av", "parentIndex": null, "nullLayer": true},
    {"index": 4, "name": "Light", "type": "light", "parentIndex": null}
  ]
}`

func decodeSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	return doc
}

func TestDecode(t *testing.T) {
	doc := decodeSample(t)

	require.NotNil(t, doc.Version)
	assert.Equal(t, 3, *doc.Version)
	assert.Equal(t, "Main", doc.Comp.Name)
	assert.Equal(t, [2]float64{0, 5}, doc.Comp.WorkArea)
	require.Len(t, doc.Layers, 4)

	pos := doc.Layers[1].Position
	require.NotNil(t, pos)
	bz := pos.Channels[0]
	assert.Equal(t, FormatBezier, bz.Format)
	require.Len(t, bz.Bezier, 2)
	assert.Equal(t, 5.0, bz.Bezier[0].EaseOut.Speed)
	assert.True(t, bz.Bezier[0].HoldOut())
	assert.False(t, bz.Bezier[1].HoldOut())

	calc := pos.Channels[1]
	assert.Equal(t, FormatCalculated, calc.Format)
	assert.Equal(t, []float64{1, 2, 3}, calc.Samples)
	assert.Equal(t, 2, calc.SupersamplingRate())
	assert.Equal(t, 10.0, calc.StartFrame)

	assert.Equal(t, LayerCamera, doc.Layers[0].Kind())
	assert.Equal(t, LayerUnknown, doc.Layers[3].Kind())
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"version": 3,`},
		{"not an object", `[3]`},
		{"static without value", `{"version": 3, "layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": false}]}}]}`},
		{"unknown format", `{"version": 3, "layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": true, "keyframesFormat": "tcb", "keyframes": []}]}}]}`},
		{"wrong sample type", `{"version": 3, "layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": true, "keyframesFormat": "calculated", "keyframes": [{"time": 0}]}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeChecksVersionFirst(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind VersionErrorKind
	}{
		{"newer keyframes format", `{"version": 4, "layers": [{"index": 1, "scale": {"channels": [
			{"isKeyframed": true, "keyframesFormat": "spatialBezier", "keyframes": [{"t": 0}]}]}}]}`, TooNew},
		{"newer comp layout", `{"version": 4, "comp": {"workArea": {"start": 0, "end": 5}}}`, TooNew},
		{"older channel layout", `{"version": 2, "layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": false}]}}]}`, TooOld},
		{"absent", `{"layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": false}]}}]}`, Invalid},
		{"null", `{"version": null}`, Invalid},
		{"not an integer", `{"version": "3"}`, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			var verr *VersionError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.kind, verr.Kind)
			assert.False(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestChannelMarshalRoundTrip(t *testing.T) {
	doc := decodeSample(t)
	ch := doc.Layers[1].Position.Channels[1]

	data, err := json.Marshal(ch)
	require.NoError(t, err)
	var back Channel
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ch, back)
}

func TestPropertyChannelNeutral(t *testing.T) {
	doc := decodeSample(t)
	pos := doc.Layers[1].Position

	z := pos.Channel(2, 0)
	assert.False(t, z.IsKeyframed)
	assert.Equal(t, 0.0, z.Value)
	assert.Equal(t, 100.0, pos.Channel(5, 100).Value)
	assert.True(t, pos.Channel(0, 0).IsKeyframed)
	assert.True(t, pos.AnyKeyframed())
}

func TestCheckVersion(t *testing.T) {
	v := func(n int) *int { return &n }
	tests := []struct {
		name    string
		version *int
		kind    VersionErrorKind
		ok      bool
	}{
		{"supported", v(SupportedVersion), 0, true},
		{"too new", v(SupportedVersion + 1), TooNew, false},
		{"too old", v(SupportedVersion - 1), TooOld, false},
		{"zero", v(0), TooOld, false},
		{"absent", nil, Invalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVersion(&Document{Version: tt.version})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *VersionError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)
		})
	}

	err := CheckVersion(&Document{Version: v(SupportedVersion + 1)})
	assert.Contains(t, err.Error(), "too new")
	err = CheckVersion(&Document{Version: v(SupportedVersion - 1)})
	assert.Contains(t, err.Error(), "too old")
}

func TestValidate(t *testing.T) {
	require.NoError(t, decodeSample(t).Validate())

	tests := []struct {
		name   string
		mutate func(d *Document)
	}{
		{"no comp", func(d *Document) { d.Comp = nil }},
		{"zero frame rate", func(d *Document) { d.Comp.FrameRate = 0 }},
		{"work area reversed", func(d *Document) { d.Comp.WorkArea = [2]float64{3, 1} }},
		{"duplicate index", func(d *Document) { d.Layers[2].Index = 1 }},
		{"dangling parent", func(d *Document) { p := 99; d.Layers[1].ParentIndex = &p }},
		{"source out of range", func(d *Document) { s := 4; d.Layers[1].Source = &s }},
		{"influence above 100", func(d *Document) {
			d.Layers[1].Position.Channels[0].Bezier[0].EaseOut.Influence = 101
		}},
		{"camera without zoom", func(d *Document) { d.Layers[0].Zoom = nil }},
		{"baked without transform", func(d *Document) { d.TransformsBaked = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeSample(t)
			tt.mutate(doc)
			assert.ErrorIs(t, doc.Validate(), ErrMalformed)
		})
	}
}

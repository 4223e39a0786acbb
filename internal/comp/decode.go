package comp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformed marks documents that are structurally broken: missing
// required fields, wrong types, dangling references.
var ErrMalformed = errors.New("malformed composition file")

// channelJSON is the wire form of Channel; keyframes are decoded once the
// format is known.
type channelJSON struct {
	IsKeyframed     bool            `json:"isKeyframed"`
	Value           *float64        `json:"value,omitempty"`
	KeyframesFormat KeyframesFormat `json:"keyframesFormat,omitempty"`
	StartFrame      float64         `json:"startFrame,omitempty"`
	Supersampling   int             `json:"supersampling,omitempty"`
	Keyframes       json.RawMessage `json:"keyframes,omitempty"`
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	var raw channelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Channel{IsKeyframed: raw.IsKeyframed}
	if !raw.IsKeyframed {
		if raw.Value == nil {
			return fmt.Errorf("%w: static channel without value", ErrMalformed)
		}
		c.Value = *raw.Value
		return nil
	}

	c.Format = raw.KeyframesFormat
	c.StartFrame = raw.StartFrame
	c.Supersampling = raw.Supersampling
	switch raw.KeyframesFormat {
	case FormatBezier:
		if err := json.Unmarshal(raw.Keyframes, &c.Bezier); err != nil {
			return fmt.Errorf("%w: bezier keyframes: %v", ErrMalformed, err)
		}
	case FormatCalculated:
		if err := json.Unmarshal(raw.Keyframes, &c.Samples); err != nil {
			return fmt.Errorf("%w: calculated keyframes: %v", ErrMalformed, err)
		}
	default:
		return fmt.Errorf("%w: unknown keyframes format %q", ErrMalformed, raw.KeyframesFormat)
	}
	return nil
}

func (c Channel) MarshalJSON() ([]byte, error) {
	raw := struct {
		channelJSON
		Keyframes any `json:"keyframes,omitempty"`
	}{}
	raw.IsKeyframed = c.IsKeyframed
	if !c.IsKeyframed {
		v := c.Value
		raw.Value = &v
		return json.Marshal(raw)
	}
	raw.KeyframesFormat = c.Format
	raw.StartFrame = c.StartFrame
	raw.Supersampling = c.Supersampling
	if c.Format == FormatBezier {
		raw.Keyframes = c.Bezier
	} else {
		raw.Keyframes = c.Samples
	}
	return json.Marshal(raw)
}

// Decode parses an exported composition. The schema version is read and
// checked first, so a document of another version comes back as a
// *VersionError however its layout differs.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var header struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkRawVersion(header.Version); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// checkRawVersion runs CheckVersion on the undecoded version field. A
// missing, null or non-integer version is Invalid.
func checkRawVersion(raw json.RawMessage) error {
	var v *int
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return &VersionError{Kind: Invalid}
		}
	}
	return CheckVersion(&Document{Version: v})
}

// ReadFile opens and decodes path. See Decode for the version check.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

package poly

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Document represents a HouseExpo-style floor-plan JSON file. Only the
// "verts" key is interpreted; every other key is carried through byte-for-byte
// so refined output stays diffable against its source.
type Document struct {
	Verts orb.Ring
	Extra map[string]json.RawMessage
}

// UnmarshalJSON decodes a floor-plan object, splitting "verts" from the
// pass-through keys. Structural problems surface as ErrMalformedInput.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	raw, ok := fields["verts"]
	if !ok {
		return fmt.Errorf(`%w: missing "verts" key`, ErrMalformedInput)
	}
	delete(fields, "verts")

	var verts orb.Ring
	if err := json.Unmarshal(raw, &verts); err != nil {
		return fmt.Errorf(`%w: bad "verts" value: %v`, ErrMalformedInput, err)
	}

	d.Verts = verts
	d.Extra = fields
	return nil
}

// MarshalJSON re-assembles the object with the current vertex list under
// "verts" and all pass-through keys unchanged.
func (d *Document) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(d.Extra)+1)
	for k, v := range d.Extra {
		fields[k] = v
	}

	verts, err := json.Marshal(d.Verts)
	if err != nil {
		return nil, err
	}
	fields["verts"] = verts

	return json.Marshal(fields)
}

// WithVerts returns a copy of the document carrying a new vertex list. The
// pass-through keys are shared, not copied; they are never mutated.
func (d *Document) WithVerts(verts orb.Ring) *Document {
	return &Document{Verts: verts, Extra: d.Extra}
}

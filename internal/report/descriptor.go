package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Descriptor identifies an insertable instance in the build order: its
// Symbol, plus an optional secondary name for Module (source path),
// ExternalTool (tool name), and Patch (patch source path) entries.
type Descriptor struct {
	Symbol Symbol
	Name   string // empty unless Symbol.HasName()
}

// Equal reports structural equality.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Symbol == other.Symbol && d.Name == other.Name
}

// String returns a human-readable form of the descriptor, with Module/
// ExternalTool/Patch names made relative to projectRoot when possible.
func (d Descriptor) String(projectRoot string) string {
	if !d.Symbol.HasName() || d.Name == "" {
		return string(d.Symbol)
	}

	name := d.Name
	if projectRoot != "" {
		if rel, err := filepath.Rel(projectRoot, d.Name); err == nil {
			name = rel
		}
	}

	return fmt.Sprintf("%s(%s)", d.Symbol, name)
}

type descriptorJSON struct {
	Symbol string  `json:"symbol"`
	Name   *string `json:"name"`
}

// MarshalJSON implements json.Marshaler.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	dj := descriptorJSON{Symbol: string(d.Symbol)}
	if d.Symbol.HasName() {
		dj.Name = &d.Name
	}
	return json.Marshal(dj)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var dj descriptorJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return err
	}

	sym, err := ParseSymbol(dj.Symbol)
	if err != nil {
		return err
	}

	d.Symbol = sym
	if dj.Name != nil {
		d.Name = *dj.Name
	} else {
		d.Name = ""
	}

	return nil
}

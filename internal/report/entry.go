package report

import "encoding/json"

// Hijack is a contiguous range of ROM bytes a Patch wrote: [Address,
// Address+Length).
type Hijack struct {
	Address uint32
	Length  uint32
}

// MarshalJSON encodes a Hijack as the wire's [address, length] pair.
func (h Hijack) MarshalJSON() ([]byte, error) {
	return marshalPair(h.Address, h.Length)
}

// UnmarshalJSON decodes a Hijack from the wire's [address, length] pair.
func (h *Hijack) UnmarshalJSON(data []byte) error {
	a, l, err := unmarshalPair(data)
	if err != nil {
		return err
	}
	h.Address, h.Length = a, l
	return nil
}

// Entry is the per-build-order-element record of what a prior insertion
// depended on. Hijacks is present iff Descriptor.Symbol == Patch: a Patch
// entry whose last apply wrote no hijacks still serializes "hijacks": [],
// never an absent key, so the wire shape itself carries the Patch/non-Patch
// distinction rather than an emptiness test.
type Entry struct {
	Descriptor                Descriptor                `json:"descriptor"`
	ConfigurationDependencies []ConfigurationDependency `json:"configuration_dependencies"`
	ResourceDependencies      []ResourceDependency      `json:"resource_dependencies"`
	Hijacks                   []Hijack                  `json:"hijacks,omitempty"`
}

type entryJSON struct {
	Descriptor                Descriptor                `json:"descriptor"`
	ConfigurationDependencies []ConfigurationDependency `json:"configuration_dependencies"`
	ResourceDependencies      []ResourceDependency      `json:"resource_dependencies"`
	Hijacks                   *[]Hijack                 `json:"hijacks,omitempty"`
}

// MarshalJSON implements json.Marshaler, emitting "hijacks" iff
// Descriptor.Symbol == Patch (as [] when there are none), and omitting the
// key entirely for every other symbol.
func (e Entry) MarshalJSON() ([]byte, error) {
	ej := entryJSON{
		Descriptor:                e.Descriptor,
		ConfigurationDependencies: e.ConfigurationDependencies,
		ResourceDependencies:      e.ResourceDependencies,
	}

	if e.Descriptor.Symbol == Patch {
		hijacks := e.Hijacks
		if hijacks == nil {
			hijacks = []Hijack{}
		}
		ej.Hijacks = &hijacks
	}

	return json.Marshal(ej)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var ej entryJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}

	e.Descriptor = ej.Descriptor
	e.ConfigurationDependencies = ej.ConfigurationDependencies
	e.ResourceDependencies = ej.ResourceDependencies

	if ej.Hijacks != nil {
		e.Hijacks = *ej.Hijacks
	} else {
		e.Hijacks = nil
	}

	return nil
}

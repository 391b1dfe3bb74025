package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EntityValue is a competitor or product entry as it arrives from loosely typed
// records: either a bare string or an object with a "name" field.
// Entries that resolve to anything else decode without error but stay invalid.
type EntityValue struct {
	Name  string
	Valid bool
}

// Named builds a valid EntityValue
func Named(name string) EntityValue {
	return EntityValue{Name: name, Valid: true}
}

// Names converts plain strings into entity values
func Names(names ...string) []EntityValue {
	values := make([]EntityValue, 0, len(names))
	for _, n := range names {
		values = append(values, Named(n))
	}
	return values
}

// Resolve returns the trimmed name and whether it is usable
func (v EntityValue) Resolve() (string, bool) {
	if !v.Valid {
		return "", false
	}
	name := strings.TrimSpace(v.Name)
	return name, name != ""
}

// UnmarshalYAML accepts a string scalar or a mapping with a string "name" key
func (v *EntityValue) UnmarshalYAML(node *yaml.Node) error {
	*v = EntityValue{}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!str" {
			*v = Named(node.Value)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if key.Value == "name" && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!str" {
				*v = Named(val.Value)
				break
			}
		}
	}

	return nil
}

// UnmarshalJSON accepts a JSON string or an object with a string "name" field
func (v *EntityValue) UnmarshalJSON(data []byte) error {
	*v = EntityValue{}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Named(s)
		return nil
	}

	var record struct {
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(data, &record); err != nil || record.Name == nil {
		return nil
	}
	if err := json.Unmarshal(record.Name, &s); err == nil {
		*v = Named(s)
	}

	return nil
}

// MarshalJSON encodes a valid entry as its name and an invalid one as null
func (v EntityValue) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Name)
}

// MarshalYAML mirrors MarshalJSON
func (v EntityValue) MarshalYAML() (interface{}, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.Name, nil
}

// Entities are the known values to highlight in a text
type Entities struct {
	BusinessName string        `json:"business_name,omitempty" yaml:"business_name,omitempty"`
	Competitors  []EntityValue `json:"competitors,omitempty" yaml:"competitors,omitempty"`
	Industry     string        `json:"industry,omitempty" yaml:"industry,omitempty"`
	Products     []EntityValue `json:"products,omitempty" yaml:"products,omitempty"`
}

// IsEmpty reports whether no usable entity is present
func (e Entities) IsEmpty() bool {
	if strings.TrimSpace(e.BusinessName) != "" || strings.TrimSpace(e.Industry) != "" {
		return false
	}
	for _, list := range [][]EntityValue{e.Competitors, e.Products} {
		for _, v := range list {
			if _, ok := v.Resolve(); ok {
				return false
			}
		}
	}
	return true
}

// Merge returns e with empty scalar fields filled from other and lists appended
func (e Entities) Merge(other Entities) Entities {
	merged := Entities{
		BusinessName: e.BusinessName,
		Industry:     e.Industry,
		Competitors:  append(append([]EntityValue{}, e.Competitors...), other.Competitors...),
		Products:     append(append([]EntityValue{}, e.Products...), other.Products...),
	}
	if strings.TrimSpace(merged.BusinessName) == "" {
		merged.BusinessName = other.BusinessName
	}
	if strings.TrimSpace(merged.Industry) == "" {
		merged.Industry = other.Industry
	}
	return merged
}

// Profile is a business profile file: the entities plus descriptive fields
type Profile struct {
	Entities `yaml:",inline"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty"`
}

// LoadProfile reads a YAML or JSON business profile
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	return &p, nil
}

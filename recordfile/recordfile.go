// Package recordfile loads service records from YAML definitions and from
// compiled CBOR record images.
package recordfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xaionaro-go/sdp"
)

// AttributeID accepts decimal or 0x-prefixed hex in YAML.
type AttributeID uint16

func (id *AttributeID) UnmarshalYAML(node *yaml.Node) error {
	v, err := strconv.ParseUint(node.Value, 0, 16)
	if err != nil {
		return fmt.Errorf("line %d: attribute ID: %w", node.Line, err)
	}
	*id = AttributeID(v)
	return nil
}

func (id AttributeID) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%04X", uint16(id)), nil
}

// Attribute is one entry of a Definition.
type Attribute struct {
	ID    AttributeID `yaml:"id"`
	Value Element     `yaml:"value"`
}

// Definition describes one service record.
type Definition struct {
	Name       string      `yaml:"name,omitempty"`
	Attributes []Attribute `yaml:"attributes"`
}

type file struct {
	Records []Definition `yaml:"records"`
}

// Record converts d into a service record.
func (d Definition) Record() sdp.ServiceRecord {
	attrs := make([]sdp.Attribute, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		attrs = append(attrs, sdp.Attr(sdp.AttributeID(a.ID), a.Value.DataElement))
	}
	return sdp.NewServiceRecord(attrs...)
}

// FromRecord converts a service record into a Definition.
func FromRecord(name string, r sdp.ServiceRecord) Definition {
	d := Definition{Name: name}
	for _, a := range r.Attributes() {
		d.Attributes = append(d.Attributes, Attribute{ID: AttributeID(a.ID), Value: Element{a.Value}})
	}
	return d
}

// Records converts all definitions.
func Records(defs []Definition) []sdp.ServiceRecord {
	out := make([]sdp.ServiceRecord, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Record())
	}
	return out
}

// ParseYAML parses a YAML record file:
//
//	records:
//	  - name: Serial Port
//	    attributes:
//	      - id: 0x0001
//	        value: {seq: [{uuid: "0x1101"}]}
func ParseYAML(data []byte) ([]Definition, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	for i, d := range f.Records {
		if len(d.Attributes) == 0 {
			return nil, fmt.Errorf("record %d (%q) has no attributes", i, d.Name)
		}
	}
	return f.Records, nil
}

// MarshalYAML renders definitions in the format read by ParseYAML.
func MarshalYAML(defs []Definition) ([]byte, error) {
	return yaml.Marshal(file{Records: defs})
}

// LoadFile reads a YAML (.yaml, .yml) or compiled (.cbor, .sdpdb) record file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	var defs []Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		defs, err = ParseYAML(data)
	case ".cbor", ".sdpdb":
		defs, err = DecodeImage(data)
	default:
		return nil, fmt.Errorf("%s: unknown record file extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

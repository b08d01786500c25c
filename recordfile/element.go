package recordfile

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/xaionaro-go/sdp"
)

// Element is a data element in YAML form: a mapping with exactly one key
// naming the type.
//
//	{uint16: 0x0100}
//	{uuid: "0x1101"}
//	{text: SerialPort}
//	{text: {hex: "00ff61"}}
//	{seq: [{uuid: "0x0100"}, {uint16: 3}]}
type Element struct {
	sdp.DataElement
}

var _ yaml.Unmarshaler = (*Element)(nil)
var _ yaml.Marshaler = Element{}

func (e *Element) UnmarshalYAML(node *yaml.Node) error {
	d, err := parseElement(node)
	if err != nil {
		return err
	}
	e.DataElement = d
	return nil
}

func (e Element) MarshalYAML() (any, error) {
	return formatElement(e.DataElement)
}

func parseElement(node *yaml.Node) (sdp.DataElement, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return sdp.DataElement{}, fmt.Errorf("line %d: a data element must be a mapping with a single type key", node.Line)
	}
	key, value := node.Content[0].Value, node.Content[1]

	scalar := func() (string, error) {
		if value.Kind != yaml.ScalarNode {
			return "", fmt.Errorf("line %d: %s needs a scalar value", value.Line, key)
		}
		return value.Value, nil
	}
	unsigned := func(bits int) (uint64, error) {
		s, err := scalar()
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(s, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("line %d: %s: %w", value.Line, key, err)
		}
		return v, nil
	}
	signed := func(bits int) (int64, error) {
		s, err := scalar()
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("line %d: %s: %w", value.Line, key, err)
		}
		return v, nil
	}
	wide := func() ([16]byte, error) {
		s, err := scalar()
		if err != nil {
			return [16]byte{}, err
		}
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil || len(b) != 16 {
			return [16]byte{}, fmt.Errorf("line %d: %s needs 32 hex digits", value.Line, key)
		}
		return [16]byte(b), nil
	}
	items := func() ([]sdp.DataElement, error) {
		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s needs a list", value.Line, key)
		}
		out := make([]sdp.DataElement, 0, len(value.Content))
		for _, n := range value.Content {
			d, err := parseElement(n)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	}

	switch key {
	case "nil":
		return sdp.Nil(), nil
	case "uint8":
		v, err := unsigned(8)
		return sdp.Uint8(uint8(v)), err
	case "uint16":
		v, err := unsigned(16)
		return sdp.Uint16(uint16(v)), err
	case "uint32":
		v, err := unsigned(32)
		return sdp.Uint32(uint32(v)), err
	case "uint64":
		v, err := unsigned(64)
		return sdp.Uint64(v), err
	case "uint128":
		b, err := wide()
		return sdp.Uint128(b), err
	case "int8":
		v, err := signed(8)
		return sdp.Int8(int8(v)), err
	case "int16":
		v, err := signed(16)
		return sdp.Int16(int16(v)), err
	case "int32":
		v, err := signed(32)
		return sdp.Int32(int32(v)), err
	case "int64":
		v, err := signed(64)
		return sdp.Int64(v), err
	case "int128":
		b, err := wide()
		return sdp.Int128(b), err
	case "uuid":
		s, err := scalar()
		if err != nil {
			return sdp.DataElement{}, err
		}
		u, err := sdp.ParseUUID(s)
		if err != nil {
			return sdp.DataElement{}, fmt.Errorf("line %d: %w", value.Line, err)
		}
		return sdp.UUIDElement(u), nil
	case "text":
		if value.Kind == yaml.MappingNode {
			return parseHexText(value)
		}
		if value.Tag == "!!binary" {
			b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(value.Value), ""))
			if err != nil {
				return sdp.DataElement{}, fmt.Errorf("line %d: text: %w", value.Line, err)
			}
			return sdp.TextBytes(b), nil
		}
		s, err := scalar()
		return sdp.Text(s), err
	case "url":
		s, err := scalar()
		return sdp.URL(s), err
	case "bool":
		s, err := scalar()
		if err != nil {
			return sdp.DataElement{}, err
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return sdp.DataElement{}, fmt.Errorf("line %d: bool: %w", value.Line, err)
		}
		return sdp.Bool(v), nil
	case "seq":
		v, err := items()
		return sdp.Sequence(v...), err
	case "alt":
		v, err := items()
		return sdp.Alternative(v...), err
	}
	return sdp.DataElement{}, fmt.Errorf("line %d: unknown data element type %q", node.Line, key)
}

// parseHexText reads text given as {hex: ...}, used for bytes YAML
// strings cannot carry.
func parseHexText(node *yaml.Node) (sdp.DataElement, error) {
	if len(node.Content) != 2 || node.Content[0].Value != "hex" || node.Content[1].Kind != yaml.ScalarNode {
		return sdp.DataElement{}, fmt.Errorf("line %d: text needs a string or a {hex: ...} mapping", node.Line)
	}
	b, err := hex.DecodeString(strings.TrimPrefix(node.Content[1].Value, "0x"))
	if err != nil {
		return sdp.DataElement{}, fmt.Errorf("line %d: text: %w", node.Line, err)
	}
	return sdp.TextBytes(b), nil
}

func formatElement(d sdp.DataElement) (map[string]any, error) {
	switch d.Type() {
	case sdp.TypeNil:
		return map[string]any{"nil": nil}, nil
	case sdp.TypeUint, sdp.TypeInt:
		if b, ok := d.Wide(); ok {
			key := "uint128"
			if d.Type() == sdp.TypeInt {
				key = "int128"
			}
			return map[string]any{key: "0x" + hex.EncodeToString(b[:])}, nil
		}
		bits := strconv.Itoa(d.Width() * 8)
		if v, ok := d.Uint(); ok {
			return map[string]any{"uint" + bits: fmt.Sprintf("0x%0*X", d.Width()*2, v)}, nil
		}
		v, _ := d.Int()
		return map[string]any{"int" + bits: v}, nil
	case sdp.TypeUUID:
		u, _ := d.UUID()
		return map[string]any{"uuid": u.String()}, nil
	case sdp.TypeText:
		b, _ := d.Text()
		if !utf8.Valid(b) {
			return map[string]any{"text": map[string]any{"hex": hex.EncodeToString(b)}}, nil
		}
		return map[string]any{"text": string(b)}, nil
	case sdp.TypeURL:
		s, _ := d.URL()
		return map[string]any{"url": s}, nil
	case sdp.TypeBool:
		v, _ := d.Bool()
		return map[string]any{"bool": v}, nil
	case sdp.TypeSequence, sdp.TypeAlternative:
		key := "seq"
		if d.Type() == sdp.TypeAlternative {
			key = "alt"
		}
		items := make([]Element, 0, d.Len())
		for _, item := range d.Items() {
			items = append(items, Element{item})
		}
		return map[string]any{key: items}, nil
	}
	return nil, fmt.Errorf("data element type %s has no YAML form", d.Type())
}

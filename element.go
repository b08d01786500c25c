package sdp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ElementType is the type descriptor of an SDP data element.
type ElementType uint8

const (
	TypeNil         ElementType = 0
	TypeUint        ElementType = 1
	TypeInt         ElementType = 2
	TypeUUID        ElementType = 3
	TypeText        ElementType = 4
	TypeBool        ElementType = 5
	TypeSequence    ElementType = 6
	TypeAlternative ElementType = 7
	TypeURL         ElementType = 8
)

func (t ElementType) String() string {
	switch t {
	case TypeNil:
		return "Nil"
	case TypeUint:
		return "Uint"
	case TypeInt:
		return "Int"
	case TypeUUID:
		return "UUID"
	case TypeText:
		return "Text"
	case TypeBool:
		return "Bool"
	case TypeSequence:
		return "Sequence"
	case TypeAlternative:
		return "Alternative"
	case TypeURL:
		return "URL"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// A DataElement is an SDP self-describing value.
//
// Values are immutable once built; the constructors below are the only way
// to make one, so a DataElement can be shared freely between records.
type DataElement struct {
	typ   ElementType
	width uint8 // payload width of Uint/Int/UUID/Bool
	num   uint64
	data  []byte // Text, URL, and the 16-byte Uint/Int payloads
	uuid  UUID
	items []DataElement
}

// Nil returns the nil data element.
func Nil() DataElement { return DataElement{typ: TypeNil} }

func Uint8(v uint8) DataElement   { return DataElement{typ: TypeUint, width: 1, num: uint64(v)} }
func Uint16(v uint16) DataElement { return DataElement{typ: TypeUint, width: 2, num: uint64(v)} }
func Uint32(v uint32) DataElement { return DataElement{typ: TypeUint, width: 4, num: uint64(v)} }
func Uint64(v uint64) DataElement { return DataElement{typ: TypeUint, width: 8, num: v} }

// Uint128 makes a 128-bit unsigned element from its big-endian bytes.
func Uint128(b [16]byte) DataElement {
	return DataElement{typ: TypeUint, width: 16, data: b[:]}
}

func Int8(v int8) DataElement   { return DataElement{typ: TypeInt, width: 1, num: uint64(uint8(v))} }
func Int16(v int16) DataElement { return DataElement{typ: TypeInt, width: 2, num: uint64(uint16(v))} }
func Int32(v int32) DataElement { return DataElement{typ: TypeInt, width: 4, num: uint64(uint32(v))} }
func Int64(v int64) DataElement { return DataElement{typ: TypeInt, width: 8, num: uint64(v)} }

// Int128 makes a 128-bit two's complement element from its big-endian bytes.
func Int128(b [16]byte) DataElement {
	return DataElement{typ: TypeInt, width: 16, data: b[:]}
}

// UUIDElement wraps u in a data element of u's width.
func UUIDElement(u UUID) DataElement {
	return DataElement{typ: TypeUUID, width: uint8(u.Len()), uuid: u}
}

// Text makes a text string element. The bytes are not interpreted.
func Text(s string) DataElement {
	return DataElement{typ: TypeText, data: []byte(s)}
}

// TextBytes makes a text string element from raw bytes; b is copied.
func TextBytes(b []byte) DataElement {
	return DataElement{typ: TypeText, data: bytes.Clone(b)}
}

// URL makes a URL element.
func URL(s string) DataElement {
	return DataElement{typ: TypeURL, data: []byte(s)}
}

// Bool makes a boolean element.
func Bool(v bool) DataElement {
	d := DataElement{typ: TypeBool, width: 1}
	if v {
		d.num = 1
	}
	return d
}

// Sequence makes a data element sequence; items is copied.
func Sequence(items ...DataElement) DataElement {
	return DataElement{typ: TypeSequence, items: append([]DataElement{}, items...)}
}

// Alternative makes a data element alternative; items is copied.
func Alternative(items ...DataElement) DataElement {
	return DataElement{typ: TypeAlternative, items: append([]DataElement{}, items...)}
}

// UUIDSequence is a shorthand for a Sequence of UUID elements, the shape of
// a ServiceClassIDList.
func UUIDSequence(uu ...UUID) DataElement {
	items := make([]DataElement, 0, len(uu))
	for _, u := range uu {
		items = append(items, UUIDElement(u))
	}
	return DataElement{typ: TypeSequence, items: items}
}

// Type returns the element's type descriptor.
func (d DataElement) Type() ElementType { return d.typ }

// Width returns the payload width in bytes for fixed-size types (Uint, Int,
// UUID, Bool) and 0 otherwise.
func (d DataElement) Width() int { return int(d.width) }

// Uint returns the value of an unsigned element of at most 64 bits.
func (d DataElement) Uint() (uint64, bool) {
	if d.typ != TypeUint || d.width > 8 {
		return 0, false
	}
	return d.num, true
}

// Int returns the sign-extended value of a signed element of at most 64 bits.
func (d DataElement) Int() (int64, bool) {
	if d.typ != TypeInt || d.width > 8 {
		return 0, false
	}
	switch d.width {
	case 1:
		return int64(int8(d.num)), true
	case 2:
		return int64(int16(d.num)), true
	case 4:
		return int64(int32(d.num)), true
	default:
		return int64(d.num), true
	}
}

// Wide returns the raw payload of a 128-bit Uint or Int element.
func (d DataElement) Wide() ([16]byte, bool) {
	if (d.typ != TypeUint && d.typ != TypeInt) || d.width != 16 {
		return [16]byte{}, false
	}
	return [16]byte(d.data), true
}

// UUID returns the UUID held by a UUID element.
func (d DataElement) UUID() (UUID, bool) {
	if d.typ != TypeUUID {
		return UUID{}, false
	}
	return d.uuid, true
}

// Text returns a copy of the bytes of a Text element.
func (d DataElement) Text() ([]byte, bool) {
	if d.typ != TypeText {
		return nil, false
	}
	return bytes.Clone(d.data), true
}

// URL returns the value of a URL element.
func (d DataElement) URL() (string, bool) {
	if d.typ != TypeURL {
		return "", false
	}
	return string(d.data), true
}

// Bool returns the value of a Bool element.
func (d DataElement) Bool() (bool, bool) {
	if d.typ != TypeBool {
		return false, false
	}
	return d.num != 0, true
}

// IsContainer reports whether d is a Sequence or an Alternative.
func (d DataElement) IsContainer() bool {
	return d.typ == TypeSequence || d.typ == TypeAlternative
}

// Len returns the number of items of a Sequence or Alternative.
func (d DataElement) Len() int { return len(d.items) }

// Item returns the i-th item of a Sequence or Alternative.
func (d DataElement) Item(i int) DataElement { return d.items[i] }

// Items returns a copy of the items of a Sequence or Alternative.
func (d DataElement) Items() []DataElement {
	if !d.IsContainer() {
		return nil
	}
	return append([]DataElement{}, d.items...)
}

// Equal reports whether d and o have the same type, width and value.
func (d DataElement) Equal(o DataElement) bool {
	if d.typ != o.typ || d.width != o.width {
		return false
	}
	switch d.typ {
	case TypeNil:
		return true
	case TypeUint, TypeInt:
		if d.width == 16 {
			return bytes.Equal(d.data, o.data)
		}
		return d.num == o.num
	case TypeBool:
		return d.num == o.num
	case TypeUUID:
		return d.uuid.width == o.uuid.width && d.uuid.Equal(o.uuid)
	case TypeText, TypeURL:
		return bytes.Equal(d.data, o.data)
	case TypeSequence, TypeAlternative:
		if len(d.items) != len(o.items) {
			return false
		}
		for i := range d.items {
			if !d.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// containsUUID reports whether u occurs anywhere within d.
func (d DataElement) containsUUID(u UUID) bool {
	switch d.typ {
	case TypeUUID:
		return d.uuid.Equal(u)
	case TypeSequence, TypeAlternative:
		for _, item := range d.items {
			if item.containsUUID(u) {
				return true
			}
		}
	}
	return false
}

// depth returns how many containers are nested in d; 0 for a scalar.
func (d DataElement) depth() int {
	n := 0
	for _, item := range d.items {
		n = max(n, item.depth())
	}
	if d.IsContainer() {
		n++
	}
	return n
}

func (d DataElement) String() string {
	var sb strings.Builder
	d.format(&sb)
	return sb.String()
}

func (d DataElement) format(sb *strings.Builder) {
	switch d.typ {
	case TypeNil:
		sb.WriteString("Nil")
	case TypeUint, TypeInt:
		name := "Uint"
		if d.typ == TypeInt {
			name = "Int"
		}
		fmt.Fprintf(sb, "%s%d(", name, int(d.width)*8)
		switch {
		case d.width == 16:
			sb.WriteString("0x" + hexString(d.data))
		case d.typ == TypeInt:
			v, _ := d.Int()
			sb.WriteString(strconv.FormatInt(v, 10))
		default:
			fmt.Fprintf(sb, "0x%0*X", int(d.width)*2, d.num)
		}
		sb.WriteByte(')')
	case TypeUUID:
		fmt.Fprintf(sb, "UUID%d(%s)", int(d.width)*8, d.uuid)
	case TypeText:
		fmt.Fprintf(sb, "Text(%q)", d.data)
	case TypeURL:
		fmt.Fprintf(sb, "URL(%q)", d.data)
	case TypeBool:
		fmt.Fprintf(sb, "Bool(%t)", d.num != 0)
	case TypeSequence, TypeAlternative:
		if d.typ == TypeSequence {
			sb.WriteString("Seq{")
		} else {
			sb.WriteString("Alt{")
		}
		for i, item := range d.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(d.typ.String())
	}
}

package sdp

import (
	"encoding/binary"
	"fmt"
)

// DefaultMaxDepth bounds the nesting of Sequences and Alternatives accepted
// by Decode.
const DefaultMaxDepth = 8

// maxValueDepth bounds the nesting of attribute values. A value is sent
// inside an attribute list, which a ServiceSearchAttributeResponse wraps
// in one more sequence.
const maxValueDepth = DefaultMaxDepth - 2

// Size indices of the data element header.
const (
	sizeIndex1     = 0
	sizeIndex2     = 1
	sizeIndex4     = 2
	sizeIndex8     = 3
	sizeIndex16    = 4
	sizeIndexLen8  = 5
	sizeIndexLen16 = 6
	sizeIndexLen32 = 7
)

var fixedWidth = [5]int{1, 2, 4, 8, 16}

func widthIndex(width uint8) byte {
	switch width {
	case 1:
		return sizeIndex1
	case 2:
		return sizeIndex2
	case 4:
		return sizeIndex4
	case 8:
		return sizeIndex8
	default:
		return sizeIndex16
	}
}

// payloadLen returns the number of bytes following the header.
func (d DataElement) payloadLen() int {
	switch d.typ {
	case TypeNil:
		return 0
	case TypeUint, TypeInt, TypeUUID, TypeBool:
		return int(d.width)
	case TypeText, TypeURL:
		return len(d.data)
	case TypeSequence, TypeAlternative:
		n := 0
		for _, item := range d.items {
			n += item.EncodedLen()
		}
		return n
	}
	return 0
}

func isVariable(t ElementType) bool {
	switch t {
	case TypeText, TypeURL, TypeSequence, TypeAlternative:
		return true
	}
	return false
}

// variableHeaderLen picks the smallest length field that fits n payload bytes.
func variableHeaderLen(n int) int {
	switch {
	case n <= 0xFF:
		return 2
	case n <= 0xFFFF:
		return 3
	default:
		return 5
	}
}

// EncodedLen returns the size of d's canonical encoding.
func (d DataElement) EncodedLen() int {
	n := d.payloadLen()
	if isVariable(d.typ) {
		return variableHeaderLen(n) + n
	}
	return 1 + n
}

// Append appends the canonical encoding of d to b.
func (d DataElement) Append(b []byte) []byte {
	n := d.payloadLen()
	desc := byte(d.typ) << 3
	switch {
	case d.typ == TypeNil:
		return append(b, desc)
	case isVariable(d.typ):
		switch variableHeaderLen(n) {
		case 2:
			b = append(b, desc|sizeIndexLen8, byte(n))
		case 3:
			b = append(b, desc|sizeIndexLen16)
			b = binary.BigEndian.AppendUint16(b, uint16(n))
		default:
			b = append(b, desc|sizeIndexLen32)
			b = binary.BigEndian.AppendUint32(b, uint32(n))
		}
	default:
		b = append(b, desc|widthIndex(d.width))
	}

	switch d.typ {
	case TypeUint, TypeInt:
		switch d.width {
		case 1:
			b = append(b, byte(d.num))
		case 2:
			b = binary.BigEndian.AppendUint16(b, uint16(d.num))
		case 4:
			b = binary.BigEndian.AppendUint32(b, uint32(d.num))
		case 8:
			b = binary.BigEndian.AppendUint64(b, d.num)
		default:
			b = append(b, d.data...)
		}
	case TypeBool:
		b = append(b, byte(d.num))
	case TypeUUID:
		b = append(b, d.uuid.b[:d.uuid.width]...)
	case TypeText, TypeURL:
		b = append(b, d.data...)
	case TypeSequence, TypeAlternative:
		for _, item := range d.items {
			b = item.Append(b)
		}
	}
	return b
}

// Encode returns the canonical encoding of d: the declared size always
// matches the payload and variable-length types use the smallest length field.
func Encode(d DataElement) []byte {
	return d.Append(make([]byte, 0, d.EncodedLen()))
}

// Decode parses one data element from the front of b and returns it along
// with the number of bytes consumed. Nesting is limited to DefaultMaxDepth.
func Decode(b []byte) (DataElement, int, error) {
	return DecodeDepth(b, DefaultMaxDepth)
}

// DecodeDepth is Decode with an explicit nesting limit.
//
// All failures wrap ErrMalformedElement. The returned element never aliases b.
func DecodeDepth(b []byte, maxDepth int) (DataElement, int, error) {
	return decode(b, 0, maxDepth)
}

func decode(b []byte, depth, maxDepth int) (DataElement, int, error) {
	if len(b) == 0 {
		return DataElement{}, 0, fmt.Errorf("%w: empty buffer", ErrMalformedElement)
	}
	typ, idx := ElementType(b[0]>>3), b[0]&0x07

	if typ == TypeNil {
		if idx != 0 {
			return DataElement{}, 0, fmt.Errorf("%w: nil with size index %d", ErrMalformedElement, idx)
		}
		return Nil(), 1, nil
	}

	hdr, n := 1, 0
	switch idx {
	case sizeIndexLen8:
		if len(b) < 2 {
			return DataElement{}, 0, fmt.Errorf("%w: truncated length", ErrMalformedElement)
		}
		hdr, n = 2, int(b[1])
	case sizeIndexLen16:
		if len(b) < 3 {
			return DataElement{}, 0, fmt.Errorf("%w: truncated length", ErrMalformedElement)
		}
		hdr, n = 3, int(binary.BigEndian.Uint16(b[1:]))
	case sizeIndexLen32:
		if len(b) < 5 {
			return DataElement{}, 0, fmt.Errorf("%w: truncated length", ErrMalformedElement)
		}
		l := binary.BigEndian.Uint32(b[1:])
		if uint64(l) > uint64(len(b)-5) {
			return DataElement{}, 0, fmt.Errorf("%w: declared length %d exceeds %d remaining bytes", ErrMalformedElement, l, len(b)-5)
		}
		hdr, n = 5, int(l)
	default:
		n = fixedWidth[idx]
	}
	if n > len(b)-hdr {
		return DataElement{}, 0, fmt.Errorf("%w: declared length %d exceeds %d remaining bytes", ErrMalformedElement, n, len(b)-hdr)
	}
	payload := b[hdr : hdr+n]
	consumed := hdr + n

	badSize := func() (DataElement, int, error) {
		return DataElement{}, 0, fmt.Errorf("%w: type %s with size index %d", ErrMalformedElement, typ, idx)
	}

	switch typ {
	case TypeUint, TypeInt:
		if idx > sizeIndex16 {
			return badSize()
		}
		d := DataElement{typ: typ, width: uint8(n)}
		switch n {
		case 1:
			d.num = uint64(payload[0])
		case 2:
			d.num = uint64(binary.BigEndian.Uint16(payload))
		case 4:
			d.num = uint64(binary.BigEndian.Uint32(payload))
		case 8:
			d.num = binary.BigEndian.Uint64(payload)
		default:
			d.data = append([]byte{}, payload...)
		}
		return d, consumed, nil

	case TypeUUID:
		if idx != sizeIndex2 && idx != sizeIndex4 && idx != sizeIndex16 {
			return badSize()
		}
		u, _ := uuidFromBytes(payload)
		return UUIDElement(u), consumed, nil

	case TypeBool:
		if idx != sizeIndex1 {
			return badSize()
		}
		return Bool(payload[0] != 0), consumed, nil

	case TypeText, TypeURL:
		if idx < sizeIndexLen8 {
			return badSize()
		}
		return DataElement{typ: typ, data: append([]byte{}, payload...)}, consumed, nil

	case TypeSequence, TypeAlternative:
		if idx < sizeIndexLen8 {
			return badSize()
		}
		if depth+1 > maxDepth {
			return DataElement{}, 0, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedElement, maxDepth)
		}
		var items []DataElement
		for off := 0; off < len(payload); {
			item, m, err := decode(payload[off:], depth+1, maxDepth)
			if err != nil {
				return DataElement{}, 0, err
			}
			items = append(items, item)
			off += m
		}
		return DataElement{typ: typ, items: items}, consumed, nil
	}

	return DataElement{}, 0, fmt.Errorf("%w: unknown type %d", ErrMalformedElement, uint8(typ))
}

// DecodeAll decodes b as exactly one data element.
func DecodeAll(b []byte, maxDepth int) (DataElement, error) {
	d, n, err := DecodeDepth(b, maxDepth)
	if err != nil {
		return DataElement{}, err
	}
	if n != len(b) {
		return DataElement{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedElement, len(b)-n)
	}
	return d, nil
}

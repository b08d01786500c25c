// Package bluez publishes service records through a running BlueZ daemon.
package bluez

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/xaionaro-go/sdp"
)

// BlueZ SDP XML record format, as accepted by ProfileManager1.RegisterProfile
// in the "ServiceRecord" option.

type xmlRecord struct {
	XMLName    xml.Name       `xml:"record"`
	Attributes []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	ID    string     `xml:"id,attr"`
	Value xmlElement `xml:",any"`
}

type xmlElement struct {
	XMLName  xml.Name
	Value    string       `xml:"value,attr,omitempty"`
	Encoding string       `xml:"encoding,attr,omitempty"`
	Items    []xmlElement `xml:",any"`
}

// RecordXML renders r in the BlueZ XML format. The ServiceRecordHandle is
// left out since bluetoothd assigns its own.
func RecordXML(r sdp.ServiceRecord) (string, error) {
	rec := xmlRecord{}
	for _, a := range r.Attributes() {
		if a.ID == sdp.AttrServiceRecordHandle {
			continue
		}
		e, err := toXML(a.Value)
		if err != nil {
			return "", fmt.Errorf("attribute 0x%04X: %w", uint16(a.ID), err)
		}
		rec.Attributes = append(rec.Attributes, xmlAttribute{
			ID:    fmt.Sprintf("0x%04x", uint16(a.ID)),
			Value: e,
		})
	}
	b, err := xml.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(b) + "\n", nil
}

func toXML(d sdp.DataElement) (xmlElement, error) {
	el := func(name, value string) xmlElement {
		return xmlElement{XMLName: xml.Name{Local: name}, Value: value}
	}
	switch d.Type() {
	case sdp.TypeNil:
		return el("nil", ""), nil
	case sdp.TypeBool:
		v, _ := d.Bool()
		return el("boolean", strconv.FormatBool(v)), nil
	case sdp.TypeUint, sdp.TypeInt:
		prefix := "uint"
		if d.Type() == sdp.TypeInt {
			prefix = "int"
		}
		name := prefix + strconv.Itoa(d.Width()*8)
		if b, ok := d.Wide(); ok {
			return el(name, hex.EncodeToString(b[:])), nil
		}
		if v, ok := d.Uint(); ok {
			return el(name, fmt.Sprintf("0x%0*x", d.Width()*2, v)), nil
		}
		v, _ := d.Int()
		return el(name, strconv.FormatInt(v, 10)), nil
	case sdp.TypeUUID:
		u, _ := d.UUID()
		return el("uuid", strings.ToLower(u.String())), nil
	case sdp.TypeText:
		b, _ := d.Text()
		if printable(b) {
			return el("text", string(b)), nil
		}
		e := el("text", hex.EncodeToString(b))
		e.Encoding = "hex"
		return e, nil
	case sdp.TypeURL:
		s, _ := d.URL()
		return el("url", s), nil
	case sdp.TypeSequence, sdp.TypeAlternative:
		name := "sequence"
		if d.Type() == sdp.TypeAlternative {
			name = "alternate"
		}
		e := el(name, "")
		for _, item := range d.Items() {
			x, err := toXML(item)
			if err != nil {
				return xmlElement{}, err
			}
			e.Items = append(e.Items, x)
		}
		return e, nil
	}
	return xmlElement{}, fmt.Errorf("data element type %s has no XML form", d.Type())
}

func printable(b []byte) bool {
	for _, c := range string(b) {
		if c == unicode.ReplacementChar || (!unicode.IsPrint(c) && !unicode.IsSpace(c)) {
			return false
		}
	}
	return true
}

// ParseRecordXML reads a record in the BlueZ XML format.
func ParseRecordXML(s string) (sdp.ServiceRecord, error) {
	var rec xmlRecord
	if err := xml.Unmarshal([]byte(s), &rec); err != nil {
		return sdp.ServiceRecord{}, fmt.Errorf("invalid record XML: %w", err)
	}
	attrs := make([]sdp.Attribute, 0, len(rec.Attributes))
	for _, a := range rec.Attributes {
		id, err := strconv.ParseUint(a.ID, 0, 16)
		if err != nil {
			return sdp.ServiceRecord{}, fmt.Errorf("attribute id %q: %w", a.ID, err)
		}
		v, err := fromXML(a.Value)
		if err != nil {
			return sdp.ServiceRecord{}, fmt.Errorf("attribute 0x%04X: %w", id, err)
		}
		attrs = append(attrs, sdp.Attr(sdp.AttributeID(id), v))
	}
	return sdp.NewServiceRecord(attrs...), nil
}

func fromXML(e xmlElement) (sdp.DataElement, error) {
	name := e.XMLName.Local
	wide := func() ([16]byte, error) {
		b, err := hex.DecodeString(strings.TrimPrefix(e.Value, "0x"))
		if err != nil || len(b) != 16 {
			return [16]byte{}, fmt.Errorf("%s needs 32 hex digits, got %q", name, e.Value)
		}
		return [16]byte(b), nil
	}
	bits := func(prefix string) int {
		n, _ := strconv.Atoi(strings.TrimPrefix(name, prefix))
		return n
	}

	switch {
	case name == "nil":
		return sdp.Nil(), nil
	case name == "boolean":
		v, err := strconv.ParseBool(e.Value)
		return sdp.Bool(v), err
	case name == "uint128":
		b, err := wide()
		return sdp.Uint128(b), err
	case name == "int128":
		b, err := wide()
		return sdp.Int128(b), err
	case strings.HasPrefix(name, "uint"):
		n := bits("uint")
		v, err := strconv.ParseUint(e.Value, 0, n)
		if err != nil {
			return sdp.DataElement{}, fmt.Errorf("%s: %w", name, err)
		}
		switch n {
		case 8:
			return sdp.Uint8(uint8(v)), nil
		case 16:
			return sdp.Uint16(uint16(v)), nil
		case 32:
			return sdp.Uint32(uint32(v)), nil
		case 64:
			return sdp.Uint64(v), nil
		}
	case strings.HasPrefix(name, "int"):
		n := bits("int")
		v, err := strconv.ParseInt(e.Value, 0, n)
		if err != nil {
			return sdp.DataElement{}, fmt.Errorf("%s: %w", name, err)
		}
		switch n {
		case 8:
			return sdp.Int8(int8(v)), nil
		case 16:
			return sdp.Int16(int16(v)), nil
		case 32:
			return sdp.Int32(int32(v)), nil
		case 64:
			return sdp.Int64(v), nil
		}
	case name == "uuid":
		u, err := sdp.ParseUUID(e.Value)
		if err != nil {
			return sdp.DataElement{}, err
		}
		return sdp.UUIDElement(u), nil
	case name == "text":
		if e.Encoding == "hex" {
			b, err := hex.DecodeString(e.Value)
			if err != nil {
				return sdp.DataElement{}, fmt.Errorf("text: %w", err)
			}
			return sdp.TextBytes(b), nil
		}
		return sdp.Text(e.Value), nil
	case name == "url":
		return sdp.URL(e.Value), nil
	case name == "sequence", name == "alternate":
		items := make([]sdp.DataElement, 0, len(e.Items))
		for _, x := range e.Items {
			d, err := fromXML(x)
			if err != nil {
				return sdp.DataElement{}, err
			}
			items = append(items, d)
		}
		if name == "sequence" {
			return sdp.Sequence(items...), nil
		}
		return sdp.Alternative(items...), nil
	}
	return sdp.DataElement{}, fmt.Errorf("unknown element <%s>", name)
}

package sdp

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is one (ID, value) pair of a service record.
type Attribute struct {
	ID    AttributeID
	Value DataElement
}

// Attr is a shorthand for building an Attribute.
func Attr(id AttributeID, v DataElement) Attribute {
	return Attribute{ID: id, Value: v}
}

func (a Attribute) String() string {
	return fmt.Sprintf("0x%04X=%s", uint16(a.ID), a.Value)
}

// A ServiceRecord is an ordered set of attributes describing one service.
//
// Attributes are kept sorted by ID. A record handed out by the Store is a
// copy; changing it does not affect what the server sends.
type ServiceRecord struct {
	attrs []Attribute
}

// NewServiceRecord builds a record from attrs. Duplicate IDs are kept so
// that Store.Register can report them.
func NewServiceRecord(attrs ...Attribute) ServiceRecord {
	r := ServiceRecord{attrs: append([]Attribute{}, attrs...)}
	sort.SliceStable(r.attrs, func(i, j int) bool { return r.attrs[i].ID < r.attrs[j].ID })
	return r
}

// Handle returns the value of the ServiceRecordHandle attribute.
func (r ServiceRecord) Handle() (RecordHandle, bool) {
	v, ok := r.Attribute(AttrServiceRecordHandle)
	if !ok {
		return 0, false
	}
	h, ok := v.Uint()
	if !ok || v.Width() != 4 {
		return 0, false
	}
	return RecordHandle(h), true
}

// Attribute returns the value of the attribute id.
func (r ServiceRecord) Attribute(id AttributeID) (DataElement, bool) {
	i := sort.Search(len(r.attrs), func(i int) bool { return r.attrs[i].ID >= id })
	if i < len(r.attrs) && r.attrs[i].ID == id {
		return r.attrs[i].Value, true
	}
	return DataElement{}, false
}

// Attributes returns the attributes in ascending ID order.
func (r ServiceRecord) Attributes() []Attribute {
	return append([]Attribute{}, r.attrs...)
}

// Len returns the number of attributes.
func (r ServiceRecord) Len() int { return len(r.attrs) }

// ServiceClassIDs returns the UUIDs of the ServiceClassIDList.
func (r ServiceRecord) ServiceClassIDs() []UUID {
	v, ok := r.Attribute(AttrServiceClassIDList)
	if !ok {
		return nil
	}
	var uu []UUID
	for _, item := range v.items {
		if u, ok := item.UUID(); ok {
			uu = append(uu, u)
		}
	}
	return uu
}

// Equal reports whether both records carry the same attributes.
func (r ServiceRecord) Equal(o ServiceRecord) bool {
	if len(r.attrs) != len(o.attrs) {
		return false
	}
	for i := range r.attrs {
		if r.attrs[i].ID != o.attrs[i].ID || !r.attrs[i].Value.Equal(o.attrs[i].Value) {
			return false
		}
	}
	return true
}

func (r ServiceRecord) String() string {
	parts := make([]string, 0, len(r.attrs))
	for _, a := range r.attrs {
		parts = append(parts, a.String())
	}
	return "Record{" + strings.Join(parts, ", ") + "}"
}

func (r ServiceRecord) clone() ServiceRecord {
	return ServiceRecord{attrs: append([]Attribute{}, r.attrs...)}
}

// withHandle returns a copy of r with attribute 0x0000 set to h.
func (r ServiceRecord) withHandle(h RecordHandle) ServiceRecord {
	out := ServiceRecord{attrs: make([]Attribute, 0, len(r.attrs)+1)}
	out.attrs = append(out.attrs, Attr(AttrServiceRecordHandle, Uint32(uint32(h))))
	for _, a := range r.attrs {
		if a.ID != AttrServiceRecordHandle {
			out.attrs = append(out.attrs, a)
		}
	}
	return out
}

// checkAttributes validates the attribute set of a record being registered.
func (r ServiceRecord) checkAttributes() error {
	for i := 1; i < len(r.attrs); i++ {
		if r.attrs[i].ID == r.attrs[i-1].ID {
			return fmt.Errorf("%w: 0x%04X", ErrDuplicateAttribute, uint16(r.attrs[i].ID))
		}
	}
	for _, a := range r.attrs {
		if n := a.Value.depth(); n > maxValueDepth {
			return fmt.Errorf("%w: attribute 0x%04X nests %d containers, at most %d fit in a response", ErrMalformedElement, uint16(a.ID), n, maxValueDepth)
		}
	}
	v, ok := r.Attribute(AttrServiceClassIDList)
	if !ok {
		return fmt.Errorf("%w: ServiceClassIDList (0x0001)", ErrMissingRequiredAttribute)
	}
	if v.Type() != TypeSequence || v.Len() == 0 {
		return fmt.Errorf("%w: ServiceClassIDList must be a non-empty sequence of UUIDs, got %s", ErrMissingRequiredAttribute, v)
	}
	for _, item := range v.items {
		if item.Type() != TypeUUID {
			return fmt.Errorf("%w: ServiceClassIDList item %s is not a UUID", ErrMissingRequiredAttribute, item)
		}
	}
	return nil
}

package sdp

import (
	"fmt"
	"sort"
)

// SearchPattern is a ServiceSearchPattern: a record matches if it contains
// every UUID of the pattern.
type SearchPattern []UUID

// ParseSearchPattern converts a Sequence of 1 to 12 UUIDs.
func ParseSearchPattern(d DataElement) (SearchPattern, error) {
	if d.Type() != TypeSequence {
		return nil, fmt.Errorf("%w: search pattern is %s, not a sequence", ErrInvalidRequestSyntax, d.Type())
	}
	if d.Len() == 0 || d.Len() > maxPatternUUIDs {
		return nil, fmt.Errorf("%w: search pattern has %d UUIDs, want 1..%d", ErrInvalidRequestSyntax, d.Len(), maxPatternUUIDs)
	}
	p := make(SearchPattern, 0, d.Len())
	for _, item := range d.items {
		u, ok := item.UUID()
		if !ok {
			return nil, fmt.Errorf("%w: search pattern item %s is not a UUID", ErrInvalidRequestSyntax, item)
		}
		p = append(p, u)
	}
	return p, nil
}

// Element returns the pattern as it is sent on the wire.
func (p SearchPattern) Element() DataElement {
	return UUIDSequence(p...)
}

// SearchScope selects which part of a record is searched for UUIDs.
type SearchScope uint8

const (
	// ScopeServiceClass matches against the ServiceClassIDList only.
	ScopeServiceClass SearchScope = iota
	// ScopeRecord matches UUIDs found in any attribute value.
	ScopeRecord
)

// Matches reports whether r contains every UUID of p.
func (p SearchPattern) Matches(r ServiceRecord, scope SearchScope) bool {
	var classes DataElement
	if scope == ScopeServiceClass {
		v, ok := r.Attribute(AttrServiceClassIDList)
		if !ok {
			return false
		}
		classes = v
	}
	for _, u := range p {
		if scope == ScopeServiceClass {
			if !classes.containsUUID(u) {
				return false
			}
			continue
		}
		found := false
		for _, a := range r.attrs {
			if a.Value.containsUUID(u) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FindMatching returns the handles of all records matching p, ascending.
func (s *Store) FindMatching(p SearchPattern, scope SearchScope) []RecordHandle {
	var out []RecordHandle
	for _, h := range s.handles {
		if p.Matches(s.records[h], scope) {
			out = append(out, h)
		}
	}
	return out
}

// AttributeRange is an inclusive range of attribute IDs. A single ID is a
// range with Low == High.
type AttributeRange struct {
	Low  AttributeID
	High AttributeID
}

// AttributeIDList selects attributes of a record.
type AttributeIDList []AttributeRange

// AllAttributes selects every attribute.
func AllAttributes() AttributeIDList {
	return AttributeIDList{{Low: 0x0000, High: 0xFFFF}}
}

// AttributeIDs builds a list of single IDs.
func AttributeIDs(ids ...AttributeID) AttributeIDList {
	l := make(AttributeIDList, 0, len(ids))
	for _, id := range ids {
		l = append(l, AttributeRange{Low: id, High: id})
	}
	return l
}

// Contains reports whether id is selected by l.
func (l AttributeIDList) Contains(id AttributeID) bool {
	for _, r := range l {
		if id >= r.Low && id <= r.High {
			return true
		}
	}
	return false
}

// Element returns the list as it is sent on the wire: single IDs as Uint16,
// ranges as Uint32 with the low ID in the upper half.
func (l AttributeIDList) Element() DataElement {
	items := make([]DataElement, 0, len(l))
	for _, r := range l {
		if r.Low == r.High {
			items = append(items, Uint16(uint16(r.Low)))
		} else {
			items = append(items, Uint32(uint32(r.Low)<<16|uint32(r.High)))
		}
	}
	return Sequence(items...)
}

// ParseAttributeIDList converts the AttributeIDList parameter of a request.
func ParseAttributeIDList(d DataElement) (AttributeIDList, error) {
	if d.Type() != TypeSequence || d.Len() == 0 {
		return nil, fmt.Errorf("%w: attribute ID list must be a non-empty sequence, got %s", ErrInvalidRequestSyntax, d)
	}
	l := make(AttributeIDList, 0, d.Len())
	for _, item := range d.items {
		v, ok := item.Uint()
		switch {
		case ok && item.Width() == 2:
			l = append(l, AttributeRange{Low: AttributeID(v), High: AttributeID(v)})
		case ok && item.Width() == 4:
			r := AttributeRange{Low: AttributeID(v >> 16), High: AttributeID(v)}
			if r.Low > r.High {
				return nil, fmt.Errorf("%w: attribute range 0x%04X-0x%04X is reversed", ErrInvalidRequestSyntax, uint16(r.Low), uint16(r.High))
			}
			l = append(l, r)
		default:
			return nil, fmt.Errorf("%w: attribute ID list item %s", ErrInvalidRequestSyntax, item)
		}
	}
	return l, nil
}

// ProjectAttributes returns the attributes of r selected by l, in ascending
// ID order and each at most once. Selected IDs missing from r are skipped.
func ProjectAttributes(r ServiceRecord, l AttributeIDList) []Attribute {
	var out []Attribute
	for _, a := range r.attrs {
		if l.Contains(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// AttributeListElement encodes attrs as an AttributeList: a Sequence of
// alternating Uint16 IDs and values.
func AttributeListElement(attrs []Attribute) DataElement {
	items := make([]DataElement, 0, 2*len(attrs))
	for _, a := range attrs {
		items = append(items, Uint16(uint16(a.ID)), a.Value)
	}
	return DataElement{typ: TypeSequence, items: items}
}

// ParseAttributeList converts an AttributeList element back into attributes.
func ParseAttributeList(d DataElement) ([]Attribute, error) {
	if d.Type() != TypeSequence || d.Len()%2 != 0 {
		return nil, fmt.Errorf("%w: attribute list must be a sequence of ID/value pairs, got %s", ErrMalformedElement, d.Type())
	}
	attrs := make([]Attribute, 0, d.Len()/2)
	for i := 0; i < d.Len(); i += 2 {
		id, ok := d.items[i].Uint()
		if !ok || d.items[i].Width() != 2 {
			return nil, fmt.Errorf("%w: attribute ID %s", ErrMalformedElement, d.items[i])
		}
		attrs = append(attrs, Attr(AttributeID(id), d.items[i+1]))
	}
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].ID < attrs[j].ID })
	return attrs, nil
}

package sdp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatching(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	register := func(classes ...UUID) RecordHandle {
		h, err := st.Register(ctx, NewServiceRecord(
			Attr(AttrServiceClassIDList, UUIDSequence(classes...)),
			Attr(AttrBrowseGroupList, UUIDSequence(PublicBrowseRootUUID)),
		))
		require.NoError(t, err)
		return h
	}
	serial := register(SerialPortUUID)
	sink := register(AudioSinkUUID, AdvancedAudioDistributionUUID)
	both := register(SerialPortUUID, AudioSinkUUID)

	for _, tc := range []struct {
		name    string
		pattern SearchPattern
		scope   SearchScope
		want    []RecordHandle
	}{
		{"single match", SearchPattern{AdvancedAudioDistributionUUID}, ScopeServiceClass, []RecordHandle{sink}},
		{"multi match", SearchPattern{SerialPortUUID}, ScopeServiceClass, []RecordHandle{serial, both}},
		{"and semantics", SearchPattern{AudioSinkUUID, SerialPortUUID}, ScopeServiceClass, []RecordHandle{both}},
		{"order irrelevant", SearchPattern{SerialPortUUID, AudioSinkUUID}, ScopeServiceClass, []RecordHandle{both}},
		{"width irrelevant", SearchPattern{UUID32(0x1101)}, ScopeServiceClass, []RecordHandle{serial, both}},
		{"zero match", SearchPattern{OBEXObjectPushUUID}, ScopeServiceClass, nil},
		{"browse group not a class", SearchPattern{PublicBrowseRootUUID}, ScopeServiceClass, nil},
		{"deep search", SearchPattern{PublicBrowseRootUUID}, ScopeRecord, []RecordHandle{serial, sink, both}},
		{"deep search and", SearchPattern{PublicBrowseRootUUID, SerialPortUUID}, ScopeRecord, []RecordHandle{serial, both}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, st.FindMatching(tc.pattern, tc.scope))
		})
	}
}

func TestParseSearchPattern(t *testing.T) {
	p, err := ParseSearchPattern(UUIDSequence(SerialPortUUID, UUID32(0x1102)))
	require.NoError(t, err)
	assert.Equal(t, SearchPattern{SerialPortUUID, UUID32(0x1102)}, p)
	assert.True(t, p.Element().Equal(UUIDSequence(SerialPortUUID, UUID32(0x1102))))

	many := make([]UUID, maxPatternUUIDs+1)
	for i := range many {
		many[i] = UUID16(uint16(i))
	}
	for _, d := range []DataElement{
		UUIDElement(SerialPortUUID),
		Sequence(),
		UUIDSequence(many...),
		Sequence(UUIDElement(SerialPortUUID), Uint16(1)),
	} {
		_, err := ParseSearchPattern(d)
		assert.ErrorIs(t, err, ErrInvalidRequestSyntax, "%s", d)
	}

	_, err = ParseSearchPattern(UUIDSequence(many[:maxPatternUUIDs]...))
	assert.NoError(t, err)
}

func TestParseAttributeIDList(t *testing.T) {
	l, err := ParseAttributeIDList(Sequence(Uint16(0x0001), Uint32(0x01000102)))
	require.NoError(t, err)
	assert.Equal(t, AttributeIDList{{Low: 1, High: 1}, {Low: 0x0100, High: 0x0102}}, l)
	assert.True(t, l.Contains(0x0101))
	assert.False(t, l.Contains(0x0002))
	assert.True(t, l.Element().Equal(Sequence(Uint16(0x0001), Uint32(0x01000102))))

	for _, d := range []DataElement{
		Sequence(),
		Uint16(1),
		Sequence(Uint8(1)),
		Sequence(Uint32(0x00100001)),
	} {
		_, err := ParseAttributeIDList(d)
		assert.ErrorIs(t, err, ErrInvalidRequestSyntax, "%s", d)
	}
}

func TestProjectAttributes(t *testing.T) {
	r := serialPortRecord().withHandle(0x00010000)

	attrs := ProjectAttributes(r, AttributeIDList{{Low: 0x0100, High: 0xFFFF}, {Low: 0x0000, High: 0x0001}, {Low: 0x0001, High: 0x0001}})
	var ids []AttributeID
	for _, a := range attrs {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []AttributeID{AttrServiceRecordHandle, AttrServiceClassIDList, AttrServiceName}, ids)

	assert.Empty(t, ProjectAttributes(r, AttributeIDs(AttrProviderName)))
	assert.Len(t, ProjectAttributes(r, AllAttributes()), r.Len())
}

func TestAttributeListElement(t *testing.T) {
	attrs := []Attribute{
		Attr(AttrServiceClassIDList, UUIDSequence(SerialPortUUID)),
		Attr(AttrServiceName, Text("SerialPort")),
	}
	d := AttributeListElement(attrs)
	assert.Equal(t, 4, d.Len())

	back, err := ParseAttributeList(d)
	require.NoError(t, err)
	assert.Equal(t, attrs, back)

	_, err = ParseAttributeList(Sequence(Uint16(1)))
	assert.ErrorIs(t, err, ErrMalformedElement)
	_, err = ParseAttributeList(Sequence(Uint8(1), Nil()))
	assert.ErrorIs(t, err, ErrMalformedElement)
}

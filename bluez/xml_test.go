package bluez

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/sdp"
)

func TestRecordXML(t *testing.T) {
	r := sdp.NewServiceRecord(
		sdp.Attr(sdp.AttrServiceRecordHandle, sdp.Uint32(0x00010000)),
		sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.SerialPortUUID)),
		sdp.Attr(sdp.AttrServiceName, sdp.Text("Serial Port")),
	)
	s, err := RecordXML(r)
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>
<record>
  <attribute id="0x0001">
    <sequence>
      <uuid value="0x1101"></uuid>
    </sequence>
  </attribute>
  <attribute id="0x0100">
    <text value="Serial Port"></text>
  </attribute>
</record>
`, s)
}

func TestRecordXMLRoundTrip(t *testing.T) {
	r := sdp.NewServiceRecord(
		sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.AudioSinkUUID, sdp.MustParseUUID("00112233-4455-6677-8899-aabbccddeeff"))),
		sdp.Attr(sdp.AttrProtocolDescriptorList, sdp.Sequence(
			sdp.Sequence(sdp.UUIDElement(sdp.ProtocolL2CAPUUID), sdp.Uint16(0x0019)),
			sdp.Sequence(sdp.UUIDElement(sdp.ProtocolAVDTPUUID), sdp.Uint16(0x0103)),
		)),
		sdp.Attr(sdp.AttrServiceInfoTimeToLive, sdp.Uint32(0xDEADBEEF)),
		sdp.Attr(sdp.AttrDocumentationURL, sdp.URL("http://example.com/doc")),
		sdp.Attr(sdp.AttrServiceName, sdp.TextBytes([]byte{0x00, 0xFF, 'a'})),
		sdp.Attr(0x0300, sdp.Alternative(sdp.Int8(-5), sdp.Int64(-1<<40), sdp.Bool(true), sdp.Nil())),
		sdp.Attr(0x0301, sdp.Uint64(1<<63)),
		sdp.Attr(0x0302, sdp.Int128([16]byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})),
		sdp.Attr(0x0304, sdp.Uint8(7)),
	)
	s, err := RecordXML(r)
	require.NoError(t, err)
	assert.Contains(t, s, `<text value="00ff61" encoding="hex"></text>`)
	assert.Contains(t, s, `<uuid value="00112233-4455-6677-8899-aabbccddeeff"></uuid>`)
	assert.Contains(t, s, `<uint8 value="0x07"></uint8>`)

	got, err := ParseRecordXML(s)
	require.NoError(t, err)
	assert.True(t, r.Equal(got), "%s != %s", r, got)
}

func TestParseRecordXMLErrors(t *testing.T) {
	for name, s := range map[string]string{
		"not XML":       `<record>`,
		"bad id":        `<record><attribute id="zz"><nil/></attribute></record>`,
		"unknown":       `<record><attribute id="0x0001"><float value="1"/></attribute></record>`,
		"overflow":      `<record><attribute id="0x0001"><uint8 value="0x100"/></attribute></record>`,
		"bad uuid":      `<record><attribute id="0x0001"><uuid value="xyz"/></attribute></record>`,
		"bad hex text":  `<record><attribute id="0x0001"><text encoding="hex" value="zz"/></attribute></record>`,
		"short uint128": `<record><attribute id="0x0001"><uint128 value="01"/></attribute></record>`,
		"nested error":  `<record><attribute id="0x0001"><sequence><boolean value="maybe"/></sequence></attribute></record>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecordXML(s)
			assert.Error(t, err)
		})
	}
}

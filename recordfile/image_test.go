package recordfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/sdp"
)

func TestImageRoundTrip(t *testing.T) {
	defs := []Definition{
		FromRecord("Serial Port", serialPortRecord()),
		FromRecord("", sdp.NewServiceRecord(sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.OBEXObjectPushUUID)))),
	}
	img, err := EncodeImage(defs)
	require.NoError(t, err)

	again, err := EncodeImage(defs)
	require.NoError(t, err)
	assert.Equal(t, img, again)

	got, err := DecodeImage(img)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range defs {
		assert.Equal(t, defs[i].Name, got[i].Name)
		assert.True(t, defs[i].Record().Equal(got[i].Record()))
	}
}

func TestDecodeImageErrors(t *testing.T) {
	_, err := DecodeImage([]byte{0xFF})
	assert.Error(t, err)

	future, err := imageEncMode.Marshal(image{Version: imageVersion + 1})
	require.NoError(t, err)
	_, err = DecodeImage(future)
	assert.ErrorContains(t, err, "not supported")

	broken, err := imageEncMode.Marshal(image{
		Version: imageVersion,
		Records: []imageRecord{{Attributes: []imageAttribute{{ID: 1, Value: []byte{0x35, 0x05, 0x19}}}}},
	})
	require.NoError(t, err)
	_, err = DecodeImage(broken)
	assert.ErrorIs(t, err, sdp.ErrMalformedElement)
}

package sdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUID(t *testing.T) {
	for _, tc := range []struct {
		in    string
		width int
		str   string
	}{
		{"1101", 2, "0x1101"},
		{"0x1101", 2, "0x1101"},
		{"0x0000110A", 4, "0x0000110A"},
		{"00001101-0000-1000-8000-00805f9b34fb", 16, "00001101-0000-1000-8000-00805f9b34fb"},
	} {
		u, err := ParseUUID(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.width, u.Len(), tc.in)
		assert.Equal(t, tc.str, u.String(), tc.in)
	}

	for _, in := range []string{"", "11", "xyzw", "0x1234567", "not-a-uuid"} {
		_, err := ParseUUID(in)
		assert.Error(t, err, in)
	}
}

func TestUUIDEqualAcrossWidths(t *testing.T) {
	short := UUID16(0x1101)
	medium := UUID32(0x00001101)
	full := MustParseUUID("00001101-0000-1000-8000-00805F9B34FB")

	assert.True(t, short.Equal(medium))
	assert.True(t, short.Equal(full))
	assert.True(t, full.Equal(medium))
	assert.False(t, short.Equal(UUID16(0x1102)))
	assert.Equal(t, "00001101-0000-1000-8000-00805f9b34fb", short.FullString())

	v, ok := full.Short()
	require.True(t, ok)
	assert.Equal(t, uint32(0x1101), v)

	_, ok = MustParseUUID("6e400001-b5a3-f393-e0a9-e50e24dcca9e").Short()
	assert.False(t, ok)
}

func TestUUIDBytes(t *testing.T) {
	assert.Equal(t, []byte{0x11, 0x01}, UUID16(0x1101).Bytes())
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x02}, UUID32(0x00010002).Bytes())
	assert.True(t, UUID{}.IsZero())
}

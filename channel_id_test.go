package sdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelIDsWrap(t *testing.T) {
	a := newChannelIDs()
	first, err := a.get()
	require.NoError(t, err)
	assert.Equal(t, ChannelID(1), first)

	a.last = 0xFFFE
	id, err := a.get()
	require.NoError(t, err)
	assert.Equal(t, ChannelID(0xFFFF), id)

	// 1 is still open, so the counter skips 0 and 1 after wrapping.
	id, err = a.get()
	require.NoError(t, err)
	assert.Equal(t, ChannelID(2), id)

	a.put(first)
	a.last = 0xFFFF
	id, err = a.get()
	require.NoError(t, err)
	assert.Equal(t, ChannelID(1), id)
}

func TestChannelIDsExhausted(t *testing.T) {
	a := newChannelIDs()
	for range 0xFFFF {
		_, err := a.get()
		require.NoError(t, err)
	}
	_, err := a.get()
	assert.ErrorIs(t, err, ErrTooManyChannels)

	a.put(42)
	id, err := a.get()
	require.NoError(t, err)
	assert.Equal(t, ChannelID(42), id)
}

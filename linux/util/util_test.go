package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytePool(t *testing.T) {
	p := NewBytePool(8, 1)
	assert.Equal(t, 8, p.Width())

	b := p.Get()
	require.Len(t, b, 8)
	b[0] = 1
	p.Put(b[:2])
	again := p.Get()
	assert.Len(t, again, 8)
	assert.Equal(t, byte(1), again[0])

	p.Put(make([]byte, 4))
	assert.Len(t, p.Get(), 8)

	p.Close()
	p.Close()
	assert.Nil(t, p.Get())
	p.Put(make([]byte, 8))
}

func TestBDAddr(t *testing.T) {
	a, err := ParseBDAddr("00:1A:7D:DA:71:13")
	require.NoError(t, err)
	assert.Equal(t, BDAddr{0x00, 0x1A, 0x7D, 0xDA, 0x71, 0x13}, a)
	assert.Equal(t, "00:1a:7d:da:71:13", a.String())
	assert.Equal(t, a, BDAddrFromWire([6]byte{0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00}))

	_, err = ParseBDAddr("00:1A:7D:DA:71")
	assert.Error(t, err)
	_, err = ParseBDAddr("00:00:00:00:00:00:00:00")
	assert.Error(t, err)
}

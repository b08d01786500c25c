package sdp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopChannel struct {
	id  ChannelID
	mtu int
}

func (c nopChannel) ID() ChannelID { return c.id }

func (c nopChannel) MTU() int { return c.mtu }

func (c nopChannel) Send(_ context.Context, _ []byte) error { return nil }

func TestSessionTableOpenClose(t *testing.T) {
	tbl := newSessionTable(2)

	_, err := tbl.open(nopChannel{id: 1})
	require.NoError(t, err)
	_, err = tbl.open(nopChannel{id: 1})
	assert.Error(t, err)
	_, err = tbl.open(nopChannel{id: 2})
	require.NoError(t, err)
	_, err = tbl.open(nopChannel{id: 3})
	assert.ErrorIs(t, err, ErrTooManyChannels)
	assert.Equal(t, 2, tbl.len())

	assert.True(t, tbl.close(1))
	assert.False(t, tbl.close(1))
	_, _, ok := tbl.get(1)
	assert.False(t, ok)

	_, err = tbl.open(nopChannel{id: 3})
	require.NoError(t, err)
	_, slot, ok := tbl.get(3)
	require.True(t, ok)
	assert.Equal(t, 0, slot)
}

func TestSessionResume(t *testing.T) {
	tbl := newSessionTable(1)
	s, err := tbl.open(nopChannel{id: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, s.resume(0, PDUServiceAttributeRequest, []byte{0, s.gen, 0, 0}), ErrInvalidContinuationState)

	s.store(PDUServiceAttributeRequest, 0, []byte("0123456789"), 0, time.Now())
	s.cont.cursor = 4
	tok := s.token(0)
	require.Len(t, tok, continuationTokenLen)
	require.NoError(t, s.resume(0, PDUServiceAttributeRequest, tok))

	assert.ErrorIs(t, s.resume(0, PDUServiceSearchAttributeRequest, tok), ErrInvalidContinuationState)
	assert.ErrorIs(t, s.resume(1, PDUServiceAttributeRequest, tok), ErrInvalidContinuationState)
	assert.ErrorIs(t, s.resume(0, PDUServiceAttributeRequest, tok[:3]), ErrInvalidContinuationState)

	forged := append([]byte{}, tok...)
	forged[3]++
	assert.ErrorIs(t, s.resume(0, PDUServiceAttributeRequest, forged), ErrInvalidContinuationState)

	// A dropped or replaced response invalidates every token handed out.
	s.drop()
	assert.ErrorIs(t, s.resume(0, PDUServiceAttributeRequest, tok), ErrInvalidContinuationState)
	s.store(PDUServiceAttributeRequest, 0, []byte("0123456789"), 4, time.Now())
	assert.ErrorIs(t, s.resume(0, PDUServiceAttributeRequest, tok), ErrInvalidContinuationState)
}

func TestSessionStoreCopiesBody(t *testing.T) {
	tbl := newSessionTable(1)
	s, err := tbl.open(nopChannel{id: 1})
	require.NoError(t, err)

	body := []byte("abc")
	s.store(PDUServiceSearchRequest, 1, body, 0, time.Now())
	body[0] = 'x'
	assert.Equal(t, []byte("abc"), s.cont.buf)
	assert.Equal(t, stateAwaitingContinuation, s.state)
}

func TestSessionTableReclaim(t *testing.T) {
	tbl := newSessionTable(3)
	now := time.Unix(1000, 0)
	a, err := tbl.open(nopChannel{id: 1})
	require.NoError(t, err)
	b, err := tbl.open(nopChannel{id: 2})
	require.NoError(t, err)
	_, err = tbl.open(nopChannel{id: 3})
	require.NoError(t, err)

	a.store(PDUServiceSearchRequest, 1, []byte{0, 0, 0, 1}, 0, now)
	b.store(PDUServiceSearchRequest, 1, []byte{0, 0, 0, 1}, 0, now.Add(20*time.Second))

	assert.Equal(t, 0, tbl.reclaim(now))
	assert.Equal(t, 1, tbl.reclaim(now.Add(10*time.Second)))
	assert.False(t, a.active)
	assert.True(t, b.active)
	assert.Equal(t, stateIdle, a.state)
	assert.Equal(t, 0, tbl.reclaim(now.Add(10*time.Second)))
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "AwaitingContinuation", stateAwaitingContinuation.String())
	assert.Equal(t, "sessionState(9)", sessionState(9).String())
}

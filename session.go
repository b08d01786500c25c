package sdp

import (
	"encoding/binary"
	"fmt"
	"time"
)

// sessionState tracks the transaction in progress on a channel.
type sessionState uint8

const (
	stateIdle sessionState = iota
	stateDecoding
	stateResponding
	stateAwaitingContinuation
)

func (s sessionState) String() string {
	str := []string{
		"Idle",
		"Decoding",
		"Responding",
		"AwaitingContinuation",
	}
	if int(s) < len(str) {
		return str[s]
	}
	return fmt.Sprintf("sessionState(%d)", uint8(s))
}

// continuation is the unsent remainder of a fragmented response.
type continuation struct {
	pdu      PDUID  // request PDU that produced the response
	total    uint16 // TotalServiceRecordCount of a search response
	buf      []byte // full response body; buf[cursor:] is still to be sent
	cursor   int
	lastUsed time.Time
}

// session is one slot of the channel table.
type session struct {
	inUse  bool
	ch     Channel
	gen    uint8
	state  sessionState
	active bool // cont holds a pending response
	cont   continuation
}

// sessionTable is a fixed set of slots, one per open channel.
type sessionTable struct {
	slots []session
	byID  map[ChannelID]int
}

func newSessionTable(capacity int) *sessionTable {
	return &sessionTable{
		slots: make([]session, capacity),
		byID:  make(map[ChannelID]int, capacity),
	}
}

func (t *sessionTable) open(ch Channel) (*session, error) {
	if _, ok := t.byID[ch.ID()]; ok {
		return nil, fmt.Errorf("channel %d is already open", ch.ID())
	}
	for i := range t.slots {
		s := &t.slots[i]
		if s.inUse {
			continue
		}
		s.inUse = true
		s.ch = ch
		s.gen++
		s.state = stateIdle
		s.drop()
		t.byID[ch.ID()] = i
		return s, nil
	}
	return nil, fmt.Errorf("%w: all %d slots are in use", ErrTooManyChannels, len(t.slots))
}

func (t *sessionTable) close(id ChannelID) bool {
	i, ok := t.byID[id]
	if !ok {
		return false
	}
	delete(t.byID, id)
	s := &t.slots[i]
	s.inUse = false
	s.ch = nil
	s.state = stateIdle
	s.drop()
	s.cont.buf = nil
	return true
}

func (t *sessionTable) get(id ChannelID) (*session, int, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, 0, false
	}
	return &t.slots[i], i, true
}

func (t *sessionTable) len() int { return len(t.byID) }

// reclaim drops continuations unused since before deadline and returns how
// many were dropped.
func (t *sessionTable) reclaim(deadline time.Time) int {
	n := 0
	for i := range t.slots {
		s := &t.slots[i]
		if !s.inUse || !s.active || !s.cont.lastUsed.Before(deadline) {
			continue
		}
		s.drop()
		s.cont.buf = nil
		s.state = stateIdle
		n++
	}
	return n
}

// drop forgets the pending response, keeping its buffer for reuse.
func (s *session) drop() {
	if s.active {
		s.gen++
	}
	s.active = false
	s.cont = continuation{buf: s.cont.buf[:0]}
}

// store keeps body as the pending response of s, starting at cursor.
func (s *session) store(pdu PDUID, total uint16, body []byte, cursor int, now time.Time) {
	s.gen++
	buf := s.cont.buf[:0]
	buf = append(buf, body...)
	s.active = true
	s.cont = continuation{
		pdu:      pdu,
		total:    total,
		buf:      buf,
		cursor:   cursor,
		lastUsed: now,
	}
	s.state = stateAwaitingContinuation
}

// token returns the continuation state sent to the peer for the current cursor.
func (s *session) token(slot int) []byte {
	b := make([]byte, continuationTokenLen)
	b[0] = byte(slot)
	b[1] = s.gen
	binary.BigEndian.PutUint16(b[2:], uint16(s.cont.cursor))
	return b
}

// resume validates a continuation state received from the peer for a
// request of type pdu.
func (s *session) resume(slot int, pdu PDUID, tok []byte) error {
	switch {
	case !s.active:
		return fmt.Errorf("%w: no response pending", ErrInvalidContinuationState)
	case len(tok) != continuationTokenLen:
		return fmt.Errorf("%w: %d byte state", ErrInvalidContinuationState, len(tok))
	case int(tok[0]) != slot || tok[1] != s.gen:
		return fmt.Errorf("%w: stale state", ErrInvalidContinuationState)
	case s.cont.pdu != pdu:
		return fmt.Errorf("%w: state belongs to %s, not %s", ErrInvalidContinuationState, s.cont.pdu, pdu)
	case int(binary.BigEndian.Uint16(tok[2:])) != s.cont.cursor:
		return fmt.Errorf("%w: cursor %d, expected %d", ErrInvalidContinuationState, binary.BigEndian.Uint16(tok[2:]), s.cont.cursor)
	}
	return nil
}

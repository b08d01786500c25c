package sdp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport answers every request with the next canned response.
type scriptedTransport struct {
	responses [][]byte
	requests  [][]byte
}

func (t *scriptedTransport) Exchange(_ context.Context, req []byte) ([]byte, error) {
	t.requests = append(t.requests, req)
	if len(t.responses) == 0 {
		return nil, errors.New("no more responses")
	}
	resp := t.responses[0]
	t.responses = t.responses[1:]
	return resp, nil
}

func TestClientOverLoopback(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, DefaultConfig())
	h := register(t, s, serialPortRecord())
	big := register(t, s, bigRecord())
	l := openLoopback(t, s, 1, MinMTU)
	c := NewClient(l)

	handles, err := c.ServiceSearch(ctx, SearchPattern{SerialPortUUID}, 10)
	require.NoError(t, err)
	assert.Equal(t, []RecordHandle{h, big}, handles)

	attrs, err := c.ServiceAttribute(ctx, big, AllAttributes())
	require.NoError(t, err)
	want, err := s.Lookup(big)
	require.NoError(t, err)
	assert.True(t, want.Equal(NewServiceRecord(attrs...)))

	c.MaxAttributeBytes = minAttributeByteCount
	attrs, err = c.ServiceAttribute(ctx, h, AttributeIDs(AttrServiceName, AttrServiceClassIDList))
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, AttrServiceClassIDList, attrs[0].ID)
	assert.Equal(t, AttrServiceName, attrs[1].ID)

	_, err = c.ServiceAttribute(ctx, 0x00020000, AllAttributes())
	assert.ErrorIs(t, err, ErrorCodeInvalidRecordHandle)
	assert.Equal(t, ErrorCodeInvalidRecordHandle, ErrorCodeOf(err))
}

func TestClientRejectsBadResponses(t *testing.T) {
	ctx := context.Background()
	search := SearchPattern{SerialPortUUID}

	for name, resp := range map[string][]byte{
		"wrong transaction ID":  {byte(PDUServiceSearchResponse), 0x00, 0x09, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00},
		"wrong PDU":             {byte(PDUServiceAttributeResponse), 0x00, 0x01, 0x00, 0x03, 0x00, 0x00, 0x00},
		"bad length":            {byte(PDUServiceSearchResponse), 0x00, 0x01, 0x00, 0x09, 0x00},
		"handle count mismatch": {byte(PDUServiceSearchResponse), 0x00, 0x01, 0x00, 0x09, 0x00, 0x02, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00},
		"truncated handles":     {byte(PDUServiceSearchResponse), 0x00, 0x01, 0x00, 0x05, 0x00, 0x01, 0x00, 0x01, 0x00},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewClient(&scriptedTransport{responses: [][]byte{resp}})
			_, err := c.ServiceSearch(ctx, search, 1)
			assert.Error(t, err)
		})
	}

	t.Run("error response", func(t *testing.T) {
		c := NewClient(&scriptedTransport{responses: [][]byte{errorResponse(1, ErrorCodeInsufficientResources)}})
		_, err := c.ServiceSearch(ctx, search, 1)
		assert.ErrorIs(t, err, ErrorCodeInsufficientResources)
	})

	t.Run("attribute lists not a sequence", func(t *testing.T) {
		list := Encode(Uint8(1))
		resp := appendHeader(nil, PDUServiceSearchAttributeResp, 1, 2+len(list)+1)
		resp = append(resp, 0x00, byte(len(list)))
		resp = append(resp, list...)
		resp = append(resp, 0x00)
		c := NewClient(&scriptedTransport{responses: [][]byte{resp}})
		_, err := c.ServiceSearchAttribute(ctx, search, AllAttributes())
		assert.ErrorIs(t, err, ErrMalformedElement)
	})
}

func TestClientSendsContinuation(t *testing.T) {
	ctx := context.Background()
	tok := []byte{0, 7, 0, 4}
	first := appendHeader(nil, PDUServiceSearchResponse, 1, 2+2+4+1+len(tok))
	first = append(first, 0x00, 0x02, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00)
	first = appendContinuation(first, tok)
	second := appendHeader(nil, PDUServiceSearchResponse, 2, 2+2+4+1)
	second = append(second, 0x00, 0x02, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00)

	tr := &scriptedTransport{responses: [][]byte{first, second}}
	handles, err := NewClient(tr).ServiceSearch(ctx, SearchPattern{SerialPortUUID}, 2)
	require.NoError(t, err)
	assert.Equal(t, []RecordHandle{0x00010000, 0x00010001}, handles)

	require.Len(t, tr.requests, 2)
	_, params, err := parseHeader(tr.requests[1])
	require.NoError(t, err)
	req, err := parseServiceSearchRequest(params, DefaultMaxDepth)
	require.NoError(t, err)
	assert.Equal(t, tok, req.Continuation)
}

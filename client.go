package sdp

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// maxContinuations bounds the number of follow-up requests a Client sends
// for one response.
const maxContinuations = 1024

// Transport carries one request PDU to an SDP server and returns the
// response PDU.
type Transport interface {
	Exchange(ctx context.Context, req []byte) ([]byte, error)
}

// Client issues SDP requests over a Transport and reassembles fragmented
// responses.
type Client struct {
	t Transport

	// MaxAttributeBytes is sent as MaximumAttributeByteCount.
	MaxAttributeBytes uint16

	// MaxDepth bounds the nesting of data elements accepted in responses.
	MaxDepth int

	locker sync.Mutex
	tid    uint16
}

// NewClient returns a client using t.
func NewClient(t Transport) *Client {
	return &Client{
		t:                 t,
		MaxAttributeBytes: 0xFFFF,
		MaxDepth:          DefaultMaxDepth,
	}
}

func (c *Client) nextTID() uint16 {
	c.locker.Lock()
	defer c.locker.Unlock()
	c.tid++
	return c.tid
}

// roundTrip sends req and returns the parameters of the matching response.
// An ErrorResponse is returned as its ErrorCode.
func (c *Client) roundTrip(ctx context.Context, req []byte, tid uint16, want PDUID) ([]byte, error) {
	resp, err := c.t.Exchange(ctx, req)
	if err != nil {
		return nil, err
	}
	h, params, err := parseHeader(resp)
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if h.TID != tid {
		return nil, fmt.Errorf("response transaction ID %d does not match request %d", h.TID, tid)
	}
	switch h.PDU {
	case want:
		return params, nil
	case PDUErrorResponse:
		return nil, parseErrorResponse(params)
	default:
		return nil, fmt.Errorf("got %s in response to %s", h.PDU, PDUID(req[0]))
	}
}

// ServiceSearch returns the handles of at most maxRecords records matching p.
func (c *Client) ServiceSearch(ctx context.Context, p SearchPattern, maxRecords uint16) (_ []RecordHandle, _err error) {
	logger.Tracef(ctx, "ServiceSearch(%v, %d)", p, maxRecords)
	defer func() { logger.Tracef(ctx, "/ServiceSearch: %v", _err) }()

	req := ServiceSearchRequest{Pattern: p, MaxRecords: maxRecords}
	var handles []RecordHandle
	for i := 0; ; i++ {
		if i == maxContinuations {
			return nil, fmt.Errorf("response not complete after %d continuations", i)
		}
		tid := c.nextTID()
		params, err := c.roundTrip(ctx, req.Marshal(tid), tid, PDUServiceSearchResponse)
		if err != nil {
			return nil, err
		}
		resp, err := parseServiceSearchResponse(params)
		if err != nil {
			return nil, fmt.Errorf("malformed ServiceSearchResponse: %w", err)
		}
		handles = append(handles, resp.Handles...)
		if resp.Continuation == nil {
			if len(handles) != int(resp.Total) {
				return nil, fmt.Errorf("got %d handles, server announced %d", len(handles), resp.Total)
			}
			return handles, nil
		}
		req.Continuation = resp.Continuation
	}
}

// attributeLists sends requests built by marshal until the whole attribute
// list is received and decodes it.
func (c *Client) attributeLists(ctx context.Context, marshal func(tid uint16, cont []byte) []byte, want PDUID) (DataElement, error) {
	var (
		list []byte
		cont []byte
	)
	for i := 0; ; i++ {
		if i == maxContinuations {
			return DataElement{}, fmt.Errorf("response not complete after %d continuations", i)
		}
		tid := c.nextTID()
		params, err := c.roundTrip(ctx, marshal(tid, cont), tid, want)
		if err != nil {
			return DataElement{}, err
		}
		part, next, err := parseAttributeResponse(params)
		if err != nil {
			return DataElement{}, fmt.Errorf("malformed %s: %w", want, err)
		}
		list = append(list, part...)
		if next == nil {
			break
		}
		cont = next
	}
	return DecodeAll(list, c.MaxDepth)
}

// ServiceAttribute returns the attributes of record h selected by ids.
func (c *Client) ServiceAttribute(ctx context.Context, h RecordHandle, ids AttributeIDList) (_ []Attribute, _err error) {
	logger.Tracef(ctx, "ServiceAttribute(%s)", h)
	defer func() { logger.Tracef(ctx, "/ServiceAttribute(%s): %v", h, _err) }()

	d, err := c.attributeLists(ctx, func(tid uint16, cont []byte) []byte {
		return ServiceAttributeRequest{
			Handle:       h,
			MaxBytes:     c.MaxAttributeBytes,
			AttributeIDs: ids,
			Continuation: cont,
		}.Marshal(tid)
	}, PDUServiceAttributeResponse)
	if err != nil {
		return nil, err
	}
	return ParseAttributeList(d)
}

// ServiceSearchAttribute returns, for every record matching p, its
// attributes selected by ids.
func (c *Client) ServiceSearchAttribute(ctx context.Context, p SearchPattern, ids AttributeIDList) (_ [][]Attribute, _err error) {
	logger.Tracef(ctx, "ServiceSearchAttribute(%v)", p)
	defer func() { logger.Tracef(ctx, "/ServiceSearchAttribute: %v", _err) }()

	d, err := c.attributeLists(ctx, func(tid uint16, cont []byte) []byte {
		return ServiceSearchAttributeRequest{
			Pattern:      p,
			MaxBytes:     c.MaxAttributeBytes,
			AttributeIDs: ids,
			Continuation: cont,
		}.Marshal(tid)
	}, PDUServiceSearchAttributeResp)
	if err != nil {
		return nil, err
	}
	if d.Type() != TypeSequence {
		return nil, fmt.Errorf("%w: attribute lists are %s, not a sequence", ErrMalformedElement, d.Type())
	}
	out := make([][]Attribute, 0, d.Len())
	for _, item := range d.items {
		attrs, err := ParseAttributeList(item)
		if err != nil {
			return nil, err
		}
		out = append(out, attrs)
	}
	return out, nil
}

// Records fetches every attribute of every record matching p.
func (c *Client) Records(ctx context.Context, p SearchPattern) ([]ServiceRecord, error) {
	lists, err := c.ServiceSearchAttribute(ctx, p, AllAttributes())
	if err != nil {
		return nil, err
	}
	out := make([]ServiceRecord, 0, len(lists))
	for _, attrs := range lists {
		out = append(out, NewServiceRecord(attrs...))
	}
	return out, nil
}

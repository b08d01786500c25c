package sdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ctxflow"
)

// ChannelID identifies an L2CAP channel carrying SDP.
type ChannelID uint16

// Channel is the transport side of one SDP connection.
type Channel interface {
	ID() ChannelID

	// MTU returns the largest frame Send accepts; 0 means the
	// server's configured default.
	MTU() int

	// Send transmits one frame. The server reuses b once Send returns.
	Send(ctx context.Context, b []byte) error
}

// Server answers SDP requests from the records registered with it.
//
// Records are registered first; opening the first channel seals the
// record store. Every call is safe for concurrent use, PDUs of one channel
// must be delivered in order.
type Server struct {
	locker sync.Mutex

	cfg      Config
	store    *Store
	sessions *sessionTable
	metrics  *metrics
	now      func() time.Time

	manageLoop   ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]
	manageCancel context.CancelFunc
	manageDone   chan struct{}

	body []byte // response body scratch
	tx   []byte // response frame scratch
}

// NewServer returns a server with the given limits.
func NewServer(ctx context.Context, cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Server{
		cfg:      cfg,
		store:    NewStore(),
		sessions: newSessionTable(cfg.MaxChannels),
		metrics:  newMetrics(),
		now:      time.Now,
	}
	s.manageLoop = ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]{
		StartStopper: ctxflow.StartStopperBackendFuncs{
			StartFunc: s.doStartManageLoop,
			StopFunc:  s.doStopManageLoop,
		},
	}
	if err := s.Option(opts...); err != nil {
		return nil, err
	}
	if cfg.ServerRecord {
		if err := s.store.registerAt(sdpServerHandle, serverRecord()); err != nil {
			return nil, fmt.Errorf("unable to register the SDP server record: %w", err)
		}
	}
	logger.Debugf(ctx, "SDP server created: %d channels, %d byte responses", cfg.MaxChannels, cfg.MaxResponseSize)
	return s, nil
}

// serverRecord describes the SDP server itself.
func serverRecord() ServiceRecord {
	return NewServiceRecord(
		Attr(AttrServiceClassIDList, UUIDSequence(ServiceDiscoveryServerUUID)),
		Attr(AttrProtocolDescriptorList, Sequence(
			Sequence(UUIDElement(ProtocolL2CAPUUID), Uint16(0x0001)),
			Sequence(UUIDElement(ProtocolSDPUUID)),
		)),
		Attr(AttrBrowseGroupList, UUIDSequence(PublicBrowseRootUUID)),
		Attr(AttrVersionNumberList, Sequence(Uint16(0x0100))),
		Attr(AttrServiceDatabaseState, Uint32(0)),
	)
}

// RegisterService adds r to the served records and returns its handle.
// It fails with ErrRegistrationClosed once a channel has been opened.
func (s *Server) RegisterService(ctx context.Context, r ServiceRecord) (RecordHandle, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.store.Register(ctx, r)
}

// Lookup returns a copy of the record registered under h.
func (s *Server) Lookup(h RecordHandle) (ServiceRecord, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.store.Lookup(h)
}

// Store returns the record store. It must not be modified once channels
// are open.
func (s *Server) Store() *Store {
	return s.store
}

// ChannelOpened starts serving ch.
func (s *Server) ChannelOpened(ctx context.Context, ch Channel) (_err error) {
	logger.Tracef(ctx, "ChannelOpened(%d)", ch.ID())
	defer func() { logger.Tracef(ctx, "/ChannelOpened(%d): %v", ch.ID(), _err) }()

	if mtu := ch.MTU(); mtu != 0 && mtu < MinMTU {
		return fmt.Errorf("%w: channel %d has MTU %d", ErrMTUTooSmall, ch.ID(), mtu)
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	s.store.Seal()
	if _, err := s.sessions.open(ch); err != nil {
		return err
	}
	s.metrics.openChannels.Set(float64(s.sessions.len()))
	return nil
}

// ChannelClosed stops serving the channel id and drops any response still
// being sent on it.
func (s *Server) ChannelClosed(ctx context.Context, id ChannelID) (_err error) {
	logger.Tracef(ctx, "ChannelClosed(%d)", id)
	defer func() { logger.Tracef(ctx, "/ChannelClosed(%d): %v", id, _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	if !s.sessions.close(id) {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	s.metrics.openChannels.Set(float64(s.sessions.len()))
	return nil
}

// OpenChannels returns the number of channels being served.
func (s *Server) OpenChannels() int {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.sessions.len()
}

// ProcessPacket handles one request PDU received on channel id and sends
// the response on it.
//
// Malformed or unsatisfiable requests are answered with an ErrorResponse;
// the returned error reports local failures only (unknown channel, send
// error).
func (s *Server) ProcessPacket(ctx context.Context, id ChannelID, data []byte) (_err error) {
	logger.Tracef(ctx, "ProcessPacket(%d, %d bytes)", id, len(data))
	defer func() { logger.Tracef(ctx, "/ProcessPacket(%d): %v", id, _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()

	sess, slot, ok := s.sessions.get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}

	sess.state = stateDecoding
	resp, err := s.handleReq(ctx, sess, slot, data)
	if err != nil {
		code := ErrorCodeOf(err)
		logger.Debugf(ctx, "channel %d: request rejected with %v: %v", id, code, err)
		sess.drop()
		sess.state = stateIdle
		resp = errorResponse(tidOf(data), code)
		s.metrics.errorResponse(code)
	}

	if err := sess.ch.Send(ctx, resp); err != nil {
		logger.Errorf(ctx, "channel %d: unable to send the response: %v", id, err)
		return fmt.Errorf("unable to send on channel %d: %w", id, err)
	}
	return nil
}

// handleReq dispatches a raw request to an appropriate handler, based on
// its PDU ID, and returns the response frame.
func (s *Server) handleReq(ctx context.Context, sess *session, slot int, data []byte) ([]byte, error) {
	h, params, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	s.metrics.request(h.PDU)
	logger.Debugf(ctx, "channel %d: %s tid %d", sess.ch.ID(), h.PDU, h.TID)

	switch h.PDU {
	case PDUServiceSearchRequest:
		return s.handleServiceSearch(sess, slot, h, params)
	case PDUServiceAttributeRequest:
		return s.handleServiceAttribute(sess, slot, h, params)
	case PDUServiceSearchAttributeRequest:
		return s.handleServiceSearchAttribute(sess, slot, h, params)
	default:
		return nil, fmt.Errorf("%w: unexpected PDU 0x%02X", ErrInvalidRequestSyntax, uint8(h.PDU))
	}
}

func (s *Server) mtuOf(sess *session) int {
	mtu := sess.ch.MTU()
	switch {
	case mtu == 0:
		mtu = s.cfg.DefaultMTU
	case mtu < MinMTU:
		mtu = MinMTU
	case mtu > 0xFFFF:
		mtu = 0xFFFF
	}
	return mtu
}

// REQ: ServiceSearchRequest(0x02), ServiceSearchPattern, MaximumServiceRecordCount, ContinuationState
// RSP: ServiceSearchResponse(0x03), TotalServiceRecordCount, CurrentServiceRecordCount, Handle, Handle, ..., ContinuationState
func (s *Server) handleServiceSearch(sess *session, slot int, h header, params []byte) ([]byte, error) {
	req, err := parseServiceSearchRequest(params, s.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}
	mtu := s.mtuOf(sess)

	if req.Continuation != nil {
		if err := sess.resume(slot, h.PDU, req.Continuation); err != nil {
			return nil, err
		}
		sess.state = stateResponding
		return s.searchFragment(sess, slot, h.TID, mtu), nil
	}

	sess.drop()
	sess.state = stateResponding
	handles := s.store.FindMatching(req.Pattern, s.cfg.searchScope())
	if len(handles) > int(req.MaxRecords) {
		handles = handles[:req.MaxRecords]
	}
	if n := 4 * len(handles); n > s.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: %d handles", ErrResponseTooLarge, len(handles))
	}
	body := s.body[:0]
	for _, rh := range handles {
		body = append(body, byte(rh>>24), byte(rh>>16), byte(rh>>8), byte(rh))
	}
	s.body = body
	total := uint16(len(handles))

	if len(body) <= mtu-10 {
		w := newPDUWriter(s.tx, PDUServiceSearchResponse, h.TID)
		w.WriteUint16(total)
		w.WriteUint16(total)
		w.Write(body)
		w.WriteContinuation(nil)
		s.tx = w.b
		sess.state = stateIdle
		return w.Bytes(), nil
	}
	sess.store(h.PDU, total, body, 0, s.now())
	return s.searchFragment(sess, slot, h.TID, mtu), nil
}

// searchFragment sends the next whole handles of a pending search response.
func (s *Server) searchFragment(sess *session, slot int, tid uint16, mtu int) []byte {
	c := &sess.cont
	rest := len(c.buf) - c.cursor
	chunk := 4 * ((mtu - 14) / 4)

	w := newPDUWriter(s.tx, PDUServiceSearchResponse, tid)
	w.WriteUint16(c.total)
	if rest <= chunk {
		w.WriteUint16(uint16(rest / 4))
		w.Write(c.buf[c.cursor:])
		w.WriteContinuation(nil)
		sess.drop()
		sess.state = stateIdle
	} else {
		w.WriteUint16(uint16(chunk / 4))
		w.Write(c.buf[c.cursor : c.cursor+chunk])
		c.cursor += chunk
		c.lastUsed = s.now()
		w.WriteContinuation(sess.token(slot))
		sess.state = stateAwaitingContinuation
		s.metrics.fragments.Inc()
	}
	s.tx = w.b
	return w.Bytes()
}

// REQ: ServiceAttributeRequest(0x04), ServiceRecordHandle, MaximumAttributeByteCount, AttributeIDList, ContinuationState
// RSP: ServiceAttributeResponse(0x05), AttributeListByteCount, AttributeList, ContinuationState
func (s *Server) handleServiceAttribute(sess *session, slot int, h header, params []byte) ([]byte, error) {
	req, err := parseServiceAttributeRequest(params, s.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}
	mtu := s.mtuOf(sess)

	if req.Continuation != nil {
		if err := sess.resume(slot, h.PDU, req.Continuation); err != nil {
			return nil, err
		}
		sess.state = stateResponding
		return s.attributeFragment(sess, slot, h, mtu, req.MaxBytes), nil
	}

	sess.drop()
	sess.state = stateResponding
	r, ok := s.store.lookup(req.Handle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecordHandle, req.Handle)
	}
	list := AttributeListElement(ProjectAttributes(r, req.AttributeIDs))
	if n := list.EncodedLen(); n > s.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: %d byte attribute list", ErrResponseTooLarge, n)
	}
	s.body = list.Append(s.body[:0])
	return s.respondAttributes(sess, slot, h, mtu, req.MaxBytes, s.body), nil
}

// REQ: ServiceSearchAttributeRequest(0x06), ServiceSearchPattern, MaximumAttributeByteCount, AttributeIDList, ContinuationState
// RSP: ServiceSearchAttributeResponse(0x07), AttributeListsByteCount, AttributeLists, ContinuationState
func (s *Server) handleServiceSearchAttribute(sess *session, slot int, h header, params []byte) ([]byte, error) {
	req, err := parseServiceSearchAttributeRequest(params, s.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}
	mtu := s.mtuOf(sess)

	if req.Continuation != nil {
		if err := sess.resume(slot, h.PDU, req.Continuation); err != nil {
			return nil, err
		}
		sess.state = stateResponding
		return s.attributeFragment(sess, slot, h, mtu, req.MaxBytes), nil
	}

	sess.drop()
	sess.state = stateResponding
	var lists []DataElement
	size := 0
	for _, rh := range s.store.FindMatching(req.Pattern, s.cfg.searchScope()) {
		r, _ := s.store.lookup(rh)
		attrs := ProjectAttributes(r, req.AttributeIDs)
		if len(attrs) == 0 {
			continue
		}
		list := AttributeListElement(attrs)
		size += list.EncodedLen()
		if size > s.cfg.MaxResponseSize {
			return nil, fmt.Errorf("%w: attribute lists exceed %d bytes", ErrResponseTooLarge, s.cfg.MaxResponseSize)
		}
		lists = append(lists, list)
	}
	outer := Sequence(lists...)
	if n := outer.EncodedLen(); n > s.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: %d byte attribute lists", ErrResponseTooLarge, n)
	}
	s.body = outer.Append(s.body[:0])
	return s.respondAttributes(sess, slot, h, mtu, req.MaxBytes, s.body), nil
}

// respondAttributes sends body in one frame if it fits, and starts a
// continuation otherwise.
func (s *Server) respondAttributes(sess *session, slot int, h header, mtu int, maxBytes uint16, body []byte) []byte {
	if len(body) <= min(int(maxBytes), mtu-8) {
		w := newPDUWriter(s.tx, sdpRespFor[h.PDU], h.TID)
		w.WriteUint16(uint16(len(body)))
		w.Write(body)
		w.WriteContinuation(nil)
		s.tx = w.b
		sess.state = stateIdle
		return w.Bytes()
	}
	sess.store(h.PDU, 0, body, 0, s.now())
	return s.attributeFragment(sess, slot, h, mtu, maxBytes)
}

// attributeFragment sends the next bytes of a pending attribute response.
func (s *Server) attributeFragment(sess *session, slot int, h header, mtu int, maxBytes uint16) []byte {
	c := &sess.cont
	rest := len(c.buf) - c.cursor
	chunk := min(int(maxBytes), mtu-12)

	w := newPDUWriter(s.tx, sdpRespFor[h.PDU], h.TID)
	if rest <= chunk {
		w.WriteUint16(uint16(rest))
		w.Write(c.buf[c.cursor:])
		w.WriteContinuation(nil)
		sess.drop()
		sess.state = stateIdle
	} else {
		w.WriteUint16(uint16(chunk))
		w.Write(c.buf[c.cursor : c.cursor+chunk])
		c.cursor += chunk
		c.lastUsed = s.now()
		w.WriteContinuation(sess.token(slot))
		sess.state = stateAwaitingContinuation
		s.metrics.fragments.Inc()
	}
	s.tx = w.b
	return w.Bytes()
}

// Manage drops continuations whose peer has been silent for longer than
// the configured timeout and returns how many were dropped.
func (s *Server) Manage(ctx context.Context) int {
	s.locker.Lock()
	defer s.locker.Unlock()
	n := s.sessions.reclaim(s.now().Add(-s.cfg.ContinuationTimeout))
	if n > 0 {
		logger.Debugf(ctx, "reclaimed %d abandoned continuations", n)
		s.metrics.reclaimed.Add(float64(n))
	}
	return n
}

// Start calls Manage every ManageInterval until Stop.
func (s *Server) Start(ctx context.Context) error {
	return s.manageLoop.Start(ctx)
}

// Stop stops the loop started by Start.
func (s *Server) Stop() error {
	return s.manageLoop.Stop()
}

func (s *Server) doStartManageLoop(ctx context.Context, _ ...any) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.manageCancel, s.manageDone = cancel, done
	go func() {
		defer close(done)
		t := time.NewTicker(s.cfg.ManageInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Manage(ctx)
			}
		}
	}()
	return nil
}

func (s *Server) doStopManageLoop(ctx context.Context) error {
	s.manageCancel()
	<-s.manageDone
	logger.Debugf(ctx, "manage loop stopped")
	return nil
}

package sdp

import "encoding/binary"

// pduWriter assembles one response frame in a reusable buffer. The
// ParameterLength field is filled in by Bytes.
type pduWriter struct {
	b []byte
}

func newPDUWriter(buf []byte, id PDUID, tid uint16) *pduWriter {
	return &pduWriter{b: appendHeader(buf[:0], id, tid, 0)}
}

func (w *pduWriter) WriteUint16(v uint16) {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
}

func (w *pduWriter) Write(p []byte) {
	w.b = append(w.b, p...)
}

// WriteContinuation writes the ContinuationState; a nil c ends the response.
func (w *pduWriter) WriteContinuation(c []byte) {
	w.b = appendContinuation(w.b, c)
}

// Len returns the frame size so far.
func (w *pduWriter) Len() int { return len(w.b) }

// Bytes finalizes the frame. The result aliases the writer's buffer.
func (w *pduWriter) Bytes() []byte {
	binary.BigEndian.PutUint16(w.b[3:5], uint16(len(w.b)-headerLen))
	return w.b
}

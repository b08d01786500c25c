package sdp

import (
	"encoding/binary"
	"fmt"
)

// header is the fixed part of every SDP PDU.
type header struct {
	PDU    PDUID
	TID    uint16
	Length uint16
}

// parseHeader splits b into the PDU header and its parameters.
func parseHeader(b []byte) (header, []byte, error) {
	if len(b) < headerLen {
		return header{}, nil, fmt.Errorf("%w: %d bytes is shorter than the PDU header", ErrInvalidPDUSize, len(b))
	}
	h := header{
		PDU:    PDUID(b[0]),
		TID:    binary.BigEndian.Uint16(b[1:3]),
		Length: binary.BigEndian.Uint16(b[3:5]),
	}
	if int(h.Length) != len(b)-headerLen {
		return h, nil, fmt.Errorf("%w: ParameterLength %d, but %d bytes follow the header", ErrInvalidPDUSize, h.Length, len(b)-headerLen)
	}
	return h, b[headerLen:], nil
}

// tidOf returns the TransactionID of a frame too short to parse, if any.
func tidOf(b []byte) uint16 {
	if len(b) < 3 {
		return 0
	}
	return binary.BigEndian.Uint16(b[1:3])
}

func appendHeader(b []byte, id PDUID, tid uint16, paramLen int) []byte {
	b = append(b, byte(id))
	b = binary.BigEndian.AppendUint16(b, tid)
	return binary.BigEndian.AppendUint16(b, uint16(paramLen))
}

func appendContinuation(b []byte, c []byte) []byte {
	b = append(b, byte(len(c)))
	return append(b, c...)
}

// readContinuation parses the ContinuationState that must end a request.
func readContinuation(b []byte) ([]byte, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("%w: missing continuation state", ErrInvalidRequestSyntax)
	}
	n := int(b[0])
	if n > maxContinuationLen {
		return nil, fmt.Errorf("%w: continuation state of %d bytes", ErrInvalidRequestSyntax, n)
	}
	if len(b)-1 != n {
		return nil, fmt.Errorf("%w: continuation state declares %d bytes, %d present", ErrInvalidRequestSyntax, n, len(b)-1)
	}
	if n == 0 {
		return nil, nil
	}
	return append([]byte{}, b[1:]...), nil
}

// readElement decodes a data element parameter and returns the rest of b.
func readElement(b []byte, maxDepth int) (DataElement, []byte, error) {
	d, n, err := DecodeDepth(b, maxDepth)
	if err != nil {
		return DataElement{}, nil, err
	}
	return d, b[n:], nil
}

func readUint16(b []byte, what string) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, nil, fmt.Errorf("%w: truncated %s", ErrInvalidRequestSyntax, what)
	}
	return binary.BigEndian.Uint16(b), b[2:], nil
}

func readUint32(b []byte, what string) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("%w: truncated %s", ErrInvalidRequestSyntax, what)
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

// ServiceSearchRequest asks for the handles of records matching Pattern.
type ServiceSearchRequest struct {
	Pattern      SearchPattern
	MaxRecords   uint16
	Continuation []byte
}

// Marshal returns the request PDU.
func (r ServiceSearchRequest) Marshal(tid uint16) []byte {
	p := r.Pattern.Element().Append(nil)
	p = binary.BigEndian.AppendUint16(p, r.MaxRecords)
	p = appendContinuation(p, r.Continuation)
	return append(appendHeader(make([]byte, 0, headerLen+len(p)), PDUServiceSearchRequest, tid, len(p)), p...)
}

func parseServiceSearchRequest(b []byte, maxDepth int) (r ServiceSearchRequest, err error) {
	var d DataElement
	if d, b, err = readElement(b, maxDepth); err != nil {
		return r, err
	}
	if r.Pattern, err = ParseSearchPattern(d); err != nil {
		return r, err
	}
	if r.MaxRecords, b, err = readUint16(b, "MaximumServiceRecordCount"); err != nil {
		return r, err
	}
	if r.MaxRecords == 0 {
		return r, fmt.Errorf("%w: MaximumServiceRecordCount is 0", ErrInvalidRequestSyntax)
	}
	r.Continuation, err = readContinuation(b)
	return r, err
}

// ServiceAttributeRequest asks for attributes of the record Handle.
type ServiceAttributeRequest struct {
	Handle       RecordHandle
	MaxBytes     uint16
	AttributeIDs AttributeIDList
	Continuation []byte
}

// Marshal returns the request PDU.
func (r ServiceAttributeRequest) Marshal(tid uint16) []byte {
	p := binary.BigEndian.AppendUint32(nil, uint32(r.Handle))
	p = binary.BigEndian.AppendUint16(p, r.MaxBytes)
	p = r.AttributeIDs.Element().Append(p)
	p = appendContinuation(p, r.Continuation)
	return append(appendHeader(make([]byte, 0, headerLen+len(p)), PDUServiceAttributeRequest, tid, len(p)), p...)
}

func parseServiceAttributeRequest(b []byte, maxDepth int) (r ServiceAttributeRequest, err error) {
	var h uint32
	if h, b, err = readUint32(b, "ServiceRecordHandle"); err != nil {
		return r, err
	}
	r.Handle = RecordHandle(h)
	if r.MaxBytes, b, err = readUint16(b, "MaximumAttributeByteCount"); err != nil {
		return r, err
	}
	if r.MaxBytes < minAttributeByteCount {
		return r, fmt.Errorf("%w: MaximumAttributeByteCount %d is below %d", ErrInvalidRequestSyntax, r.MaxBytes, minAttributeByteCount)
	}
	var d DataElement
	if d, b, err = readElement(b, maxDepth); err != nil {
		return r, err
	}
	if r.AttributeIDs, err = ParseAttributeIDList(d); err != nil {
		return r, err
	}
	r.Continuation, err = readContinuation(b)
	return r, err
}

// ServiceSearchAttributeRequest combines a search with attribute retrieval.
type ServiceSearchAttributeRequest struct {
	Pattern      SearchPattern
	MaxBytes     uint16
	AttributeIDs AttributeIDList
	Continuation []byte
}

// Marshal returns the request PDU.
func (r ServiceSearchAttributeRequest) Marshal(tid uint16) []byte {
	p := r.Pattern.Element().Append(nil)
	p = binary.BigEndian.AppendUint16(p, r.MaxBytes)
	p = r.AttributeIDs.Element().Append(p)
	p = appendContinuation(p, r.Continuation)
	return append(appendHeader(make([]byte, 0, headerLen+len(p)), PDUServiceSearchAttributeRequest, tid, len(p)), p...)
}

func parseServiceSearchAttributeRequest(b []byte, maxDepth int) (r ServiceSearchAttributeRequest, err error) {
	var d DataElement
	if d, b, err = readElement(b, maxDepth); err != nil {
		return r, err
	}
	if r.Pattern, err = ParseSearchPattern(d); err != nil {
		return r, err
	}
	if r.MaxBytes, b, err = readUint16(b, "MaximumAttributeByteCount"); err != nil {
		return r, err
	}
	if r.MaxBytes < minAttributeByteCount {
		return r, fmt.Errorf("%w: MaximumAttributeByteCount %d is below %d", ErrInvalidRequestSyntax, r.MaxBytes, minAttributeByteCount)
	}
	if d, b, err = readElement(b, maxDepth); err != nil {
		return r, err
	}
	if r.AttributeIDs, err = ParseAttributeIDList(d); err != nil {
		return r, err
	}
	r.Continuation, err = readContinuation(b)
	return r, err
}

// errorResponse builds an ErrorResponse PDU.
func errorResponse(tid uint16, code ErrorCode) []byte {
	b := appendHeader(make([]byte, 0, headerLen+2), PDUErrorResponse, tid, 2)
	return binary.BigEndian.AppendUint16(b, uint16(code))
}

// serviceSearchResponse is one fragment of a ServiceSearchResponse.
type serviceSearchResponse struct {
	Total        uint16
	Handles      []RecordHandle
	Continuation []byte
}

func parseServiceSearchResponse(b []byte) (r serviceSearchResponse, err error) {
	var current uint16
	if r.Total, b, err = readUint16(b, "TotalServiceRecordCount"); err != nil {
		return r, err
	}
	if current, b, err = readUint16(b, "CurrentServiceRecordCount"); err != nil {
		return r, err
	}
	if len(b) < 4*int(current) {
		return r, fmt.Errorf("%w: %d handles announced, %d bytes present", ErrInvalidPDUSize, current, len(b))
	}
	for i := 0; i < int(current); i++ {
		r.Handles = append(r.Handles, RecordHandle(binary.BigEndian.Uint32(b[4*i:])))
	}
	r.Continuation, err = readContinuation(b[4*int(current):])
	return r, err
}

// parseAttributeResponse returns the AttributeList bytes of one fragment of
// a ServiceAttributeResponse or ServiceSearchAttributeResponse.
func parseAttributeResponse(b []byte) (list []byte, cont []byte, err error) {
	var n uint16
	if n, b, err = readUint16(b, "AttributeListByteCount"); err != nil {
		return nil, nil, err
	}
	if len(b) < int(n) {
		return nil, nil, fmt.Errorf("%w: %d attribute bytes announced, %d present", ErrInvalidPDUSize, n, len(b))
	}
	list = append([]byte{}, b[:n]...)
	cont, err = readContinuation(b[n:])
	return list, cont, err
}

func parseErrorResponse(b []byte) ErrorCode {
	if len(b) < 2 {
		return ErrorCodeInvalidPDUSize
	}
	return ErrorCode(binary.BigEndian.Uint16(b))
}

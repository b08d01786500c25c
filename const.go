package sdp

// This file includes constants from Bluetooth Core Vol 3 Part B (SDP)
// and the Assigned Numbers document.

var (
	// Protocol identifiers used in ProtocolDescriptorList.
	ProtocolSDPUUID    = UUID16(0x0001)
	ProtocolRFCOMMUUID = UUID16(0x0003)
	ProtocolOBEXUUID   = UUID16(0x0008)
	ProtocolAVDTPUUID  = UUID16(0x0019)
	ProtocolL2CAPUUID  = UUID16(0x0100)

	// Service class identifiers.
	ServiceDiscoveryServerUUID    = UUID16(0x1000)
	BrowseGroupDescriptorUUID     = UUID16(0x1001)
	PublicBrowseRootUUID          = UUID16(0x1002)
	SerialPortUUID                = UUID16(0x1101)
	OBEXObjectPushUUID            = UUID16(0x1105)
	AudioSourceUUID               = UUID16(0x110A)
	AudioSinkUUID                 = UUID16(0x110B)
	AdvancedAudioDistributionUUID = UUID16(0x110D)
	PnPInformationUUID            = UUID16(0x1200)
)

// AttributeID identifies an attribute within a service record.
type AttributeID uint16

// Universal attribute IDs.
const (
	AttrServiceRecordHandle               AttributeID = 0x0000
	AttrServiceClassIDList                AttributeID = 0x0001
	AttrServiceRecordState                AttributeID = 0x0002
	AttrServiceID                         AttributeID = 0x0003
	AttrProtocolDescriptorList            AttributeID = 0x0004
	AttrBrowseGroupList                   AttributeID = 0x0005
	AttrLanguageBaseAttributeIDList       AttributeID = 0x0006
	AttrServiceInfoTimeToLive             AttributeID = 0x0007
	AttrServiceAvailability               AttributeID = 0x0008
	AttrBluetoothProfileDescriptorList    AttributeID = 0x0009
	AttrDocumentationURL                  AttributeID = 0x000A
	AttrClientExecutableURL               AttributeID = 0x000B
	AttrIconURL                           AttributeID = 0x000C
	AttrAdditionalProtocolDescriptorLists AttributeID = 0x000D

	// Offsets from the primary language base (0x0100).
	AttrServiceName        AttributeID = 0x0100
	AttrServiceDescription AttributeID = 0x0101
	AttrProviderName       AttributeID = 0x0102

	// SDP server service record.
	AttrVersionNumberList    AttributeID = 0x0200
	AttrServiceDatabaseState AttributeID = 0x0201

	// PnP Information service record.
	AttrSpecificationID AttributeID = 0x0200
	AttrVendorID        AttributeID = 0x0201
	AttrProductID       AttributeID = 0x0202
	AttrVersion         AttributeID = 0x0203
	AttrPrimaryRecord   AttributeID = 0x0204
	AttrVendorIDSource  AttributeID = 0x0205

	// Supported formats list of OBEX Object Push.
	AttrSupportedFormatsList AttributeID = 0x0303
)

// PDUID is the first byte of every SDP PDU.
type PDUID uint8

const (
	PDUErrorResponse                 PDUID = 0x01
	PDUServiceSearchRequest          PDUID = 0x02
	PDUServiceSearchResponse         PDUID = 0x03
	PDUServiceAttributeRequest       PDUID = 0x04
	PDUServiceAttributeResponse      PDUID = 0x05
	PDUServiceSearchAttributeRequest PDUID = 0x06
	PDUServiceSearchAttributeResp    PDUID = 0x07
)

var pduName = map[PDUID]string{
	PDUErrorResponse:                 "ErrorResponse",
	PDUServiceSearchRequest:          "ServiceSearchRequest",
	PDUServiceSearchResponse:         "ServiceSearchResponse",
	PDUServiceAttributeRequest:       "ServiceAttributeRequest",
	PDUServiceAttributeResponse:      "ServiceAttributeResponse",
	PDUServiceSearchAttributeRequest: "ServiceSearchAttributeRequest",
	PDUServiceSearchAttributeResp:    "ServiceSearchAttributeResponse",
}

func (id PDUID) String() string {
	if name, ok := pduName[id]; ok {
		return name
	}
	return "Unknown"
}

// sdpRespFor maps from SDP request
// PDU IDs to the matching response IDs.
var sdpRespFor = map[PDUID]PDUID{
	PDUServiceSearchRequest:          PDUServiceSearchResponse,
	PDUServiceAttributeRequest:       PDUServiceAttributeResponse,
	PDUServiceSearchAttributeRequest: PDUServiceSearchAttributeResp,
}

const (
	// headerLen is PDU ID, TransactionID and ParameterLength.
	headerLen = 5

	// MinMTU is the smallest MTU an L2CAP implementation may use.
	MinMTU = 48

	// DefaultMTU is the L2CAP default MTU.
	DefaultMTU = 672

	// maxContinuationLen is the largest continuation state the protocol allows.
	maxContinuationLen = 16

	// continuationTokenLen is the size of the tokens this server hands out.
	continuationTokenLen = 4

	// maxPatternUUIDs is the largest ServiceSearchPattern the protocol allows.
	maxPatternUUIDs = 12

	// minAttributeByteCount is the smallest MaximumAttributeByteCount accepted.
	minAttributeByteCount = 7

	// sdpServerHandle is the reserved handle of the SDP server's own record.
	sdpServerHandle RecordHandle = 0x00000000

	// firstRecordHandle is the first handle handed out by Register.
	firstRecordHandle RecordHandle = 0x00010000
)

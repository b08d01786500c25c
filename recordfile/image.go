package recordfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/xaionaro-go/sdp"
)

// imageVersion is bumped on incompatible changes of the image layout.
const imageVersion = 1

// imageMaxDepth bounds the nesting of stored attribute values.
const imageMaxDepth = 32

// image is a compiled record file. Attribute values are stored in their
// SDP data element encoding.
type image struct {
	Version uint          `cbor:"1,keyasint"`
	Records []imageRecord `cbor:"2,keyasint"`
}

type imageRecord struct {
	Name       string           `cbor:"1,keyasint,omitempty"`
	Attributes []imageAttribute `cbor:"2,keyasint"`
}

type imageAttribute struct {
	ID    uint16 `cbor:"1,keyasint"`
	Value []byte `cbor:"2,keyasint"`
}

var imageEncMode cbor.EncMode

var imageDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	imageEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record image CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	imageDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record image CBOR decoder mode: %v", err))
	}
}

// EncodeImage compiles definitions into a CBOR record image.
func EncodeImage(defs []Definition) ([]byte, error) {
	img := image{Version: imageVersion, Records: make([]imageRecord, 0, len(defs))}
	for _, d := range defs {
		r := imageRecord{Name: d.Name, Attributes: make([]imageAttribute, 0, len(d.Attributes))}
		for _, a := range d.Attributes {
			r.Attributes = append(r.Attributes, imageAttribute{
				ID:    uint16(a.ID),
				Value: sdp.Encode(a.Value.DataElement),
			})
		}
		img.Records = append(img.Records, r)
	}
	return imageEncMode.Marshal(img)
}

// DecodeImage reads a CBOR record image.
func DecodeImage(data []byte) ([]Definition, error) {
	var img image
	if err := imageDecMode.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("invalid record image: %w", err)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("record image version %d is not supported", img.Version)
	}
	defs := make([]Definition, 0, len(img.Records))
	for i, r := range img.Records {
		d := Definition{Name: r.Name}
		for _, a := range r.Attributes {
			v, err := sdp.DecodeAll(a.Value, imageMaxDepth)
			if err != nil {
				return nil, fmt.Errorf("record %d attribute 0x%04X: %w", i, a.ID, err)
			}
			d.Attributes = append(d.Attributes, Attribute{ID: AttributeID(a.ID), Value: Element{v}})
		}
		defs = append(defs, d)
	}
	return defs, nil
}

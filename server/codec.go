package server

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// codecName is the Connect codec name; requests use the content type
// application/cbor (unary) or application/connect+cbor (streaming).
const codecName = "cbor"

// cborCodec implements connect.Codec with canonical CBOR, the same
// encoding used for serialized chunks.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() *cborCodec {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR dec mode: %v", err))
	}
	return &cborCodec{enc: enc, dec: dec}
}

func (c *cborCodec) Name() string {
	return codecName
}

func (c *cborCodec) Marshal(msg any) ([]byte, error) {
	return c.enc.Marshal(msg)
}

func (c *cborCodec) Unmarshal(data []byte, msg any) error {
	return c.dec.Unmarshal(data, msg)
}

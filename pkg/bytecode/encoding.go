package bytecode

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Magic bytes for serialized chunks: "CLXB" (clox bytecode).
var BytecodeMagic = []byte{'C', 'L', 'X', 'B'}

// wireChunk is the CBOR body that follows the magic bytes.
type wireChunk struct {
	Version   uint16      `cbor:"1,keyasint"`
	Code      []byte      `cbor:"2,keyasint"`
	Lines     []int       `cbor:"3,keyasint"`
	Constants []wireValue `cbor:"4,keyasint,omitempty"`
}

type wireValue struct {
	Kind   ValueKind `cbor:"1,keyasint"`
	Number float64   `cbor:"2,keyasint"`
	Bool   bool      `cbor:"3,keyasint,omitempty"`
}

// cborEncMode uses canonical options so equal chunks encode to equal bytes,
// which lets encoded chunks be compared and content-hashed directly.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a chunk as magic bytes followed by a CBOR body.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: marshal chunk: %w", err)
	}
	w := wireChunk{
		Version: BytecodeVersion,
		Code:    c.Code,
		Lines:   c.Lines,
	}
	for _, v := range c.Constants {
		w.Constants = append(w.Constants, toWire(v))
	}
	body, err := cborEncMode.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal chunk: %w", err)
	}
	buf := make([]byte, 0, len(BytecodeMagic)+len(body))
	buf = append(buf, BytecodeMagic...)
	return append(buf, body...), nil
}

// UnmarshalChunk decodes bytes produced by MarshalChunk and validates the
// result before returning it.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	if len(data) < len(BytecodeMagic) {
		return nil, fmt.Errorf("bytecode too short: need at least %d bytes, got %d", len(BytecodeMagic), len(data))
	}
	if !bytes.Equal(data[:len(BytecodeMagic)], BytecodeMagic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", BytecodeMagic, data[:len(BytecodeMagic)])
	}

	var w wireChunk
	if err := cbor.Unmarshal(data[len(BytecodeMagic):], &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if w.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", w.Version, BytecodeVersion)
	}

	c := &Chunk{
		Code:      w.Code,
		Lines:     w.Lines,
		Constants: make([]Value, 0, len(w.Constants)),
	}
	if c.Code == nil {
		c.Code = []byte{}
	}
	if c.Lines == nil {
		c.Lines = []int{}
	}
	for i, wv := range w.Constants {
		v, err := fromWire(wv)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		c.Constants = append(c.Constants, v)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	return c, nil
}

func toWire(v Value) wireValue {
	switch v.kind {
	case KindNumber:
		return wireValue{Kind: KindNumber, Number: v.num}
	case KindBool:
		return wireValue{Kind: KindBool, Bool: v.b}
	default:
		return wireValue{Kind: KindNil}
	}
}

func fromWire(w wireValue) (Value, error) {
	switch w.Kind {
	case KindNil:
		return Nil, nil
	case KindBool:
		return Bool(w.Bool), nil
	case KindNumber:
		return Number(w.Number), nil
	default:
		return Nil, fmt.Errorf("unknown value kind %d", w.Kind)
	}
}

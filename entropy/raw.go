package entropy

import (
	"fmt"

	kanzi "github.com/backwardn/kanzi-go"
)

// RawEncoder implements kanzi.EntropyEncoder as a pass-through: the block
// bytes are copied to the bitstream unchanged. Useful as a baseline and
// for incompressible data.
type RawEncoder struct {
	obs      kanzi.OutputBitStream
	disposed bool
}

var _ kanzi.EntropyEncoder = (*RawEncoder)(nil)

// NewRawEncoder creates an encoder bound to the provided bitstream.
func NewRawEncoder(obs kanzi.OutputBitStream) (*RawEncoder, error) {
	if obs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &RawEncoder{obs: obs}, nil
}

// Write copies the block to the bitstream. Returns the number of source
// bytes accepted, len(block) on success.
func (e *RawEncoder) Write(block []byte) (int, error) {
	if e.disposed {
		return 0, fmt.Errorf("encoder already disposed")
	}

	if len(block) == 0 {
		return 0, nil
	}

	if _, err := e.obs.WriteArray(block, uint(len(block))<<3); err != nil {
		return 0, fmt.Errorf("raw encode: %w", err)
	}

	return len(block), nil
}

// BitStream returns the underlying bitstream.
func (e *RawEncoder) BitStream() kanzi.OutputBitStream {
	return e.obs
}

// Dispose seals the encoder; the raw coder keeps no residue. Idempotent.
func (e *RawEncoder) Dispose() error {
	e.disposed = true
	return nil
}

// RawDecoder implements kanzi.EntropyDecoder for the RawEncoder output.
type RawDecoder struct {
	ibs      kanzi.InputBitStream
	disposed bool
}

var _ kanzi.EntropyDecoder = (*RawDecoder)(nil)

// NewRawDecoder creates a decoder bound to the provided bitstream.
func NewRawDecoder(ibs kanzi.InputBitStream) (*RawDecoder, error) {
	if ibs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &RawDecoder{ibs: ibs}, nil
}

// Read copies len(block) bytes from the bitstream into block.
func (d *RawDecoder) Read(block []byte) (int, error) {
	if d.disposed {
		return 0, fmt.Errorf("decoder already disposed")
	}

	if len(block) == 0 {
		return 0, nil
	}

	if _, err := d.ibs.ReadArray(block, uint(len(block))<<3); err != nil {
		return 0, fmt.Errorf("raw decode: %w", err)
	}

	return len(block), nil
}

// BitStream returns the underlying bitstream.
func (d *RawDecoder) BitStream() kanzi.InputBitStream {
	return d.ibs
}

// Dispose seals the decoder. Idempotent.
func (d *RawDecoder) Dispose() error {
	d.disposed = true
	return nil
}

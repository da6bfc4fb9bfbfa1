package entropy

import (
	"fmt"

	kanzi "github.com/backwardn/kanzi-go"
)

// The Rice parameter is re-estimated for every chunk.
const riceChunkSize = 1 << 16

// riceParameter picks the remainder width from the chunk mean. A chunk
// dominated by small values gets a small parameter.
func riceParameter(chunk []byte) uint {
	sum := 0

	for _, b := range chunk {
		sum += int(b)
	}

	mean := sum / len(chunk)
	k := uint(0)

	for k < 7 && (1<<(k+1)) <= mean+1 {
		k++
	}

	return k
}

// RiceEncoder implements kanzi.EntropyEncoder using Rice-Golomb codes:
// each byte is split into a unary quotient and a fixed width remainder.
// Effective when the byte distribution is skewed towards small values.
type RiceEncoder struct {
	obs      kanzi.OutputBitStream
	disposed bool
}

var _ kanzi.EntropyEncoder = (*RiceEncoder)(nil)

// NewRiceEncoder creates an encoder bound to the provided bitstream.
func NewRiceEncoder(obs kanzi.OutputBitStream) (*RiceEncoder, error) {
	if obs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &RiceEncoder{obs: obs}, nil
}

// Write encodes the block into the bitstream. Returns the number of
// source bytes accepted, len(block) on success.
func (e *RiceEncoder) Write(block []byte) (int, error) {
	if e.disposed {
		return 0, fmt.Errorf("encoder already disposed")
	}

	for start := 0; start < len(block); start += riceChunkSize {
		end := start + riceChunkSize

		if end > len(block) {
			end = len(block)
		}

		if err := e.encodeChunk(block[start:end]); err != nil {
			return start, fmt.Errorf("rice encode: %w", err)
		}
	}

	return len(block), nil
}

func (e *RiceEncoder) encodeChunk(chunk []byte) error {
	k := riceParameter(chunk)

	if _, err := e.obs.WriteBits(uint64(k), 3); err != nil {
		return err
	}

	for _, b := range chunk {
		// Unary quotient terminated by a zero bit
		for q := int(b) >> k; q > 0; q-- {
			if err := e.obs.WriteBit(1); err != nil {
				return err
			}
		}

		if err := e.obs.WriteBit(0); err != nil {
			return err
		}

		if k > 0 {
			if _, err := e.obs.WriteBits(uint64(b), k); err != nil {
				return err
			}
		}
	}

	return nil
}

// BitStream returns the underlying bitstream.
func (e *RiceEncoder) BitStream() kanzi.OutputBitStream {
	return e.obs
}

// Dispose seals the encoder; the Rice coder keeps no residue. Idempotent.
func (e *RiceEncoder) Dispose() error {
	e.disposed = true
	return nil
}

// RiceDecoder implements kanzi.EntropyDecoder for the RiceEncoder output.
type RiceDecoder struct {
	ibs      kanzi.InputBitStream
	disposed bool
}

var _ kanzi.EntropyDecoder = (*RiceDecoder)(nil)

// NewRiceDecoder creates a decoder bound to the provided bitstream.
func NewRiceDecoder(ibs kanzi.InputBitStream) (*RiceDecoder, error) {
	if ibs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &RiceDecoder{ibs: ibs}, nil
}

// Read decodes len(block) bytes from the bitstream into block.
func (d *RiceDecoder) Read(block []byte) (int, error) {
	if d.disposed {
		return 0, fmt.Errorf("decoder already disposed")
	}

	for start := 0; start < len(block); start += riceChunkSize {
		end := start + riceChunkSize

		if end > len(block) {
			end = len(block)
		}

		if err := d.decodeChunk(block[start:end]); err != nil {
			return start, fmt.Errorf("rice decode: %w", err)
		}
	}

	return len(block), nil
}

func (d *RiceDecoder) decodeChunk(chunk []byte) error {
	k, err := d.ibs.ReadBits(3)
	if err != nil {
		return err
	}

	for i := range chunk {
		q := 0

		for {
			bit, err := d.ibs.ReadBit()
			if err != nil {
				return err
			}

			if bit == 0 {
				break
			}

			q++
		}

		value := q << k

		if k > 0 {
			r, err := d.ibs.ReadBits(uint(k))
			if err != nil {
				return err
			}

			value |= int(r)
		}

		chunk[i] = byte(value)
	}

	return nil
}

// BitStream returns the underlying bitstream.
func (d *RiceDecoder) BitStream() kanzi.InputBitStream {
	return d.ibs
}

// Dispose seals the decoder. Idempotent.
func (d *RiceDecoder) Dispose() error {
	d.disposed = true
	return nil
}

package entropy

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	kanzi "github.com/backwardn/kanzi-go"
)

// Per-block framing flags
const (
	lz4StoredBlock     = 0 // block stored uncompressed
	lz4CompressedBlock = 1 // block holds an LZ4 compressed payload
)

// LZ4Encoder adapts the LZ4 block compressor to the kanzi.EntropyEncoder
// contract. Each Write emits one frame: a flag bit, the original length,
// the payload length when compressed, then the byte-aligned payload.
// Blocks that do not shrink are stored verbatim.
type LZ4Encoder struct {
	obs        kanzi.OutputBitStream
	compressor lz4.Compressor
	buf        []byte
	disposed   bool
}

var _ kanzi.EntropyEncoder = (*LZ4Encoder)(nil)

// NewLZ4Encoder creates an encoder bound to the provided bitstream.
func NewLZ4Encoder(obs kanzi.OutputBitStream) (*LZ4Encoder, error) {
	if obs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &LZ4Encoder{obs: obs}, nil
}

// Write encodes the block into the bitstream. Returns the number of
// source bytes accepted, len(block) on success.
func (e *LZ4Encoder) Write(block []byte) (int, error) {
	if e.disposed {
		return 0, fmt.Errorf("encoder already disposed")
	}

	if len(block) == 0 {
		return 0, nil
	}

	if bound := lz4.CompressBlockBound(len(block)); cap(e.buf) < bound {
		e.buf = make([]byte, bound)
	}

	compressed, err := e.compressor.CompressBlock(block, e.buf[:cap(e.buf)])

	if err != nil || compressed == 0 || compressed >= len(block) {
		// Incompressible block, store it
		if err := e.writeFrame(lz4StoredBlock, len(block), block); err != nil {
			return 0, fmt.Errorf("lz4 encode: %w", err)
		}

		return len(block), nil
	}

	if err := e.writeFrame(lz4CompressedBlock, len(block), e.buf[:compressed]); err != nil {
		return 0, fmt.Errorf("lz4 encode: %w", err)
	}

	return len(block), nil
}

func (e *LZ4Encoder) writeFrame(flag int, originalLen int, payload []byte) error {
	if err := e.obs.WriteBit(flag); err != nil {
		return err
	}

	if _, err := e.obs.WriteBits(uint64(originalLen), 32); err != nil {
		return err
	}

	if flag == lz4CompressedBlock {
		if _, err := e.obs.WriteBits(uint64(len(payload)), 32); err != nil {
			return err
		}
	}

	_, err := e.obs.WriteArray(payload, uint(len(payload))<<3)
	return err
}

// BitStream returns the underlying bitstream.
func (e *LZ4Encoder) BitStream() kanzi.OutputBitStream {
	return e.obs
}

// Dispose seals the encoder; frames are emitted synchronously so there is
// no residue. Idempotent.
func (e *LZ4Encoder) Dispose() error {
	e.disposed = true
	return nil
}

// LZ4Decoder implements kanzi.EntropyDecoder for the LZ4Encoder output.
type LZ4Decoder struct {
	ibs      kanzi.InputBitStream
	buf      []byte
	disposed bool
}

var _ kanzi.EntropyDecoder = (*LZ4Decoder)(nil)

// NewLZ4Decoder creates a decoder bound to the provided bitstream.
func NewLZ4Decoder(ibs kanzi.InputBitStream) (*LZ4Decoder, error) {
	if ibs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &LZ4Decoder{ibs: ibs}, nil
}

// Read decodes len(block) bytes from the bitstream into block, consuming
// as many frames as needed.
func (d *LZ4Decoder) Read(block []byte) (int, error) {
	if d.disposed {
		return 0, fmt.Errorf("decoder already disposed")
	}

	decoded := 0

	for decoded < len(block) {
		n, err := d.readFrame(block[decoded:])
		if err != nil {
			return decoded, fmt.Errorf("lz4 decode: %w", err)
		}

		decoded += n
	}

	return decoded, nil
}

func (d *LZ4Decoder) readFrame(dst []byte) (int, error) {
	flag, err := d.ibs.ReadBit()
	if err != nil {
		return 0, err
	}

	originalLen64, err := d.ibs.ReadBits(32)
	if err != nil {
		return 0, err
	}

	originalLen := int(originalLen64)

	if originalLen <= 0 || originalLen > len(dst) {
		return 0, fmt.Errorf("invalid bitstream: frame length %d exceeds remaining block size %d", originalLen, len(dst))
	}

	if flag == lz4StoredBlock {
		if _, err := d.ibs.ReadArray(dst[:originalLen], uint(originalLen)<<3); err != nil {
			return 0, err
		}

		return originalLen, nil
	}

	payloadLen64, err := d.ibs.ReadBits(32)
	if err != nil {
		return 0, err
	}

	payloadLen := int(payloadLen64)

	if payloadLen <= 0 {
		return 0, fmt.Errorf("invalid bitstream: empty compressed frame")
	}

	if cap(d.buf) < payloadLen {
		d.buf = make([]byte, payloadLen)
	}

	payload := d.buf[:payloadLen]

	if _, err := d.ibs.ReadArray(payload, uint(payloadLen)<<3); err != nil {
		return 0, err
	}

	n, err := lz4.UncompressBlock(payload, dst[:originalLen])
	if err != nil {
		return 0, err
	}

	if n != originalLen {
		return 0, fmt.Errorf("invalid bitstream: decompressed %d bytes, expected %d", n, originalLen)
	}

	return originalLen, nil
}

// BitStream returns the underlying bitstream.
func (d *LZ4Decoder) BitStream() kanzi.InputBitStream {
	return d.ibs
}

// Dispose seals the decoder. Idempotent.
func (d *LZ4Decoder) Dispose() error {
	d.disposed = true
	return nil
}

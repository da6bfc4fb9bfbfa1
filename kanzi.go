// Package kanzi defines the top level contracts shared by the compression
// components: bit-level streams, entropy coders and the stable error codes
// surfaced to callers.
//
// The implementations live in the sub-packages: bitstream contains the
// default bit-stream reader and writer, entropy the concrete coders and
// io the file helpers and the block-framed compressed stream.
package kanzi

// Error codes reported to callers. The values are part of the public
// surface and must not be renumbered.
const (
	ERR_MISSING_PARAM    = 1
	ERR_BLOCK_SIZE       = 2
	ERR_INVALID_CODEC    = 3
	ERR_CREATE_FILE      = 8
	ERR_CREATE_BITSTREAM = 9
	ERR_OPEN_FILE        = 10
	ERR_READ_FILE        = 11
	ERR_WRITE_FILE       = 12
	ERR_PROCESS_BLOCK    = 13
	ERR_INVALID_FILE     = 15
	ERR_STREAM_VERSION   = 16
	ERR_INVALID_PARAM    = 18
	ERR_UNKNOWN          = 127
)

// OutputBitStream is an append-only sink of bits with byte-granularity
// flushing. Writes after Close fail.
type OutputBitStream interface {
	// WriteBit appends the least significant bit of the input integer.
	WriteBit(bit int) error

	// WriteBits appends the 'length' (in [1..64]) least significant bits
	// of 'bits' to the bitstream. Returns the number of bits written.
	WriteBits(bits uint64, length uint) (uint, error)

	// WriteArray appends 'length' bits out of the byte slice.
	// Returns the number of bits written.
	WriteArray(bits []byte, length uint) (uint, error)

	// Close flushes residual bits (zero padded to a byte boundary) and
	// makes the bitstream unavailable for further writes.
	Close() error

	// Written returns the number of bits written so far.
	Written() uint64
}

// InputBitStream is a bitstream reader.
type InputBitStream interface {
	// ReadBit returns the next bit in the bitstream.
	ReadBit() (int, error)

	// ReadBits reads 'length' (in [1..64]) bits from the bitstream and
	// returns them as an uint64.
	ReadBits(length uint) (uint64, error)

	// ReadArray reads 'length' bits from the bitstream into the byte
	// slice. Returns the number of bits read.
	ReadArray(bits []byte, length uint) (uint, error)

	// Close makes the bitstream unavailable for further reads.
	Close() error

	// Read returns the number of bits read so far.
	Read() uint64

	// HasMoreToRead returns false when the bitstream is closed or the
	// end of stream has been reached.
	HasMoreToRead() (bool, error)
}

// EntropyEncoder entropy encodes data to a bitstream. An encoder is bound
// to exactly one bitstream for its whole lifetime and is not safe for
// concurrent use.
type EntropyEncoder interface {
	// Write encodes the block provided into the bitstream. Returns the
	// number of source bytes accepted, always len(block) on success.
	// A short count means the bitstream refused further bits and the
	// caller must treat the stream as dead.
	Write(block []byte) (int, error)

	// BitStream returns the underlying bitstream. The result is never
	// nil and never changes across the encoder's lifetime.
	BitStream() OutputBitStream

	// Dispose flushes any residual coder state to the bitstream. It must
	// be called once before releasing the encoder and does not close the
	// bitstream. Dispose is idempotent; Write after Dispose fails.
	Dispose() error
}

// EntropyDecoder entropy decodes data from a bitstream.
type EntropyDecoder interface {
	// Read decodes data from the bitstream and returns it in the
	// provided buffer. Returns the number of bytes decoded, always
	// len(block) on success. The sequence of Read calls must mirror the
	// sequence of Write calls on the encoding side.
	Read(block []byte) (int, error)

	// BitStream returns the underlying bitstream.
	BitStream() InputBitStream

	// Dispose must be called once before releasing the decoder. It is
	// idempotent and does not close the bitstream.
	Dispose() error
}

package io

import (
	"fmt"
	"io"

	kanzi "github.com/backwardn/kanzi-go"
	"github.com/backwardn/kanzi-go/bitstream"
	"github.com/backwardn/kanzi-go/entropy"
)

// Stream format constants
const (
	bitStreamFormat  = uint64(0x4B414E5A) // "KANZ"
	bitStreamVersion = 1

	// DefaultBlockSize is the block size used when the caller passes 0.
	DefaultBlockSize = 1 << 20

	minBlockSize = 1 << 10
	maxBlockSize = 1 << 28

	streamBufferSize = 1 << 16
)

// Writer compresses a stream as a sequence of entropy coded blocks and
// implements io.WriteCloser. The stream starts with a header (format
// marker, version, codec id, block size) followed by length prefixed
// blocks and a zero length terminator.
//
// Close flushes the final partial block, disposes the entropy encoder
// and closes the bitstream, which closes the underlying writer when it
// implements io.Closer. Forgetting Close truncates the output.
type Writer struct {
	obs       kanzi.OutputBitStream
	encoder   kanzi.EntropyEncoder
	buf       []byte
	n         int
	blockSize int
	closed    bool
}

// NewWriter creates a compressed stream writer on top of 'w' using the
// named entropy codec ("none", "huffman", "rice" or "lz4") and the given
// block size in bytes (0 selects DefaultBlockSize).
func NewWriter(w io.Writer, codec string, blockSize int) (*Writer, error) {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}

	if blockSize < minBlockSize || blockSize > maxBlockSize {
		return nil, NewIOError(fmt.Sprintf("Invalid block size %d (must be in [%d..%d])",
			blockSize, minBlockSize, maxBlockSize), kanzi.ERR_BLOCK_SIZE)
	}

	entropyType, err := entropy.GetType(codec)

	if err != nil {
		return nil, NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	obs, err := bitstream.NewDefaultOutputBitStream(w, streamBufferSize)

	if err != nil {
		return nil, NewIOError(fmt.Sprintf("Cannot create output bitstream: %v", err), kanzi.ERR_CREATE_BITSTREAM)
	}

	if err := writeHeader(obs, entropyType, blockSize); err != nil {
		return nil, NewIOError(fmt.Sprintf("Cannot write stream header: %v", err), kanzi.ERR_WRITE_FILE)
	}

	encoder, err := entropy.NewEntropyEncoder(obs, entropyType)

	if err != nil {
		return nil, NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	return &Writer{
		obs:       obs,
		encoder:   encoder,
		buf:       make([]byte, blockSize),
		blockSize: blockSize,
	}, nil
}

func writeHeader(obs kanzi.OutputBitStream, entropyType byte, blockSize int) error {
	if _, err := obs.WriteBits(bitStreamFormat, 32); err != nil {
		return err
	}

	if _, err := obs.WriteBits(bitStreamVersion, 8); err != nil {
		return err
	}

	if _, err := obs.WriteBits(uint64(entropyType), 8); err != nil {
		return err
	}

	_, err := obs.WriteBits(uint64(blockSize), 32)
	return err
}

// Write buffers p and emits full blocks through the entropy encoder.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, NewIOError("Stream closed", kanzi.ERR_WRITE_FILE)
	}

	written := 0

	for written < len(p) {
		n := copy(w.buf[w.n:], p[written:])
		w.n += n
		written += n

		if w.n == w.blockSize {
			if err := w.writeBlock(w.buf); err != nil {
				return written - n, err
			}

			w.n = 0
		}
	}

	return written, nil
}

func (w *Writer) writeBlock(block []byte) error {
	if _, err := w.obs.WriteBits(uint64(len(block)), 32); err != nil {
		return NewIOError(fmt.Sprintf("Cannot write block header: %v", err), kanzi.ERR_WRITE_FILE)
	}

	n, err := w.encoder.Write(block)

	if err != nil {
		return NewIOError(fmt.Sprintf("Cannot encode block: %v", err), kanzi.ERR_PROCESS_BLOCK)
	}

	if n != len(block) {
		return NewIOError(fmt.Sprintf("Short entropy write: %d of %d bytes", n, len(block)), kanzi.ERR_PROCESS_BLOCK)
	}

	return nil
}

// Close flushes the final block, writes the stream terminator, disposes
// the encoder and closes the bitstream. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	if w.n > 0 {
		if err := w.writeBlock(w.buf[:w.n]); err != nil {
			return err
		}

		w.n = 0
	}

	// Zero length terminator block
	if _, err := w.obs.WriteBits(0, 32); err != nil {
		return NewIOError(fmt.Sprintf("Cannot write stream terminator: %v", err), kanzi.ERR_WRITE_FILE)
	}

	if err := w.encoder.Dispose(); err != nil {
		return NewIOError(fmt.Sprintf("Cannot dispose entropy encoder: %v", err), kanzi.ERR_PROCESS_BLOCK)
	}

	w.closed = true

	if err := w.obs.Close(); err != nil {
		return NewIOError(fmt.Sprintf("Cannot close bitstream: %v", err), kanzi.ERR_WRITE_FILE)
	}

	return nil
}

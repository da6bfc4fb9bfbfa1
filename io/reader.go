package io

import (
	"fmt"
	"io"

	kanzi "github.com/backwardn/kanzi-go"
	"github.com/backwardn/kanzi-go/bitstream"
	"github.com/backwardn/kanzi-go/entropy"
)

// Reader decompresses a stream produced by Writer and implements
// io.ReadCloser. The codec and block size are taken from the stream
// header.
type Reader struct {
	ibs       kanzi.InputBitStream
	decoder   kanzi.EntropyDecoder
	buf       []byte
	pos       int // next unread byte in buf
	avail     int // decoded bytes in buf
	blockSize int
	eof       bool
	closed    bool
}

// NewReader creates a compressed stream reader on top of 'r'. The stream
// header is read and validated immediately.
func NewReader(r io.Reader) (*Reader, error) {
	ibs, err := bitstream.NewDefaultInputBitStream(r, streamBufferSize)

	if err != nil {
		return nil, NewIOError(fmt.Sprintf("Cannot create input bitstream: %v", err), kanzi.ERR_CREATE_BITSTREAM)
	}

	entropyType, blockSize, err := readHeader(ibs)

	if err != nil {
		return nil, err
	}

	decoder, err := entropy.NewEntropyDecoder(ibs, entropyType)

	if err != nil {
		return nil, NewIOError(err.Error(), kanzi.ERR_INVALID_CODEC)
	}

	return &Reader{
		ibs:       ibs,
		decoder:   decoder,
		buf:       make([]byte, blockSize),
		blockSize: blockSize,
	}, nil
}

func readHeader(ibs kanzi.InputBitStream) (byte, int, error) {
	format, err := ibs.ReadBits(32)

	if err != nil {
		return 0, 0, NewIOError(fmt.Sprintf("Cannot read stream header: %v", err), kanzi.ERR_READ_FILE)
	}

	if format != bitStreamFormat {
		return 0, 0, NewIOError("Invalid stream format marker", kanzi.ERR_INVALID_FILE)
	}

	version, err := ibs.ReadBits(8)

	if err != nil {
		return 0, 0, NewIOError(fmt.Sprintf("Cannot read stream header: %v", err), kanzi.ERR_READ_FILE)
	}

	if version != bitStreamVersion {
		return 0, 0, NewIOError(fmt.Sprintf("Unsupported stream version: %d", version), kanzi.ERR_STREAM_VERSION)
	}

	entropyType, err := ibs.ReadBits(8)

	if err != nil {
		return 0, 0, NewIOError(fmt.Sprintf("Cannot read stream header: %v", err), kanzi.ERR_READ_FILE)
	}

	blockSize, err := ibs.ReadBits(32)

	if err != nil {
		return 0, 0, NewIOError(fmt.Sprintf("Cannot read stream header: %v", err), kanzi.ERR_READ_FILE)
	}

	if blockSize < minBlockSize || blockSize > maxBlockSize {
		return 0, 0, NewIOError(fmt.Sprintf("Invalid block size in stream header: %d", blockSize), kanzi.ERR_BLOCK_SIZE)
	}

	return byte(entropyType), int(blockSize), nil
}

// Read decodes up to len(p) bytes into p, pulling blocks from the
// bitstream as needed. Returns io.EOF after the stream terminator.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, NewIOError("Stream closed", kanzi.ERR_READ_FILE)
	}

	read := 0

	for read < len(p) {
		if r.pos >= r.avail {
			if r.eof {
				break
			}

			if err := r.readBlock(); err != nil {
				return read, err
			}

			if r.avail == 0 {
				break
			}
		}

		n := copy(p[read:], r.buf[r.pos:r.avail])
		r.pos += n
		read += n
	}

	if read == 0 && r.eof {
		return 0, io.EOF
	}

	return read, nil
}

func (r *Reader) readBlock() error {
	length64, err := r.ibs.ReadBits(32)

	if err != nil {
		return NewIOError(fmt.Sprintf("Cannot read block header: %v", err), kanzi.ERR_READ_FILE)
	}

	length := int(length64)

	if length == 0 {
		r.eof = true
		r.pos = 0
		r.avail = 0
		return nil
	}

	if length > r.blockSize {
		return NewIOError(fmt.Sprintf("Invalid block length %d (block size is %d)", length, r.blockSize), kanzi.ERR_INVALID_FILE)
	}

	n, err := r.decoder.Read(r.buf[:length])

	if err != nil {
		return NewIOError(fmt.Sprintf("Cannot decode block: %v", err), kanzi.ERR_PROCESS_BLOCK)
	}

	if n != length {
		return NewIOError(fmt.Sprintf("Short entropy read: %d of %d bytes", n, length), kanzi.ERR_PROCESS_BLOCK)
	}

	r.pos = 0
	r.avail = length
	return nil
}

// Close disposes the entropy decoder and closes the bitstream, which
// closes the underlying reader when it implements io.Closer. Close is
// idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	if err := r.decoder.Dispose(); err != nil {
		return NewIOError(fmt.Sprintf("Cannot dispose entropy decoder: %v", err), kanzi.ERR_PROCESS_BLOCK)
	}

	r.closed = true

	if err := r.ibs.Close(); err != nil {
		return NewIOError(fmt.Sprintf("Cannot close bitstream: %v", err), kanzi.ERR_READ_FILE)
	}

	return nil
}

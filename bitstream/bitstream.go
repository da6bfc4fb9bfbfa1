// Package bitstream provides the default implementations of the
// kanzi.OutputBitStream and kanzi.InputBitStream interfaces, buffered
// over a regular io.Writer or io.Reader.
package bitstream

import (
	"fmt"
	"io"

	kanzi "github.com/backwardn/kanzi-go"
)

// Check that the default implementations satisfy the contracts
var (
	_ kanzi.OutputBitStream = (*DefaultOutputBitStream)(nil)
	_ kanzi.InputBitStream  = (*DefaultInputBitStream)(nil)
)

const minBufferSize = 1024

// BitStreamError is returned for all bitstream failures: invalid
// arguments, use after close and I/O errors on the underlying stream.
type BitStreamError struct {
	msg string
}

func NewBitStreamError(msg string) *BitStreamError {
	return &BitStreamError{msg: msg}
}

func (e *BitStreamError) Error() string {
	return e.msg
}

// DefaultOutputBitStream writes bits most significant first into an
// internal byte buffer which is spilled to the underlying writer when
// full. Close pads the last byte with zero bits, flushes and closes the
// underlying writer when it implements io.Closer.
type DefaultOutputBitStream struct {
	out     io.Writer
	buffer  []byte
	current uint64 // pending bits, aligned to the top of the word
	nBits   uint   // number of pending bits in current, always < 8 between calls
	written uint64
	closed  bool
}

// NewDefaultOutputBitStream creates a bitstream writer on top of 'out'
// with the given internal buffer size in bytes.
func NewDefaultOutputBitStream(out io.Writer, bufferSize uint) (*DefaultOutputBitStream, error) {
	if out == nil {
		return nil, NewBitStreamError("invalid null output stream parameter")
	}

	if bufferSize < minBufferSize {
		bufferSize = minBufferSize
	}

	return &DefaultOutputBitStream{
		out:    out,
		buffer: make([]byte, 0, bufferSize),
	}, nil
}

// WriteBit writes the least significant bit of 'bit'.
func (obs *DefaultOutputBitStream) WriteBit(bit int) error {
	_, err := obs.WriteBits(uint64(bit)&1, 1)
	return err
}

// WriteBits writes the 'length' least significant bits of 'bits'.
// Returns the number of bits written.
func (obs *DefaultOutputBitStream) WriteBits(bits uint64, length uint) (uint, error) {
	if obs.closed {
		return 0, NewBitStreamError("stream closed")
	}

	if length == 0 || length > 64 {
		return 0, NewBitStreamError(fmt.Sprintf("invalid bit count: %d (must be in [1..64])", length))
	}

	// The accumulator holds at most 7 pending bits, so chunks of up to
	// 56 bits always fit. Longer writes are split.
	if length > 56 {
		if err := obs.push(bits>>32, length-32); err != nil {
			return 0, err
		}

		if err := obs.push(bits, 32); err != nil {
			return 0, err
		}
	} else if err := obs.push(bits, length); err != nil {
		return 0, err
	}

	return length, nil
}

// WriteArray writes 'count' bits out of the byte slice, most significant
// bit of bits[0] first. Returns the number of bits written.
func (obs *DefaultOutputBitStream) WriteArray(bits []byte, count uint) (uint, error) {
	if obs.closed {
		return 0, NewBitStreamError("stream closed")
	}

	if count > uint(len(bits))<<3 {
		return 0, NewBitStreamError(fmt.Sprintf("invalid bit count: %d (max %d)", count, len(bits)<<3))
	}

	remaining := count
	idx := 0

	if obs.nBits == 0 {
		// Byte aligned: copy whole bytes directly
		for remaining >= 8 {
			if err := obs.appendByte(bits[idx]); err != nil {
				return 0, err
			}

			idx++
			remaining -= 8
		}

		obs.written += uint64(count - remaining)
	} else {
		for remaining >= 8 {
			if err := obs.push(uint64(bits[idx]), 8); err != nil {
				return 0, err
			}

			idx++
			remaining -= 8
		}
	}

	if remaining > 0 {
		if err := obs.push(uint64(bits[idx])>>(8-remaining), remaining); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// push accumulates 'length' (in [1..56]) bits. Callers validated length.
func (obs *DefaultOutputBitStream) push(bits uint64, length uint) error {
	if length < 64 {
		bits &= (uint64(1) << length) - 1
	}

	obs.current |= bits << (64 - length - obs.nBits)
	obs.nBits += length

	for obs.nBits >= 8 {
		if err := obs.appendByte(byte(obs.current >> 56)); err != nil {
			return err
		}

		obs.current <<= 8
		obs.nBits -= 8
	}

	obs.written += uint64(length)
	return nil
}

func (obs *DefaultOutputBitStream) appendByte(b byte) error {
	obs.buffer = append(obs.buffer, b)

	if len(obs.buffer) >= cap(obs.buffer) {
		return obs.flush()
	}

	return nil
}

func (obs *DefaultOutputBitStream) flush() error {
	if len(obs.buffer) == 0 {
		return nil
	}

	if _, err := obs.out.Write(obs.buffer); err != nil {
		obs.closed = true
		return NewBitStreamError(fmt.Sprintf("write to underlying stream failed: %v", err))
	}

	obs.buffer = obs.buffer[:0]
	return nil
}

// Close pads the pending bits with zeros to the next byte boundary,
// flushes the buffer and closes the underlying writer when it implements
// io.Closer. Close is idempotent.
func (obs *DefaultOutputBitStream) Close() error {
	if obs.closed {
		return nil
	}

	if obs.nBits > 0 {
		obs.buffer = append(obs.buffer, byte(obs.current>>56))
		obs.written += uint64(8 - obs.nBits)
		obs.current = 0
		obs.nBits = 0
	}

	if err := obs.flush(); err != nil {
		return err
	}

	obs.closed = true

	if c, ok := obs.out.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return NewBitStreamError(fmt.Sprintf("close of underlying stream failed: %v", err))
		}
	}

	return nil
}

// Written returns the number of bits written so far, including the
// closing padding.
func (obs *DefaultOutputBitStream) Written() uint64 {
	return obs.written
}

// Closed returns true after Close or after a write failure.
func (obs *DefaultOutputBitStream) Closed() bool {
	return obs.closed
}

// DefaultInputBitStream reads bits most significant first from an
// underlying reader through an internal byte buffer.
type DefaultInputBitStream struct {
	in      io.Reader
	buffer  []byte
	pos     int // next unread byte in buffer
	avail   int // number of valid bytes in buffer
	current uint64
	nBits   uint // number of unread bits in current, always < 8 between calls
	read    uint64
	closed  bool
}

// NewDefaultInputBitStream creates a bitstream reader on top of 'in'
// with the given internal buffer size in bytes.
func NewDefaultInputBitStream(in io.Reader, bufferSize uint) (*DefaultInputBitStream, error) {
	if in == nil {
		return nil, NewBitStreamError("invalid null input stream parameter")
	}

	if bufferSize < minBufferSize {
		bufferSize = minBufferSize
	}

	return &DefaultInputBitStream{
		in:     in,
		buffer: make([]byte, bufferSize),
	}, nil
}

// ReadBit reads a single bit.
func (ibs *DefaultInputBitStream) ReadBit() (int, error) {
	bits, err := ibs.ReadBits(1)
	return int(bits), err
}

// ReadBits reads 'length' (in [1..64]) bits and returns them in the
// least significant bits of the result.
func (ibs *DefaultInputBitStream) ReadBits(length uint) (uint64, error) {
	if ibs.closed {
		return 0, NewBitStreamError("stream closed")
	}

	if length == 0 || length > 64 {
		return 0, NewBitStreamError(fmt.Sprintf("invalid bit count: %d (must be in [1..64])", length))
	}

	value := uint64(0)
	remaining := length

	for remaining > 0 {
		if ibs.nBits == 0 {
			b, err := ibs.nextByte()
			if err != nil {
				return 0, err
			}

			ibs.current = uint64(b)
			ibs.nBits = 8
		}

		take := remaining
		if take > ibs.nBits {
			take = ibs.nBits
		}

		value = (value << take) | ((ibs.current >> (ibs.nBits - take)) & ((uint64(1) << take) - 1))
		ibs.nBits -= take
		remaining -= take
	}

	ibs.read += uint64(length)
	return value, nil
}

// ReadArray reads 'count' bits into the byte slice, filling each byte
// most significant bit first. Returns the number of bits read.
func (ibs *DefaultInputBitStream) ReadArray(bits []byte, count uint) (uint, error) {
	if ibs.closed {
		return 0, NewBitStreamError("stream closed")
	}

	if count > uint(len(bits))<<3 {
		return 0, NewBitStreamError(fmt.Sprintf("invalid bit count: %d (max %d)", count, len(bits)<<3))
	}

	remaining := count
	idx := 0

	for remaining >= 8 {
		b, err := ibs.ReadBits(8)
		if err != nil {
			return 0, err
		}

		bits[idx] = byte(b)
		idx++
		remaining -= 8
	}

	if remaining > 0 {
		b, err := ibs.ReadBits(remaining)
		if err != nil {
			return 0, err
		}

		bits[idx] = byte(b << (8 - remaining))
	}

	return count, nil
}

func (ibs *DefaultInputBitStream) nextByte() (byte, error) {
	if ibs.pos >= ibs.avail {
		if err := ibs.refill(); err != nil {
			return 0, err
		}
	}

	b := ibs.buffer[ibs.pos]
	ibs.pos++
	return b, nil
}

func (ibs *DefaultInputBitStream) refill() error {
	ibs.pos = 0
	ibs.avail = 0

	for {
		n, err := ibs.in.Read(ibs.buffer)

		if n > 0 {
			ibs.avail = n
			return nil
		}

		if err != nil {
			if err == io.EOF {
				return NewBitStreamError("no more data to read in the bitstream")
			}

			return NewBitStreamError(fmt.Sprintf("read from underlying stream failed: %v", err))
		}
	}
}

// HasMoreToRead returns false when the bitstream is closed or the end of
// stream has been reached.
func (ibs *DefaultInputBitStream) HasMoreToRead() (bool, error) {
	if ibs.closed {
		return false, NewBitStreamError("stream closed")
	}

	if ibs.nBits > 0 || ibs.pos < ibs.avail {
		return true, nil
	}

	if err := ibs.refill(); err != nil {
		return false, nil
	}

	return true, nil
}

// Close makes the bitstream unavailable for further reads and closes the
// underlying reader when it implements io.Closer. Close is idempotent.
func (ibs *DefaultInputBitStream) Close() error {
	if ibs.closed {
		return nil
	}

	ibs.closed = true

	if c, ok := ibs.in.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return NewBitStreamError(fmt.Sprintf("close of underlying stream failed: %v", err))
		}
	}

	return nil
}

// Read returns the number of bits read so far.
func (ibs *DefaultInputBitStream) Read() uint64 {
	return ibs.read
}

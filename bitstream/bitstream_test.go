package bitstream

import (
	"bytes"
	"testing"
)

func TestWriteReadBits(t *testing.T) {
	var buf bytes.Buffer

	obs, err := NewDefaultOutputBitStream(&buf, 16384)
	if err != nil {
		t.Fatalf("Failed to create output bitstream: %v", err)
	}

	values := []struct {
		bits   uint64
		length uint
	}{
		{1, 1},
		{0, 1},
		{0x5A, 8},
		{0x12345, 20},
		{0xFFFFFFFF, 32},
		{0x0123456789ABCDEF, 64},
		{0, 64},
		{0x7FFFFFFFFFFFFFFF, 63},
		{3, 2},
	}

	var expectedBits uint64

	for _, v := range values {
		n, err := obs.WriteBits(v.bits, v.length)
		if err != nil {
			t.Fatalf("WriteBits(%x, %d) failed: %v", v.bits, v.length, err)
		}

		if n != v.length {
			t.Fatalf("WriteBits(%x, %d) wrote %d bits", v.bits, v.length, n)
		}

		expectedBits += uint64(v.length)

		if obs.Written() < expectedBits {
			t.Fatalf("Written() = %d, want at least %d", obs.Written(), expectedBits)
		}
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ibs, err := NewDefaultInputBitStream(bytes.NewReader(buf.Bytes()), 16384)
	if err != nil {
		t.Fatalf("Failed to create input bitstream: %v", err)
	}

	for _, v := range values {
		got, err := ibs.ReadBits(v.length)
		if err != nil {
			t.Fatalf("ReadBits(%d) failed: %v", v.length, err)
		}

		want := v.bits

		if v.length < 64 {
			want &= (uint64(1) << v.length) - 1
		}

		if got != want {
			t.Fatalf("ReadBits(%d) = %x, want %x", v.length, got, want)
		}
	}
}

func TestWriteReadSingleBits(t *testing.T) {
	var buf bytes.Buffer

	obs, err := NewDefaultOutputBitStream(&buf, 0)
	if err != nil {
		t.Fatalf("Failed to create output bitstream: %v", err)
	}

	pattern := []int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1}

	for _, bit := range pattern {
		if err := obs.WriteBit(bit); err != nil {
			t.Fatalf("WriteBit(%d) failed: %v", bit, err)
		}
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// 11 bits of payload padded to 2 bytes
	if buf.Len() != 2 {
		t.Fatalf("Stream holds %d bytes, want 2", buf.Len())
	}

	ibs, err := NewDefaultInputBitStream(bytes.NewReader(buf.Bytes()), 0)
	if err != nil {
		t.Fatalf("Failed to create input bitstream: %v", err)
	}

	for i, want := range pattern {
		got, err := ibs.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit %d failed: %v", i, err)
		}

		if got != want {
			t.Fatalf("ReadBit %d = %d, want %d", i, got, want)
		}
	}

	if ibs.Read() != uint64(len(pattern)) {
		t.Fatalf("Read() = %d, want %d", ibs.Read(), len(pattern))
	}
}

func TestWriteReadArray(t *testing.T) {
	data := []byte("entropy coded bitstreams move in mysterious ways")

	var buf bytes.Buffer

	obs, err := NewDefaultOutputBitStream(&buf, 0)
	if err != nil {
		t.Fatalf("Failed to create output bitstream: %v", err)
	}

	// Unaligned prefix forces the slow path
	if err := obs.WriteBit(1); err != nil {
		t.Fatalf("WriteBit failed: %v", err)
	}

	if _, err := obs.WriteArray(data, uint(len(data))<<3); err != nil {
		t.Fatalf("WriteArray failed: %v", err)
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ibs, err := NewDefaultInputBitStream(bytes.NewReader(buf.Bytes()), 0)
	if err != nil {
		t.Fatalf("Failed to create input bitstream: %v", err)
	}

	if bit, err := ibs.ReadBit(); err != nil || bit != 1 {
		t.Fatalf("ReadBit = %d, %v, want 1", bit, err)
	}

	decoded := make([]byte, len(data))

	if _, err := ibs.ReadArray(decoded, uint(len(data))<<3); err != nil {
		t.Fatalf("ReadArray failed: %v", err)
	}

	if !bytes.Equal(decoded, data) {
		t.Fatalf("Decoded array does not match original")
	}
}

func TestWriteArrayAligned(t *testing.T) {
	data := make([]byte, 4096)

	for i := range data {
		data[i] = byte(i * 31)
	}

	var buf bytes.Buffer

	obs, err := NewDefaultOutputBitStream(&buf, 0)
	if err != nil {
		t.Fatalf("Failed to create output bitstream: %v", err)
	}

	if _, err := obs.WriteArray(data, uint(len(data))<<3); err != nil {
		t.Fatalf("WriteArray failed: %v", err)
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), data) {
		t.Fatalf("Aligned array write must be byte exact")
	}
}

func TestWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer

	obs, err := NewDefaultOutputBitStream(&buf, 0)
	if err != nil {
		t.Fatalf("Failed to create output bitstream: %v", err)
	}

	if err := obs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := obs.WriteBits(1, 1); err == nil {
		t.Fatalf("WriteBits after Close must fail")
	}

	// Second close is a no-op
	if err := obs.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}

func TestInvalidBitCount(t *testing.T) {
	var buf bytes.Buffer

	obs, _ := NewDefaultOutputBitStream(&buf, 0)

	if _, err := obs.WriteBits(0, 0); err == nil {
		t.Fatalf("WriteBits with length 0 must fail")
	}

	if _, err := obs.WriteBits(0, 65); err == nil {
		t.Fatalf("WriteBits with length 65 must fail")
	}
}

func TestReadPastEnd(t *testing.T) {
	ibs, err := NewDefaultInputBitStream(bytes.NewReader([]byte{0xAA}), 0)
	if err != nil {
		t.Fatalf("Failed to create input bitstream: %v", err)
	}

	if _, err := ibs.ReadBits(8); err != nil {
		t.Fatalf("ReadBits within stream failed: %v", err)
	}

	if _, err := ibs.ReadBits(8); err == nil {
		t.Fatalf("ReadBits past end of stream must fail")
	}
}

func TestHasMoreToRead(t *testing.T) {
	ibs, err := NewDefaultInputBitStream(bytes.NewReader([]byte{0xFF, 0x00}), 0)
	if err != nil {
		t.Fatalf("Failed to create input bitstream: %v", err)
	}

	more, err := ibs.HasMoreToRead()
	if err != nil || !more {
		t.Fatalf("HasMoreToRead = %v, %v on fresh stream", more, err)
	}

	if _, err := ibs.ReadBits(16); err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}

	if more, _ := ibs.HasMoreToRead(); more {
		t.Fatalf("HasMoreToRead must be false at end of stream")
	}
}

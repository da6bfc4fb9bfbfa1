package entropy

import (
	"fmt"
	"strings"

	kanzi "github.com/backwardn/kanzi-go"
)

// Codec identifiers stored in stream headers. The values are part of the
// stream format and must not be renumbered.
const (
	NoneType    = byte(0)
	HuffmanType = byte(1)
	RiceType    = byte(2)
	LZ4Type     = byte(3)
)

// GetType returns the codec identifier for a codec name. Names are case
// insensitive.
func GetType(name string) (byte, error) {
	switch strings.ToUpper(name) {
	case "NONE":
		return NoneType, nil
	case "HUFFMAN":
		return HuffmanType, nil
	case "RICE":
		return RiceType, nil
	case "LZ4":
		return LZ4Type, nil
	}

	return 0, fmt.Errorf("unsupported entropy codec: '%s'", name)
}

// GetName returns the codec name for a codec identifier.
func GetName(entropyType byte) string {
	switch entropyType {
	case NoneType:
		return "NONE"
	case HuffmanType:
		return "HUFFMAN"
	case RiceType:
		return "RICE"
	case LZ4Type:
		return "LZ4"
	}

	return "UNKNOWN"
}

// NewEntropyEncoder creates the entropy encoder for the given codec
// identifier, bound to the provided bitstream.
func NewEntropyEncoder(obs kanzi.OutputBitStream, entropyType byte) (kanzi.EntropyEncoder, error) {
	switch entropyType {
	case NoneType:
		return NewRawEncoder(obs)
	case HuffmanType:
		return NewHuffmanEncoder(obs)
	case RiceType:
		return NewRiceEncoder(obs)
	case LZ4Type:
		return NewLZ4Encoder(obs)
	}

	return nil, fmt.Errorf("unsupported entropy codec type: %d", entropyType)
}

// NewEntropyDecoder creates the entropy decoder for the given codec
// identifier, bound to the provided bitstream.
func NewEntropyDecoder(ibs kanzi.InputBitStream, entropyType byte) (kanzi.EntropyDecoder, error) {
	switch entropyType {
	case NoneType:
		return NewRawDecoder(ibs)
	case HuffmanType:
		return NewHuffmanDecoder(ibs)
	case RiceType:
		return NewRiceDecoder(ibs)
	case LZ4Type:
		return NewLZ4Decoder(ibs)
	}

	return nil, fmt.Errorf("unsupported entropy codec type: %d", entropyType)
}

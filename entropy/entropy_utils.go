// Package entropy provides the concrete entropy encoders and decoders:
// a raw pass-through codec, a Huffman codec, a Rice-Golomb codec and an
// LZ4 block codec, all implementing the kanzi contracts.
package entropy

import (
	"fmt"

	kanzi "github.com/backwardn/kanzi-go"
)

const (
	fullAlphabet    = 0 // flag for full 256 symbol alphabet
	partialAlphabet = 1 // flag for partial alphabet encoded as presence bitmap
)

// ComputeHistogram fills freqs (size 256) with the number of occurrences
// of each byte value in block.
func ComputeHistogram(block []byte, freqs []int) {
	for i := range freqs {
		freqs[i] = 0
	}

	for _, b := range block {
		freqs[b]++
	}
}

// EncodeAlphabet writes the list of present symbols to the bitstream.
// The alphabet must be sorted in increasing order with values in [0..255].
// Returns the number of symbols written.
func EncodeAlphabet(obs kanzi.OutputBitStream, alphabet []int) (int, error) {
	count := len(alphabet)

	if count == 0 || count > 256 {
		return 0, fmt.Errorf("invalid alphabet size: %d (must be in [1..256])", count)
	}

	if count == 256 {
		if err := obs.WriteBit(fullAlphabet); err != nil {
			return 0, err
		}

		return count, nil
	}

	if err := obs.WriteBit(partialAlphabet); err != nil {
		return 0, err
	}

	// Presence bitmap, 8 symbols per mask, up to the last non-empty mask
	var masks [32]uint8

	for i := 0; i < count; i++ {
		masks[alphabet[i]>>3] |= 1 << uint(alphabet[i]&7)
	}

	lastMask := alphabet[count-1] >> 3

	if _, err := obs.WriteBits(uint64(lastMask), 5); err != nil {
		return 0, err
	}

	for i := 0; i <= lastMask; i++ {
		if _, err := obs.WriteBits(uint64(masks[i]), 8); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// DecodeAlphabet reads the list of present symbols from the bitstream
// into alphabet (size 256). Returns the number of symbols read.
func DecodeAlphabet(ibs kanzi.InputBitStream, alphabet []int) (int, error) {
	alphabetType, err := ibs.ReadBit()
	if err != nil {
		return 0, err
	}

	if alphabetType == fullAlphabet {
		for i := range alphabet {
			alphabet[i] = i
		}

		return 256, nil
	}

	lastMask, err := ibs.ReadBits(5)
	if err != nil {
		return 0, err
	}

	count := 0

	for i := 0; i <= int(lastMask); i++ {
		mask, err := ibs.ReadBits(8)
		if err != nil {
			return 0, err
		}

		for j := 0; j < 8; j++ {
			if mask&(1<<uint(j)) != 0 {
				alphabet[count] = (i << 3) + j
				count++
			}
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("invalid bitstream: empty alphabet")
	}

	return count, nil
}

// encodeFrequencies writes the alphabet followed by the frequency of each
// present symbol. Frequencies must be at least 1 for present symbols.
func encodeFrequencies(obs kanzi.OutputBitStream, freqs []int, alphabet []int) error {
	if _, err := EncodeAlphabet(obs, alphabet); err != nil {
		return err
	}

	maxFreq := 0

	for _, s := range alphabet {
		if freqs[s] > maxFreq {
			maxFreq = freqs[s]
		}
	}

	// Number of bits per frequency value (frequencies are shifted by one)
	log := uint(1)

	for (maxFreq-1)>>log > 0 {
		log++
	}

	if _, err := obs.WriteBits(uint64(log-1), 5); err != nil {
		return err
	}

	for _, s := range alphabet {
		if freqs[s] <= 0 {
			return fmt.Errorf("invalid frequency %d for symbol %d", freqs[s], s)
		}

		if _, err := obs.WriteBits(uint64(freqs[s]-1), log); err != nil {
			return err
		}
	}

	return nil
}

// decodeFrequencies reads the alphabet and the frequencies written by
// encodeFrequencies. freqs must have size 256; absent symbols get 0.
// Returns the decoded alphabet size.
func decodeFrequencies(ibs kanzi.InputBitStream, freqs []int, alphabet []int) (int, error) {
	alphabetSize, err := DecodeAlphabet(ibs, alphabet)
	if err != nil {
		return 0, err
	}

	log, err := ibs.ReadBits(5)
	if err != nil {
		return 0, err
	}

	for i := range freqs {
		freqs[i] = 0
	}

	for i := 0; i < alphabetSize; i++ {
		f, err := ibs.ReadBits(uint(log) + 1)
		if err != nil {
			return 0, err
		}

		freqs[alphabet[i]] = int(f) + 1
	}

	return alphabetSize, nil
}

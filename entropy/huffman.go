package entropy

import (
	"container/heap"
	"fmt"

	kanzi "github.com/backwardn/kanzi-go"
)

// The block is processed in chunks, each with its own frequency table.
const huffmanChunkSize = 1 << 16

type huffmanNode struct {
	symbol      int
	freq        int
	left, right *huffmanNode
}

type huffmanPriorityQueue []*huffmanNode

func (pq huffmanPriorityQueue) Len() int           { return len(pq) }
func (pq huffmanPriorityQueue) Less(i, j int) bool { return pq[i].freq < pq[j].freq }
func (pq huffmanPriorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *huffmanPriorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*huffmanNode))
}

func (pq *huffmanPriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	*pq = old[:n-1]
	return node
}

// buildHuffmanTree builds the coding tree from the chunk frequencies.
// The construction is fully deterministic for a given frequency table so
// the decoder rebuilds the exact same tree from the transmitted
// frequencies. Requires at least 2 present symbols.
func buildHuffmanTree(freqs []int, alphabet []int) *huffmanNode {
	pq := make(huffmanPriorityQueue, 0, len(alphabet))

	for _, s := range alphabet {
		pq = append(pq, &huffmanNode{symbol: s, freq: freqs[s]})
	}

	heap.Init(&pq)

	for pq.Len() > 1 {
		left := heap.Pop(&pq).(*huffmanNode)
		right := heap.Pop(&pq).(*huffmanNode)
		heap.Push(&pq, &huffmanNode{
			freq:  left.freq + right.freq,
			left:  left,
			right: right,
		})
	}

	return heap.Pop(&pq).(*huffmanNode)
}

type huffmanCode struct {
	bits   uint64
	length uint
}

// generateCodes walks the tree and fills the code table. Left edges emit
// a 0 bit, right edges a 1 bit.
func generateCodes(node *huffmanNode, bits uint64, depth uint, codes []huffmanCode) {
	if node.left == nil && node.right == nil {
		codes[node.symbol] = huffmanCode{bits: bits, length: depth}
		return
	}

	generateCodes(node.left, bits<<1, depth+1, codes)
	generateCodes(node.right, (bits<<1)|1, depth+1, codes)
}

// HuffmanEncoder implements kanzi.EntropyEncoder using a static Huffman
// code rebuilt for every chunk from the chunk's byte frequencies. The
// frequency table is transmitted ahead of the coded symbols.
type HuffmanEncoder struct {
	obs      kanzi.OutputBitStream
	freqs    [256]int
	codes    [256]huffmanCode
	disposed bool
}

var _ kanzi.EntropyEncoder = (*HuffmanEncoder)(nil)

// NewHuffmanEncoder creates an encoder bound to the provided bitstream.
func NewHuffmanEncoder(obs kanzi.OutputBitStream) (*HuffmanEncoder, error) {
	if obs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &HuffmanEncoder{obs: obs}, nil
}

// Write encodes the block into the bitstream. Returns the number of
// source bytes accepted, len(block) on success.
func (e *HuffmanEncoder) Write(block []byte) (int, error) {
	if e.disposed {
		return 0, fmt.Errorf("encoder already disposed")
	}

	for start := 0; start < len(block); start += huffmanChunkSize {
		end := start + huffmanChunkSize

		if end > len(block) {
			end = len(block)
		}

		if err := e.encodeChunk(block[start:end]); err != nil {
			return start, fmt.Errorf("huffman encode: %w", err)
		}
	}

	return len(block), nil
}

func (e *HuffmanEncoder) encodeChunk(chunk []byte) error {
	ComputeHistogram(chunk, e.freqs[:])
	alphabet := make([]int, 0, 256)

	for s := 0; s < 256; s++ {
		if e.freqs[s] > 0 {
			alphabet = append(alphabet, s)
		}
	}

	if err := encodeFrequencies(e.obs, e.freqs[:], alphabet); err != nil {
		return err
	}

	// Single symbol chunk: the frequency table says it all
	if len(alphabet) == 1 {
		return nil
	}

	root := buildHuffmanTree(e.freqs[:], alphabet)
	generateCodes(root, 0, 0, e.codes[:])

	for _, b := range chunk {
		c := e.codes[b]

		if _, err := e.obs.WriteBits(c.bits, c.length); err != nil {
			return err
		}
	}

	return nil
}

// BitStream returns the underlying bitstream.
func (e *HuffmanEncoder) BitStream() kanzi.OutputBitStream {
	return e.obs
}

// Dispose flushes residual coder state. The Huffman coder emits whole
// chunks synchronously, so there is no residue; Dispose only seals the
// encoder. Idempotent.
func (e *HuffmanEncoder) Dispose() error {
	e.disposed = true
	return nil
}

// HuffmanDecoder implements kanzi.EntropyDecoder for the HuffmanEncoder
// output. It rebuilds the coding tree from the transmitted frequencies.
type HuffmanDecoder struct {
	ibs      kanzi.InputBitStream
	freqs    [256]int
	alphabet [256]int
	disposed bool
}

var _ kanzi.EntropyDecoder = (*HuffmanDecoder)(nil)

// NewHuffmanDecoder creates a decoder bound to the provided bitstream.
func NewHuffmanDecoder(ibs kanzi.InputBitStream) (*HuffmanDecoder, error) {
	if ibs == nil {
		return nil, fmt.Errorf("invalid null bitstream parameter")
	}

	return &HuffmanDecoder{ibs: ibs}, nil
}

// Read decodes len(block) bytes from the bitstream into block.
func (d *HuffmanDecoder) Read(block []byte) (int, error) {
	if d.disposed {
		return 0, fmt.Errorf("decoder already disposed")
	}

	for start := 0; start < len(block); start += huffmanChunkSize {
		end := start + huffmanChunkSize

		if end > len(block) {
			end = len(block)
		}

		if err := d.decodeChunk(block[start:end]); err != nil {
			return start, fmt.Errorf("huffman decode: %w", err)
		}
	}

	return len(block), nil
}

func (d *HuffmanDecoder) decodeChunk(chunk []byte) error {
	alphabetSize, err := decodeFrequencies(d.ibs, d.freqs[:], d.alphabet[:])
	if err != nil {
		return err
	}

	if alphabetSize == 1 {
		for i := range chunk {
			chunk[i] = byte(d.alphabet[0])
		}

		return nil
	}

	root := buildHuffmanTree(d.freqs[:], d.alphabet[:alphabetSize])

	for i := range chunk {
		node := root

		for node.left != nil {
			bit, err := d.ibs.ReadBit()
			if err != nil {
				return err
			}

			if bit == 0 {
				node = node.left
			} else {
				node = node.right
			}
		}

		chunk[i] = byte(node.symbol)
	}

	return nil
}

// BitStream returns the underlying bitstream.
func (d *HuffmanDecoder) BitStream() kanzi.InputBitStream {
	return d.ibs
}

// Dispose seals the decoder. Idempotent.
func (d *HuffmanDecoder) Dispose() error {
	d.disposed = true
	return nil
}

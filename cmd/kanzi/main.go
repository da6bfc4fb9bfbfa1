package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	kio "github.com/backwardn/kanzi-go/io"
	"github.com/backwardn/kanzi-go/progress"
)

const compressedSuffix = ".knz"

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	operation := os.Args[1]
	switch operation {
	case "compress":
		if err := handleCompress(); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	case "decompress":
		if err := handleDecompress(); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Invalid operation:", operation)
		printUsage()
		os.Exit(1)
	}
}

// printUsage prints the command-line usage information
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  ./kanzi compress input [output_dir] [codec]")
	fmt.Println("  ./kanzi decompress input" + compressedSuffix + " [output]")
	fmt.Println()
	fmt.Println("Codecs: none, huffman, rice, lz4 (default huffman)")
	fmt.Println("A directory input is walked recursively; append '" +
		string(os.PathSeparator) + ".' to only take its direct files.")
}

// handleCompress compresses every file resolved from the input target
func handleCompress() error {
	if len(os.Args) < 3 || len(os.Args) > 5 {
		printUsage()
		os.Exit(1)
	}

	input := os.Args[2]
	outputDir := ""
	codec := "huffman"

	if len(os.Args) >= 4 {
		outputDir = os.Args[3]
	}

	if len(os.Args) == 5 {
		codec = os.Args[4]
	}

	files, err := kio.CreateFileList(input, nil)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}

	if len(files) == 0 {
		fmt.Println("No file to compress")
		return nil
	}

	progress.Init(calculateTotalSize(files))
	defer progress.Stop()

	base := filepath.Dir(filepath.Clean(input))

	for _, file := range files {
		dest, err := determineOutputPath(file, base, outputDir)
		if err != nil {
			return err
		}

		if err := compressFile(file, dest, codec); err != nil {
			return fmt.Errorf("compress %s: %w", file, err)
		}
	}

	return nil
}

// calculateTotalSize calculates the total size of all files to be compressed
func calculateTotalSize(files []string) uint64 {
	var totalSize uint64

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		totalSize += uint64(info.Size())
	}

	return totalSize
}

// determineOutputPath determines the compressed output path for a file.
// Without an output directory the compressed file lands next to its
// source; with one, the layout below the input target is mirrored.
func determineOutputPath(file, base, outputDir string) (string, error) {
	if outputDir == "" {
		return file + compressedSuffix, nil
	}

	rel, err := filepath.Rel(base, file)
	if err != nil {
		rel = filepath.Base(file)
	}

	dest := filepath.Join(outputDir, rel) + compressedSuffix

	if err := kio.MkdirAll(filepath.Dir(dest)); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	return dest, nil
}

// compressFile compresses a single file into dest using the given codec
func compressFile(input, dest, codec string) error {
	src, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	w, err := kio.NewWriter(dst, codec, 0)
	if err != nil {
		dst.Close()
		return err
	}

	if _, err := io.Copy(w, &progress.Reader{R: src}); err != nil {
		w.Close()
		return fmt.Errorf("encode: %w", err)
	}

	// Closing the stream writer also closes the output file
	if err := w.Close(); err != nil {
		return err
	}

	return nil
}

// handleDecompress decompresses a single compressed stream
func handleDecompress() error {
	if len(os.Args) < 3 || len(os.Args) > 4 {
		printUsage()
		os.Exit(1)
	}

	input := os.Args[2]
	output := ""

	if len(os.Args) == 4 {
		output = os.Args[3]
	}

	if output == "" {
		if strings.HasSuffix(input, compressedSuffix) {
			output = input[:len(input)-len(compressedSuffix)]
		} else {
			output = input + ".out"
		}
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := kio.MkdirAll(dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	src, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	r, err := kio.NewReader(src)
	if err != nil {
		src.Close()
		return err
	}

	dst, err := os.Create(output)
	if err != nil {
		r.Close()
		return fmt.Errorf("create output: %w", err)
	}
	defer dst.Close()

	progress.Init(0)
	defer progress.Stop()

	if _, err := io.Copy(&progress.Writer{W: dst}, r); err != nil {
		r.Close()
		return fmt.Errorf("decode: %w", err)
	}

	// Closing the stream reader also closes the input file
	return r.Close()
}

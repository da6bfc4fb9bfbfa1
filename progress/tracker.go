// Package progress reports processed byte counts for long running
// compression jobs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	processed atomic.Uint64
	total     uint64
	done      chan struct{}
	running   bool
	mu        sync.Mutex
)

// Init starts the progress reporter for a job of 'size' bytes. A second
// Init before Stop is a no-op.
func Init(size uint64) {
	mu.Lock()
	defer mu.Unlock()

	if running {
		return
	}

	processed.Store(0)
	total = size

	if total == 0 {
		total = 1 // avoid division by zero
	}

	done = make(chan struct{})
	running = true
	go report()
}

// Stop stops the progress reporter.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if running {
		close(done)
		running = false
	}
}

// AddBytes adds processed bytes to the counter.
func AddBytes(n uint64) {
	if n > 0 {
		processed.Add(n)
	}
}

// formatSize returns a human readable size string.
func formatSize(bytes uint64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0

	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// report prints progress once per second until Stop is called.
func report() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	start := time.Now()
	var prev uint64

	for {
		select {
		case <-ticker.C:
			current := processed.Load()
			rate := current - prev
			prev = current
			percentage := float64(current) / float64(total) * 100

			if total > 1 {
				fmt.Printf("Processed %s of %s (%.1f%%) | %s/s\n",
					formatSize(current), formatSize(total), percentage, formatSize(rate))
			} else {
				fmt.Printf("Processed %s | %s/s\n", formatSize(current), formatSize(rate))
			}
		case <-done:
			elapsed := time.Since(start).Seconds()

			if elapsed > 0.1 {
				fmt.Printf("Completed %s in %.1f seconds\n", formatSize(processed.Load()), elapsed)
			}

			return
		}
	}
}

// Writer counts bytes flowing through an io.Writer.
type Writer struct {
	W io.Writer
}

// Write implements io.Writer and tracks bytes written.
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.W.Write(p)

	if err == nil && n > 0 {
		AddBytes(uint64(n))
	}

	return n, err
}

// Reader counts bytes flowing through an io.Reader.
type Reader struct {
	R io.Reader
}

// Read implements io.Reader and tracks bytes read.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.R.Read(p)

	if n > 0 {
		AddBytes(uint64(n))
	}

	return n, err
}

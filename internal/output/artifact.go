// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// WriteArtifact stores data at path with mode 0600. Paths ending in ".zst"
// are zstd-compressed. It returns the number of uncompressed bytes written.
func WriteArtifact(path string, data []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}

	var w io.WriteCloser = f
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("create zstd writer: %w", err)
		}
		w = &stackedCloser{WriteCloser: zw, next: f}
	}

	n, err := w.Write(data)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("write artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close artifact: %w", err)
	}
	return n, nil
}

// ReadArtifact is the inverse of WriteArtifact.
func ReadArtifact(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		return io.ReadAll(f)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// stackedCloser closes the encoder before the file underneath it.
type stackedCloser struct {
	io.WriteCloser
	next io.Closer
}

func (s *stackedCloser) Close() error {
	err := s.WriteCloser.Close()
	if cerr := s.next.Close(); err == nil {
		err = cerr
	}
	return err
}

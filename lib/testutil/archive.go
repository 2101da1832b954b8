// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Compress encodes data with the named codec ("xz", "lzma", "zstd",
// "gzip", "lz4", or "none").
func Compress(t testing.TB, codec string, data []byte) []byte {
	t.Helper()

	var output bytes.Buffer
	var writer io.WriteCloser
	var err error

	switch codec {
	case "none":
		return append([]byte(nil), data...)
	case "xz":
		writer, err = xz.NewWriter(&output)
	case "lzma":
		writer, err = lzma.NewWriter(&output)
	case "zstd":
		writer, err = zstd.NewWriter(&output)
	case "gzip":
		writer = gzip.NewWriter(&output)
	case "lz4":
		writer = lz4.NewWriter(&output)
	default:
		t.Fatalf("testutil.Compress: unknown codec %q", codec)
	}
	if err != nil {
		t.Fatalf("creating %s writer: %v", codec, err)
	}

	if _, err := writer.Write(data); err != nil {
		t.Fatalf("writing %s stream: %v", codec, err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing %s stream: %v", codec, err)
	}
	return output.Bytes()
}

// WriteArchive compresses text with codec and writes it to
// directory/name, returning the full path.
//
//	path := testutil.WriteArchive(t, archives, "integration.log.2025-05-08.17.xz", "xz", text)
func WriteArchive(t testing.TB, directory, name, codec, text string) string {
	t.Helper()

	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, Compress(t, codec, []byte(text)), 0o644); err != nil {
		t.Fatalf("writing archive %s: %v", path, err)
	}
	return path
}

// WriteFile writes raw bytes to directory/name and returns the path.
// Use it for deliberately damaged archives.
func WriteFile(t testing.TB, directory, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

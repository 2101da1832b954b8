// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Codec names a compression format an archive can be stored in.
type Codec string

const (
	// CodecXZ is the xz container around LZMA2. Hourly integration log
	// archives are written in this format.
	CodecXZ Codec = "xz"

	// CodecLZMA is the legacy "LZMA alone" format. It has no magic
	// number, so it is only recognized by a .lzma file extension.
	CodecLZMA Codec = "lzma"

	CodecZstd Codec = "zstd"
	CodecGzip Codec = "gzip"
	CodecLZ4  Codec = "lz4"
)

// Magic numbers at the start of each self-identifying format.
var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// utf8BOM is stripped from the front of decompressed text.
const utf8BOM = "\xEF\xBB\xBF"

// DetectCodec identifies the compression format from the first bytes of
// an archive. The file name is consulted only for formats that have no
// magic number.
func DetectCodec(header []byte, name string) (Codec, error) {
	switch {
	case bytes.HasPrefix(header, xzMagic):
		return CodecXZ, nil
	case bytes.HasPrefix(header, zstdMagic):
		return CodecZstd, nil
	case bytes.HasPrefix(header, gzipMagic):
		return CodecGzip, nil
	case bytes.HasPrefix(header, lz4Magic):
		return CodecLZ4, nil
	case strings.EqualFold(filepath.Ext(name), ".lzma"):
		return CodecLZMA, nil
	}
	return "", fmt.Errorf("unrecognized compression format (header % x)", header)
}

// Decompress reads the archive at handle.Path and returns its full
// decompressed content as text. The compressed file is streamed through
// the decoder; it is never loaded into memory whole.
//
// Returns CorruptArchive when the format is unknown or the stream is
// damaged, and EncodingError when the decompressed bytes are not valid
// UTF-8.
func Decompress(handle ArchiveHandle) (string, error) {
	file, err := os.Open(handle.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", Errorf(ArchiveNotFound, "archive %s disappeared before decompression", handle.Path)
		}
		return "", Errorf(CorruptArchive, "opening archive %s: %w", handle.Path, err)
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	// A short or empty file just yields a short header; detection then
	// fails with a clear message instead of an EOF.
	header, _ := buffered.Peek(len(xzMagic))

	codec, err := DetectCodec(header, handle.Path)
	if err != nil {
		return "", Errorf(CorruptArchive, "archive %s: %w", handle.Path, err)
	}

	decoded, err := decode(codec, buffered)
	if err != nil {
		return "", Errorf(CorruptArchive, "decompressing %s archive %s: %w", codec, handle.Path, err)
	}

	return decodeText(decoded, handle.Path)
}

// decode streams source through the decoder for codec.
func decode(codec Codec, source io.Reader) ([]byte, error) {
	var reader io.Reader

	switch codec {
	case CodecXZ:
		xzReader, err := xz.NewReader(source)
		if err != nil {
			return nil, err
		}
		reader = xzReader

	case CodecLZMA:
		lzmaReader, err := lzma.NewReader(source)
		if err != nil {
			return nil, err
		}
		reader = lzmaReader

	case CodecZstd:
		zstdReader, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer zstdReader.Close()
		reader = zstdReader

	case CodecGzip:
		gzipReader, err := gzip.NewReader(source)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader

	case CodecLZ4:
		reader = lz4.NewReader(source)

	default:
		return nil, fmt.Errorf("unsupported codec %q", codec)
	}

	var output bytes.Buffer
	if _, err := io.Copy(&output, reader); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

// decodeText validates data as UTF-8 and strips a leading byte-order
// mark.
func decodeText(data []byte, path string) (string, error) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if !utf8.Valid(data) {
		return "", Errorf(EncodingError,
			"archive %s: decompressed content is not valid UTF-8 (first invalid byte at offset %d)",
			path, firstInvalidUTF8(data))
	}
	return string(data), nil
}

// firstInvalidUTF8 returns the byte offset of the first invalid UTF-8
// sequence in data, or -1 if data is valid.
func firstInvalidUTF8(data []byte) int {
	for offset := 0; offset < len(data); {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size == 1 {
			return offset
		}
		offset += size
	}
	return -1
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed hash.
type Digest [32]byte

// Domain is a 32-byte BLAKE3 key. The byte values are the ASCII domain
// name, zero-padded, so keys are readable in hex dumps.
type Domain [32]byte

// Changing a domain key invalidates every manifest written with it.
var (
	// ArtifactDomain covers the bytes of a stage artifact file.
	ArtifactDomain = Domain{
		't', 'r', 'i', 'a', 'g', 'e', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// ArchiveDomain covers a compressed log archive as found on disk.
	ArchiveDomain = Domain{
		't', 'r', 'i', 'a', 'g', 'e', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e', 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Sum returns the keyed digest of data in the given domain.
func Sum(domain Domain, data []byte) Digest {
	hasher := newHasher(domain)
	hasher.Write(data)
	return finish(hasher)
}

// SumReader streams r into the keyed hasher.
func SumReader(domain Domain, r io.Reader) (Digest, int64, error) {
	hasher := newHasher(domain)
	size, err := io.Copy(hasher, r)
	if err != nil {
		return Digest{}, size, err
	}
	return finish(hasher), size, nil
}

// SumFile digests the file at path and returns its size alongside.
func SumFile(domain Domain, path string) (Digest, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, err
	}
	defer file.Close()

	result, size, err := SumReader(domain, file)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return result, size, nil
}

// String returns the lowercase hex form used in manifests and CLI
// output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as hex so JSON output is readable.
// CBOR ignores this method and stores the raw 32 bytes.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the hex form written by MarshalText.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero value (no digest recorded).
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Parse parses a 64-character hex digest.
func Parse(text string) (Digest, error) {
	var result Digest
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return result, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(result) {
		return result, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(result))
	}
	copy(result[:], decoded)
	return result, nil
}

func newHasher(domain Domain) *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes, which Domain
	// rules out.
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func finish(hasher *blake3.Hasher) Digest {
	var result Digest
	copy(result[:], hasher.Sum(nil))
	return result
}

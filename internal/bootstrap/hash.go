package bootstrap

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

// buildStampMagic precedes every embedded build timestamp in an ovie
// artifact: the 4-byte magic followed by an 8-byte little-endian stamp.
var buildStampMagic = []byte("OVTS")

const buildStampLen = 8

// stampSentinel is the fixed value every stamp is rewritten to before
// hashing, so that two otherwise identical artifacts built at different
// times still hash equal.
var stampSentinel = [buildStampLen]byte{}

// NormalizeBuildStamps returns a copy of b with every embedded build
// timestamp replaced by the fixed sentinel. The input is not modified.
func NormalizeBuildStamps(b []byte) []byte {
	idx := bytes.Index(b, buildStampMagic)
	if idx < 0 {
		return b
	}
	out := append([]byte(nil), b...)
	for idx >= 0 {
		stampStart := idx + len(buildStampMagic)
		if stampStart+buildStampLen > len(out) {
			break
		}
		copy(out[stampStart:stampStart+buildStampLen], stampSentinel[:])
		next := bytes.Index(out[stampStart+buildStampLen:], buildStampMagic)
		if next < 0 {
			break
		}
		idx = stampStart + buildStampLen + next
	}
	return out
}

// HashArtifact reads the artifact at path, normalizes embedded build
// stamps, and returns the sha256 digest of the result. Hashing the same
// artifact twice always yields the same digest.
func HashArtifact(path string) (Digest, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, fmt.Errorf("read artifact: %w", err)
	}
	return Digest(sha256.Sum256(NormalizeBuildStamps(content))), nil
}

// Combine builds an aggregate hash: H(a || b || ...). Order matters and
// must be deterministic at every call site.
func Combine(digests ...Digest) Digest {
	h := sha256.New()
	for _, d := range digests {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

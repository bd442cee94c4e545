package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
)

// Fingerprint describes the toolchain/platform a verification ran under.
// Two reports are only comparable when their fingerprints hash equal.
type Fingerprint struct {
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	CompilerVersion string `json:"compiler_version"`
}

// HostFingerprint returns the fingerprint of the running process.
func HostFingerprint(compilerVersion string) Fingerprint {
	return Fingerprint{
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
		CompilerVersion: compilerVersion,
	}
}

// Hash returns the stable hex digest of the fingerprint.
func (fp Fingerprint) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", fp.OS, fp.Arch, fp.CompilerVersion)))
	return hex.EncodeToString(sum[:])
}

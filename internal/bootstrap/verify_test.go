package bootstrap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"ovie/internal/diag"
)

// writeScript installs an executable shell script standing in for a
// compiler generation. Every script follows the invocation contract
// `<bin> build <source> -o <out>`, so the artifact path is $4.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler scripts need a POSIX shell")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o700); err != nil { // #nosec G306 -- test binary must be executable
		t.Fatalf("write fake compiler: %v", err)
	}
	return path
}

// reproducingGen0 emits a self-reproducing Gen1: the inner script copies
// its own body (minus the old stamp line) to the output and appends a
// fresh build stamp, so Gen1 and Gen2 are identical up to the stamp.
const reproducingGen0 = `#!/bin/sh
out="$4"
cat > "$out" <<'SCRIPT'
#!/bin/sh
out="$4"
grep -v '^#OVTS' "$0" > "$out"
printf '#OVTS' >> "$out"
date +%s | head -c 8 >> "$out"
chmod +x "$out"
SCRIPT
printf '#OVTS' >> "$out"
date +%s | head -c 8 >> "$out"
chmod +x "$out"
`

func TestVerifyReproducibleRun(t *testing.T) {
	dir := t.TempDir()
	gen0 := writeScript(t, dir, "gen0", reproducingGen0)

	report, err := Verify(context.Background(), Request{
		SourceTree:      dir,
		BootstrapBinary: gen0,
		WorkDir:         filepath.Join(dir, "work"),
		Timeout:         time.Minute,
		CompilerVersion: "test",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Reproducible {
		t.Fatalf("expected reproducible run, hashes: %+v", report.Hashes)
	}
	if len(report.Hashes) != 3 {
		t.Fatalf("expected Gen0/Gen1/Gen2 hashes, got %d", len(report.Hashes))
	}
	if report.Hashes[0].Generation != Gen0 {
		t.Fatalf("first hash should be Gen0, got %s", report.Hashes[0].Generation)
	}
	var gen1Hash, gen2Hash string
	for _, h := range report.Hashes {
		switch h.Generation {
		case Gen1:
			gen1Hash = h.Hash
		case Gen2:
			gen2Hash = h.Hash
		}
	}
	if gen1Hash == "" || gen1Hash != gen2Hash {
		t.Fatalf("Gen1/Gen2 hashes should match: %q vs %q", gen1Hash, gen2Hash)
	}
	if report.EnvironmentHash == "" {
		t.Fatal("report is missing the environment hash")
	}
	if report.Timestamp.IsZero() {
		t.Fatal("report is missing the timestamp")
	}

	var digests []Digest
	for _, h := range report.Hashes {
		raw, err := hex.DecodeString(h.Hash)
		if err != nil {
			t.Fatalf("decode %s hash: %v", h.Generation, err)
		}
		digests = append(digests, Digest(raw))
	}
	if want := Combine(digests...).Hex(); report.ChainHash != want {
		t.Fatalf("chain hash %q does not cover Gen0..Gen2, want %q", report.ChainHash, want)
	}
}

func TestVerifyNonReproducibleIsSoft(t *testing.T) {
	dir := t.TempDir()
	// Gen1 emits output unrelated to its own body, so hash(Gen2) cannot
	// match hash(Gen1). That is a finding, not a tooling failure: err
	// stays nil and the caller decides whether to treat it as fatal.
	gen0 := writeScript(t, dir, "gen0", `#!/bin/sh
out="$4"
cat > "$out" <<'SCRIPT'
#!/bin/sh
printf 'drifted output' > "$4"
chmod +x "$4"
SCRIPT
chmod +x "$out"
`)

	report, err := Verify(context.Background(), Request{
		SourceTree:      dir,
		BootstrapBinary: gen0,
		WorkDir:         filepath.Join(dir, "work"),
		Timeout:         time.Minute,
	})
	if err != nil {
		t.Fatalf("non-reproducible run should not be an error: %v", err)
	}
	if report.Reproducible {
		t.Fatal("drifting artifacts must not verify as reproducible")
	}
	if report.Failure != "" {
		t.Fatalf("clean non-reproducible run should have no failure, got %q", report.Failure)
	}
}

func TestVerifyFailingCompilerIsToolFailure(t *testing.T) {
	dir := t.TempDir()
	gen0 := writeScript(t, dir, "gen0", `#!/bin/sh
echo 'internal error: no target' >&2
exit 1
`)

	report, err := Verify(context.Background(), Request{
		SourceTree:      dir,
		BootstrapBinary: gen0,
		WorkDir:         filepath.Join(dir, "work"),
		Timeout:         time.Minute,
	})
	var tf *ToolFailure
	if !errors.As(err, &tf) {
		t.Fatalf("expected a ToolFailure, got %v", err)
	}
	if tf.Code != diag.BootCompileFailed {
		t.Fatalf("expected BootCompileFailed, got %s", tf.Code.ID())
	}
	if tf.Step != "gen1" {
		t.Fatalf("failure should name the gen1 step, got %q", tf.Step)
	}
	if !strings.Contains(tf.Error(), "internal error: no target") {
		t.Fatalf("failure should carry the child's stderr, got %q", tf.Error())
	}
	if report.Reproducible {
		t.Fatal("failed run must not report reproducible")
	}
	if report.Failure == "" {
		t.Fatal("failed run should record the failure text on the report")
	}
}

func TestVerifyMissingBootstrapBinary(t *testing.T) {
	dir := t.TempDir()
	_, err := Verify(context.Background(), Request{
		SourceTree:      dir,
		BootstrapBinary: filepath.Join(dir, "does-not-exist"),
		WorkDir:         filepath.Join(dir, "work"),
	})
	var tf *ToolFailure
	if !errors.As(err, &tf) {
		t.Fatalf("expected a ToolFailure, got %v", err)
	}
	if tf.Code != diag.BootArtifactMissing {
		t.Fatalf("expected BootArtifactMissing, got %s", tf.Code.ID())
	}
}

func TestVerifyTimeoutKillsCompiler(t *testing.T) {
	dir := t.TempDir()
	gen0 := writeScript(t, dir, "gen0", "#!/bin/sh\nsleep 60\n")

	start := time.Now()
	_, err := Verify(context.Background(), Request{
		SourceTree:      dir,
		BootstrapBinary: gen0,
		WorkDir:         filepath.Join(dir, "work"),
		Timeout:         200 * time.Millisecond,
	})
	var tf *ToolFailure
	if !errors.As(err, &tf) {
		t.Fatalf("expected a ToolFailure, got %v", err)
	}
	if tf.Code != diag.BootTimeout {
		t.Fatalf("expected BootTimeout, got %s", tf.Code.ID())
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Fatalf("hung compiler was not killed promptly, took %s", elapsed)
	}
}

func TestReportAppendToLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "bootstrap.log")

	first := &Report{
		Reproducible: true,
		Hashes: []GenerationHash{
			{Generation: Gen1, Hash: "aa"},
			{Generation: Gen2, Hash: "aa"},
		},
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EnvironmentHash: "env",
	}
	second := &Report{Reproducible: false, Failure: "bootstrap gen1: broken"}
	if err := first.AppendToLog(logPath); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := second.AppendToLog(logPath); err != nil {
		t.Fatalf("second append: %v", err)
	}

	content, err := os.ReadFile(logPath) // #nosec G304
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	var decoded Report
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if !decoded.Reproducible || len(decoded.Hashes) != 2 {
		t.Fatalf("first line round-trip mismatch: %+v", decoded)
	}
	var decodedSecond Report
	if err := json.Unmarshal([]byte(lines[1]), &decodedSecond); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if decodedSecond.Reproducible || decodedSecond.Failure == "" {
		t.Fatalf("second line round-trip mismatch: %+v", decodedSecond)
	}
}

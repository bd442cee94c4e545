package ore

import (
	"time"
)

// CheckResult is one subpath's pass/fail entry in a self-check report.
type CheckResult struct {
	Subpath string `json:"subpath"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// SelfCheckReport is the outcome of an explicit environment self-check.
// Unlike Resolve it does not stop at the first failure: every required
// subpath is checked so the report names all of them.
type SelfCheckReport struct {
	Root      string        `json:"root"`
	Source    string        `json:"source"`
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// SelfCheck discovers the root (same order as Resolve) and validates every
// required subpath. Never triggers compilation. The error is non-nil only
// when no candidate root exists at all.
func SelfCheck(startDir string) (*SelfCheckReport, error) {
	root, src, oerr := discover(startDir)
	if oerr != nil {
		return nil, oerr
	}

	report := &SelfCheckReport{
		Root:      root,
		Source:    src.String(),
		OK:        true,
		Checks:    make([]CheckResult, 0, len(RequiredSubdirs)),
		Timestamp: time.Now().UTC(),
	}
	for _, sub := range RequiredSubdirs {
		result := CheckResult{Subpath: sub, OK: true}
		if cerr := checkSubdir(root, src, sub); cerr != nil {
			result.OK = false
			result.Detail = cerr.Error()
			report.OK = false
		}
		report.Checks = append(report.Checks, result)
	}
	return report, nil
}

package diag

import (
	"ovie/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Fix is a suggested replacement for the primary span. A fix may only be
// rendered once it has been independently re-verified to produce valid
// output; unverified fixes are dropped by renderers, never shown.
type Fix struct {
	Title    string
	NewText  string
	Verified bool
}

type Diagnostic struct {
	Severity    Severity
	Code        Code
	Message     string
	Explanation string
	Primary     source.Span
	Notes       []Note
	Fixes       []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithExplanation(text string) Diagnostic {
	d.Explanation = text
	return d
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithFix attaches a suggested fix. Callers must set verified only after the
// replacement text has been re-checked against the stage it targets.
func (d Diagnostic) WithFix(title, newText string, verified bool) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, NewText: newText, Verified: verified})
	return d
}

// VerifiedFixes returns only the fixes that passed re-verification.
func (d Diagnostic) VerifiedFixes() []Fix {
	out := make([]Fix, 0, len(d.Fixes))
	for _, f := range d.Fixes {
		if f.Verified {
			out = append(out, f)
		}
	}
	return out
}

package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ovie/internal/diag"
	"ovie/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	hintColor    = color.New(color.FgHiBlack, color.Bold)
	caretColor   = color.New(color.FgGreen)
	noteColor    = color.New(color.FgHiBlack)
)

// Pretty renders diagnostics in a human-readable form. Walks bag.Items()
// (call bag.Sort() beforehand for deterministic output). Each diagnostic
// prints as:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline, the
// explanation when requested, notes, and verified fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	loc := makeLocation(d.Primary, fs, opts.PathMode, true)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		loc.File, loc.StartLine, loc.StartCol,
		severityText(d.Severity, opts.Color), d.Code.ID(), d.Message)

	writeContext(w, d.Primary, fs, opts)

	if opts.ShowExplanation && d.Explanation != "" {
		for _, line := range strings.Split(d.Explanation, "\n") {
			fmt.Fprintf(w, "  = %s\n", line)
		}
	}

	if opts.ShowNotes {
		for _, note := range d.Notes {
			nloc := makeLocation(note.Span, fs, opts.PathMode, true)
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", label, nloc.File, nloc.StartLine, nloc.StartCol, note.Msg)
		}
	}

	if opts.ShowFixes {
		for _, fix := range d.VerifiedFixes() {
			fmt.Fprintf(w, "  fix: %s: `%s`\n", fix.Title, fix.NewText)
		}
	}
}

func writeContext(w io.Writer, span source.Span, fs *source.FileSet, opts PrettyOpts) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}

	fmt.Fprintf(w, "  %4d | %s\n", start.Line, line)

	// caret under the span; clamp multi-line spans to the first line
	width := uint32(1)
	if end.Line == start.Line && end.Col > start.Col {
		width = end.Col - start.Col
	}
	underline := "^" + strings.Repeat("~", int(width)-1)
	if opts.Color {
		underline = caretColor.Sprint(underline)
	}
	fmt.Fprintf(w, "       | %s%s\n", strings.Repeat(" ", int(start.Col)-1), underline)
}

func severityText(sev diag.Severity, colored bool) string {
	text := sev.String()
	if !colored {
		return text
	}
	switch sev {
	case diag.SevError:
		return errorColor.Sprint(text)
	case diag.SevWarning:
		return warningColor.Sprint(text)
	case diag.SevHint:
		return hintColor.Sprint(text)
	default:
		return infoColor.Sprint(text)
	}
}

// Package diag defines the core diagnostic model shared by every pipeline
// component.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the frontend, the stage validators, the environment resolver
//     and the bootstrap verifier.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt;
// exit-code mapping lives in cmd/ovie.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – four-level enum (Hint, Info, Warning, Error).
//   - Code – compact numeric identifier with a stable public string form
//     ("E_TYPE_004"), see codes.go.
//   - Message – human oriented text; keep it short and actionable.
//   - Explanation – longer prose shown below the message when present.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional suggested replacements.
//
// A Diagnostic is immutable once constructed; all With* helpers return a
// modified copy. Construction has no side effects.
//
// A Fix must be re-verified before it may be shown: renderers call
// VerifiedFixes and silently drop anything whose Verified flag is unset.
// A suggestion that would not itself produce valid output is omitted rather
// than offered.
//
// Severity never gates continuation by itself: an Error-severity diagnostic
// halts only the compilation unit it belongs to. Internal invariant
// violations are not diagnostics at all; see internal/stage.Violation.
//
// # Emitting diagnostics
//
// Producers should use a diag.Reporter to decouple emission from storage.
// Construct a ReportBuilder via NewReportBuilder (or ReportError /
// ReportWarning / ReportInfo), chain WithNote / WithFix / WithExplanation,
// then call Emit. diag.BagReporter aggregates into a Bag, which supports
// merging, capping and deterministic sorting.
package diag

package dbindex

import "github.com/abiiranathan/lua-analyzer/internal/ids"

// Severity mirrors the LSP DiagnosticSeverity enum ordering.
type Severity uint8

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is one published finding: a type error, an unresolved
// reference, a narrowing contradiction, or any other check result the
// analyzer pipeline (and the checkers under internal/semantic/check)
// produces (§4.9).
type Diagnostic struct {
	File     ids.FileId
	Range    ids.TextRange
	Severity Severity
	Code     string
	Message  string
}

// DiagnosticIndex holds the last published diagnostic set per file, so a
// re-run of the pipeline can diff against what the client was last told
// and only send a "publishDiagnostics" notification when the set changed.
type DiagnosticIndex struct {
	byFile map[ids.FileId][]Diagnostic
}

func NewDiagnosticIndex() *DiagnosticIndex {
	return &DiagnosticIndex{byFile: make(map[ids.FileId][]Diagnostic)}
}

// Set replaces the diagnostic set for file and reports whether it differs
// from what was previously stored (by length/content, not by pointer).
func (idx *DiagnosticIndex) Set(file ids.FileId, diags []Diagnostic) (changed bool) {
	prev, ok := idx.byFile[file]
	if !ok || !equalDiagnostics(prev, diags) {
		idx.byFile[file] = diags
		return true
	}
	return false
}

func (idx *DiagnosticIndex) Get(file ids.FileId) []Diagnostic {
	return idx.byFile[file]
}

func (idx *DiagnosticIndex) Remove(file ids.FileId) {
	delete(idx.byFile, file)
}

func equalDiagnostics(a, b []Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

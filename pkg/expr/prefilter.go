package expr

import (
	"regexp"
	"strings"
)

// forbiddenWords is the single source of truth for the sandbox deny-list.
// The textual pre-filter (CheckSource) and the lexer both consult this
// table, so an input rejected by one layer is rejected by the other.
//
// The words cover module import, dynamic code compilation and execution,
// interpreter internals, file and process access, and anonymous callable
// introduction.
var forbiddenWords = []string{
	"import",
	"__import__",
	"__builtins__",
	"eval",
	"exec",
	"compile",
	"open",
	"lambda",
	"getattr",
	"setattr",
	"delattr",
	"globals",
	"locals",
	"vars",
	"__class__",
	"__base__",
	"__bases__",
	"__subclasses__",
	"__globals__",
	"__code__",
	"__dict__",
	"__mro__",
}

var forbiddenWordSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(forbiddenWords))
	for _, w := range forbiddenWords {
		set[w] = struct{}{}
	}
	return set
}()

// forbiddenPattern matches any deny-list word on an identifier boundary,
// case-insensitively, plus any double-underscore identifier. Word-boundary
// matching keeps the pre-filter aligned with the lexer: "opened" is a plain
// identifier, "open" is not.
var forbiddenPattern = regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_])(` + strings.Join(forbiddenWords, "|") + `)([^A-Za-z0-9_]|$)|__`)

// CheckSource is the textual pre-filter: it rejects expression sources
// containing any deny-listed pattern before structured parsing is
// attempted. It returns a *SecurityError describing the first match, or
// nil when the source is textually clean.
//
// CheckSource is defense in depth, not the primary defense; the lexer and
// evaluator independently reject the same constructs.
func CheckSource(source string) error {
	loc := forbiddenPattern.FindStringSubmatchIndex(source)
	if loc == nil {
		return nil
	}

	// Prefer the named word capture for the error; fall back to the raw
	// match for the bare "__" case.
	pattern := source[loc[0]:loc[1]]
	if loc[4] >= 0 {
		pattern = source[loc[4]:loc[5]]
	}

	return &SecurityError{
		Expression: source,
		Pattern:    strings.ToLower(pattern),
		Message:    "expression contains a forbidden pattern",
	}
}

// isForbiddenIdent reports whether an identifier is deny-listed. Called by
// the lexer for every identifier it scans, independently of CheckSource.
func isForbiddenIdent(name string) bool {
	if strings.Contains(name, "__") {
		return true
	}
	_, ok := forbiddenWordSet[strings.ToLower(name)]
	return ok
}

package expr

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenInt
	tokenFloat
	tokenString
	tokenKeyword // and, or, not, in, True, False, None
	tokenPunct   // operators and delimiters
)

// token is a single lexical token with its source offset.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// keywords are the reserved words of the expression language. True/False
// and None are accepted in both Python and lowercase spellings so rule
// documents written for either convention evaluate identically.
var keywords = map[string]string{
	"and":   "and",
	"or":    "or",
	"not":   "not",
	"in":    "in",
	"True":  "True",
	"true":  "True",
	"False": "False",
	"false": "False",
	"None":  "None",
	"none":  "None",
	"null":  "None",
}

// punctuation lists multi-character operators first so the lexer matches
// greedily.
var punctuation = []string{
	"==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%",
	"(", ")", "[", "]", "{", "}",
	",", ":", ".", "<", ">",
}

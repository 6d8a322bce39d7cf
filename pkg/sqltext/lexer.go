// Package sqltext provides a lossless SQL tokenizer and text-editing helpers
// for rewrite rules.
//
// Unlike a parser lexer, the tokenizer keeps whitespace and comments as tokens
// so that concatenating every token's Text reproduces the input exactly. Rules
// locate constructs on the significant tokens and express their changes as
// byte-range edits against the original text.
package sqltext

import "strings"

// Kind classifies a token.
type Kind int

// Token kinds.
const (
	Space Kind = iota
	Comment
	Word
	QuotedIdent
	String
	Number
	Punct
)

func (k Kind) String() string {
	switch k {
	case Space:
		return "space"
	case Comment:
		return "comment"
	case Word:
		return "word"
	case QuotedIdent:
		return "quoted"
	case String:
		return "string"
	case Number:
		return "number"
	default:
		return "punct"
	}
}

// Token is a lexical unit with its byte span in the source.
type Token struct {
	Kind  Kind
	Text  string
	Start int // byte offset of the first character
	End   int // byte offset after the last character
	Line  int // 1-based line of the first character
}

// Is reports whether the token is a word equal to any of words, ignoring case.
func (t Token) Is(words ...string) bool {
	if t.Kind != Word {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.Text, w) {
			return true
		}
	}
	return false
}

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

// IsIdent reports whether the token can name a relation or column.
func (t Token) IsIdent() bool {
	return t.Kind == Word || t.Kind == QuotedIdent
}

// Name returns the identifier text without quoting.
func (t Token) Name() string {
	if t.Kind == QuotedIdent && len(t.Text) >= 2 {
		return strings.ReplaceAll(t.Text[1:len(t.Text)-1], `""`, `"`)
	}
	return t.Text
}

// multiPunct lists multi-character operators, longest first.
var multiPunct = []string{":::", "::", "<=", ">=", "<>", "!=", "||", "->>", "->", "=>"}

// Lexer tokenizes SQL input without discarding anything.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.pos < len(l.input) && l.readPos > 0 && l.input[l.pos] == '\n' {
		l.line++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// Next returns the next token and false at end of input.
func (l *Lexer) Next() (Token, bool) {
	if l.atEOF() {
		return Token{}, false
	}

	start, line := l.pos, l.line
	var kind Kind

	switch {
	case isSpace(l.ch):
		kind = Space
		for !l.atEOF() && isSpace(l.ch) {
			l.readChar()
		}
	case l.ch == '-' && l.peekChar() == '-':
		kind = Comment
		for !l.atEOF() && l.ch != '\n' {
			l.readChar()
		}
	case l.ch == '/' && l.peekChar() == '*':
		kind = Comment
		l.readChar()
		l.readChar()
		for !l.atEOF() {
			if l.ch == '*' && l.peekChar() == '/' {
				l.readChar()
				l.readChar()
				break
			}
			l.readChar()
		}
	case l.ch == '\'':
		kind = String
		l.readQuoted('\'')
	case l.ch == '"' || l.ch == '`':
		kind = QuotedIdent
		l.readQuoted(l.ch)
	case l.ch == '[' && l.looksBracketIdent():
		kind = QuotedIdent
		for !l.atEOF() && l.ch != ']' {
			l.readChar()
		}
		if !l.atEOF() {
			l.readChar()
		}
	case isLetter(l.ch) || l.ch == '_' || l.ch >= 0x80:
		kind = Word
		for !l.atEOF() && (isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' || l.ch >= 0x80) {
			l.readChar()
		}
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		kind = Number
		l.readNumber()
	default:
		kind = Punct
		if p := l.matchMulti(); p != "" {
			for range p {
				l.readChar()
			}
		} else {
			l.readChar()
		}
	}

	return Token{Kind: kind, Text: l.input[start:l.pos], Start: start, End: l.pos, Line: line}, true
}

// readQuoted consumes a quoted run; a doubled quote is an escape.
func (l *Lexer) readQuoted(q byte) {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		if l.ch == q {
			if l.peekChar() == q {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return
		}
		l.readChar()
	}
}

// looksBracketIdent distinguishes [ident] from an array subscript like a[1].
func (l *Lexer) looksBracketIdent() bool {
	end := strings.IndexByte(l.input[l.pos:], ']')
	if end <= 1 {
		return false
	}
	inner := l.input[l.pos+1 : l.pos+end]
	if strings.ContainsAny(inner, "\n[") {
		return false
	}
	return isLetter(inner[0]) || inner[0] == '_'
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
}

func (l *Lexer) matchMulti() string {
	rest := l.input[l.pos:]
	for _, p := range multiPunct {
		if strings.HasPrefix(rest, p) {
			return p
		}
	}
	return ""
}

// Tokenize splits s into a lossless token sequence.
func Tokenize(s string) []Token {
	l := NewLexer(s)
	var toks []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

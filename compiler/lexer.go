package compiler

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for clox expressions
// ---------------------------------------------------------------------------

// Lexer produces tokens on demand from a source string. Its only state is
// the scan position and the current line; once the input is exhausted every
// call to NextToken returns an EOF token.
type Lexer struct {
	input   string
	start   int // start of the token being scanned
	current int // next byte to read
	line    int // current line (1-based)

	lineStart int // offset of the first byte of the current line
	column    int // column of the token being scanned
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()
	l.start = l.current
	l.column = l.start - l.lineStart

	if l.atEnd() {
		return l.makeToken(TokenEOF)
	}

	ch := l.advance()
	switch {
	case isDigit(ch):
		return l.readNumber()
	case isAlpha(ch):
		return l.readIdentifier()
	}

	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen)
	case ')':
		return l.makeToken(TokenRightParen)
	case '{':
		return l.makeToken(TokenLeftBrace)
	case '}':
		return l.makeToken(TokenRightBrace)
	case ';':
		return l.makeToken(TokenSemicolon)
	case ',':
		return l.makeToken(TokenComma)
	case '.':
		return l.makeToken(TokenDot)
	case '-':
		return l.makeToken(TokenMinus)
	case '+':
		return l.makeToken(TokenPlus)
	case '/':
		return l.makeToken(TokenSlash)
	case '*':
		return l.makeToken(TokenStar)
	case '!':
		return l.makeToken(l.pick('=', TokenBangEqual, TokenBang))
	case '=':
		return l.makeToken(l.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		return l.makeToken(l.pick('=', TokenLessEqual, TokenLess))
	case '>':
		return l.makeToken(l.pick('=', TokenGreaterEqual, TokenGreater))
	case '"':
		return l.readString()
	}

	return l.errorToken("Unexpected character.")
}

func (l *Lexer) atEnd() bool {
	return l.current >= len(l.input)
}

func (l *Lexer) advance() byte {
	ch := l.input[l.current]
	l.current++
	return ch
}

// peekChar returns the current byte without consuming it, or 0 at the end.
func (l *Lexer) peekChar() byte {
	if l.atEnd() {
		return 0
	}
	return l.input[l.current]
}

// peekNext returns the byte after the current one, or 0 past the end.
func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.input) {
		return 0
	}
	return l.input[l.current+1]
}

// pick consumes expected if it is next and returns matched, else unmatched.
func (l *Lexer) pick(expected byte, matched, unmatched TokenType) TokenType {
	if l.atEnd() || l.input[l.current] != expected {
		return unmatched
	}
	l.current++
	return matched
}

func (l *Lexer) makeToken(t TokenType) Token {
	return Token{Type: t, Lexeme: l.input[l.start:l.current], Line: l.line, Column: l.column}
}

func (l *Lexer) errorToken(message string) Token {
	return Token{Type: TokenError, Lexeme: message, Line: l.line, Column: l.column}
}

// skipWhitespaceAndComments skips blanks, newlines and // line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peekChar() {
		case ' ', '\r', '\t':
			l.current++
		case '\n':
			l.line++
			l.current++
			l.lineStart = l.current
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for l.peekChar() != '\n' && !l.atEnd() {
				l.current++
			}
		default:
			return
		}
	}
}

// readString scans a double-quoted literal. Newlines are allowed inside.
func (l *Lexer) readString() Token {
	for l.peekChar() != '"' && !l.atEnd() {
		if l.peekChar() == '\n' {
			l.line++
			l.lineStart = l.current + 1
		}
		l.current++
	}

	if l.atEnd() {
		return l.errorToken("Unterminated string.")
	}

	l.current++ // closing quote
	return l.makeToken(TokenString)
}

// readNumber scans digits with an optional fraction. A trailing '.' that is
// not followed by a digit is left for the next token.
func (l *Lexer) readNumber() Token {
	for isDigit(l.peekChar()) {
		l.current++
	}

	if l.peekChar() == '.' && isDigit(l.peekNext()) {
		l.current++ // the '.'
		for isDigit(l.peekChar()) {
			l.current++
		}
	}

	return l.makeToken(TokenNumber)
}

func (l *Lexer) readIdentifier() Token {
	for isAlpha(l.peekChar()) || isDigit(l.peekChar()) {
		l.current++
	}
	return l.makeToken(l.identifierType())
}

// identifierType classifies the scanned lexeme by switching on its first
// (and for 'f' and 't', second) byte and comparing the remaining suffix.
func (l *Lexer) identifierType() TokenType {
	lexeme := l.input[l.start:l.current]

	switch lexeme[0] {
	case 'a':
		return checkKeyword(lexeme, 1, "nd", TokenAnd)
	case 'c':
		return checkKeyword(lexeme, 1, "lass", TokenClass)
	case 'e':
		return checkKeyword(lexeme, 1, "lse", TokenElse)
	case 'f':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'a':
				return checkKeyword(lexeme, 2, "lse", TokenFalse)
			case 'o':
				return checkKeyword(lexeme, 2, "r", TokenFor)
			case 'u':
				return checkKeyword(lexeme, 2, "n", TokenFun)
			}
		}
	case 'i':
		return checkKeyword(lexeme, 1, "f", TokenIf)
	case 'n':
		return checkKeyword(lexeme, 1, "il", TokenNil)
	case 'o':
		return checkKeyword(lexeme, 1, "r", TokenOr)
	case 'p':
		return checkKeyword(lexeme, 1, "rint", TokenPrint)
	case 'r':
		return checkKeyword(lexeme, 1, "eturn", TokenReturn)
	case 's':
		return checkKeyword(lexeme, 1, "uper", TokenSuper)
	case 't':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'h':
				return checkKeyword(lexeme, 2, "is", TokenThis)
			case 'r':
				return checkKeyword(lexeme, 2, "ue", TokenTrue)
			}
		}
	case 'v':
		return checkKeyword(lexeme, 1, "ar", TokenVar)
	case 'w':
		return checkKeyword(lexeme, 1, "hile", TokenWhile)
	}
	return TokenIdentifier
}

func checkKeyword(lexeme string, offset int, rest string, t TokenType) TokenType {
	if len(lexeme) == offset+len(rest) && lexeme[offset:] == rest {
		return t
	}
	return TokenIdentifier
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isAlpha(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// File: lexer.go
// Title: CIF Lexical Analyzer
// Description: Splits CIF source into tokens for the grammar. The token set
//              is the union of CIF 1.1 and CIF 2.0 so that one grammar serves
//              both dialects. Whether a quote closes depends on what follows
//              it and on bracket nesting, so the parser tells the lexer when
//              it is inside a list or table.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-14
//
// Change History:
// - 2025-01-25 v0.1.0: Initial lexer implementation
// - 2026-10-14 v0.2.0: Rewritten for the CIF token set

package syntax

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Reserved words and headings
	TokenDataHeading // data_name
	TokenSaveHeading // save_name, or save_ alone
	TokenLoop        // loop_
	TokenReserved    // global_, stop_

	// Tags and values
	TokenTag          // _tag
	TokenSingleQuoted // 'text'
	TokenDoubleQuoted // "text"
	TokenTripleSingle // '''text'''
	TokenTripleDouble // """text"""
	TokenTextField    // ;text\n;
	TokenUnquoted     // text

	// Delimiters
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }
)

// Token represents a lexical token with its byte range
type Token struct {
	Type  TokenType
	Start int // Byte offset of the first character
	End   int // Byte offset after the last character
}

// Text returns the token's source slice
func (t Token) Text(src string) string {
	return src[t.Start:t.End]
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenDataHeading:
		return "DATA_HEADING"
	case TokenSaveHeading:
		return "SAVE_HEADING"
	case TokenLoop:
		return "LOOP"
	case TokenReserved:
		return "RESERVED"
	case TokenTag:
		return "TAG"
	case TokenSingleQuoted:
		return "SINGLE_QUOTED"
	case TokenDoubleQuoted:
		return "DOUBLE_QUOTED"
	case TokenTripleSingle:
		return "TRIPLE_SINGLE"
	case TokenTripleDouble:
		return "TRIPLE_DOUBLE"
	case TokenTextField:
		return "TEXT_FIELD"
	case TokenUnquoted:
		return "UNQUOTED"
	case TokenLeftBracket:
		return "LEFT_BRACKET"
	case TokenRightBracket:
		return "RIGHT_BRACKET"
	case TokenLeftBrace:
		return "LEFT_BRACE"
	case TokenRightBrace:
		return "RIGHT_BRACE"
	default:
		return "UNKNOWN"
	}
}

// IsValue reports whether the token can start a value
func (tt TokenType) IsValue() bool {
	switch tt {
	case TokenSingleQuoted, TokenDoubleQuoted, TokenTripleSingle, TokenTripleDouble,
		TokenTextField, TokenUnquoted, TokenLeftBracket, TokenLeftBrace:
		return true
	default:
		return false
	}
}

// IsQuoted reports whether the token is a single- or triple-quoted string
func (tt TokenType) IsQuoted() bool {
	switch tt {
	case TokenSingleQuoted, TokenDoubleQuoted, TokenTripleSingle, TokenTripleDouble:
		return true
	default:
		return false
	}
}

// LexError is returned for input the lexer cannot tokenize
type LexError struct {
	Offset int
	Msg    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

// Lexer performs lexical analysis of CIF input
type Lexer struct {
	input    string
	position int // Offset of the next unread byte
	bracket  bool
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	if strings.HasPrefix(input, BOM) {
		l.position = len(BOM)
	}
	return l
}

// SetBracketMode switches termination rules for list and table bodies
func (l *Lexer) SetBracketMode(on bool) {
	l.bracket = on
}

// Position returns the offset of the next unread byte
func (l *Lexer) Position() int {
	return l.position
}

// peekByte returns the next unread byte, or 0 at end of input
func (l *Lexer) peekByte() byte {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

// skip advances past n bytes
func (l *Lexer) skip(n int) {
	l.position += n
	if l.position > len(l.input) {
		l.position = len(l.input)
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	start := l.position
	if start >= len(l.input) {
		return Token{Type: TokenEOF, Start: start, End: start}, nil
	}

	ch := l.input[start]
	switch {
	case ch == ';' && l.atLineStart(start):
		return l.readTextField(start)
	case ch == '\'' || ch == '"':
		return l.readQuoted(start, ch)
	case ch == '[':
		l.position++
		return Token{Type: TokenLeftBracket, Start: start, End: start + 1}, nil
	case ch == '{':
		l.position++
		return Token{Type: TokenLeftBrace, Start: start, End: start + 1}, nil
	case l.bracket && ch == ']':
		l.position++
		return Token{Type: TokenRightBracket, Start: start, End: start + 1}, nil
	case l.bracket && ch == '}':
		l.position++
		return Token{Type: TokenRightBrace, Start: start, End: start + 1}, nil
	}

	end := l.scanUnquoted(start)
	l.position = end
	return Token{Type: classifyBare(l.input[start:end]), Start: start, End: end}, nil
}

// Tokenize returns all tokens outside bracket context, ending with EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// classifyBare sorts a whitespace-delimited run into keyword, tag or value
func classifyBare(text string) TokenType {
	if text[0] == '_' {
		return TokenTag
	}
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "data_"):
		return TokenDataHeading
	case strings.HasPrefix(lower, "save_"):
		return TokenSaveHeading
	case lower == "loop_":
		return TokenLoop
	case strings.HasPrefix(lower, "loop_"),
		strings.HasPrefix(lower, "global_"),
		strings.HasPrefix(lower, "stop_"):
		return TokenReserved
	}
	return TokenUnquoted
}

// readQuoted reads a quoted or triple-quoted string. A single-line quoted
// string that never closes on its line is returned as unquoted text.
func (l *Lexer) readQuoted(start int, q byte) (Token, error) {
	if strings.HasPrefix(l.input[start:], string([]byte{q, q, q})) {
		closeAt := strings.Index(l.input[start+3:], string([]byte{q, q, q}))
		if closeAt < 0 {
			return Token{Type: TokenIllegal, Start: start, End: len(l.input)},
				&LexError{Offset: start, Msg: "unterminated triple-quoted string"}
		}
		end := start + 3 + closeAt + 3
		l.position = end
		tt := TokenTripleSingle
		if q == '"' {
			tt = TokenTripleDouble
		}
		return Token{Type: tt, Start: start, End: end}, nil
	}

	for i := start + 1; i < len(l.input); i++ {
		c := l.input[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == q && l.closesQuote(i+1) {
			l.position = i + 1
			tt := TokenSingleQuoted
			if q == '"' {
				tt = TokenDoubleQuoted
			}
			return Token{Type: tt, Start: start, End: i + 1}, nil
		}
	}

	end := l.scanUnquoted(start)
	l.position = end
	return Token{Type: TokenUnquoted, Start: start, End: end}, nil
}

// closesQuote reports whether a delimiter followed by the byte at next ends
// the string
func (l *Lexer) closesQuote(next int) bool {
	if next >= len(l.input) {
		return true
	}
	c := l.input[next]
	if isSpace(c) {
		return true
	}
	return l.bracket && (c == ':' || c == ']' || c == '}')
}

// readTextField reads a semicolon-delimited text field. The content runs
// from after the opening ';' to the newline before the closing ';'.
func (l *Lexer) readTextField(start int) (Token, error) {
	closeAt := strings.Index(l.input[start+1:], "\n;")
	if closeAt < 0 {
		return Token{Type: TokenIllegal, Start: start, End: len(l.input)},
			&LexError{Offset: start, Msg: "unterminated text field"}
	}
	end := start + 1 + closeAt + 2
	l.position = end
	return Token{Type: TokenTextField, Start: start, End: end}, nil
}

// scanUnquoted returns the end of a bare token starting at start
func (l *Lexer) scanUnquoted(start int) int {
	i := start
	for i < len(l.input) {
		c := l.input[i]
		if isSpace(c) {
			break
		}
		if l.bracket && i > start && (c == '[' || c == ']' || c == '{' || c == '}') {
			break
		}
		i++
	}
	return i
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch {
		case isSpace(c):
			l.position++
		case c == '#':
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}
		default:
			return
		}
	}
}

func (l *Lexer) atLineStart(offset int) bool {
	return offset == 0 || l.input[offset-1] == '\n'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Package scan turns Sonic source text into a stream of classified
// tokens. The scanner keeps two small stacks: a character stack for
// its own two-character operator lookahead, and a token stack so the
// recursive descent parser can back up after peeking ahead.
package scan

import (
	"sonic/internal/diag"
	"sonic/internal/source"
)

// StackSize bounds both pushback stacks.
const StackSize = 16

const eof = -1

type tchar struct {
	c    int
	line int
	col  int
}

type Scanner struct {
	input string
	pos   int
	file  source.FileID
	line  int
	col   int

	charStack  [StackSize]tchar
	charTop    int // index of top item; -1 when empty
	tokenStack [StackSize]Token
	tokenTop   int
}

// New interns the filename and prepares a scanner over input.
func New(filename, input string) (*Scanner, error) {
	id, err := source.Intern(filename)
	if err != nil {
		return nil, diag.New(diag.IO, err.Error())
	}
	return &Scanner{
		input:    input,
		file:     id,
		line:     1,
		col:      1,
		charTop:  -1,
		tokenTop: -1,
	}, nil
}

func (s *Scanner) pushChar(tc tchar) error {
	if s.charTop >= StackSize-1 {
		return diag.New(diag.Internal, "scanner character stack overflow")
	}
	s.charTop++
	s.charStack[s.charTop] = tc
	return nil
}

func (s *Scanner) peek() tchar {
	if s.charTop >= 0 {
		return s.charStack[s.charTop]
	}
	if s.pos >= len(s.input) {
		return tchar{c: eof, line: s.line, col: s.col}
	}
	return tchar{c: int(s.input[s.pos]), line: s.line, col: s.col}
}

func (s *Scanner) get() tchar {
	if s.charTop >= 0 {
		tc := s.charStack[s.charTop]
		s.charTop--
		return tc
	}
	if s.pos >= len(s.input) {
		return tchar{c: eof, line: s.line, col: s.col}
	}
	tc := tchar{c: int(s.input[s.pos]), line: s.line, col: s.col}
	s.pos++
	if tc.c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return tc
}

// skipWhitespace eats whitespace and both comment forms. It returns
// false at end of input. A '/' that does not begin a comment is pushed
// back (both characters) so the caller sees it as a division operator.
func (s *Scanner) skipWhitespace() (bool, error) {
	for {
		tc := s.peek()
		if tc.c == eof {
			return false, nil
		}
		if tc.c == '/' {
			first := s.get()
			second := s.get()
			if second.c == '/' {
				for {
					tc = s.get()
					if tc.c == '\n' || tc.c == eof {
						break
					}
				}
				continue
			}
			if second.c == '*' {
				for {
					tc = s.get()
					if tc.c == eof {
						return false, diag.New(diag.Syntax, "Unterminated '/*' comment at EOF")
					}
					if tc.c == '*' {
						tc = s.get()
						if tc.c == eof {
							return false, diag.New(diag.Syntax, "Unterminated '/*' comment at EOF")
						}
						if tc.c == '/' {
							break
						}
						// A '*' may immediately precede the closing '*/'.
						if tc.c == '*' {
							if err := s.pushChar(tc); err != nil {
								return false, err
							}
						}
					}
				}
				continue
			}
			if err := s.pushChar(second); err != nil {
				return false, err
			}
			if err := s.pushChar(first); err != nil {
				return false, err
			}
			return true, nil
		}
		if !isSpace(tc.c) {
			return true, nil
		}
		s.get()
	}
}

// Get returns the next token, popping the pushback stack first. At end
// of input it returns ok=false, unless force is set, in which case
// running out of tokens is an error.
func (s *Scanner) Get(force bool) (Token, bool, error) {
	if s.tokenTop >= 0 {
		t := s.tokenStack[s.tokenTop]
		s.tokenTop--
		return t, true, nil
	}

	more, err := s.skipWhitespace()
	if err != nil {
		return Token{}, false, err
	}
	if !more {
		if force {
			return Token{}, false, diag.New(diag.Syntax, "unexpected end of file")
		}
		return Token{}, false, nil
	}

	tc := s.get()
	pos := source.Pos{File: s.file, Line: tc.line, Col: tc.col}

	switch {
	case isAlpha(tc.c) || tc.c == '_':
		lex := []byte{byte(tc.c)}
		for {
			nc := s.peek()
			if !isAlnum(nc.c) && nc.c != '_' {
				break
			}
			lex = append(lex, byte(nc.c))
			s.get()
		}
		return Token{Kind: classify(string(lex)), Lexeme: string(lex), Pos: pos}, true, nil

	case tc.c == '"':
		var lex []byte
		for {
			nc := s.get()
			if nc.c == '"' {
				break
			}
			if nc.c == eof || nc.c == '\n' || nc.c == '\r' {
				t := Token{Kind: String, Lexeme: string(lex), Pos: pos}
				return Token{}, false, diag.New(diag.Syntax, "unterminated string constant").NearToken(t.Lexeme, t.Pos)
			}
			lex = append(lex, byte(nc.c))
		}
		return Token{Kind: String, Lexeme: string(lex), Pos: pos}, true, nil

	case isDigit(tc.c):
		return s.scanNumber(tc, pos)

	default:
		lex := []byte{byte(tc.c)}
		nc := s.peek()
		if tc.c == '<' {
			if nc.c == '<' || nc.c == '>' || nc.c == '=' {
				lex = append(lex, byte(nc.c))
				s.get()
			}
		} else if isOpHead(tc.c) {
			if nc.c == '=' {
				lex = append(lex, byte(nc.c))
				s.get()
			}
		}
		return Token{Kind: Punctuation, Lexeme: string(lex), Pos: pos}, true, nil
	}
}

// scanNumber accepts digits, at most one '.', and at most one 'e'/'E'
// exponent marker with an optional sign. A '.' after the exponent is
// rejected.
func (s *Scanner) scanNumber(first tchar, pos source.Pos) (Token, bool, error) {
	lex := []byte{byte(first.c)}
	eCount := 0
	eFollow := false
	eAfter := false
	dotCount := 0
	for {
		tc := s.peek()
		if tc.c == eof {
			break
		}
		if !isDigit(tc.c) && tc.c != 'e' && tc.c != 'E' && tc.c != '.' {
			if tc.c == '+' || tc.c == '-' {
				if !eFollow {
					break
				}
			} else {
				break
			}
		}
		if tc.c == '.' {
			dotCount++
			if dotCount > 1 {
				t := Token{Kind: Constant, Lexeme: string(lex), Pos: pos}
				return Token{}, false, diag.New(diag.Syntax, "extraneous '.' in numeric constant").NearToken(t.Lexeme, t.Pos)
			}
			if eAfter {
				t := Token{Kind: Constant, Lexeme: string(lex), Pos: pos}
				return Token{}, false, diag.New(diag.Syntax, "error in numeric constant: '.' not allowed after 'e'/'E'").NearToken(t.Lexeme, t.Pos)
			}
		}
		eFollow = tc.c == 'e' || tc.c == 'E'
		if eFollow {
			eAfter = true
			eCount++
			if eCount > 1 {
				t := Token{Kind: Constant, Lexeme: string(lex), Pos: pos}
				return Token{}, false, diag.New(diag.Syntax, "extraneous 'e'/'E' in numeric constant").NearToken(t.Lexeme, t.Pos)
			}
		}
		lex = append(lex, byte(tc.c))
		s.get()
	}
	return Token{Kind: Constant, Lexeme: string(lex), Pos: pos}, true, nil
}

// Push returns a token to the scanner; the next Get pops it.
func (s *Scanner) Push(t Token) error {
	if s.tokenTop >= StackSize-1 {
		return diag.New(diag.Internal, "scanner token stack overflow")
	}
	s.tokenTop++
	s.tokenStack[s.tokenTop] = t
	return nil
}

// Expect consumes the next token and fails unless its lexeme matches.
func (s *Scanner) Expect(lexeme string) error {
	t, ok, err := s.Get(false)
	if err != nil {
		return err
	}
	if !ok || !t.Is(lexeme) {
		e := diag.Newf(diag.Syntax, "expected '%s'", lexeme)
		if ok {
			e.NearToken(t.Lexeme, t.Pos)
		}
		return e
	}
	return nil
}

func isSpace(c int) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c int) bool { return c >= '0' && c <= '9' }

func isAlpha(c int) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c int) bool { return isAlpha(c) || isDigit(c) }

func isOpHead(c int) bool {
	switch c {
	case '+', '-', '*', '/', '%', '=', '>', '!':
		return true
	}
	return false
}

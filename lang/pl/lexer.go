// This file is part of scryer-prolog - https://github.com/patrickdet/scryer-prolog
//
// Copyright 2026 The scryer-prolog authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pl

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// charCode renders a 0'c literal as its decimal code point.
func charCode(r rune) string { return strconv.Itoa(int(r)) }

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokAtom
	tokVar
	tokInt
	tokFloat
	tokString
	tokOpen    // (
	tokClose   // )
	tokOpenB   // [
	tokCloseB  // ]
	tokComma   // ,
	tokBar     // |
	tokEnd     // clause-terminating period
	tokFunctor // atom immediately followed by an open paren
)

type token struct {
	kind tokKind
	text string
	line int
}

// symChars are the characters that glue together into symbolic atoms.
const symChars = `+-*/\^<>=~:.?@#&$`

type lexer struct {
	r    *bufio.Reader
	line int
	err  error

	peeked  bool
	peekTok token

	// one-rune pushback, needed where a '/' turns out not to start a
	// block comment. bufio can only unread the most recent rune.
	pushed   bool
	fromPush bool
	pushedR  rune
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) peek() token {
	if !l.peeked {
		l.peekTok = l.lex()
		l.peeked = true
	}
	return l.peekTok
}

func (l *lexer) next() token {
	if l.peeked {
		l.peeked = false
		return l.peekTok
	}
	return l.lex()
}

func (l *lexer) readRune() (rune, bool) {
	if l.pushed {
		l.pushed = false
		l.fromPush = true
		return l.pushedR, true
	}
	l.fromPush = false
	c, _, err := l.r.ReadRune()
	if err != nil {
		if err != io.EOF && l.err == nil {
			l.err = err
		}
		return 0, false
	}
	if c == '\n' {
		l.line++
	}
	return c, true
}

func (l *lexer) unread() {
	if l.fromPush {
		l.pushed = true
		return
	}
	l.r.UnreadRune()
}

func (l *lexer) pushBack(c rune) {
	l.pushed, l.pushedR = true, c
}

func (l *lexer) peekRune() (rune, bool) {
	c, ok := l.readRune()
	if ok {
		if c == '\n' {
			l.line--
		}
		l.unread()
	}
	return c, ok
}

// skipLayout consumes whitespace and both comment forms.
func (l *lexer) skipLayout() {
	for {
		c, ok := l.readRune()
		if !ok {
			return
		}
		switch {
		case unicode.IsSpace(c):
		case c == '%':
			for {
				c, ok = l.readRune()
				if !ok || c == '\n' {
					break
				}
			}
		case c == '/':
			d, ok := l.peekRune()
			if !ok || d != '*' {
				l.pushBack('/')
				return
			}
			l.readRune()
			var prev rune
			for {
				c, ok = l.readRune()
				if !ok {
					l.setErr(errors.New("unterminated block comment"))
					return
				}
				if prev == '*' && c == '/' {
					break
				}
				prev = c
			}
		default:
			l.unread()
			return
		}
	}
}

func (l *lexer) setErr(err error) {
	if l.err == nil {
		l.err = errors.Wrapf(err, "line %d", l.line)
	}
}

func (l *lexer) lex() token {
	l.skipLayout()
	line := l.line
	c, ok := l.readRune()
	if !ok {
		return token{kind: tokEOF, line: line}
	}

	switch c {
	case '(':
		return token{kind: tokOpen, line: line}
	case ')':
		return token{kind: tokClose, line: line}
	case '[':
		return token{kind: tokOpenB, line: line}
	case ']':
		return token{kind: tokCloseB, line: line}
	case ',':
		return token{kind: tokComma, text: ",", line: line}
	case '|':
		return token{kind: tokBar, line: line}
	case '!':
		return token{kind: tokAtom, text: "!", line: line}
	case ';':
		return token{kind: tokAtom, text: ";", line: line}
	case '\'':
		return l.lexQuoted(line)
	case '"':
		return l.lexString(line)
	}

	switch {
	case unicode.IsDigit(c):
		l.unread()
		return l.lexNumber(line)
	case c == '_' || unicode.IsUpper(c):
		l.unread()
		return token{kind: tokVar, text: l.lexName(), line: line}
	case unicode.IsLower(c):
		l.unread()
		return l.functorOrAtom(l.lexName(), line)
	case strings.ContainsRune(symChars, c):
		l.unread()
		sym := l.lexSymbolic()
		if sym == "." {
			if d, ok := l.peekRune(); !ok || unicode.IsSpace(d) || d == '%' {
				return token{kind: tokEnd, line: line}
			}
		}
		return l.functorOrAtom(sym, line)
	}
	l.setErr(errors.Errorf("unexpected character %q", c))
	return token{kind: tokEOF, line: line}
}

// functorOrAtom distinguishes `foo(` from a plain atom: ISO requires the
// open paren to follow the functor name with no layout in between.
func (l *lexer) functorOrAtom(name string, line int) token {
	if c, ok := l.peekRune(); ok && c == '(' {
		l.readRune()
		return token{kind: tokFunctor, text: name, line: line}
	}
	return token{kind: tokAtom, text: name, line: line}
}

func (l *lexer) lexName() string {
	var b strings.Builder
	for {
		c, ok := l.readRune()
		if !ok {
			break
		}
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			l.unread()
			break
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (l *lexer) lexSymbolic() string {
	var b strings.Builder
	for {
		c, ok := l.readRune()
		if !ok {
			break
		}
		if !strings.ContainsRune(symChars, c) {
			l.unread()
			break
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (l *lexer) lexNumber(line int) token {
	var b strings.Builder
	c, _ := l.readRune()
	b.WriteRune(c)

	if c == '0' {
		if d, ok := l.peekRune(); ok {
			switch d {
			case '\'':
				// character code literal 0'c
				l.readRune()
				e, ok := l.readRune()
				if !ok {
					l.setErr(errors.New("unterminated character code"))
					return token{kind: tokEOF, line: line}
				}
				if e == '\\' {
					r, err := l.lexEscape('\'')
					if err != nil {
						l.setErr(err)
						return token{kind: tokEOF, line: line}
					}
					e = r
				}
				return token{kind: tokInt, text: charCode(e), line: line}
			case 'x', 'o', 'b':
				l.readRune()
				b.WriteRune(d)
				for {
					e, ok := l.readRune()
					if !ok {
						break
					}
					if !isRadixDigit(e, d) {
						l.unread()
						break
					}
					b.WriteRune(e)
				}
				return token{kind: tokInt, text: b.String(), line: line}
			}
		}
	}

	kind := tokInt
	for {
		c, ok := l.readRune()
		if !ok {
			break
		}
		if unicode.IsDigit(c) {
			b.WriteRune(c)
			continue
		}
		if c == '.' && kind == tokInt {
			if d, ok := l.peekRune(); ok && unicode.IsDigit(d) {
				kind = tokFloat
				b.WriteRune(c)
				continue
			}
			l.unread()
			break
		}
		if (c == 'e' || c == 'E') && b.Len() > 0 {
			if d, ok := l.peekRune(); ok && (unicode.IsDigit(d) || d == '+' || d == '-') {
				kind = tokFloat
				b.WriteRune(c)
				e, _ := l.readRune()
				b.WriteRune(e)
				continue
			}
		}
		l.unread()
		break
	}
	return token{kind: kind, text: b.String(), line: line}
}

func isRadixDigit(c, radix rune) bool {
	switch radix {
	case 'x':
		return unicode.IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	case 'o':
		return c >= '0' && c <= '7'
	default:
		return c == '0' || c == '1'
	}
}

func (l *lexer) lexQuoted(line int) token {
	s, err := l.lexDelimited('\'')
	if err != nil {
		l.setErr(err)
		return token{kind: tokEOF, line: line}
	}
	return l.functorOrAtom(s, line)
}

func (l *lexer) lexString(line int) token {
	s, err := l.lexDelimited('"')
	if err != nil {
		l.setErr(err)
		return token{kind: tokEOF, line: line}
	}
	return token{kind: tokString, text: s, line: line}
}

func (l *lexer) lexDelimited(quote rune) (string, error) {
	var b strings.Builder
	for {
		c, ok := l.readRune()
		if !ok {
			return "", errors.Errorf("unterminated %c...%c", quote, quote)
		}
		switch c {
		case quote:
			// a doubled quote is a literal quote
			if d, ok := l.peekRune(); ok && d == quote {
				l.readRune()
				b.WriteRune(quote)
				continue
			}
			return b.String(), nil
		case '\\':
			r, err := l.lexEscape(quote)
			if err != nil {
				return "", err
			}
			if r >= 0 {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(c)
		}
	}
}

// lexEscape reads the tail of a backslash escape. A negative result means
// the escape produced no character (a line continuation).
func (l *lexer) lexEscape(quote rune) (rune, error) {
	c, ok := l.readRune()
	if !ok {
		return 0, errors.New("unterminated escape")
	}
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case '0':
		return 0, nil
	case '\\', '\'', '"', '`':
		return c, nil
	case '\n':
		return -1, nil
	}
	if c == quote {
		return c, nil
	}
	return 0, errors.Errorf("unknown escape \\%c", c)
}

// Package scanner reads source text directly into a cell.Cell block,
// with no separate token stream or parse tree in between (spec.md §2
// "a block of source reads as a block of values"): a run of digits
// becomes an integer cell, a bracketed run becomes a nested block cell,
// and so on, recursively, in one pass. Grounded on the teacher's
// internal/lexer/scanner.go byte-cursor idiom (start/current/line
// fields, advance/peek/match/isAtEnd, a run-to-terminator loop per
// literal kind) with every token-emitting call site replaced by a
// cell-emitting one, since this runtime has no separate parser stage.
package scanner

import (
	"fmt"
	"strconv"
	"unicode"

	"glyph/internal/cell"
	"glyph/internal/symbol"
)

// Scanner turns UTF-8 source text into cell.Cell values. One Scanner
// reads one top-level source text; nested blocks/groups/fences are
// scanned recursively by scanSeries, matching the teacher's recursive-
// descent shape rather than an explicit bracket-depth counter.
type Scanner struct {
	tbl     *symbol.Table
	source  []rune
	current int
	line    int
}

// New creates a Scanner over source, interning words against tbl.
func New(tbl *symbol.Table, source string) *Scanner {
	return &Scanner{tbl: tbl, source: []rune(source), line: 1}
}

// ScanBlock reads the entire source as a top-level block of values,
// the way source handed to `eval`/a REPL line/a loaded module body is
// always a block (spec.md §2, §8).
func (s *Scanner) ScanBlock() (cell.Cell, error) {
	s.skipShebang()
	return s.scanSeries(0)
}

// scanSeries reads values up to terminator (0 for end-of-input) and
// returns them as a fresh block cell; the caller reinterprets the
// result's Kind for [group] or {fence} forms.
func (s *Scanner) scanSeries(terminator rune) (cell.Cell, error) {
	out := cell.NewBlock(0)
	for {
		s.skipSpaceAndComments()
		if s.isAtEnd() {
			if terminator != 0 {
				return cell.Cell{}, fmt.Errorf("scanner: unterminated series, expected %q", terminator)
			}
			return out, nil
		}
		if s.peek() == terminator {
			s.advance()
			return out, nil
		}
		v, err := s.scanValue()
		if err != nil {
			return cell.Cell{}, err
		}
		if err := cell.Append(out, []cell.Cell{v}, cell.Policy{Part: -1, Dup: 1}); err != nil {
			return cell.Cell{}, err
		}
	}
}

func (s *Scanner) scanValue() (cell.Cell, error) {
	c := s.peek()
	switch {
	case c == '[':
		s.advance()
		blk, err := s.scanSeries(']')
		if err != nil {
			return cell.Cell{}, err
		}
		return cell.Series(cell.KindBlock, blk.AsStub()), nil
	case c == '(':
		s.advance()
		blk, err := s.scanSeries(')')
		if err != nil {
			return cell.Cell{}, err
		}
		return cell.Series(cell.KindGroup, blk.AsStub()), nil
	case c == '{':
		s.advance()
		blk, err := s.scanSeries('}')
		if err != nil {
			return cell.Cell{}, err
		}
		return cell.Series(cell.KindFence, blk.AsStub()), nil
	case c == '"':
		return s.scanText()
	case isDigit(c) || (c == '-' && isDigit(s.peekAt(1))):
		return s.scanNumber()
	default:
		return s.scanWord()
	}
}

func (s *Scanner) scanText() (cell.Cell, error) {
	s.advance() // opening quote
	var buf []byte
	for {
		if s.isAtEnd() {
			return cell.Cell{}, fmt.Errorf("scanner: unterminated text literal at line %d", s.line)
		}
		r := s.advance()
		if r == '"' {
			break
		}
		if r == '\n' {
			s.line++
		}
		buf = append(buf, string(r)...)
	}
	t := cell.NewText(len(buf))
	t.AsStub().Dynamic.AppendBytes(buf)
	return t, nil
}

func (s *Scanner) scanNumber() (cell.Cell, error) {
	start := s.current
	if s.peek() == '-' {
		s.advance()
	}
	for isDigit(s.peek()) {
		s.advance()
	}
	isDecimal := false
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isDecimal = true
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	text := string(s.source[start:s.current])
	if isDecimal {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return cell.Cell{}, fmt.Errorf("scanner: bad decimal %q: %w", text, err)
		}
		return cell.Decimal(v), nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return cell.Cell{}, fmt.Errorf("scanner: bad integer %q: %w", text, err)
	}
	return cell.Integer(v), nil
}

// scanWord reads a run of word-forming runes and classifies the result
// as a set-word (`name:`), a logic literal (`true`/`false`) or a plain
// word (spec.md §3 "Word"). Apart from those two literals, words like
// `if`/`okay` are ordinary symbols whose meaning comes entirely from
// what the module sea binds them to.
func (s *Scanner) scanWord() (cell.Cell, error) {
	start := s.current
	if !isWordRune(s.peek()) {
		return cell.Cell{}, fmt.Errorf("scanner: unexpected character %q at line %d", s.peek(), s.line)
	}
	for isWordRune(s.peek()) {
		s.advance()
	}
	text := string(s.source[start:s.current])
	if s.peek() == ':' && text != "" {
		s.advance()
		return cell.Word(cell.KindSetWord, s.tbl.Intern(text)), nil
	}
	if text == "true" {
		return cell.Logic(true), nil
	}
	if text == "false" {
		return cell.Logic(false), nil
	}
	return cell.Word(cell.KindWord, s.tbl.Intern(text)), nil
}

func isWordRune(r rune) bool {
	switch r {
	case '[', ']', '(', ')', '{', '}', '"', ':', 0:
		return false
	}
	return !unicode.IsSpace(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (s *Scanner) isAtEnd() bool { return s.current >= len(s.source) }

func (s *Scanner) peek() rune {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekAt(offset int) rune {
	idx := s.current + offset
	if idx < 0 || idx >= len(s.source) {
		return 0
	}
	return s.source[idx]
}

func (s *Scanner) advance() rune {
	r := s.source[s.current]
	s.current++
	return r
}

// skipSpaceAndComments mirrors the teacher's sanitize(), generalized to
// also skip a trailing-to-end-of-line `;` comment (spec.md §2's source
// syntax; `comment "text"` is a native, not scanner syntax, but a bare
// `;` line comment is conventional Ren-C source sugar worth carrying).
func (s *Scanner) skipSpaceAndComments() {
	for !s.isAtEnd() {
		switch {
		case unicode.IsSpace(s.peek()):
			if s.peek() == '\n' {
				s.line++
			}
			s.advance()
		case s.peek() == ';':
			for !s.isAtEnd() && s.peek() != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

// skipShebang mirrors the teacher's skipShebang(), unchanged in shape.
func (s *Scanner) skipShebang() {
	if len(s.source) < 2 || s.source[0] != '#' || s.source[1] != '!' {
		return
	}
	for !s.isAtEnd() && s.peek() != '\n' {
		s.advance()
	}
	if !s.isAtEnd() && s.peek() == '\n' {
		s.line++
		s.advance()
	}
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netlist

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Pos is a position in the input.
//
type Pos struct {
	Line int
	Col  int
}

type token struct {
	Pos
	Value string
}

// statement is a non-empty input line split into tokens.
type statement struct {
	Pos
	toks []token
}

func (s *statement) keyword() string { return s.toks[0].Value }

func (s *statement) args() []token { return s.toks[1:] }

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// lexLine splits a line into tokens. Comments start with '#'. Tokens are
// either identifiers or the "->" arrow.
func lexLine(line string, ln int) ([]token, error) {
	var toks []token
	rs := []rune(line)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '#':
			return toks, nil
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(rs) && rs[i+1] == '>':
			toks = append(toks, token{Pos{ln, i + 1}, "->"})
			i += 2
		case isIdent(r):
			start := i
			for i < len(rs) && isIdent(rs[i]) {
				i++
			}
			toks = append(toks, token{Pos{ln, start + 1}, string(rs[start:i])})
		default:
			return nil, parseError(Pos{ln, i + 1}, "unexpected character %q", r)
		}
	}
	return toks, nil
}

// lex reads all statements from r.
func lex(r io.Reader) ([]statement, error) {
	var stmts []statement
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		toks, err := lexLine(sc.Text(), ln)
		if err != nil {
			return nil, err
		}
		if len(toks) > 0 {
			toks[0].Value = strings.ToLower(toks[0].Value)
			stmts = append(stmts, statement{toks[0].Pos, toks})
		}
	}
	return stmts, errors.Wrap(sc.Err(), "read netlist")
}

func parseError(pos Pos, format string, args ...interface{}) error {
	return errors.Errorf("line %d, col %d: "+format, append([]interface{}{pos.Line, pos.Col}, args...)...)
}

package asm

import (
	"strings"
)

const (
	IDENT_LIMIT = 64  // Longest identifier.
	TERM_LIMIT  = 256 // Longest operand term.
)

// Statement is one parsed source line.
type Statement struct {
	Label   string   // Label defined by the line, if any.
	Command string   // Mnemonic, directive or macro name.
	Terms   []string // Comma separated operands, trimmed.
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// identLength returns the length of the plain identifier at the start of text.
func identLength(text string) (n int) {
	if len(text) == 0 || !isIdentStart(text[0]) {
		return
	}
	for n = 1; n < len(text) && isIdentChar(text[n]); n++ {
	}
	return
}

// isIdentifier is true when text is a single plain identifier.
func isIdentifier(text string) bool {
	return len(text) > 0 && identLength(text) == len(text)
}

// skipQuoted returns the index just past the quoted run starting at i.
// ok is false when the closing quote is missing.
func skipQuoted(text string, i int) (end int, ok bool) {
	quote := text[i]
	for end = i + 1; end < len(text); end++ {
		switch text[end] {
		case '\\':
			end++
		case quote:
			end++
			ok = true
			return
		}
	}
	end = len(text)
	return
}

// stripComment removes ';' and '//' comments outside quotes and trailing
// whitespace.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' || c == '\'':
			end, _ := skipQuoted(line, i)
			i = end - 1
		case c == ';':
			line = line[:i]
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			line = line[:i]
		}
	}
	return strings.TrimRight(line, " \t\r\f\v")
}

// parseLine splits a preprocessed line into label, command and terms.
func parseLine(text string) (stmt Statement, err error) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return
	}

	if n := identLength(text); n > 0 && n < len(text) && text[n] == ':' {
		if n > IDENT_LIMIT {
			err = ErrIdentLength
			return
		}
		stmt.Label = text[:n]
		text = strings.TrimSpace(text[n+1:])
		if len(text) == 0 {
			return
		}
	}

	if !isIdentStart(text[0]) && text[0] != '.' {
		err = ErrLeadingChar
		return
	}

	n := 1
	for n < len(text) && (isIdentChar(text[n]) || text[n] == '.') {
		n++
	}
	if n > IDENT_LIMIT {
		err = ErrIdentLength
		return
	}
	stmt.Command = text[:n]

	rest := text[n:]
	if len(rest) == 0 {
		return
	}
	if !isSpace(rest[0]) {
		err = ErrCommandChars
		return
	}

	rest = strings.TrimSpace(rest)
	if len(rest) == 0 {
		return
	}

	stmt.Terms, err = splitTerms(rest)
	return
}

// splitTerms splits operand text on commas outside quotes and parentheses.
func splitTerms(text string) (terms []string, err error) {
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"', '\'':
			end, ok := skipQuoted(text, i)
			if !ok {
				err = ErrQuote
				return
			}
			i = end - 1
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				terms = append(terms, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	terms = append(terms, strings.TrimSpace(text[start:]))

	for _, term := range terms {
		if len(term) > TERM_LIMIT {
			err = ErrTermLength
			return
		}
	}
	return
}

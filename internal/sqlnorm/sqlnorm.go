// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

// Package sqlnorm normalizes raw SQL text into a parameterized form
// suitable for caching and display: string and numeric literals are
// replaced with indexed placeholders, comments are stripped, and the
// extracted literal values are returned as a separate comma-joined
// parameter string.
package sqlnorm

import "strings"

// Result is the outcome of Normalize: the placeholder-substituted SQL and
// the comma-joined literal values that were pulled out of it.
type Result struct {
	Normalized string
	Parameters string
}

type state int

const (
	stateNormal state = iota
	stateLineComment
	stateBlockComment
	stateBlockCommentEnd
)

// Normalizer strips comments and replaces string/numeric literals in SQL
// text with indexed placeholders (`N#` for numbers, `'N$'` for quoted
// strings, preserving the original quote character), truncating input
// longer than maxLength before scanning.
type Normalizer struct {
	maxLength int
}

// New builds a Normalizer that truncates input to maxLength bytes before
// scanning it.
func New(maxLength int) *Normalizer {
	return &Normalizer{maxLength: maxLength}
}

// Normalize scans sql and returns the placeholder form plus the extracted
// parameter values. An empty input returns an empty result.
func (n *Normalizer) Normalize(sql string) Result {
	if sql == "" {
		return Result{}
	}

	if n.maxLength > 0 && len(sql) > n.maxLength {
		sql = sql[:n.maxLength]
	}

	var out strings.Builder
	var params []string
	st := stateNormal
	paramIndex := 0
	length := len(sql)

	for i := 0; i < length; i++ {
		c := sql[i]
		var next byte
		if i+1 < length {
			next = sql[i+1]
		}

		switch st {
		case stateNormal:
			if c == '-' && next == '-' {
				st = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				st = stateBlockComment
				i++
				continue
			}
			if isQuoteChar(c) {
				literal, consumed, closed := readStringLiteral(sql, i)
				i += consumed - 1
				if closed {
					params = append(params, literal)
					out.WriteByte(c)
					writeInt(&out, paramIndex)
					out.WriteByte('$')
					out.WriteByte(c)
					paramIndex++
				} else {
					out.WriteString(literal)
				}
				continue
			}
			if isDigit(c) || (c == '-' && next != 0 && isDigit(next)) {
				number, consumed := readNumber(sql, i)
				i += consumed - 1
				params = append(params, number)
				writeInt(&out, paramIndex)
				out.WriteByte('#')
				paramIndex++
				continue
			}
			out.WriteByte(c)

		case stateLineComment:
			if c == '\n' || c == '\r' {
				st = stateNormal
				out.WriteByte(c)
			}

		case stateBlockComment:
			if c == '*' && next == '/' {
				st = stateBlockCommentEnd
			}

		case stateBlockCommentEnd:
			st = stateNormal
			out.WriteByte(' ')
		}
	}

	return Result{Normalized: out.String(), Parameters: strings.Join(params, ",")}
}

func isQuoteChar(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// readStringLiteral reads a quoted literal starting at sql[start] (which
// must be a quote character), returning the literal text including its
// quotes, the number of bytes consumed, and whether it was terminated.
//
// A backslash inside the literal is treated as an ordinary character, not
// an escape: only a doubled quote (`''`) escapes the quote character. This
// intentionally diverges from a C-style scanner that also honors
// backslash escapes.
func readStringLiteral(sql string, start int) (literal string, consumed int, closed bool) {
	quote := sql[start]
	var b strings.Builder
	b.WriteByte(quote)
	length := len(sql)
	i := start + 1

	for i < length {
		c := sql[i]
		b.WriteByte(c)
		if c == quote {
			if i+1 < length && sql[i+1] == quote {
				i++
				b.WriteByte(sql[i])
			} else {
				i++
				return b.String(), i - start, true
			}
		}
		i++
	}
	return b.String(), i - start, false
}

// readNumber reads a (possibly negative, possibly decimal) numeric
// literal starting at sql[start], returning its text and the number of
// bytes consumed.
func readNumber(sql string, start int) (number string, consumed int) {
	length := len(sql)
	i := start
	var b strings.Builder

	if sql[i] == '-' {
		b.WriteByte('-')
		i++
	}
	for i < length && (isDigit(sql[i]) || sql[i] == '.') {
		b.WriteByte(sql[i])
		i++
	}
	return b.String(), i - start
}

func writeInt(b *strings.Builder, v int) {
	if v == 0 {
		b.WriteByte('0')
		return
	}
	var digits [20]byte
	n := len(digits)
	for v > 0 {
		n--
		digits[n] = byte('0' + v%10)
		v /= 10
	}
	b.Write(digits[n:])
}

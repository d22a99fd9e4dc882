// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package sqlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmpty(t *testing.T) {
	n := New(4096)
	r := n.Normalize("")
	assert.Equal(t, Result{}, r)
}

func TestNormalizeWorkedExample(t *testing.T) {
	// Scenario S5.
	n := New(4096)
	r := n.Normalize(`SELECT * FROM t WHERE id=123 AND name='a''b' /* c */ -- x`)

	assert.Equal(t, `SELECT * FROM t WHERE id=0# AND name='1$'   `, r.Normalized)
	assert.Equal(t, `123,'a''b'`, r.Parameters)
}

func TestNormalizeMultipleNumbers(t *testing.T) {
	n := New(4096)
	r := n.Normalize("SELECT * FROM t WHERE a=1 AND b=22 AND c=-3.5")

	assert.Equal(t, "SELECT * FROM t WHERE a=0# AND b=1# AND c=2#", r.Normalized)
	assert.Equal(t, "1,22,-3.5", r.Parameters)
}

func TestNormalizeDoubleQuoteAndBacktick(t *testing.T) {
	n := New(4096)
	r := n.Normalize(`SELECT "col" FROM ` + "`t`" + ` WHERE x=1`)

	assert.Equal(t, `SELECT "0$" FROM `+"`1$`"+` WHERE x=2#`, r.Normalized)
	assert.Equal(t, `"col",`+"`t`"+`,1`, r.Parameters)
}

func TestNormalizeUnterminatedStringKeptVerbatim(t *testing.T) {
	n := New(4096)
	r := n.Normalize(`SELECT * FROM t WHERE name='unterminated`)

	assert.Contains(t, r.Normalized, `'unterminated`)
	assert.Empty(t, r.Parameters)
}

func TestNormalizeBackslashIsLiteralNotEscape(t *testing.T) {
	n := New(4096)
	r := n.Normalize(`SELECT * FROM t WHERE name='John\'s'`)

	// A backslash before the closing quote does not escape it: the
	// literal terminates at that quote, leaving a dangling "s'" in the
	// normal-state output.
	assert.Equal(t, `SELECT * FROM t WHERE name='0$'s'`, r.Normalized)
	assert.Equal(t, `'John\'`, r.Parameters)
}

func TestNormalizeLineCommentStripped(t *testing.T) {
	n := New(4096)
	r := n.Normalize("SELECT 1 -- trailing comment\nFROM t")

	assert.Equal(t, "SELECT 0# \nFROM t", r.Normalized)
}

func TestNormalizeBlockCommentBecomesSpace(t *testing.T) {
	n := New(4096)
	r := n.Normalize("SELECT/* skip this */1")

	assert.Equal(t, "SELECT 0#", r.Normalized)
}

func TestNormalizeTruncatesToMaxLength(t *testing.T) {
	n := New(10)
	r := n.Normalize("SELECT * FROM very_long_table_name")

	assert.LessOrEqual(t, len(r.Normalized), 10)
}

/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package logger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter_SelectsByName(t *testing.T) {
	assert.IsType(t, &textFormatter{}, NewFormatter("text"))
	assert.IsType(t, &jsonFormatter{}, NewFormatter("json"))
	assert.IsType(t, &jsonFormatter{}, NewFormatter(""))
}

func TestJSONFormatter_EmitsParsableJSONWithFields(t *testing.T) {
	f := &jsonFormatter{}
	entry := &Entry{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:     Info,
		Message:   "hello",
		Fields:    []Field{String("rule", "r1")},
	}

	out := f.Format(entry)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "hello", decoded["message"])
	assert.Equal(t, "INFO", decoded["level"])
	assert.Equal(t, "r1", decoded["rule"])
}

func TestTextFormatter_IncludesFieldsWhenPresent(t *testing.T) {
	f := &textFormatter{}
	entry := &Entry{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:     Warn,
		Message:   "uh oh",
		Fields:    []Field{Int("count", 3)},
	}

	out := f.Format(entry)
	assert.Contains(t, out, "uh oh")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "WARN")
}

func TestTextFormatter_OmitsSeparatorWithoutFields(t *testing.T) {
	f := &textFormatter{}
	entry := &Entry{Timestamp: time.Now(), Level: Info, Message: "plain"}
	out := f.Format(entry)
	assert.NotContains(t, out, "|")
}

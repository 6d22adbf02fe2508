/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package logger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Formatter renders a single Entry to its wire text.
type Formatter interface {
	Format(*Entry) string
}

type jsonFormatter struct{}
type textFormatter struct{}

// NewFormatter selects a Formatter by config name, defaulting to JSON.
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "text":
		return &textFormatter{}
	default:
		return &jsonFormatter{}
	}
}

func (f *jsonFormatter) Format(entry *Entry) string {
	data := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	for _, field := range entry.Fields {
		data[field.Key] = field.Value
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
	}
	return string(raw)
}

func (f *textFormatter) Format(entry *Entry) string {
	timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")
	level := fmt.Sprintf("%-5s", entry.Level.String())

	var fields strings.Builder
	for i, field := range entry.Fields {
		if i > 0 {
			fields.WriteString(" ")
		}
		fmt.Fprintf(&fields, "%s=%v", field.Key, field.Value)
	}

	if fields.Len() > 0 {
		return fmt.Sprintf("%s [%s] %s | %s", timestamp, level, entry.Message, fields.String())
	}
	return fmt.Sprintf("%s [%s] %s", timestamp, level, entry.Message)
}

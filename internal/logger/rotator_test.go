/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepengine/internal/config"
)

func TestNewRotator_CreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRotator(config.LoggerConfig{Directory: dir})
	require.NoError(t, err)
	defer r.Close()

	_, err = os.Stat(filepath.Join(dir, "app.log"))
	assert.NoError(t, err)
}

func TestRotator_RotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRotator(config.LoggerConfig{Directory: dir, MaxSize: 1, MaxBackups: 5})
	require.NoError(t, err)
	defer r.Close()

	// MaxSize is in MiB; write more than 1 MiB to force a rotation.
	chunk := make([]byte, 64*1024)
	for i := 0; i < 20; i++ {
		_, err := r.Write(chunk)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var sawBackup bool
	for _, e := range entries {
		if e.Name() != "app.log" {
			sawBackup = true
		}
	}
	assert.True(t, sawBackup, "expected at least one rotated backup file")
}

func TestRotator_ShouldRotate_DisabledWhenMaxSizeZero(t *testing.T) {
	r := &Rotator{cfg: config.LoggerConfig{MaxSize: 0}}
	assert.False(t, r.shouldRotate(10_000_000))
}

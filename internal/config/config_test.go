/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidate_RejectsBadStorageType(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "postgres"
	assert.Error(t, Validate(cfg))
}

func TestValidate_RequiresDirectoryForBadger(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "badger"
	cfg.Storage.Directory = ""
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := Default()
	cfg.RestAPI.Port = 0
	assert.Error(t, Validate(cfg))

	cfg.RestAPI.Port = 70000
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsBadLoggerFormat(t *testing.T) {
	cfg := Default()
	cfg.Logger.Format = "xml"
	assert.Error(t, Validate(cfg))
}

func TestLoad_ParsesYAMLAndFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("instance_name: custom-engine\nrest_api:\n  host: 127.0.0.1\n  port: 9090\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-engine", cfg.InstanceName)
	assert.Equal(t, "127.0.0.1", cfg.RestAPI.Host)
	assert.Equal(t, 9090, cfg.RestAPI.Port)
	// Fields absent from the YAML keep Default's values.
	assert.Equal(t, "memory", cfg.Storage.Type)
}

func TestLoad_RejectsInvalidConfigAfterParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("storage:\n  type: postgres\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cepengine/internal/config"
)

// Rotator is an io.Writer that rotates app.log by size and prunes old
// backups by count and age.
type Rotator struct {
	cfg      config.LoggerConfig
	file     *os.File
	size     int64
	filename string
	mu       sync.Mutex
}

// NewRotator opens (or creates) the active log file under cfg.Directory.
func NewRotator(cfg config.LoggerConfig) (*Rotator, error) {
	filename := filepath.Join(cfg.Directory, "app.log")

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	r := &Rotator{cfg: cfg, file: file, size: stat.Size(), filename: filename}
	go r.cleanOldFiles()
	return r, nil
}

// Write implements io.Writer, rotating first if this write would cross
// MaxSize.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shouldRotate(len(p)) {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("failed to rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *Rotator) shouldRotate(writeSize int) bool {
	if r.cfg.MaxSize <= 0 {
		return false
	}
	maxBytes := r.cfg.MaxSize * 1024 * 1024
	return r.size+int64(writeSize) > maxBytes
}

func (r *Rotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close current log file: %w", err)
	}

	backupName := fmt.Sprintf("app-%s.log", time.Now().Format("20060102-150405"))
	backupPath := filepath.Join(r.cfg.Directory, backupName)
	if err := os.Rename(r.filename, backupPath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}

	r.file = file
	r.size = 0
	go r.cleanOldFiles()
	return nil
}

// Close releases the active file handle.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Rotator) cleanOldFiles() {
	entries, err := os.ReadDir(r.cfg.Directory)
	if err != nil {
		return
	}

	var backups []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "app.log" || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		if info, err := entry.Info(); err == nil {
			backups = append(backups, info)
		}
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].ModTime().Before(backups[j].ModTime()) })

	if r.cfg.MaxBackups > 0 && len(backups) > r.cfg.MaxBackups {
		for _, info := range backups[:len(backups)-r.cfg.MaxBackups] {
			os.Remove(filepath.Join(r.cfg.Directory, info.Name()))
		}
		backups = backups[len(backups)-r.cfg.MaxBackups:]
	}

	if r.cfg.MaxAge > 0 {
		cutoff := time.Now().AddDate(0, 0, -r.cfg.MaxAge)
		for _, info := range backups {
			if info.ModTime().Before(cutoff) {
				os.Remove(filepath.Join(r.cfg.Directory, info.Name()))
			}
		}
	}
}

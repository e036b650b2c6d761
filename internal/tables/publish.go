package tables

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// rename is swapped out in tests
var rename = os.Rename

// File is one table ready to be published
type File struct {
	Path string
	Data []byte
}

type staged struct {
	File
	tmp     string
	backup  string
	existed bool
	swapped bool
}

// Publish replaces every destination as one generation. All files are
// written to temporary siblings and the current destinations are kept
// as backups before the first rename. If any rename fails, the files
// already swapped are restored so readers never see tables from two
// different runs.
func Publish(files ...File) error {
	items := make([]*staged, 0, len(files))
	cleanup := func() {
		for _, it := range items {
			if it.tmp != "" {
				_ = os.Remove(it.tmp)
			}
			if it.backup != "" {
				_ = os.Remove(it.backup)
			}
		}
	}

	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cleanup()
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		tmp, err := writeTemp(dir, filepath.Base(f.Path), f.Data)
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to stage %s: %w", f.Path, err)
		}
		items = append(items, &staged{File: f, tmp: tmp})
	}

	for _, it := range items {
		if err := it.keepBackup(); err != nil {
			cleanup()
			return fmt.Errorf("failed to back up %s: %w", it.Path, err)
		}
	}

	for _, it := range items {
		if err := rename(it.tmp, it.Path); err != nil {
			restore(items)
			cleanup()
			return fmt.Errorf("failed to publish %s: %w", it.Path, err)
		}
		it.tmp = ""
		it.swapped = true
	}

	cleanup()
	for _, it := range items {
		log.Info().Str("path", it.Path).Int("bytes", len(it.Data)).Msg("Table published")
	}
	return nil
}

// keepBackup hard-links the current destination, if any, next to it
func (it *staged) keepBackup() error {
	_, err := os.Lstat(it.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	backup := it.tmp + ".bak"
	if err := os.Link(it.Path, backup); err != nil {
		return err
	}
	it.backup = backup
	it.existed = true
	return nil
}

// restore puts back the previous generation of every swapped file
func restore(items []*staged) {
	for _, it := range items {
		if !it.swapped {
			continue
		}
		var err error
		if it.existed {
			err = rename(it.backup, it.Path)
			if err == nil {
				it.backup = ""
			}
		} else {
			err = os.Remove(it.Path)
		}
		if err != nil {
			log.Error().Err(err).Str("path", it.Path).Str("backup", it.backup).Msg("Failed to restore previous table")
			it.backup = ""
			continue
		}
		log.Warn().Str("path", it.Path).Msg("Restored previous table after failed publish")
	}
}

func writeTemp(dir, base string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

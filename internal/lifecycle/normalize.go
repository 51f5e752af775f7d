// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v5/plumbing/format/config"
)

const submoduleSection = "submodule"

// NormalizeRegistry rewrites the registry file at path with its submodule
// sections sorted by drone name. Other sections keep their order. The file
// is replaced atomically.
func NormalizeRegistry(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}

	cfg := config.New()
	if err := config.NewDecoder(bytes.NewReader(raw)).Decode(cfg); err != nil {
		return fmt.Errorf("parse registry %s: %w", path, err)
	}
	for _, s := range cfg.Sections {
		if s.Name != submoduleSection {
			continue
		}
		slices.SortStableFunc(s.Subsections, func(a, b *config.Subsection) int {
			return cmp.Compare(a.Name, b.Name)
		})
	}

	var buf bytes.Buffer
	if err := config.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if bytes.Equal(buf.Bytes(), raw) {
		return nil
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".droneyard-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

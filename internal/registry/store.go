// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

// FileName is the registry file below the host top-level directory.
const FileName = ".gitmodules"

const sectionPrefix = "submodule."

type (
	// Table maps drone names to their parsed properties.
	Table map[drone.Name]drone.Properties

	// Store reads drone properties from the registry file through git.
	Store struct {
		gw   *vcs.Gateway
		file string
	}
)

// NewStore creates a Store for the registry file at file.
func NewStore(gw *vcs.Gateway, file string) *Store {
	return &Store{gw: gw, file: file}
}

// File returns the registry file path.
func (s *Store) File() string { return s.file }

// LoadAll lists every registry line and folds it into a Table. In raw mode
// every property becomes a list. A missing registry file yields an empty
// Table.
func (s *Store) LoadAll(ctx context.Context, raw bool) (Table, error) {
	if _, err := os.Stat(s.file); errors.Is(err, os.ErrNotExist) {
		return Table{}, nil
	}
	lines, err := s.gw.RunOrFail(ctx, "list registry", "config", "--file", s.file, "--list")
	if err != nil {
		return nil, err
	}
	return ParseLines(lines, raw), nil
}

// Get returns the value of prop for name. The cache is consulted when
// non-nil; otherwise git is asked for that single key. An unset key returns
// ok=false without error.
func (s *Store) Get(ctx context.Context, cache Table, name drone.Name, prop string) (string, bool, error) {
	if cache != nil {
		v, ok := cache[name].Get(prop)
		return v, ok, nil
	}
	return s.gw.TryGet(ctx, "config", "--file", s.file, "--get", registryKey(name, prop))
}

// GetAll returns every value of prop for name, or nil when it is unset.
func (s *Store) GetAll(ctx context.Context, cache Table, name drone.Name, prop string) ([]string, error) {
	if cache != nil {
		return cache[name].List(prop), nil
	}
	values, _, err := s.gw.TryGetAll(ctx, "config", "--file", s.file, "--get-all", registryKey(name, prop))
	return values, err
}

// Names returns the drone names in the table, sorted.
func (t Table) Names() []drone.Name {
	names := make([]drone.Name, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseLine splits one "submodule.<name>.<key>=<value>" line. Drone names
// may contain dots; the key is everything after the last one. A line
// without "=" is a bare boolean and reads as "true".
func ParseLine(line string) (name drone.Name, prop, value string, ok bool) {
	rest, found := strings.CutPrefix(line, sectionPrefix)
	if !found {
		return "", "", "", false
	}

	key, value, hasValue := strings.Cut(rest, "=")
	if !hasValue {
		value = "true"
	}

	dot := strings.LastIndexByte(key, '.')
	if dot <= 0 || dot == len(key)-1 {
		return "", "", "", false
	}
	return drone.Name(key[:dot]), drone.PropertyKey(key[dot+1:]), value, true
}

// ParseLines folds registry lines into a Table. A repeated multi-valued
// property (or any property in raw mode) accumulates into a list; a
// repeated single-valued property keeps its last value.
func ParseLines(lines []string, raw bool) Table {
	table := Table{}
	for _, line := range lines {
		name, prop, value, ok := ParseLine(line)
		if !ok {
			continue
		}

		props, exists := table[name]
		if !exists {
			props = drone.Properties{}
			table[name] = props
		}

		if raw || drone.IsMultiValued(prop) {
			props[prop] = props[prop].Append(value)
			continue
		}
		props[prop] = drone.Single(value)
	}
	return table
}

// FormatLines serializes a Table back into registry lines: drones and
// properties sorted, list values in order.
func FormatLines(table Table) []string {
	var lines []string
	for _, name := range table.Names() {
		props := table[name]
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			for _, v := range props[k].List() {
				lines = append(lines, fmt.Sprintf("%s=%s", registryKey(name, k), v))
			}
		}
	}
	return lines
}

func registryKey(name drone.Name, prop string) string {
	return sectionPrefix + string(name) + "." + drone.RegistryKey(prop)
}

// registryFile returns the registry file of the host at top.
func registryFile(top string) string {
	return filepath.Join(top, FileName)
}

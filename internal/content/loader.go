package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

type validator interface {
	Validate() error
}

// loadDir reads every *.yaml and *.yml file in dir in lexical order. A
// file may hold several documents separated by "---"; each document is
// one definition. Unknown keys are rejected. A missing dir yields no
// definitions.
//
// Postcondition: returns every definition or the first error.
func loadDir[T any, P interface {
	*T
	validator
}](dir string) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []*T
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		for {
			def := new(T)
			err := dec.Decode(def)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", path, err)
			}
			if err := P(def).Validate(); err != nil {
				return nil, fmt.Errorf("invalid definition in %q: %w", path, err)
			}
			out = append(out, def)
		}
	}
	return out, nil
}

package state

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// exportVersion is bumped when the export layout changes incompatibly.
const exportVersion = 1

type exportFile struct {
	Version int           `yaml:"version"`
	Configs []SavedConfig `yaml:"configs"`
}

// Export writes the named configurations (all when none are named) as YAML.
func Export(ctx context.Context, s Store, w io.Writer, idsOrNames ...string) error {
	var configs []SavedConfig
	if len(idsOrNames) == 0 {
		all, err := s.List(ctx)
		if err != nil {
			return err
		}
		configs = all
	} else {
		for _, key := range idsOrNames {
			sc, err := s.Get(ctx, key)
			if err != nil {
				return err
			}
			configs = append(configs, *sc)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportFile{Version: exportVersion, Configs: configs}); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return enc.Close()
}

// Import reads an export and saves every configuration in it. Entries keep
// their IDs, so importing the same file twice updates rather than duplicates.
func Import(ctx context.Context, s Store, r io.Reader) ([]SavedConfig, error) {
	var f exportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode import: %w", err)
	}
	if f.Version != exportVersion {
		return nil, fmt.Errorf("unsupported export version %d (want %d)", f.Version, exportVersion)
	}

	out := make([]SavedConfig, 0, len(f.Configs))
	for i, sc := range f.Configs {
		saved, err := s.Save(ctx, sc)
		if err != nil {
			return out, fmt.Errorf("config %d (%s): %w", i+1, sc.Name, err)
		}
		out = append(out, *saved)
	}
	return out, nil
}

package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// bundle is the YAML document written by Export and read by Import.
type bundle struct {
	Prompts []bundleEntry `yaml:"prompts"`
}

type bundleEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Template    string `yaml:"template"`
}

// Export writes every template in s to w as YAML.
func Export(ctx context.Context, s Store, w io.Writer) error {
	templates, err := s.List(ctx)
	if err != nil {
		return err
	}
	var b bundle
	for _, t := range templates {
		b.Prompts = append(b.Prompts, bundleEntry{Name: t.Name, Description: t.Description, Template: t.Template})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("prompt: encode bundle: %w", err)
	}
	return enc.Close()
}

// Import reads a bundle written by Export and updates s with every entry.
// The whole bundle is checked before the first update. Descriptions in the
// bundle are informational; stores keep their own.
func Import(ctx context.Context, s Store, r io.Reader) ([]Template, error) {
	var b bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return nil, goerrors.InvalidInput("prompts", "invalid YAML bundle").WithCause(err)
	}
	if len(b.Prompts) == 0 {
		return nil, goerrors.InvalidInput("prompts", "bundle holds no prompts")
	}

	seen := make(map[string]bool, len(b.Prompts))
	for i, e := range b.Prompts {
		switch {
		case strings.TrimSpace(e.Name) == "":
			return nil, goerrors.InvalidInput("prompts", fmt.Sprintf("entry %d has no name", i))
		case strings.TrimSpace(e.Template) == "":
			return nil, goerrors.InvalidInput("prompts", fmt.Sprintf("%s has an empty template", e.Name))
		case seen[e.Name]:
			return nil, goerrors.InvalidInput("prompts", "duplicate entry "+e.Name)
		}
		seen[e.Name] = true
	}

	updated := make([]Template, 0, len(b.Prompts))
	for _, e := range b.Prompts {
		t, err := s.Update(ctx, e.Name, e.Template)
		if err != nil {
			return updated, err
		}
		updated = append(updated, t)
	}
	return updated, nil
}

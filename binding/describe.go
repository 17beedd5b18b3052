package binding

import (
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
)

// FunctionDoc documents one native function.
type FunctionDoc struct {
	Name string `json:"name"`
	Doc  string `json:"doc,omitempty" hash:"ignore"`
}

// ProviderDoc documents one provider.
type ProviderDoc struct {
	Name      string        `json:"name"`
	Functions []FunctionDoc `json:"functions"`
}

// Catalog is the exported description of a registry.
// Fingerprint changes whenever a provider or function name is added,
// removed or renamed; doc text does not affect it.
type Catalog struct {
	Providers   []ProviderDoc `json:"providers"`
	Fingerprint string        `json:"fingerprint"`
}

// Describe builds a Catalog of every provider in r, sorted by provider name
// with functions in declaration order.
func Describe(r *Registry) (*Catalog, error) {
	names := r.Providers()
	catalog := &Catalog{Providers: make([]ProviderDoc, 0, len(names))}
	for _, name := range names {
		fns, _ := r.Functions(name)
		doc := ProviderDoc{Name: name, Functions: make([]FunctionDoc, 0, len(fns))}
		for _, f := range fns {
			doc.Functions = append(doc.Functions, FunctionDoc{Name: f.Name, Doc: f.Doc})
		}
		catalog.Providers = append(catalog.Providers, doc)
	}

	sum, err := hashstructure.Hash(catalog.Providers, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint catalog: %w", err)
	}
	catalog.Fingerprint = fmt.Sprintf("%016x", sum)
	return catalog, nil
}

// WriteMarkdown renders the catalog as a Markdown reference page.
func (c *Catalog) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Native functions\n\n")
	fmt.Fprintf(&b, "API fingerprint: `%s`\n", c.Fingerprint)
	for _, p := range c.Providers {
		fmt.Fprintf(&b, "\n## %s\n\n", p.Name)
		if len(p.Functions) == 0 {
			b.WriteString("_No functions._\n")
			continue
		}
		b.WriteString("| Function | Description |\n|---|---|\n")
		for _, f := range p.Functions {
			fmt.Fprintf(&b, "| `%s()` | %s |\n", f.Name, f.Doc)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

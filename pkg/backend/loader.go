package backend

import "github.com/Shopify/i18n/pkg/value"

// Loader is the framework collaborator that reads translation source
// files into a store. The core never parses source formats itself.
type Loader interface {
	// Paths returns the ordered list of source file paths; the cache
	// fingerprint is computed over it.
	Paths() []string

	// Load parses every source file and stores its translations.
	Load(s *Store) error
}

// RuleExtractor re-evaluates the source files that can produce
// executable values and returns their rules by locale and flat key. The
// cache layer uses it to patch rules back into a loaded index.
type RuleExtractor interface {
	ExtractRules() (map[string]map[string]value.Rule, error)
}

// LoaderFunc adapts plain functions to the Loader interface.
type LoaderFunc struct {
	SourcePaths []string
	LoadFunc    func(s *Store) error
}

func (l LoaderFunc) Paths() []string { return l.SourcePaths }

func (l LoaderFunc) Load(s *Store) error { return l.LoadFunc(s) }

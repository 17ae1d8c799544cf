package syntax

import (
	"fmt"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LanguageSpec is one entry of a language registry manifest, naming the
// grammar and the query files that build a Configuration for it.
type LanguageSpec struct {
	Name            string `yaml:"name"`
	HighlightsQuery string `yaml:"highlights_query"`
	InjectionsQuery string `yaml:"injections_query"`
	LocalsQuery     string `yaml:"locals_query"`
}

// Manifest is the top-level shape of a language-registry YAML file.
type Manifest struct {
	Languages []LanguageSpec `yaml:"languages"`
}

// LanguageSet is a name-indexed collection of compiled Configurations, used
// as an InjectionCallback source: Resolve satisfies the InjectionCallback
// signature directly.
type LanguageSet struct {
	configs map[string]*Configuration
}

// Resolve looks up a Configuration by language name; it is itself a valid
// InjectionCallback.
func (s *LanguageSet) Resolve(name string) *Configuration { return s.configs[name] }

// Get returns the Configuration for name and whether it was found.
func (s *LanguageSet) Get(name string) (*Configuration, bool) {
	c, ok := s.configs[name]
	return c, ok
}

func grammarByName(name string) *tree_sitter.Language {
	switch name {
	case "bash", "sh":
		return tree_sitter.NewLanguage(tree_sitter_bash.Language())
	case "c":
		return tree_sitter.NewLanguage(tree_sitter_c.Language())
	case "go":
		return tree_sitter.NewLanguage(tree_sitter_go.Language())
	case "java":
		return tree_sitter.NewLanguage(tree_sitter_java.Language())
	case "javascript", "js":
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	case "python", "py":
		return tree_sitter.NewLanguage(tree_sitter_python.Language())
	case "rust", "rs":
		return tree_sitter.NewLanguage(tree_sitter_rust.Language())
	default:
		return nil
	}
}

// LoadLanguageSet reads a YAML manifest (see Manifest) from path, resolving
// each entry's grammar by name and compiling its queries from disk relative
// to queryDir.
func LoadLanguageSet(path, queryDir string) (*LanguageSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Error("syntax: reading manifest", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("syntax: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		zap.L().Error("syntax: parsing manifest", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("syntax: parsing manifest %s: %w", path, err)
	}

	set := &LanguageSet{configs: make(map[string]*Configuration, len(m.Languages))}
	for _, spec := range m.Languages {
		lang := grammarByName(spec.Name)
		if lang == nil {
			zap.L().Error("syntax: unknown grammar", zap.String("path", path), zap.String("grammar", spec.Name))
			return nil, fmt.Errorf("syntax: %s: unknown grammar %q", path, spec.Name)
		}
		highlights, err := readQueryFile(queryDir, spec.HighlightsQuery)
		if err != nil {
			return nil, err
		}
		injections, err := readQueryFile(queryDir, spec.InjectionsQuery)
		if err != nil {
			return nil, err
		}
		locals, err := readQueryFile(queryDir, spec.LocalsQuery)
		if err != nil {
			return nil, err
		}
		cfg, err := NewConfiguration(lang, spec.Name, highlights, injections, locals)
		if err != nil {
			return nil, fmt.Errorf("syntax: %s: %w", spec.Name, err)
		}
		set.configs[spec.Name] = cfg
	}
	return set, nil
}

func readQueryFile(dir, name string) ([]byte, error) {
	if name == "" {
		return nil, nil
	}
	data, err := os.ReadFile(dir + "/" + name)
	if err != nil {
		return nil, fmt.Errorf("syntax: reading query file %s/%s: %w", dir, name, err)
	}
	return data, nil
}

// BuiltinLanguages lists the canonical grammar names grammarByName
// recognizes, independent of any manifest; the aliases sh, js, py and rs
// that grammarByName also accepts are not listed.
func BuiltinLanguages() []string {
	return []string{"bash", "c", "go", "java", "javascript", "python", "rust"}
}

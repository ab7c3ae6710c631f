package pattern

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed builtins/*.yml
var builtinFS embed.FS

// Builtin is a named recognizer that Compile accepts in place of a shape.
type Builtin struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Shape       string `yaml:"shape"`
	Guard       string `yaml:"guard"`

	guard ByteClass
}

type builtinFile struct {
	Builtins []Builtin `yaml:"builtins"`
}

var guardClasses = map[string]ByteClass{
	"":       {},
	"digit":  Digit,
	"letter": Letter,
	"alnum":  Alnum,
}

var (
	builtinOnce  sync.Once
	builtinTable map[string]Builtin
	builtinErr   error
)

func loadBuiltins() (map[string]Builtin, error) {
	builtinOnce.Do(func() {
		builtinTable, builtinErr = parseBuiltins(builtinFS)
	})
	return builtinTable, builtinErr
}

func parseBuiltins(fsys fs.FS) (map[string]Builtin, error) {
	paths, err := fs.Glob(fsys, "builtins/*.yml")
	if err != nil {
		return nil, err
	}

	table := make(map[string]Builtin)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var f builtinFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		for _, b := range f.Builtins {
			if b.Name == "" || b.Shape == "" {
				return nil, fmt.Errorf("%s: builtin missing name or shape", p)
			}
			if _, dup := table[b.Name]; dup {
				return nil, fmt.Errorf("%s: duplicate builtin %q", p, b.Name)
			}
			g, ok := guardClasses[b.Guard]
			if !ok {
				return nil, fmt.Errorf("%s: builtin %q has unknown guard %q", p, b.Name, b.Guard)
			}
			b.guard = g
			table[b.Name] = b
		}
	}
	return table, nil
}

// LookupBuiltin returns the built-in recognizer called name.
func LookupBuiltin(name string) (Builtin, bool, error) {
	table, err := loadBuiltins()
	if err != nil {
		return Builtin{}, false, fmt.Errorf("loading builtin patterns: %w", err)
	}
	b, ok := table[name]
	return b, ok, nil
}

// Builtins returns every built-in recognizer sorted by name.
func Builtins() ([]Builtin, error) {
	table, err := loadBuiltins()
	if err != nil {
		return nil, fmt.Errorf("loading builtin patterns: %w", err)
	}
	out := make([]Builtin, 0, len(table))
	for _, b := range table {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GuardClass returns the boundary class the built-in is compiled with.
func (b Builtin) GuardClass() ByteClass { return b.guard }

// Package language binds a grammar to its completion settings and turns
// completion candidates into proposals for an editor.
package language

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhamidi/caret/completion"
	"github.com/dhamidi/caret/grammar"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

//go:embed builtin
var builtins embed.FS

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownRule     = errors.New("unknown rule")
	ErrUnknownToken    = errors.New("unknown token")
)

// Config is a language definition as stored in YAML.
type Config struct {
	// Name identifies the language.
	Name string `yaml:"name"`

	// Grammar is the path of the EBNF grammar, relative to the definition.
	Grammar string `yaml:"grammar"`

	// Start is the top parser rule.
	Start string `yaml:"start"`

	// Skip lists token productions the parser never sees, such as
	// whitespace and comments.
	Skip []string `yaml:"skip,omitempty"`

	// Preferred lists parser rules proposed as a whole instead of being
	// expanded into their first tokens.
	Preferred []string `yaml:"preferred,omitempty"`

	// Ignored lists tokens that are never proposed.
	Ignored []string `yaml:"ignored,omitempty"`

	// Extensions lists file name extensions, with the leading dot.
	Extensions []string `yaml:"extensions,omitempty"`
}

// Language is a compiled language definition.
type Language struct {
	Config  Config
	Grammar *grammar.Grammar

	engine *completion.Engine
	log    commonlog.Logger
}

// Load reads the definition at path; the grammar is resolved relative to
// the definition's directory.
func Load(path string) (*Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language: %w", err)
	}
	lang, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lang, nil
}

// Parse compiles a YAML definition whose grammar path is relative to dir.
func Parse(data []byte, dir string) (*Language, error) {
	cfg, err := decodeConfig(data)
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(cfg.Grammar) {
		src, err := os.ReadFile(cfg.Grammar)
		if err != nil {
			return nil, fmt.Errorf("read grammar: %w", err)
		}
		return New(cfg, src)
	}
	return parseFS(cfg, os.DirFS(dir), filepath.ToSlash(cfg.Grammar))
}

// Builtin returns one of the languages shipped with caret.
func Builtin(name string) (*Language, error) {
	data, err := builtins.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownLanguage, name)
	}
	cfg, err := decodeConfig(data)
	if err != nil {
		return nil, err
	}
	return parseFS(cfg, builtins, path.Join("builtin", cfg.Grammar))
}

// Builtins returns the names of the languages shipped with caret.
func Builtins() []string {
	entries, _ := builtins.ReadDir("builtin")
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	return names
}

func decodeConfig(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse language: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid language: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Grammar == "" {
		return fmt.Errorf("grammar is required")
	}
	if c.Start == "" {
		return fmt.Errorf("start is required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

func parseFS(cfg Config, fsys fs.FS, name string) (*Language, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return New(cfg, src)
}

// New compiles cfg with the grammar source src.
func New(cfg Config, src []byte) (*Language, error) {
	g, err := grammar.Parse(cfg.Grammar, src, cfg.Start, cfg.Skip...)
	if err != nil {
		return nil, err
	}

	var preferred []int
	for _, name := range cfg.Preferred {
		r := g.ATN.RuleByName(name)
		if r == nil {
			return nil, fmt.Errorf("%w %q in preferred", ErrUnknownRule, name)
		}
		preferred = append(preferred, r.Index)
	}

	var ignored []int
	for _, name := range cfg.Ignored {
		typ, ok := g.Vocabulary.Type(name)
		if !ok {
			return nil, fmt.Errorf("%w %q in ignored", ErrUnknownToken, name)
		}
		ignored = append(ignored, typ)
	}

	log := commonlog.GetLogger("caret.language." + cfg.Name)
	engine := completion.NewEngine(g.ATN,
		completion.WithGrammarID(g.ID),
		completion.WithPreferredRules(preferred...),
		completion.WithIgnoredTokens(ignored...),
		completion.WithLogger(log),
	)

	return &Language{
		Config:  cfg,
		Grammar: g,
		engine:  engine,
		log:     log,
	}, nil
}

func (l *Language) Name() string {
	return l.Config.Name
}

// Matches reports whether filename has one of the language's extensions.
func (l *Language) Matches(filename string) bool {
	ext := filepath.Ext(filename)
	for _, e := range l.Config.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func (l *Language) Engine() *completion.Engine {
	return l.engine
}

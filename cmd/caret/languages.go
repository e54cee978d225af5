package main

import (
	"fmt"

	"github.com/dhamidi/caret/language"
)

// loadLanguages loads language definitions from files, falling back to
// the builtin named fallback when no files are given.
func loadLanguages(paths []string, fallback string) ([]*language.Language, error) {
	if len(paths) == 0 {
		lang, err := language.Builtin(fallback)
		if err != nil {
			return nil, err
		}
		return []*language.Language{lang}, nil
	}

	langs := make([]*language.Language, 0, len(paths))
	for _, path := range paths {
		lang, err := language.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

package cms

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fallbackPayload reads content/<content>/<locale>.yaml, trying the requested
// locale first and the default locale second.
func fallbackPayload(contentDir, content, locale, defaultLocale string) (Payload, error) {
	if contentDir == "" {
		contentDir = defaultContentDir
	}
	priority := []string{locale}
	if defaultLocale != "" && defaultLocale != locale {
		priority = append(priority, defaultLocale)
	}
	for _, candidate := range priority {
		p, err := readFixture(contentDir, content, candidate)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		// parse errors stop the search so broken fixtures are noticed
		return Payload{}, err
	}
	return Payload{}, ErrNotFound
}

func readFixture(contentDir, content, locale string) (Payload, error) {
	if locale == "" {
		return Payload{}, ErrNotFound
	}
	file := filepath.Join(contentDir, content, locale+".yaml")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Payload{}, ErrNotFound
		}
		return Payload{}, err
	}
	var p Payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("cms: parse fixture %s: %w", file, err)
	}
	return p, nil
}

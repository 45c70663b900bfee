// Package prompts holds the prompt templates sent to the documentation model.
// Each embedded JSON file maps a prompt name to a text/template body.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"text/template"
)

//go:embed *.json
var files embed.FS

// Prompt files and names.
const (
	DocsFile     = "docs.json"
	ModuleReadme = "module-readme"
)

var (
	mu     sync.Mutex
	parsed = make(map[string]map[string]*template.Template)
)

// Render executes the named prompt of file with data. A placeholder that data
// does not provide is an error.
func Render(file, name string, data any) (string, error) {
	set, err := load(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[name]
	if !ok {
		return "", &NotFoundError{File: file, Name: name}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", file, name, err)
	}
	return buf.String(), nil
}

// Names returns the prompt names of file, sorted.
func Names(file string) ([]string, error) {
	set, err := load(file)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// load parses a prompt file once per process.
func load(file string) (map[string]*template.Template, error) {
	mu.Lock()
	defer mu.Unlock()
	if set, ok := parsed[file]; ok {
		return set, nil
	}

	data, err := files.ReadFile(file)
	if err != nil {
		return nil, &NotFoundError{File: file, Cause: err}
	}
	var bodies map[string]string
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	set := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s/%s: %w", file, name, err)
		}
		set[name] = tmpl
	}
	parsed[file] = set
	return set, nil
}

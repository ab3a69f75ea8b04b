package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

//go:embed *.tmpl
var embedded embed.FS

// SourceDir is where the templates live relative to the repository root.
// Dev mode reparses them from here on every render.
const SourceDir = "internal/templates"

// Renderer executes the site templates.
type Renderer struct {
	fsys   fs.FS
	reload bool
	tmpl   *template.Template
}

// New parses the embedded templates once.
func New() (*Renderer, error) {
	return NewFromFS(embedded, false)
}

// NewDev reparses templates from dir on every render so edits show up
// without a restart.
func NewDev(dir string) (*Renderer, error) {
	return NewFromFS(os.DirFS(dir), true)
}

// NewFromFS parses every *.tmpl file in fsys.
func NewFromFS(fsys fs.FS, reload bool) (*Renderer, error) {
	t, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, reload: reload, tmpl: t}, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": time.Now,
	}
	var files []string
	if err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("templates: walk: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("templates: no templates found")
	}
	t, err := template.New("_root").Funcs(funcMap).ParseFS(fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}
	return t, nil
}

// Render executes the named template into w. Output is buffered so a failed
// execution never leaves a partial document behind.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t := r.tmpl
	if r.reload {
		fresh, err := parse(r.fsys)
		if err != nil {
			return err
		}
		t = fresh
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("templates: execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Page renders a full document through the base layout.
func (r *Renderer) Page(w io.Writer, data any) error {
	return r.Render(w, "base", data)
}

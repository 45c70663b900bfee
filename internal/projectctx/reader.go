package projectctx

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/module-builder/internal/types"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".next":        true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".turbo":       true,
	".vercel":      true,
	"coverage":     true,
	"vendor":       true,
	".cache":       true,
}

// envFiles are the dotenv files whose keys count as configured.
var envFiles = []string{".env", ".env.local", ".env.development", ".env.development.local", ".env.production"}

var (
	createTablePattern = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?((?:"?\w+"?\.)?"?\w+"?)`)
	typesTablePattern  = regexp.MustCompile(`(?m)^\s*"?(\w+)"?\s*:\s*\{\s*\n\s*Row\s*:`)
	pageFilePattern    = regexp.MustCompile(`^page\.(tsx|jsx|ts|js)$`)
	routeFilePattern   = regexp.MustCompile(`^route\.(ts|js)$`)
	sourceExtPattern   = regexp.MustCompile(`\.(tsx|jsx|ts|js)$`)
)

// TableLister reports tables that exist in a live data store.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// Reader inventories a project tree. The zero value is not usable; use NewReader.
type Reader struct {
	root            string
	store           TableLister
	includeOSEnv    bool
	maxContentBytes int64
}

// Option configures a Reader.
type Option func(*Reader)

// WithStore merges the tables reported by a live data store into the inventory.
func WithStore(store TableLister) Option {
	return func(r *Reader) { r.store = store }
}

// WithProcessEnv counts variables set in the current process as configured.
func WithProcessEnv() Option {
	return func(r *Reader) { r.includeOSEnv = true }
}

// NewReader creates a Reader rooted at the project directory.
func NewReader(root string, opts ...Option) *Reader {
	r := &Reader{root: root, maxContentBytes: 4 << 20}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read walks the project tree and builds a fresh ProjectContext. Subtrees that
// cannot be read are skipped and recorded; only an unreadable root or a
// cancelled context fails the read.
func (r *Reader) Read(ctx context.Context) (*types.ProjectContext, error) {
	root, err := filepath.Abs(r.root)
	if err != nil {
		return nil, &ReadError{Root: r.root, Message: "failed to resolve root", Cause: err}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ReadError{Root: root, Message: "failed to stat root", Cause: err}
	}
	if !info.IsDir() {
		return nil, &ReadError{Root: root, Message: "root is not a directory"}
	}

	pc := &types.ProjectContext{
		Root:      root,
		FileSizes: make(map[string]int64),
		ReadAt:    time.Now().UTC(),
	}

	if err := r.walk(ctx, root, pc); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	skip := func(path string) {
		mu.Lock()
		pc.Skipped = append(pc.Skipped, path)
		mu.Unlock()
	}

	var tables, liveTables, capabilities, envKeys []string
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tables = r.scanTables(gCtx, root, pc.Files, skip)
		return gCtx.Err()
	})
	g.Go(func() error {
		capabilities = r.scanCapabilities(root, pc.Files, skip)
		return nil
	})
	g.Go(func() error {
		envKeys = r.scanEnv(root, skip)
		return nil
	})
	if r.store != nil {
		g.Go(func() error {
			names, err := r.store.ListTables(gCtx)
			if err != nil {
				skip("store: " + err.Error())
				return nil
			}
			liveTables = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &ReadError{Root: root, Message: "read interrupted", Cause: err}
	}

	pc.Tables = uniqueSorted(append(tables, liveTables...), true)
	pc.Capabilities = uniqueSorted(capabilities, false)
	pc.EnvKeys = uniqueSorted(envKeys, false)
	pc.Routes = uniqueSorted(pageRoutes(pc.Files), false)
	pc.APIRoutes = uniqueSorted(apiRoutes(pc.Files), false)
	pc.Components = uniqueSorted(componentNames(pc.Files), false)
	sort.Strings(pc.Skipped)
	return pc, nil
}

// walk records every regular file with its size, relative to root and
// slash-separated.
func (r *Reader) walk(ctx context.Context, root string, pc *types.ProjectContext) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			if rel != "." {
				pc.Skipped = append(pc.Skipped, rel)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if rel != "." && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			pc.Skipped = append(pc.Skipped, rel)
			return nil
		}
		pc.Files = append(pc.Files, rel)
		pc.FileSizes[rel] = info.Size()
		return nil
	})
	if err != nil {
		return &ReadError{Root: root, Message: "walk interrupted", Cause: err}
	}
	sort.Strings(pc.Files)
	return nil
}

// scanTables collects table names from SQL migrations and generated database
// type declarations.
func (r *Reader) scanTables(ctx context.Context, root string, files []string, skip func(string)) []string {
	var tables []string
	for _, rel := range files {
		if ctx.Err() != nil {
			return tables
		}
		isSQL := strings.HasSuffix(rel, ".sql")
		isTypes := strings.HasSuffix(rel, ".types.ts") || strings.HasSuffix(rel, "database.ts")
		if !isSQL && !isTypes {
			continue
		}
		content, ok := r.readSmall(root, rel, skip)
		if !ok {
			continue
		}
		if isSQL {
			for _, m := range createTablePattern.FindAllStringSubmatch(content, -1) {
				tables = append(tables, tableName(m[1]))
			}
			continue
		}
		for _, m := range typesTablePattern.FindAllStringSubmatch(content, -1) {
			tables = append(tables, m[1])
		}
	}
	return tables
}

// scanCapabilities collects dependency names from every package.json outside
// skipped directories.
func (r *Reader) scanCapabilities(root string, files []string, skip func(string)) []string {
	var names []string
	for _, rel := range files {
		if filepath.Base(rel) != "package.json" {
			continue
		}
		content, ok := r.readSmall(root, rel, skip)
		if !ok {
			continue
		}
		var manifest struct {
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if err := json.Unmarshal([]byte(content), &manifest); err != nil {
			skip(rel)
			continue
		}
		for name := range manifest.Dependencies {
			names = append(names, name)
		}
		for name := range manifest.DevDependencies {
			names = append(names, name)
		}
	}
	return names
}

// scanEnv collects keys from the project's dotenv files and, when enabled,
// from the process environment. Values are never retained.
func (r *Reader) scanEnv(root string, skip func(string)) []string {
	var keys []string
	for _, name := range envFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			skip(name)
			continue
		}
		for k, v := range values {
			if strings.TrimSpace(v) != "" {
				keys = append(keys, k)
			}
		}
	}
	if r.includeOSEnv {
		for _, kv := range os.Environ() {
			if i := strings.Index(kv, "="); i > 0 && i < len(kv)-1 {
				keys = append(keys, kv[:i])
			}
		}
	}
	return keys
}

func (r *Reader) readSmall(root, rel string, skip func(string)) (string, bool) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil || info.Size() > r.maxContentBytes {
		skip(rel)
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		skip(rel)
		return "", false
	}
	return string(data), true
}

// tableName reduces `public."Users"` to "users".
func tableName(raw string) string {
	name := strings.Trim(raw, `"`)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(strings.Trim(name, `"`))
}

func uniqueSorted(items []string, lower bool) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if lower {
			item = strings.ToLower(item)
		}
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

package projectctx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

type fakeStore struct {
	tables []string
	err    error
}

func (f *fakeStore) ListTables(_ context.Context) ([]string, error) {
	return f.tables, f.err
}

func sampleProject(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"package.json": `{"dependencies": {"@supabase/supabase-js": "^2.0.0", "react": "18.2.0"}, "devDependencies": {"vitest": "1.0.0"}}`,
		"supabase/migrations/001_init.sql": `CREATE TABLE IF NOT EXISTS public."Organizations" (id uuid);
create table bookings (id uuid);`,
		"lib/database.types.ts": `export type Database = {
  public: {
    Tables: {
      invoices: {
        Row: { id: string }
      }
    }
  }
}`,
		"app/page.tsx":                         "export default function Home() {}",
		"app/(dashboard)/bookings/page.tsx":    "",
		"app/(dashboard)/bookings/[id]/page.tsx": "",
		"app/api/bookings/route.ts":            "",
		"src/pages/legacy/index.tsx":           "",
		"src/pages/_app.tsx":                   "",
		"src/pages/api/health.ts":              "",
		"components/BookingCard.tsx":           "",
		"components/ui/button/index.tsx":       "",
		"components/BookingCard.test.tsx":      "",
		"node_modules/react/index.js":          "",
		".env":                                 "NEXT_PUBLIC_SUPABASE_URL=https://x.supabase.co\nEMPTY_KEY=\n",
		"middleware.ts":                        "export function middleware() {}",
	})
	return root
}

func TestRead_Inventory(t *testing.T) {
	root := sampleProject(t)

	pc, err := NewReader(root, WithStore(&fakeStore{tables: []string{"Profiles"}})).Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"bookings", "invoices", "organizations", "profiles"}, pc.Tables)
	assert.Equal(t, []string{"/", "/bookings", "/bookings/[id]", "/legacy"}, pc.Routes)
	assert.Equal(t, []string{"/api/bookings", "/api/health"}, pc.APIRoutes)
	assert.Equal(t, []string{"BookingCard", "button"}, pc.Components)
	assert.Equal(t, []string{"@supabase/supabase-js", "react", "vitest"}, pc.Capabilities)
	assert.Equal(t, []string{"NEXT_PUBLIC_SUPABASE_URL"}, pc.EnvKeys)

	assert.True(t, pc.HasFile("middleware.ts"))
	assert.False(t, pc.HasFile("node_modules/react/index.js"))
	size, ok := pc.FileSize("middleware.ts")
	assert.True(t, ok)
	assert.Equal(t, int64(len("export function middleware() {}")), size)
	assert.Empty(t, pc.Skipped)
}

func TestRead_StoreFailureIsSkippedNotFatal(t *testing.T) {
	root := sampleProject(t)

	pc, err := NewReader(root, WithStore(&fakeStore{err: errors.New("connection refused")})).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, pc.Skipped, 1)
	assert.Contains(t, pc.Skipped[0], "connection refused")
	assert.NotContains(t, pc.Tables, "profiles")
}

func TestRead_UnreadableSubtreeIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := sampleProject(t)
	locked := filepath.Join(root, "components", "locked")
	require.NoError(t, os.MkdirAll(locked, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "Hidden.tsx"), nil, 0644))
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	pc, err := NewReader(root).Read(context.Background())
	require.NoError(t, err)
	assert.Contains(t, pc.Skipped, "components/locked")
	assert.NotContains(t, pc.Components, "Hidden")
}

func TestRead_MissingRoot(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope")).Read(context.Background())
	require.Error(t, err)

	var readErr *ReadError
	assert.True(t, errors.As(err, &readErr))
}

func TestRead_Cancelled(t *testing.T) {
	root := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(root).Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRead_ProcessEnv(t *testing.T) {
	t.Setenv("MODULE_BUILDER_TEST_KEY", "1")
	pc, err := NewReader(t.TempDir(), WithProcessEnv()).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, pc.HasEnv("MODULE_BUILDER_TEST_KEY"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	root := sampleProject(t)
	pc, err := NewReader(root).Read(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, WriteFile(path, pc))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pc.Tables, loaded.Tables)
	assert.Equal(t, pc.FileSizes, loaded.FileSizes)
}

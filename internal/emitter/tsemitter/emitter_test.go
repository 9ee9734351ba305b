package tsemitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

func plannedPaths(res *Result) []string {
	out := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		out = append(out, p.RelPath)
	}
	return out
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestEmit_DryRunPlan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), petProgram(), Options{OutDir: dir, DryRun: true, EmitIR: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		ManifestName,
		IRName,
		"services/pets.ts",
		"services/request.ts",
		"types/common.ts",
	}, plannedPaths(res))
	for _, p := range res.Planned {
		assert.Equal(t, StatusCreate, p.Status, p.RelPath)
		assert.Positive(t, p.Size)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not write")
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Emit(context.Background(), petProgram(), Options{OutDir: dir, EmitIR: true})
	require.NoError(t, err)

	svc := readFile(t, dir, "services/pets.ts")
	assert.Contains(t, svc, "import request from './request';")
	assert.Contains(t, svc, "import { Pet } from '../types/common';")
	assert.Contains(t, svc, "export function getPetById(id: any): Promise<Pet> {")

	assert.Contains(t, readFile(t, dir, "types/common.ts"), "export interface Pet {")
	assert.Contains(t, readFile(t, dir, "services/request.ts"), "baseURL: '/api',")
	assert.Contains(t, readFile(t, dir, "services/request.ts"), "timeout: 30000,")

	var dumped ir.Program
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, IRName)), &dumped))
	assert.Equal(t, *petProgram(), dumped)

	var m manifest
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, ManifestName)), &m))
	assert.Equal(t, "swagger2ts", m.Generator)
	assert.Equal(t, []string{IRName, "services/pets.ts", "services/request.ts", "types/common.ts"}, m.Files)
}

func TestEmit_RerunIsUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()
	_, err := Emit(ctx, petProgram(), Options{OutDir: dir})
	require.NoError(t, err)
	before := readFile(t, dir, "services/pets.ts")

	res, err := Emit(ctx, petProgram(), Options{OutDir: dir})
	require.NoError(t, err)
	assert.Zero(t, res.Changed())
	assert.Empty(t, res.Removed)
	assert.Equal(t, before, readFile(t, dir, "services/pets.ts"))
}

func TestEmit_NonEmptyDirRequiresForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	_, err := Emit(context.Background(), petProgram(), Options{OutDir: dir})
	require.ErrorIs(t, err, ErrNotEmpty)

	_, err = Emit(context.Background(), petProgram(), Options{OutDir: dir, Force: true})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
	assert.FileExists(t, filepath.Join(dir, "services", "pets.ts"))
}

func TestEmit_RemovesStaleModules(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	prog := petProgram()
	users := prog.Services[0]
	users.Group = "users"
	users.Module = "services/users/index"
	prog.Services = append(prog.Services, users)
	_, err := Emit(ctx, prog, Options{OutDir: dir})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "services", "users", "index.ts"))

	dry, err := Emit(ctx, petProgram(), Options{OutDir: dir, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"services/users/index.ts"}, dry.Removed)
	assert.FileExists(t, filepath.Join(dir, "services", "users", "index.ts"))

	res, err := Emit(ctx, petProgram(), Options{OutDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"services/users/index.ts"}, res.Removed)
	assert.NoFileExists(t, filepath.Join(dir, "services", "users", "index.ts"))
	assert.NoDirExists(t, filepath.Join(dir, "services", "users"))
	assert.FileExists(t, filepath.Join(dir, "services", "pets.ts"))
}

func TestEmit_ManifestEntriesOutsideRootAreIgnored(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	dir := filepath.Join(parent, "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	victim := filepath.Join(parent, "victim.ts")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName),
		[]byte(`{"generator":"swagger2ts","files":["../victim.ts","/etc/hosts"]}`), 0o644))

	res, err := Emit(context.Background(), petProgram(), Options{OutDir: dir})
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.FileExists(t, victim)
}

func TestEmit_Validation(t *testing.T) {
	t.Parallel()
	_, err := Emit(context.Background(), nil, Options{OutDir: t.TempDir()})
	require.Error(t, err)
	_, err = Emit(context.Background(), petProgram(), Options{})
	require.Error(t, err)
}

func TestEmit_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Emit(ctx, petProgram(), Options{OutDir: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
}

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/panelstate/internal/config"
	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "panelstate version "))
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"zoom": 1, "tabs": [1, 2]}`)
	b := writeFile(t, dir, "b.yaml", "tabs: [9]\nlayout:\n  cols: 2\n")

	out, err := run(t, "merge", a, b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zoom":1,"tabs":[9,2],"layout":{"cols":2}}`, out)

	out, err = run(t, "merge", "-o", "yaml", a)
	require.NoError(t, err)
	assert.Contains(t, out, "zoom: 1")

	_, err = run(t, "merge", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.json", `{"a": 1, "b": 2, "l": [1, 2]}`)
	after := writeFile(t, dir, "after.json", `{"a": 1, "b": 3, "l": [1]}`)

	out, err := run(t, "diff", before, after)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":3,"l":{"1":null}}`, out)

	out, err = run(t, "diff", "--format", "merge-patch", before, after)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":3,"l":[1]}`, out)

	out, err = run(t, "diff", "--format", "text", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "- b = 2\n+ b = 3\n")
	assert.Contains(t, out, "- l.1 = 2\n")

	out, err = run(t, "diff", "--format", "mermaid", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "classDef changed")

	out, err = run(t, "diff", before, before)
	require.NoError(t, err)
	assert.JSONEq(t, `{"l":{}}`, out, "separately read lists differ by identity only")

	_, err = run(t, "diff", "--format", "xml", before, after)
	assert.Error(t, err)
}

func TestPatch(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", `{"a": 1, "b": {"c": 2}}`)
	merge := writeFile(t, dir, "merge.json", `{"a": null, "b": {"d": 3}}`)
	ops := writeFile(t, dir, "ops.json", `[{"op": "replace", "path": "/a", "value": 5}]`)

	out, err := run(t, "patch", doc, merge)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":{"c":2,"d":3}}`, out)

	out, err = run(t, "patch", "--json-patch", doc, ops)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":5,"b":{"c":2}}`, out)
}

func TestFlatten(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "state.json", `{"layout": {"cols": 2}, "tabs": ["x"]}`)

	out, err := run(t, "flatten", "--prefix", "panel", file)
	require.NoError(t, err)
	assert.Equal(t, "panel.layout.cols = 2\npanel.tabs.0 = \"x\"\n", out)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	shape := writeFile(t, dir, "shape.json", `{"zoom": null}`)
	data := writeFile(t, dir, "data.json", `{"zoom": 0}`)
	defaults := writeFile(t, dir, "defaults.json", `{"zoom": 3}`)
	other := writeFile(t, dir, "other.json", `{"pan": 1}`)

	out, err := run(t, "resolve", "--defaults", defaults, shape, other)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = run(t, "resolve", "--defaults", defaults, shape, data)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out, "a stored falsy value still reads back")

	_, err = run(t, "resolve", shape, other)
	assert.ErrorIs(t, err, errNoValue)
}

func TestStateCommands(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "states")
	file := writeFile(t, dir, "p1.json", `{"zoom": 2, "layout": {"cols": 3}}`)

	out, err := run(t, "state", "ls", "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "No stored states found.")

	out, err = run(t, "state", "put", "p1", file, "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved state 'p1'")
	_, err = run(t, "state", "put", "p2", file, "--store-path", storePath)
	require.NoError(t, err)

	out, err = run(t, "state", "ls", "--store-path", storePath)
	require.NoError(t, err)
	assert.Equal(t, "Stored States:\n- p1\n- p2\n", out)

	out, err = run(t, "state", "inspect", "p1", "--store-path", storePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zoom":2,"layout":{"cols":3}}`, out)

	out, err = run(t, "state", "inspect", "p1", "--mermaid", "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, `n0["p1"]`)

	out, err = run(t, "state", "inspect", "p1", "--pretty", "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "zoom")

	_, err = run(t, "state", "inspect", "ghost", "--store-path", storePath)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	out, err = run(t, "state", "rm", "p1", "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed state 'p1'")

	out, err = run(t, "state", "rm", "--all", "--store-path", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed state 'p2'")

	_, err = run(t, "state", "rm", "--store-path", storePath)
	assert.Error(t, err)
}

func TestStateCommands_Encrypted(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "states")
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfgPath := writeFile(t, dir, "panelstate.yaml", "store:\n  encryption_key: "+key+"\n  mask_fields: [\"^password$\"]\n")
	file := writeFile(t, dir, "p1.json", `{"user": "ana-secret-name", "password": "hunter2"}`)

	_, err := run(t, "state", "put", "p1", file, "--config", cfgPath, "--store-path", storePath)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(storePath, "p1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "ana-secret")

	out, err := run(t, "state", "inspect", "p1", "--config", cfgPath, "--store-path", storePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"ana-secret-name","password":"***"}`, out)
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "state", "ls", "--store", "s3")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestApp_RestoreAndCheckpoint(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store.Kind = config.StoreFile
	cfg.Store.Path = t.TempDir()

	store, _, err := buildStore(cfg.Store)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "p1", domain.MustFromValue(map[string]any{"zoom": 2})))

	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	n, err := a.restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := a.sessions.State("p1")
	require.NoError(t, err)
	assert.True(t, domain.Equal(domain.MustFromValue(map[string]any{"zoom": 2}), state))

	_, err = a.sessions.Set("p1", domain.MustFromValue(map[string]any{"zoom": 5}))
	require.NoError(t, err)
	_, _, err = a.sessions.GetOrCreate("p2", nil, nil)
	require.NoError(t, err)

	n, err = a.checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, domain.Equal(domain.MustFromValue(map[string]any{"zoom": 5}), stored))
}

func TestApp_SaveReachesRedisAndStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Store.Kind = config.StoreRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Notify.Kind = config.NotifyRedis
	cfg.Notify.Redis.Addr = mr.Addr()

	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	_, _, err = a.sessions.GetOrCreate("p1", nil, domain.MustFromValue(map[string]any{"a": 1}))
	require.NoError(t, err)
	require.NoError(t, a.sessions.Save(ctx, "p1", "commit"))

	stored, err := a.store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, domain.Equal(domain.MustFromValue(map[string]any{"a": 1}), stored))

	require.NoError(t, a.sessions.Reset("p1"))
	_, err = a.store.Load(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestBuildStore_None(t *testing.T) {
	store, closeFn, err := buildStore(config.StoreConfig{Kind: config.StoreNone})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Nil(t, closeFn)
}

func TestBuildStore_BadKeyOpensNothing(t *testing.T) {
	mr := miniredis.RunT(t)

	store, closeFn, err := buildStore(config.StoreConfig{
		Kind:          config.StoreRedis,
		Redis:         config.RedisConfig{Addr: mr.Addr()},
		EncryptionKey: "not-base64!",
	})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Nil(t, store)
	assert.Nil(t, closeFn, "no client may be left open")
	assert.Zero(t, mr.CurrentConnectionCount())
}

func TestDiff_PatchMergesRemovedKeysAsNull(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.json", `{"a": 1, "b": 2}`)
	after := writeFile(t, dir, "after.json", `{"a": 1}`)

	patch, err := run(t, "diff", before, after)
	require.NoError(t, err)
	patchFile := writeFile(t, dir, "patch.json", patch)

	out, err := run(t, "merge", before, patchFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":null}`, out)

	help, err := run(t, "diff", "--help")
	require.NoError(t, err)
	assert.Contains(t, help, "Removed keys are recorded")
}

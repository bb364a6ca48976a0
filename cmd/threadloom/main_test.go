package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadloom/internal/config"
	"threadloom/internal/graph"
)

func fill(c string) string { return strings.Repeat(c, 64) }

func eventLine(id string, kind int, at int64, content, tags string) string {
	return fmt.Sprintf(`{"id":"%s","pubkey":"%s","kind":%d,"created_at":%d,"content":%q,"tags":%s}`,
		id, fill("9"), kind, at, content, tags)
}

func threadInput() string {
	a, b, c := fill("a"), fill("b"), fill("c")
	return strings.Join([]string{
		eventLine(c, 1, 30, "second", `[["e","`+a+`","","root"],["e","`+b+`","","reply"]]`),
		eventLine(fill("d"), 7, 40, "", `[["e","`+c+`"]]`),
		eventLine(a, 1, 10, "hello", `[]`),
		eventLine(b, 1, 20, "first", `[["e","`+a+`"]]`),
		eventLine(fill("e"), 1, 50, "lost", `[["e","`+fill("1")+`"]]`),
	}, "\n")
}

func TestReplayPrintsTree(t *testing.T) {
	g, err := graph.New(fill("a"))
	require.NoError(t, err)

	var out bytes.Buffer
	err = replay(context.Background(), g, config.IngestConfig{}, strings.NewReader(threadInput()), &out, fill("c"))
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "* aaaaaaaaaaaa hello\n")
	assert.Contains(t, got, "*   bbbbbbbbbbbb first\n")
	assert.Contains(t, got, "*     cccccccccccc second [+1]\n")
	assert.Contains(t, got, "    eeeeeeeeeeee lost (orphan)\n")
	assert.Contains(t, got, "4 replies, 5 nodes\n")
	assert.Less(t, strings.Index(got, "hello"), strings.Index(got, "first"))
	assert.Less(t, strings.Index(got, "second"), strings.Index(got, "lost"))
}

func TestPreviewTruncates(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b"))
	long := strings.Repeat("é", previewRunes+5)
	assert.Equal(t, strings.Repeat("é", previewRunes)+"…", preview(long))
	assert.Equal(t, "abc", short("abc"))
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestImportThenShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THREADLOOM_DB_PATH", filepath.Join(dir, "events.db"))
	missing := filepath.Join(dir, "absent.yaml")

	got := run(t, threadInput(), "import", "--config", missing)
	assert.Contains(t, got, "lines=5 stored=5 duplicates=0 malformed=0")

	got = run(t, "", "show", fill("a"), "--config", missing)
	assert.Contains(t, got, "aaaaaaaaaaaa hello")
	assert.Contains(t, got, "cccccccccccc second [+1]")
	assert.NotContains(t, got, "lost")
	assert.Contains(t, got, "3 replies, 4 nodes")
}

func TestInitWritesConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "threadloom.yaml")
	got := run(t, "", "init", "--path", p)
	assert.Contains(t, got, "Config written to:")

	_, err := os.Stat(p)
	require.NoError(t, err)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Cache.MaxSize, cfg.Cache.MaxSize)
}

func TestReplayRequiresRoot(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"replay", "--config", filepath.Join(t.TempDir(), "x.yaml")})
	assert.Error(t, cmd.Execute())
}

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "nbpress.yaml")
	err := os.WriteFile(path, []byte("content:\n  dir: "+filepath.Join(dir, "notebooks")+"\n"), 0o644)
	require.NoError(t, err, "failed to write test config")
	return path
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: filepath.Join(dir, "nbpress.yaml")}

	cmd := &InitCmd{}
	require.NoError(t, cmd.Run(&Global{}, root))

	_, err := loadConfig(root)
	require.NoError(t, err, "generated config must load")

	// A second init without force must refuse to overwrite.
	require.Error(t, cmd.Run(&Global{}, root))

	cmd.Force = true
	require.NoError(t, cmd.Run(&Global{}, root))
}

func TestLintCleanContent(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "notebooks")
	require.NoError(t, os.MkdirAll(content, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "intro.md"), []byte("# Intro\n"), 0o644))
	root := &CLI{Config: writeConfig(t, dir)}

	cmd := &LintCmd{Format: "text"}
	require.NoError(t, cmd.Run(&Global{}, root))
}

func TestLintReportsBrokenLinks(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "notebooks")
	require.NoError(t, os.MkdirAll(content, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "intro.md"), []byte("[missing](gone.md)\n"), 0o644))
	root := &CLI{Config: writeConfig(t, dir)}

	cmd := &LintCmd{Format: "text"}
	require.Error(t, cmd.Run(&Global{}, root), "broken link must fail lint")
}

func TestHistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: writeConfig(t, dir)}

	cmd := &HistoryCmd{Limit: 5}
	require.Error(t, cmd.Run(&Global{}, root), "history disabled must error")
}

func TestPublishRequiresGeneratedSite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nbpress.yaml")
	cfgYAML := "content:\n  dir: " + filepath.Join(dir, "notebooks") + "\n" +
		"output:\n  dir: " + filepath.Join(dir, "_build") + "\n" +
		"publish:\n  enabled: true\n  force: true\n  orphan: true\n"
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0o644))
	root := &CLI{Config: path}

	cmd := &PublishCmd{}
	require.Error(t, cmd.Run(&Global{}, root), "publish without a generated site must error")
}

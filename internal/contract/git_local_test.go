package contract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// createSourceRepo builds a local repository to clone from.
func createSourceRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "--quiet")
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	run("add", ".")
	run("commit", "--quiet", "-m", "init")
	return dir
}

func TestLocalGitClientShallowClone(t *testing.T) {
	skipIfGitNotAvailable(t)
	src := createSourceRepo(t, map[string]string{"src/Main.java": "class Main {}\n"})

	dest := filepath.Join(t.TempDir(), "clone")
	client := NewLocalGitClient("git", time.Minute)
	require.NoError(t, client.ShallowClone(context.Background(), "file://"+src, dest))

	_, err := os.Stat(filepath.Join(dest, "src", "Main.java"))
	assert.NoError(t, err)
}

func TestLocalGitClientShallowCloneFailure(t *testing.T) {
	skipIfGitNotAvailable(t)
	dest := filepath.Join(t.TempDir(), "clone")
	client := NewLocalGitClient("", time.Minute)
	err := client.ShallowClone(context.Background(), "file://"+filepath.Join(t.TempDir(), "missing"), dest)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "git failed"))
}

func TestLocalGitClientExtractSources(t *testing.T) {
	skipIfGitNotAvailable(t)
	src := createSourceRepo(t, map[string]string{
		"src/main/java/App.java":  "class App {}\n",
		"src/main/java/Util.java": "class Util {}\n",
		"README.md":               "# readme\n",
	})

	dest := filepath.Join(t.TempDir(), "ns", "src")
	client := NewLocalGitClient("git", time.Minute)
	keep := func(path string) bool { return strings.HasSuffix(path, ".java") }

	n, err := client.ExtractSources(context.Background(), "file://"+src, dest, keep)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	content, err := os.ReadFile(filepath.Join(dest, "src", "main", "java", "App.java"))
	require.NoError(t, err)
	assert.Equal(t, "class App {}\n", string(content))

	_, err = os.Stat(filepath.Join(dest, "README.md"))
	assert.True(t, os.IsNotExist(err))
}

package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageLabel(t *testing.T) {
	tests := []struct {
		stage, outcome, want string
	}{
		{"clone", OutcomeFail, "[CLONE FAIL]"},
		{"cloc", OutcomeFallback, "[CLOC FALLBACK]"},
		{"ck", OutcomeOK, "[CK OK]"},
		{"run", OutcomeInfo, "[RUN INFO]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Contains(t, StageLabel(tt.stage, tt.outcome), tt.want)
		})
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Main.java", "Main.java"},
		{"a<b>c", "a_b_c"},
		{`what?"*`, "what___"},
		{"trailing. ", "trailing"},
		{"CON", "_CON"},
		{"con.java", "_con.java"},
		{"COM7.txt", "_COM7.txt"},
		{"COM10", "COM10"},
		{"...", "_"},
		{"", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSegment(tt.in))
		})
	}
}

func TestSanitizeRelPath(t *testing.T) {
	assert.Equal(t, "src/main/java/Foo.java", SanitizeRelPath("src/main/java/Foo.java"))
	assert.Equal(t, "src/_aux/Foo.java", SanitizeRelPath(`src\aux\Foo.java`))
	assert.Equal(t, "a/b_/c.java", SanitizeRelPath("./a//b:/c.java"))
	assert.Equal(t, "etc/passwd", SanitizeRelPath("../../etc/passwd"))
	assert.Equal(t, "", SanitizeRelPath("./"))
}

func TestScratchName(t *testing.T) {
	assert.Equal(t, "apache__commons-lang", ScratchName("apache/commons-lang"))
	assert.NotContains(t, ScratchName("weird/na:me"), ":")
}

func TestSplitRepo(t *testing.T) {
	owner, name, ok := SplitRepo("spring-projects/spring-boot")
	assert.True(t, ok)
	assert.Equal(t, "spring-projects", owner)
	assert.Equal(t, "spring-boot", name)

	for _, bad := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		_, _, ok := SplitRepo(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.txt")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGetStoreDBFilePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetStoreDBFilePath(), ".repostudy_results.db"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}

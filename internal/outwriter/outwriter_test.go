package outwriter

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	fmtFloat, intFmt := createFormatters(2)
	assert.Equal(t, "3.14", fmtFloat(3.14159))
	assert.Equal(t, "-", fmtFloat(math.NaN()))
	assert.Equal(t, "%d", intFmt)
}

func TestGetMaxTableRepoWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
		fixed int
		want  int
	}{
		{"narrow clamps to minimum", 40, 30, 15},
		{"wide clamps to maximum", 300, 30, 60},
		{"in between", 100, 30, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.want, getMaxTableRepoWidth(cfg, tt.fixed))
		})
	}
}

func TestTruncateRepo(t *testing.T) {
	assert.Equal(t, "acme/alpha", truncateRepo("acme/alpha", 20))
	assert.Equal(t, "...rg/long-name", truncateRepo("some-org/long-name", 15))
	assert.Len(t, []rune(truncateRepo("some-org/long-name", 15)), 15)
}

func TestColorizersPlain(t *testing.T) {
	red, green, yellow := colorizers(&contract.Config{UseColors: false})
	assert.Equal(t, "x", red("x"))
	assert.Equal(t, "y", green("y"))
	assert.Equal(t, "z", yellow("z"))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, []string{"Name", "Count"}, [][]string{{"alpha", "12"}}))
	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "name")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "12")
}

func TestWriteJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWriteWithFileCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	cfg := &contract.Config{OutputFile: path}
	require.NoError(t, writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, []int{1, 2})
	}, "Wrote JSON"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,")
}

package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_DebugGated(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, errOut.String())

	l.SetDebug(true)
	l.Debugf("shown %d", 2)
	assert.Contains(t, errOut.String(), "DEBUG shown 2")
}

func TestLogger_PrintAndError(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)

	l.Printf("hello %s", "world")
	l.Println("again")
	l.Errorf("bad %s", "thing")

	assert.Equal(t, "hello worldagain\n", out.String())
	assert.Contains(t, errOut.String(), "ERROR bad thing")
}

func TestNew_WritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	require.NoError(t, err)

	l.Errorf("to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR to file")
}

func TestGlobal_Debugf(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)
	l.SetDebug(true)
	SetDefault(l)
	defer SetDefault(nil)

	Debugf("call %s", "made")
	assert.Contains(t, errOut.String(), "call made")
}

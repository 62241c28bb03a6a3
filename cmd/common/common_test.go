package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NETSTATE_TEST_A=from-file\nNETSTATE_TEST_B=from-file\n"), 0644))

	t.Setenv("NETSTATE_TEST_B", "from-env")
	os.Unsetenv("NETSTATE_TEST_A")
	t.Cleanup(func() { os.Unsetenv("NETSTATE_TEST_A") })

	require.NoError(t, NewEnvLoader(nil).LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("NETSTATE_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("NETSTATE_TEST_B"))
}

func TestLoadEnvFile_MissingIsIgnored(t *testing.T) {
	assert.NoError(t, NewEnvLoader(nil).LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "netstate")

	assert.Contains(t, buf.String(), "netstate v"+Version)
	assert.Equal(t, GetFullVersion(), Version+"-"+BuildCommit+" ("+BuildDate+")")
	assert.True(t, IsDevBuild())
}

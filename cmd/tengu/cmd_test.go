package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCLI(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "tengu "+version+"\n", execute(t, "version"))
}

func TestEnv(t *testing.T) {
	t.Setenv("TENGU_BACKEND", "wgpu")
	out := execute(t, "env")
	assert.Contains(t, out, "TENGU_BACKEND=wgpu\n")
	assert.True(t, strings.HasPrefix(out, "TENGU_BACKEND="))
}

func TestShader(t *testing.T) {
	out := execute(t, "shader")
	assert.Contains(t, out, "// block walk\n")
	assert.Contains(t, out, "@workgroup_size(64)")
	assert.Contains(t, out, "    pos[idx] = (state[idx] + velocity[idx]);\n")
	assert.Contains(t, out, "    if (idx < 8u) { hit[idx] = u32(")
	assert.Contains(t, out, "goal[(idx % 4u)]")
}

func TestRun(t *testing.T) {
	t.Setenv("TENGU_BACKEND", "")
	out := execute(t, "run", "--steps", "3", "--backend", "cpu")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	// The first step always reaches the printer.
	assert.Equal(t, "pos [1 2 3 4 -1 -2 -3 -4]", lines[0])
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCLI(&out)
	cmd.SetArgs([]string{"run", "--backend", "tpu"})
	assert.Error(t, cmd.Execute())

	cmd = NewCLI(&out)
	cmd.SetArgs([]string{"run", "--steps", "-1"})
	assert.Error(t, cmd.Execute())
}

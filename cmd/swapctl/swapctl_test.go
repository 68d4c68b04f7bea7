package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierswap/pkg/swaperr"
)

const testConfig = `
logging: {level: warn}
execute: {workers: 2}
states:
  - {name: disk, page_size: 256, num_pages: 64, store: {kind: file, path: disk.pages}}
  - {name: cache, page_size: 64, num_pages: 32, store: {kind: cache}}
  - {name: memory, page_size: 16, num_pages: 64, store: {kind: memory}}
swappers:
  - {mapping: modulo}
  - {mapping: offset}
`

func runSwapctl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", path}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := runSwapctl(t, "validate")
	require.NoError(t, err)

	for _, want := range []string{"disk", "cache", "memory", "file", "16384", "valid"} {
		assert.Contains(t, out, want)
	}
}

func TestValidate_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "validate"})

	err := cmd.Execute()
	assert.True(t, swaperr.IsCode(err, swaperr.CodeInvalidConfig))
}

func TestPlan(t *testing.T) {
	out, err := runSwapctl(t, "plan", "--from", "disk", "--to", "memory", "--start", "300", "--length", "20")
	require.NoError(t, err)

	assert.Contains(t, out, "IN")
	assert.Contains(t, out, "disk -> cache -> memory")
	assert.Contains(t, out, "window [256,512)")
	assert.Contains(t, out, "steps 20")
	assert.Contains(t, out, "disk#1")
	assert.Contains(t, out, "memory#31")
}

func TestPlan_MaxSteps(t *testing.T) {
	out, err := runSwapctl(t, "plan", "--from", "memory", "--to", "cache", "--length", "256", "--max-steps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "13 more steps not shown")
}

func TestPlan_Errors(t *testing.T) {
	_, err := runSwapctl(t, "plan", "--from", "tape", "--to", "memory", "--length", "1")
	assert.ErrorContains(t, err, `no state named "tape"`)

	_, err = runSwapctl(t, "plan", "--from", "disk", "--to", "memory", "--start", "16380", "--length", "10")
	assert.True(t, swaperr.IsCode(err, swaperr.CodeRegionOutOfRange), "got %v", err)

	_, err = runSwapctl(t, "plan", "--from", "disk", "--to", "memory", "--start", "10", "--length", "18446744073709551611")
	assert.True(t, swaperr.IsCode(err, swaperr.CodeIllegalArgument), "got %v", err)

	_, err = runSwapctl(t, "plan", "--from", "memory", "--to", "disk", "--length", "16")
	assert.True(t, swaperr.IsCode(err, swaperr.CodeIllegalArgument), "got %v", err)

	_, err = runSwapctl(t, "plan", "--from", "disk", "--to", "memory")
	assert.ErrorContains(t, err, "length")
}

func TestRun_FillAndVerify(t *testing.T) {
	out, err := runSwapctl(t, "run", "--from", "disk", "--to", "memory",
		"--start", "4096", "--length", "512", "--fill", "171", "--verify")
	require.NoError(t, err)

	assert.Contains(t, out, "done")
	assert.Contains(t, out, "verified")
}

func TestRun_WriteBack(t *testing.T) {
	out, err := runSwapctl(t, "run", "--from", "disk", "--to", "memory",
		"--start", "4096", "--length", "512", "--fill", "7", "--write-back")
	require.NoError(t, err)

	assert.Contains(t, out, "OUT")
	assert.Contains(t, out, "memory -> cache -> disk")
	assert.Contains(t, out, "written back")
	assert.Contains(t, out, "disk [4096,4608)")
}

func TestRun_RejectsRegionBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"length wraps", []string{"--length", "18446744073709551615", "--start", "1"}, swaperr.CodeIllegalArgument},
		{"length past int range", []string{"--length", "9223372036854775809"}, swaperr.CodeRegionOutOfRange},
		{"past address space", []string{"--start", "16380", "--length", "10"}, swaperr.CodeRegionOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", "--from", "disk", "--to", "memory", "--fill", "1"}, tt.args...)
			var err error
			require.NotPanics(t, func() { _, err = runSwapctl(t, args...) })
			require.Error(t, err)
			assert.True(t, swaperr.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRun_SameState(t *testing.T) {
	out, err := runSwapctl(t, "run", "--from", "cache", "--to", "cache", "--length", "10", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "NONE")
	assert.Contains(t, out, "verified")
}

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv32ttd/rv32ttd/config"
	"github.com/rv32ttd/rv32ttd/vm"
)

func TestLoadSourceRunsProgram(t *testing.T) {
	src := `
		li a0, 5
		li a1, 7
		add a2, a0, a1
	`
	exec, err := LoadSource(src, "t.s", config.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, exec.Run())
	assert.Equal(t, int32(12), exec.Registers().Get(vm.A2))
}

func TestLoadSourceReportsParseError(t *testing.T) {
	_, err := LoadSource("frobnicate a0, a1\n", "t.s", config.DefaultConfig())
	require.Error(t, err)
}

func TestLoadSourceReportsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Execution.OverflowMode = "bogus"
	_, err := LoadSource("li a0, 1\n", "t.s", cfg)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/does-not-exist.s", config.DefaultConfig())
	require.Error(t, err)
}

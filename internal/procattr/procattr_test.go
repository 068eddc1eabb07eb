package procattr

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ConfiguresProcessGroup(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("true")
	require.Nil(t, cmd.SysProcAttr)

	Set(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
}

func TestSignalGroup_NilProcess(t *testing.T) {
	t.Parallel()
	assert.NoError(t, SignalGroup(nil, syscall.SIGTERM))
	assert.NoError(t, KillGroup(nil))
}

func TestKillGroup_KillsChildren(t *testing.T) {
	t.Parallel()

	// The shell forks a grandchild; killing the group must take both down.
	cmd := exec.Command("sh", "-c", "sleep 60 & wait")
	Set(cmd)
	require.NoError(t, cmd.Start())

	require.NoError(t, KillGroup(cmd.Process))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		assert.Error(t, err, "killed process should report a non-nil wait error")
	case <-time.After(5 * time.Second):
		t.Fatal("process group was not killed")
	}
}

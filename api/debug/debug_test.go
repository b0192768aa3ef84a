package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandHomeExpandsLeadingTilde(t *testing.T) {
	t.Setenv("HOME", "/home/operator")
	assert.Equal(t, "/home/operator/profiles/cpu.out", expandHome("~/profiles/cpu.out"))
}

func TestExpandHomeLeavesOtherUserUntouched(t *testing.T) {
	assert.Equal(t, "~otheruser/profiles", expandHome("~otheruser/profiles"))
}

func TestExpandHomeLeavesAbsolutePathUntouched(t *testing.T) {
	assert.Equal(t, "/var/log/bl.out", expandHome("/var/log/bl.out"))
}

func TestSanitizeMetricNameReplacesInvalidCharacters(t *testing.T) {
	assert.Equal(t, "storage_chunks_stored", sanitizeMetricName("storage/chunks.stored"))
}

func TestStartStopPProfToggleIsPProfRunning(t *testing.T) {
	assert.False(t, Handler.IsPProfRunning())
	require := assert.New(t)
	require.NoError(Handler.StartPProf("127.0.0.1", 0))
	require.True(Handler.IsPProfRunning())
	require.NoError(Handler.StopPProf())
}

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
	assert.Equal(t, "0123456", Info{CommitHash: "0123456789abcdef"}.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, HeartbeatProtocol, info.HeartbeatProtocol)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "orion")
}

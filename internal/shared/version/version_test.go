package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "v1.2.3", Normalize("1.2.3"))
	assert.Equal(t, "v1.2.3", Normalize(" v1.2.3 "))
	assert.Equal(t, "dev", Normalize("dev"))
	assert.Equal(t, "", Normalize(""))
}

func TestCurrent(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.4.0"
	assert.Equal(t, Info{Version: "v1.4.0", Release: true}, Current())

	Version = "1.5.0-rc.1"
	assert.False(t, Current().Release)

	Version = "dev"
	assert.Equal(t, "dev", Current().Version)
	assert.False(t, Current().Release)
}

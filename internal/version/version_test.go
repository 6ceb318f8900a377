package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "v1.2.3", "abc1234"
	assert.Equal(t, "v1.2.3 (abc1234)", String())
}

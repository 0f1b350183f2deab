package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stagehand/cmd"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev", version)
}

func TestSetVersion(t *testing.T) {
	original := cmd.GetVersion()
	defer cmd.SetVersion(original)

	tests := []string{"v1.0.0", "2.3.4-beta.1", "dev"}
	for _, v := range tests {
		cmd.SetVersion(v)
		assert.Equal(t, v, cmd.GetVersion())
	}
}

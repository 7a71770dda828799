package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tomcat-devloop/internal/models"
)

func TestExitError(t *testing.T) {
	zero, one := 0, 1
	assert.NoError(t, exitError(models.ServerStatus{}))
	assert.NoError(t, exitError(models.ServerStatus{LastExitCode: &zero}))

	err := exitError(models.ServerStatus{LastExitCode: &one, LastReason: "exited with code 1"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "code 1")
	}
	assert.EqualError(t, exitError(models.ServerStatus{LastExitCode: &one}), "tomcat exited with code 1")
}

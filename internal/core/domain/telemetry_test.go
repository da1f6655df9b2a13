package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/shade/internal/core/domain"
)

func TestArtifactState(t *testing.T) {
	tests := []struct {
		name       string
		state      domain.ArtifactState
		isTerminal bool
	}{
		{"Building", domain.ArtifactBuilding, false},
		{"Ready", domain.ArtifactReady, false},
		{"Released", domain.ArtifactReleased, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.state.IsTerminal())
		})
	}
}

func TestNormalizeArtifactState(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.ArtifactState
	}{
		{"ready", domain.ArtifactReady},
		{"READY", domain.ArtifactReady},
		{"released", domain.ArtifactReleased},
		{"building", domain.ArtifactBuilding},
		{"unknown", domain.ArtifactBuilding},
		{"", domain.ArtifactBuilding},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NormalizeArtifactState(tt.input))
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", domain.LogLevelDebug.String())
	assert.Equal(t, "INFO", domain.LogLevelInfo.String())
	assert.Equal(t, "WARN", domain.LogLevelWarn.String())
	assert.Equal(t, "ERROR", domain.LogLevelError.String())
	assert.Equal(t, "INFO", domain.LogLevel(99).String())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerSettings_Defaults(t *testing.T) {
	settings := NewServerSettings("/out", 8, -40, 1.5, 30)

	require.NotNil(t, settings)
	assert.Equal(t, "/out", settings.OutputDir)
	assert.Equal(t, 8, settings.FlacCompression)
	assert.Equal(t, -40.0, settings.SilenceThresholdDB)
	assert.Equal(t, 1.5, settings.MinSilenceSec)
	assert.Equal(t, 30.0, settings.MinTrackSec)
	assert.False(t, settings.UpdatedAt.IsZero())
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbose    bool
	}{
		{name: "console", jsonOutput: false},
		{name: "console verbose", jsonOutput: false, verbose: true},
		{name: "json", jsonOutput: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbose))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.verbose, Logger.Desugar().Core().Enabled(zapcore.DebugLevel), "debug enabled only when verbose")
			assert.NotNil(t, Named("test"))

			Cleanup()
		})
	}
}

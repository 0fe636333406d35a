package logger_test

import (
	"testing"

	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	testCases := [...]struct {
		desc        string
		opts        logger.Options
		expectError bool
	}{
		{
			desc: "positive: default level",
			opts: logger.Options{},
		},
		{
			desc: "positive: pretty output with info level",
			opts: logger.Options{
				LogLevel:        "info",
				PrettyLogOutput: true,
			},
		},
		{
			desc: "negative: unknown level",
			opts: logger.Options{
				LogLevel: "loud",
			},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			log, err := logger.New(tc.opts)
			if tc.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, log.Named("test"))
		})
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	log := logger.Nop()
	require.NotNil(t, log)

	// Must not panic nor write anywhere.
	log.Named("nop").Info().Msg("discarded")
}

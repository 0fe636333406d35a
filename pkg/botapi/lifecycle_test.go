package botapi

import (
	"bytes"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unclosedWarning = "botapi client was garbage collected without being closed"

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// collectUntil runs the GC until the log contains text or the attempts run out.
func collectUntil(out *syncBuffer, text string) bool {
	for range 50 {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)

		if strings.Contains(out.String(), text) {
			return true
		}
	}

	return false
}

func TestClient_UnclosedWarning(t *testing.T) {
	t.Parallel()

	testCases := [...]struct {
		desc            string
		withStream      bool
		closeFirst      bool
		expectedWarning bool
	}{
		{
			desc:            "client dropped without Close",
			expectedWarning: true,
		},
		{
			desc:            "client with a stream dropped without Close",
			withStream:      true,
			expectedWarning: true,
		},
		{
			desc:       "closed client",
			withStream: true,
			closeFirst: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			out := &syncBuffer{}

			func() {
				zeroLogger := zerolog.New(out)

				client, err := New(Options{
					Token:     testToken,
					Transport: &fakeTransport{},
					Logger:    &logger.Logger{Logger: &zeroLogger},
					Methods:   NewMethodCache(),
				})
				require.NoError(t, err)

				if tc.withStream {
					_ = client.Updates(StreamOptions{})
				}
				if tc.closeFirst {
					require.NoError(t, client.Close())
				}
			}()

			warned := collectUntil(out, unclosedWarning)
			assert.Equal(t, tc.expectedWarning, warned)

			if tc.expectedWarning {
				assert.Contains(t, out.String(), `"level":"warn"`)
			}
		})
	}
}

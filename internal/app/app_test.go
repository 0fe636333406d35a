package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VladPetriv/botapi/config"
	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu      sync.Mutex
	offsets []json.Number
	replies []string
	onReply func()
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()

	var args map[string]any
	_ = decoder.Decode(&args)

	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/getme"):
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Echo","username":"echo_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/getupdates"):
		offset, _ := args["offset"].(json.Number)

		f.mu.Lock()
		f.offsets = append(f.offsets, offset)
		f.mu.Unlock()

		if offset == "0" {
			_, _ = io.WriteString(w, `{"ok":true,"result":[{"update_id":5,"message":{"message_id":3,"date":1,"chat":{"id":42,"type":"private"},"text":"ping"}}]}`)
			return
		}

		time.Sleep(10 * time.Millisecond)
		_, _ = io.WriteString(w, `{"ok":true,"result":[]}`)
	case strings.HasSuffix(r.URL.Path, "/sendmessage"):
		text, _ := args["text"].(string)

		f.mu.Lock()
		f.replies = append(f.replies, text)
		f.mu.Unlock()

		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":4,"date":1,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		f.onReply()
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"resty", "fasthttp"} {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			api := &fakeBotAPI{onReply: cancel}
			server := httptest.NewServer(api)
			defer server.Close()

			cfg := &config.Config{
				Telegram: config.Telegram{
					BotToken:       "123:secret",
					BaseURL:        server.URL + "/bot{token}/{method}",
					Transport:      kind,
					UpdateStrategy: "batch",
					PollTimeout:    1,
					WorkersCount:   2,
				},
			}

			err := Run(ctx, cfg, logger.Nop())
			require.NoError(t, err)

			api.mu.Lock()
			defer api.mu.Unlock()

			assert.Equal(t, []string{`You said: "ping".`}, api.replies)
			require.NotEmpty(t, api.offsets)
			assert.Equal(t, json.Number("0"), api.offsets[0])
			assert.Equal(t, json.Number("6"), api.offsets[len(api.offsets)-1], "the offset is flushed on shutdown")
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	testCases := [...]struct {
		desc     string
		telegram config.Telegram
	}{
		{
			desc:     "unknown strategy",
			telegram: config.Telegram{BotToken: "1:a", UpdateStrategy: "all"},
		},
		{
			desc:     "unknown transport",
			telegram: config.Telegram{BotToken: "1:a", UpdateStrategy: "batch", Transport: "carrier-pigeon"},
		},
		{
			desc:     "empty token",
			telegram: config.Telegram{UpdateStrategy: "single", Transport: "resty"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			err := Run(context.Background(), &config.Config{Telegram: tc.telegram}, logger.Nop())
			assert.Error(t, err)
		})
	}
}

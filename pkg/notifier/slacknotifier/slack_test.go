package slacknotifier

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/bandbot/pkg/types"
)

type plain string

func (p plain) PlainText() string { return string(p) }

func Test_filterSlackAttachments(t *testing.T) {
	order := &types.SubmitOrder{Symbol: "BTCUSDT", Side: types.SideTypeBuy, Quantity: 0.01}

	attachments, args := filterSlackAttachments([]interface{}{"BTCUSDT", 1.5, order, plain("note")})
	assert.Equal(t, []interface{}{"BTCUSDT", 1.5}, args)
	if assert.Len(t, attachments, 2) {
		assert.Equal(t, "note", attachments[1].Title)
	}

	attachments, args = filterSlackAttachments([]interface{}{"a", "b"})
	assert.Empty(t, attachments)
	assert.Len(t, args, 2)
}

func TestNotifier_Notify(t *testing.T) {
	var mu sync.Mutex
	var texts, channels []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		mu.Lock()
		texts = append(texts, r.Form.Get("text"))
		channels = append(channels, r.Form.Get("channel"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer server.Close()

	client := slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
	notifier := New(client, "#bandbot")
	defer notifier.Close()

	notifier.Notify("fitted %s band on %s", "BTCUSDT", "binance")
	notifier.NotifyTo("#alerts", "order failed")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(texts) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fitted BTCUSDT band on binance", texts[0])
	assert.Equal(t, []string{"#bandbot", "#alerts"}, channels)
}

package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

const testToken = "test-token"

const getMeResponse = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"harvester","username":"harvester_bot"}}`

const sentResponse = `{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"},"text":"ok"}}`

// newTestBot points tgbotapi at a local server; sendHandler serves the
// sendMessage method.
func newTestBot(t *testing.T, sendHandler http.HandlerFunc) *tgbotapi.BotAPI {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/getMe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(getMeResponse))
	})
	mux.HandleFunc("/bot"+testToken+"/sendMessage", sendHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(testToken, server.URL+"/bot%s/%s")
	require.NoError(t, err)
	return bot
}

func TestSendDelivers(t *testing.T) {
	var gotChatID, gotText string
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotChatID = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		_, _ = w.Write([]byte(sentResponse))
	})

	notifier, err := New(bot, "42", nil)
	require.NoError(t, err)

	article := domain.Article{
		URL:         "https://example.com/2025/01/story",
		Title:       "A Story",
		ArticleDate: "2025-01-15",
		Excerpt:     "Something happened.",
	}
	require.NoError(t, notifier.Send(context.Background(), article))

	require.Equal(t, "42", gotChatID)
	require.Contains(t, gotText, "A Story")
	require.Contains(t, gotText, article.URL)
	require.Contains(t, gotText, "Something happened.")
}

func TestSendRateLimited(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))
	})

	notifier, err := New(bot, "42", nil)
	require.NoError(t, err)

	err = notifier.Send(context.Background(), domain.Article{URL: "https://example.com/x"})

	var rateLimited *ports.RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	require.Equal(t, 3*time.Second, rateLimited.RetryAfter)
}

func TestSendFailed(t *testing.T) {
	bot := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	notifier, err := New(bot, "42", nil)
	require.NoError(t, err)

	err = notifier.Send(context.Background(), domain.Article{URL: "https://example.com/x"})
	require.Error(t, err)

	var rateLimited *ports.RateLimitedError
	require.False(t, errors.As(err, &rateLimited), "a plain failure must not look rate limited")
}

func TestNewRejectsBadChatID(t *testing.T) {
	_, err := New(nil, "not-a-number", nil)
	require.Error(t, err)
}

func TestNewAcceptsChannelUsername(t *testing.T) {
	notifier, err := New(nil, "@mychannel", nil)
	require.NoError(t, err)
	require.Equal(t, "@mychannel", notifier.channel)
}

func TestFormatMessageTruncation(t *testing.T) {
	article := domain.Article{
		URL:     "https://example.com/2025/01/very-long-story",
		Title:   "Long Story",
		Excerpt: strings.Repeat("lorem ipsum ", 1000),
	}

	text := formatMessage(article)
	require.LessOrEqual(t, len(text), maxMessageLen)
	require.True(t, strings.HasSuffix(text, article.URL), "the link must survive truncation")
	require.Contains(t, text, "Long Story")
}

func TestFormatMessageEscapesMarkdown(t *testing.T) {
	article := domain.Article{
		URL:   "https://example.com/x",
		Title: "50% *off* [really]",
	}

	text := formatMessage(article)
	require.Contains(t, text, `\*off\*`)
	require.Contains(t, text, `\[really]`)
}

func TestFormatMessageEscapesExcerpt(t *testing.T) {
	article := domain.Article{
		URL:     "https://example.com/x",
		Title:   "Plain",
		Excerpt: "an unbalanced *asterisk and _underscore in body text",
	}

	text := formatMessage(article)
	require.Contains(t, text, `\*asterisk`)
	require.Contains(t, text, `\_underscore`)
	require.NotContains(t, text, " *asterisk")
}

func TestFormatMessageTruncationKeepsEscapesBalanced(t *testing.T) {
	article := domain.Article{
		URL:     "https://example.com/x",
		Excerpt: strings.Repeat("*", 8000),
	}

	text := formatMessage(article)
	require.LessOrEqual(t, len(text), maxMessageLen)
	require.NotContains(t, text, "\\\n", "a trimmed escape pair must not leave a dangling backslash")
}

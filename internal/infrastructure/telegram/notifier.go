package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// Telegram rejects messages above this length.
const maxMessageLen = 4096

// Notifier posts stored articles to a Telegram chat or channel.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	logger  *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// New accepts either a numeric chat id or an @channel username.
func New(bot *tgbotapi.BotAPI, chatID string, logger *slog.Logger) (*Notifier, error) {
	n := &Notifier{bot: bot, logger: logger}

	if strings.HasPrefix(chatID, "@") {
		n.channel = chatID
		return n, nil
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	n.chatID = id
	return n, nil
}

// Send delivers one article. A Telegram 429 is surfaced as
// *ports.RateLimitedError carrying the server's retry_after.
func (n *Notifier) Send(ctx context.Context, article domain.Article) error {
	text := formatMessage(article)

	var msg tgbotapi.MessageConfig
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	} else {
		msg = tgbotapi.NewMessage(n.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = false

	if _, err := n.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			return &ports.RateLimitedError{
				RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
			}
		}
		return fmt.Errorf("send message: %w", err)
	}

	n.debug("article sent", "url", article.URL)
	return nil
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "[", "\\[", "`", "\\`")

// formatMessage renders headline, date, excerpt, and link, trimming the
// excerpt so the message never exceeds Telegram's limit while the link
// is always preserved.
func formatMessage(article domain.Article) string {
	var head strings.Builder
	if article.Title != "" {
		fmt.Fprintf(&head, "*%s*\n", markdownEscaper.Replace(article.Title))
	}
	if article.ArticleDate != "" {
		fmt.Fprintf(&head, "%s\n", article.ArticleDate)
	}

	tail := "\n" + article.URL

	// Escape before trimming so an unbalanced marker in article text
	// cannot break Markdown parsing and wedge the article unpublished.
	excerpt := markdownEscaper.Replace(article.Excerpt)
	budget := maxMessageLen - len(head.String()) - len(tail) - 2
	if budget < 0 {
		budget = 0
	}
	if len(excerpt) > budget {
		runes := []rune(excerpt)
		for len(string(runes)) > budget {
			runes = runes[:len(runes)-1]
		}
		// Trimming may have cut an escape pair in half.
		excerpt = strings.TrimSuffix(strings.TrimSpace(string(runes)), "\\")
	}

	if excerpt != "" {
		return head.String() + "\n" + excerpt + "\n" + tail
	}
	return head.String() + tail
}

func (n *Notifier) debug(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}

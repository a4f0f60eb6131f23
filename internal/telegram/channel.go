package telegram

import (
	"context"
	"log/slog"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// ChannelLinkPattern is the only accepted shape of a channel link.
var ChannelLinkPattern = regexp.MustCompile(`^https://t\.me/([A-Za-z0-9_]+)$`)

// ErrNoSuchChannel is returned when the Bot API does not know the channel
// or it resolves to something other than a channel or group.
var ErrNoSuchChannel = errors.New("telegram channel not found")

type chatGetter interface {
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Verifier checks channel links against the Bot API.
type Verifier struct {
	api chatGetter
}

// NewVerifier authorizes against the Bot API with token.
func NewVerifier(token string) (*Verifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "authorize telegram bot")
	}
	slog.Info("Telegram bot authorized", slog.Group("telegram", "account", api.Self.UserName))
	return &Verifier{api: api}, nil
}

// Username extracts the public username from a channel link.
func Username(link string) (string, bool) {
	m := ChannelLinkPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Verify resolves link and fails with ErrNoSuchChannel when nothing public sits behind it.
// The Bot API client has no context support; ctx is only checked before the call.
func (v *Verifier) Verify(ctx context.Context, link string) error {
	name, ok := Username(link)
	if !ok {
		return errors.Wrapf(ErrNoSuchChannel, "malformed link %q", link)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	chat, err := v.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + name},
	})
	if err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.Code == 400 {
			return errors.Wrapf(ErrNoSuchChannel, "@%s", name)
		}
		return errors.Wrap(err, "get telegram chat")
	}

	switch chat.Type {
	case "channel", "supergroup", "group":
		return nil
	default:
		return errors.Wrapf(ErrNoSuchChannel, "@%s is a %s", name, chat.Type)
	}
}

package video

import (
	"context"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/telegram"
	"github.com/pkg/errors"
)

// RegisterChannel links telegramID to channelLink, replacing any previous link.
func (s *Service) RegisterChannel(ctx context.Context, telegramID model.ID, channelLink string) (*model.ChannelLink, error) {
	if telegramID == "" || channelLink == "" {
		return nil, invalid("telegram_id and channel_link are required")
	}
	if !telegram.ChannelLinkPattern.MatchString(channelLink) {
		return nil, invalid("channel_link must look like https://t.me/<name>")
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, channelLink); err != nil {
			if errors.Is(err, telegram.ErrNoSuchChannel) {
				return nil, invalid("channel %s does not exist", channelLink)
			}
			return nil, upstream("failed to verify channel", err)
		}
	}

	link, err := s.channels.Upsert(ctx, &model.ChannelLink{
		TelegramID:  telegramID,
		ChannelLink: channelLink,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, upstream("failed to register channel", err)
	}
	return link, nil
}

func (s *Service) GetChannel(ctx context.Context, telegramID model.ID) (*model.ChannelLink, error) {
	if telegramID == "" {
		return nil, invalid("telegram_id is required")
	}
	link, err := s.channels.Get(ctx, telegramID)
	if err != nil {
		return nil, upstream("failed to fetch channel", err)
	}
	if link == nil {
		return nil, &Error{Kind: ErrNotFound, Message: "channel not registered"}
	}
	return link, nil
}

func (s *Service) ListChannels(ctx context.Context) ([]model.ChannelLink, error) {
	links, err := s.channels.List(ctx)
	if err != nil {
		return nil, upstream("failed to fetch channels", err)
	}
	return links, nil
}

package video

import (
	"context"
	"log/slog"
	"path"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
	"github.com/pkg/errors"
)

// UpdateInput overwrites the engagement of the record at URL.
// A nil Description keeps the stored one.
type UpdateInput struct {
	URL         string
	Engagement  model.Engagement
	Description *string
}

// Update upserts engagement by url. Omitted counters arrive here as zero values.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*model.VideoRecord, error) {
	if in.URL == "" {
		return nil, invalid("url is required")
	}
	if in.Description != nil {
		if err := s.checkText(ctx, *in.Description); err != nil {
			return nil, err
		}
	}

	record, err := s.videos.UpsertEngagement(ctx, in.URL, in.Engagement, in.Description, s.now())
	if err != nil {
		return nil, upstream("failed to update video", err)
	}
	return record, nil
}

// Delete removes the record and then its blob, only for the author.
// If the blob cannot be removed the record is put back.
func (s *Service) Delete(ctx context.Context, url string, telegramID model.ID) error {
	if url == "" {
		return invalid("url is required")
	}
	if telegramID == "" {
		return invalid("telegram_id is required")
	}

	record, err := s.videos.Get(ctx, url)
	if err != nil {
		return upstream("failed to fetch video", err)
	}
	if record == nil {
		return &Error{Kind: ErrNotFound, Message: "video not found"}
	}
	if record.AuthorID != telegramID {
		slog.WarnContext(ctx, "Refused delete by non-author",
			slog.Group("delete", "url", url, "telegramId", telegramID),
		)
		return &Error{Kind: ErrForbidden, Message: "only the author can delete this video"}
	}

	n, err := s.videos.Delete(ctx, url)
	if err != nil {
		return upstream("failed to delete video record", err)
	}
	if n == 0 {
		return &Error{Kind: ErrNotFound, Message: "video not found"}
	}

	key, stored := s.keyOf(url)
	if !stored {
		return nil
	}
	cleanup := context.WithoutCancel(ctx)
	if err := s.objects.Remove(cleanup, key); err != nil {
		if insErr := s.videos.Insert(cleanup, record); insErr != nil {
			slog.ErrorContext(ctx, "Failed to restore video record",
				slog.Group("delete", "url", url, "key", key, "removeError", err, "restoreError", insErr),
			)
			return partial(
				"video record deleted but its file "+key+" could not be removed",
				errors.Wrapf(err, "restore record: %v", insErr),
			)
		}
		return upstream("failed to remove video file", err)
	}

	return nil
}

// DownloadURL returns a signed, time limited URL of the blob behind url.
// A published video resolves to its own url; a foreign url without an author
// is never handed out.
func (s *Service) DownloadURL(ctx context.Context, url string) (string, error) {
	record, key, stored, err := s.locate(ctx, url)
	if err != nil {
		return "", err
	}
	if !stored {
		if record.AuthorID == "" {
			return "", &Error{Kind: ErrNotFound, Message: "video not found"}
		}
		return url, nil
	}
	signed, err := s.objects.SignedURL(key, s.signedURLTTL)
	if err != nil {
		return "", upstream("failed to sign download url", err)
	}
	return signed, nil
}

// Open streams the blob behind url. The caller closes the body.
func (s *Service) Open(ctx context.Context, url string) (*objectstore.Object, string, error) {
	_, key, stored, err := s.locate(ctx, url)
	if err != nil {
		return nil, "", err
	}
	if !stored {
		return nil, "", &Error{Kind: ErrNotFound, Message: "video file is hosted elsewhere"}
	}
	obj, err := s.objects.Open(ctx, key)
	if err != nil {
		return nil, "", upstream("failed to open video", err)
	}
	return obj, path.Base(key), nil
}

func (s *Service) locate(ctx context.Context, url string) (*model.VideoRecord, string, bool, error) {
	if url == "" {
		return nil, "", false, invalid("url is required")
	}
	record, err := s.videos.Get(ctx, url)
	if err != nil {
		return nil, "", false, upstream("failed to fetch video", err)
	}
	if record == nil {
		return nil, "", false, &Error{Kind: ErrNotFound, Message: "video not found"}
	}
	key, stored := s.keyOf(url)
	return record, key, stored, nil
}

// keyOf reports the object key behind url and whether the bucket holds it.
// Published videos live elsewhere and have no key.
func (s *Service) keyOf(url string) (string, bool) {
	key := s.objects.KeyFromURL(url)
	return key, key != "" && s.objects.PublicURL(key) == url
}

// ModerateURL runs the vendor check on a remote video without storing anything.
func (s *Service) ModerateURL(ctx context.Context, videoURL string) (*moderation.Verdict, error) {
	if s.moderator == nil {
		return nil, &Error{Kind: ErrUnavailable, Message: "moderation is not configured"}
	}
	if videoURL == "" {
		return nil, invalid("videoUrl is required")
	}
	verdict, err := s.moderator.CheckURL(ctx, videoURL)
	if err != nil {
		return nil, upstream("failed to moderate video", err)
	}
	return verdict, nil
}

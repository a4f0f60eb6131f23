package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/store"
	"github.com/pkg/errors"
)

// acceptedTypes maps accepted content types to the extension of the stored key.
var acceptedTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
}

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
	".webm": "video/webm",
}

// Telegram ids end up in object keys.
var idPattern = regexp.MustCompile(`^-?[A-Za-z0-9_]{1,64}$`)

// UploadInput is one video submitted by its author.
type UploadInput struct {
	TelegramID  model.ID
	Description string
	Filename    string
	ContentType string
	// Size is the declared length, or 0 when unknown.
	Size int64
	Body io.Reader
}

// Upload moderates, stores and records a new public video.
// A record that cannot be inserted takes its blob with it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*model.VideoRecord, error) {
	if in.TelegramID == "" {
		return nil, invalid("telegram_id is required")
	}
	if !idPattern.MatchString(string(in.TelegramID)) {
		return nil, invalid("telegram_id %q is malformed", in.TelegramID)
	}
	if in.Body == nil {
		return nil, invalid("file is required")
	}

	contentType, ext, ok := resolveType(in.ContentType, in.Filename)
	if !ok {
		return nil, invalid("unsupported content type %q: use video/mp4, video/quicktime or video/webm", in.ContentType)
	}
	if in.Size > s.maxUploadBytes {
		return nil, invalid("file exceeds the %d byte limit", s.maxUploadBytes)
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxUploadBytes+1))
	if err != nil {
		return nil, invalid("failed to read file: %v", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, invalid("file exceeds the %d byte limit", s.maxUploadBytes)
	}
	if len(data) == 0 {
		return nil, invalid("file is empty")
	}

	if err := s.checkText(ctx, in.Description); err != nil {
		return nil, err
	}
	if s.moderator != nil {
		verdict, err := s.moderator.CheckVideo(ctx, data, in.Filename, contentType)
		if err != nil {
			return nil, upstream("failed to moderate video", err)
		}
		if !verdict.Approved {
			slog.InfoContext(ctx, "Video rejected by moderation",
				slog.Group("upload", "telegramId", in.TelegramID, "flagged", verdict.Flagged),
			)
			return nil, &Error{Kind: ErrRejected, Message: verdict.Reason()}
		}
	}

	now := s.now()
	key := fmt.Sprintf("%s_%d%s", in.TelegramID, now.UnixMilli(), ext)
	if err := s.objects.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, upstream("failed to upload video", err)
	}

	record := &model.VideoRecord{
		URL:         s.objects.PublicURL(key),
		AuthorID:    in.TelegramID,
		Description: in.Description,
		IsPublic:    true,
		Timestamp:   now,
		UpdatedAt:   now,
	}
	record.Normalize()

	if err := s.videos.Insert(ctx, record); err != nil {
		// The request may already be gone; the blob still has to go.
		cleanup := context.WithoutCancel(ctx)
		if rmErr := s.objects.Remove(cleanup, key); rmErr != nil {
			slog.ErrorContext(ctx, "Failed to remove orphaned video",
				slog.Group("upload", "key", key, "insertError", err, "removeError", rmErr),
			)
			return nil, partial(
				fmt.Sprintf("video stored as %s but its record could not be saved", key),
				errors.Wrapf(err, "remove orphan: %v", rmErr),
			)
		}
		slog.WarnContext(ctx, "Removed video after failed insert",
			slog.Group("upload", "key", key, "error", err),
		)
		return nil, upstream("failed to save video record", err)
	}

	return record, nil
}

func (s *Service) checkText(ctx context.Context, text string) error {
	if s.textModerator == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	verdict, err := s.textModerator.CheckText(ctx, text)
	if err != nil {
		return upstream("failed to moderate description", err)
	}
	if !verdict.Approved {
		return &Error{Kind: ErrRejected, Message: "description failed moderation: " + strings.Join(verdict.Flagged, ", ")}
	}
	return nil
}

// resolveType takes an accepted declared type as is. An empty or
// application/octet-stream type is resolved from the file extension.
func resolveType(contentType, filename string) (string, string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := acceptedTypes[ct]; ok {
		return ct, ext, true
	}
	if ct != "" && ct != "application/octet-stream" {
		return "", "", false
	}
	if t, ok := extensionTypes[strings.ToLower(path.Ext(filename))]; ok {
		return t, acceptedTypes[t], true
	}
	return "", "", false
}

// PublishInput registers a video already hosted elsewhere.
type PublishInput struct {
	TelegramID  model.ID
	VideoURL    string
	Description string
}

// Publish records an externally hosted video as public. Nothing is stored
// in the bucket, so there is nothing to compensate.
func (s *Service) Publish(ctx context.Context, in PublishInput) (*model.VideoRecord, error) {
	if in.TelegramID == "" || in.VideoURL == "" {
		return nil, invalid("telegram_id and videoUrl are required")
	}
	u, err := url.Parse(in.VideoURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, invalid("videoUrl %q is not an absolute http(s) url", in.VideoURL)
	}

	if err := s.checkText(ctx, in.Description); err != nil {
		return nil, err
	}
	if s.moderator != nil {
		verdict, err := s.moderator.CheckURL(ctx, in.VideoURL)
		if err != nil {
			return nil, upstream("failed to moderate video", err)
		}
		if !verdict.Approved {
			return nil, &Error{Kind: ErrRejected, Message: verdict.Reason()}
		}
	}

	now := s.now()
	record := &model.VideoRecord{
		URL:         in.VideoURL,
		AuthorID:    in.TelegramID,
		Description: in.Description,
		IsPublic:    true,
		Timestamp:   now,
		UpdatedAt:   now,
	}
	record.Normalize()
	if err := s.videos.Insert(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("video already registered")
		}
		return nil, upstream("failed to save video record", err)
	}
	return record, nil
}

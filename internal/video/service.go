package video

import (
	"context"
	"io"
	"time"

	"github.com/Code-Hex/synchro"
	"github.com/Code-Hex/synchro/tz"
	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
)

type VideoStore interface {
	ListPublic(ctx context.Context, limit int) ([]model.VideoRecord, error)
	Get(ctx context.Context, url string) (*model.VideoRecord, error)
	Insert(ctx context.Context, record *model.VideoRecord) error
	UpsertEngagement(ctx context.Context, url string, e model.Engagement, description *string, now time.Time) (*model.VideoRecord, error)
	Delete(ctx context.Context, url string) (int64, error)
}

type ChannelStore interface {
	Upsert(ctx context.Context, link *model.ChannelLink) (*model.ChannelLink, error)
	Get(ctx context.Context, id model.ID) (*model.ChannelLink, error)
	List(ctx context.Context) ([]model.ChannelLink, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Remove(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (*objectstore.Object, error)
	SignedURL(key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	KeyFromURL(url string) string
}

// Moderator classifies videos. A nil Moderator disables the upload gate.
type Moderator interface {
	CheckVideo(ctx context.Context, data []byte, filename, contentType string) (*moderation.Verdict, error)
	CheckURL(ctx context.Context, videoURL string) (*moderation.Verdict, error)
}

type TextModerator interface {
	CheckText(ctx context.Context, text string) (*moderation.Verdict, error)
}

type ChannelVerifier interface {
	Verify(ctx context.Context, link string) error
}

// Options are the optional collaborators and limits of a Service.
// Leave an interface field unset to turn its feature off.
type Options struct {
	Moderator      Moderator
	TextModerator  TextModerator
	Verifier       ChannelVerifier
	MaxUploadBytes int64
	PublicLimit    int
	SignedURLTTL   time.Duration
	Now            func() time.Time
}

// Service implements every video and channel operation once, for all
// hosting surfaces.
type Service struct {
	videos   VideoStore
	channels ChannelStore
	objects  ObjectStore

	moderator     Moderator
	textModerator TextModerator
	verifier      ChannelVerifier

	maxUploadBytes int64
	publicLimit    int
	signedURLTTL   time.Duration
	now            func() time.Time
}

const (
	defaultMaxUploadBytes = 100 << 20
	defaultSignedURLTTL   = 60 * time.Second
)

func NewService(videos VideoStore, channels ChannelStore, objects ObjectStore, opts Options) *Service {
	s := &Service{
		videos:         videos,
		channels:       channels,
		objects:        objects,
		moderator:      opts.Moderator,
		textModerator:  opts.TextModerator,
		verifier:       opts.Verifier,
		maxUploadBytes: opts.MaxUploadBytes,
		publicLimit:    opts.PublicLimit,
		signedURLTTL:   opts.SignedURLTTL,
		now:            opts.Now,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	if s.signedURLTTL <= 0 {
		s.signedURLTTL = defaultSignedURLTTL
	}
	if s.now == nil {
		s.now = func() time.Time {
			return synchro.Now[tz.UTC]().StdTime()
		}
	}
	return s
}

// ModerationEnabled reports whether uploads pass through the moderation gate.
func (s *Service) ModerationEnabled() bool {
	return s.moderator != nil
}

// ListPublic returns public records newest first. limit <= 0 falls back to
// the configured cap.
func (s *Service) ListPublic(ctx context.Context, limit int) ([]model.VideoRecord, error) {
	if limit <= 0 {
		limit = s.publicLimit
	}
	records, err := s.videos.ListPublic(ctx, limit)
	if err != nil {
		return nil, upstream("failed to fetch videos", err)
	}
	return records, nil
}

package video

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
	"github.com/KasumiMercury/tgclips-function-api/internal/store"
	"github.com/pkg/errors"
)

var errBoom = errors.New("boom")

type fakeVideos struct {
	records map[string]*model.VideoRecord
	calls   int

	listErr, getErr, insertErr, upsertErr, deleteErr error
}

func newFakeVideos(records ...*model.VideoRecord) *fakeVideos {
	f := &fakeVideos{records: map[string]*model.VideoRecord{}}
	for _, r := range records {
		f.records[r.URL] = r
	}
	return f
}

func (f *fakeVideos) ListPublic(_ context.Context, limit int) ([]model.VideoRecord, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.VideoRecord, 0)
	for _, r := range f.records {
		if r.IsPublic {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVideos) Get(_ context.Context, url string) (*model.VideoRecord, error) {
	f.calls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.records[url]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeVideos) Insert(_ context.Context, record *model.VideoRecord) error {
	f.calls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.records[record.URL]; ok {
		return errors.Wrap(store.ErrDuplicate, record.URL)
	}
	cp := *record
	f.records[record.URL] = &cp
	return nil
}

func (f *fakeVideos) UpsertEngagement(_ context.Context, url string, e model.Engagement, description *string, now time.Time) (*model.VideoRecord, error) {
	f.calls++
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	r, ok := f.records[url]
	if !ok {
		r = &model.VideoRecord{URL: url, Timestamp: now}
		f.records[url] = r
	}
	r.Views, r.Likes, r.Dislikes = e.Views, e.Likes, e.Dislikes
	r.UserLikes, r.UserDislikes, r.Comments = e.UserLikes, e.UserDislikes, e.Comments
	r.Shares, r.ViewTime, r.Replays = e.Shares, e.ViewTime, e.Replays
	r.Duration, r.LastPosition, r.ChatMessages = e.Duration, e.LastPosition, e.ChatMessages
	r.UpdatedAt = now
	if description != nil {
		r.Description = *description
	}
	r.Normalize()
	cp := *r
	return &cp, nil
}

func (f *fakeVideos) Delete(_ context.Context, url string) (int64, error) {
	f.calls++
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if _, ok := f.records[url]; !ok {
		return 0, nil
	}
	delete(f.records, url)
	return 1, nil
}

type fakeChannels struct {
	links  map[model.ID]model.ChannelLink
	err    error
	writes int
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{links: map[model.ID]model.ChannelLink{}}
}

func (f *fakeChannels) Upsert(_ context.Context, link *model.ChannelLink) (*model.ChannelLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.writes++
	f.links[link.TelegramID] = *link
	cp := *link
	return &cp, nil
}

func (f *fakeChannels) Get(_ context.Context, id model.ID) (*model.ChannelLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.links[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeChannels) List(context.Context) ([]model.ChannelLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.ChannelLink, 0, len(f.links))
	for _, l := range f.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

const publicBase = "https://store/videos"

type fakeObjects struct {
	blobs map[string][]byte
	types map[string]string

	uploadErr, removeErr, openErr, signErr error
	removed                                []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) Upload(_ context.Context, key string, body io.Reader, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.blobs[key] = b
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.blobs, key)
	return nil
}

func (f *fakeObjects) Open(_ context.Context, key string) (*objectstore.Object, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	b, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &objectstore.Object{
		Body:          io.NopCloser(bytes.NewReader(b)),
		ContentType:   f.types[key],
		ContentLength: int64(len(b)),
	}, nil
}

func (f *fakeObjects) SignedURL(key string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return publicBase + "/" + key + "?ttl=" + ttl.String(), nil
}

func (f *fakeObjects) PublicURL(key string) string {
	return publicBase + "/" + key
}

func (f *fakeObjects) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, publicBase+"/")
}

type fakeModerator struct {
	verdict *moderation.Verdict
	err     error
	calls   int
	gotURL  string
}

func (f *fakeModerator) CheckVideo(context.Context, []byte, string, string) (*moderation.Verdict, error) {
	f.calls++
	return f.verdict, f.err
}

func (f *fakeModerator) CheckURL(_ context.Context, videoURL string) (*moderation.Verdict, error) {
	f.calls++
	f.gotURL = videoURL
	return f.verdict, f.err
}

type fakeText struct {
	verdict *moderation.Verdict
	err     error
}

func (f *fakeText) CheckText(context.Context, string) (*moderation.Verdict, error) {
	return f.verdict, f.err
}

type fakeVerifier struct {
	err   error
	links []string
}

func (f *fakeVerifier) Verify(_ context.Context, link string) error {
	f.links = append(f.links, link)
	return f.err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Now: func() time.Time { return fixedNow }}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
	"github.com/KasumiMercury/tgclips-function-api/internal/video"
)

type fakeService struct {
	err error

	listLimit  int
	uploaded   *video.UploadInput
	uploadRaw  []byte
	published  *video.PublishInput
	updated    *video.UpdateInput
	deleted    [2]string
	registered [2]string
	moderated  string
	calls      int
}

func (f *fakeService) ListPublic(_ context.Context, limit int) ([]model.VideoRecord, error) {
	f.calls++
	f.listLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.VideoRecord{{URL: "https://store/a.mp4", AuthorID: "42", IsPublic: true}}, nil
}

func (f *fakeService) Upload(_ context.Context, in video.UploadInput) (*model.VideoRecord, error) {
	f.calls++
	if in.Body != nil {
		f.uploadRaw, _ = io.ReadAll(in.Body)
	}
	f.uploaded = &in
	if f.err != nil {
		return nil, f.err
	}
	return &model.VideoRecord{URL: "https://store/42_1.mp4"}, nil
}

func (f *fakeService) Publish(_ context.Context, in video.PublishInput) (*model.VideoRecord, error) {
	f.calls++
	f.published = &in
	if f.err != nil {
		return nil, f.err
	}
	return &model.VideoRecord{URL: in.VideoURL}, nil
}

func (f *fakeService) Update(_ context.Context, in video.UpdateInput) (*model.VideoRecord, error) {
	f.calls++
	f.updated = &in
	if f.err != nil {
		return nil, f.err
	}
	return &model.VideoRecord{URL: in.URL, Likes: in.Engagement.Likes}, nil
}

func (f *fakeService) Delete(_ context.Context, url string, telegramID model.ID) error {
	f.calls++
	f.deleted = [2]string{url, string(telegramID)}
	return f.err
}

func (f *fakeService) RegisterChannel(_ context.Context, telegramID model.ID, channelLink string) (*model.ChannelLink, error) {
	f.calls++
	f.registered = [2]string{string(telegramID), channelLink}
	if f.err != nil {
		return nil, f.err
	}
	return &model.ChannelLink{TelegramID: telegramID, ChannelLink: channelLink}, nil
}

func (f *fakeService) GetChannel(_ context.Context, telegramID model.ID) (*model.ChannelLink, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.ChannelLink{TelegramID: telegramID, ChannelLink: "https://t.me/foo"}, nil
}

func (f *fakeService) ListChannels(context.Context) ([]model.ChannelLink, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []model.ChannelLink{{TelegramID: "42", ChannelLink: "https://t.me/foo"}}, nil
}

func (f *fakeService) DownloadURL(_ context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return url + "?signature=abc", nil
}

func (f *fakeService) Open(_ context.Context, url string) (*objectstore.Object, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return &objectstore.Object{
		Body:          io.NopCloser(strings.NewReader("video-bytes")),
		ContentType:   "video/webm",
		ContentLength: 11,
	}, "42_1.webm", nil
}

func (f *fakeService) ModerateURL(_ context.Context, videoURL string) (*moderation.Verdict, error) {
	f.calls++
	f.moderated = videoURL
	if f.err != nil {
		return nil, f.err
	}
	return &moderation.Verdict{Approved: true, Scores: map[string]float64{"nudity": 0.1}}, nil
}

func newTestServer(svc Service) *Server {
	return NewServer(svc, Options{CORSOrigins: []string{"https://tg-clips.netlify.app", "http://localhost:3000"}, MaxUploadBytes: 1 << 20})
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{name: "invalid", err: &video.Error{Kind: video.ErrInvalid, Message: "url is required"}, status: http.StatusBadRequest, kind: "invalid"},
		{name: "forbidden", err: &video.Error{Kind: video.ErrForbidden, Message: "no"}, status: http.StatusForbidden, kind: "forbidden"},
		{name: "not found", err: &video.Error{Kind: video.ErrNotFound, Message: "gone"}, status: http.StatusNotFound, kind: "not_found"},
		{name: "rejected", err: &video.Error{Kind: video.ErrRejected, Message: "content failed moderation: gore"}, status: http.StatusBadRequest, kind: "rejected"},
		{name: "unavailable", err: &video.Error{Kind: video.ErrUnavailable, Message: "off"}, status: http.StatusServiceUnavailable, kind: "unavailable"},
		{name: "partial failure", err: &video.Error{Kind: video.ErrPartialFailure, Message: "half"}, status: http.StatusInternalServerError, kind: "partial_failure"},
		{name: "upstream", err: &video.Error{Kind: video.ErrUpstream, Message: "db down", Details: "dial tcp"}, status: http.StatusInternalServerError, kind: "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeService{err: tt.err})
			rec := do(t, srv, http.MethodGet, "/api/public-videos", nil, "")

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", body.Kind, tt.kind)
			}
			ve := tt.err.(*video.Error)
			if body.Error != ve.Message || body.Details != ve.Details {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestServer_Routing(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{name: "index", method: http.MethodGet, target: "/", status: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", status: http.StatusNotFound},
		{name: "unknown route with post", method: http.MethodPost, target: "/nope", status: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, target: "/api/public-videos", status: http.StatusMethodNotAllowed},
		{name: "get on upload", method: http.MethodGet, target: "/api/upload-video", status: http.StatusMethodNotAllowed},
		{name: "channels", method: http.MethodGet, target: "/api/channels", status: http.StatusOK},
		{name: "get channel", method: http.MethodGet, target: "/api/get-channel?telegram_id=42", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&fakeService{}), tt.method, tt.target, nil, "")
			if rec.Code != tt.status {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.target, rec.Code, tt.status, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Header().Get(requestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestServer_MethodNotAllowedListsMethods(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/delete-video", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "DELETE, OPTIONS, POST" {
		t.Errorf("Allow = %q", allow)
	}
}

func TestServer_CORS(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		origin   string
		expected string
		status   int
	}{
		{name: "preflight from allowed origin", method: http.MethodOptions, origin: "https://tg-clips.netlify.app", expected: "https://tg-clips.netlify.app", status: http.StatusNoContent},
		{name: "preflight from unknown origin", method: http.MethodOptions, origin: "https://evil.example", expected: "", status: http.StatusNoContent},
		{name: "simple request from localhost", method: http.MethodGet, origin: "http://localhost:3000", expected: "http://localhost:3000", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/public-videos", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			newTestServer(&fakeService{}).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.expected {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.expected)
			}
			if tt.method == http.MethodOptions && rec.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Error("preflight without Allow-Methods")
			}
		})
	}

	wildcard := NewServer(&fakeService{}, Options{CORSOrigins: []string{"*"}})
	rec := do(t, wildcard, http.MethodOptions, "/anything", nil, "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Code != http.StatusNoContent {
		t.Errorf("wildcard preflight = %d %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(&fakeService{}).ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestServer_ErrorCarriesRequestID(t *testing.T) {
	srv := newTestServer(&fakeService{err: &video.Error{Kind: video.ErrNotFound, Message: "video not found"}})
	req := httptest.NewRequest(http.MethodGet, "/api/download-video?url=x", nil)
	req.Header.Set(requestIDHeader, "req-77")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if body := decodeError(t, rec); body.RequestID != "req-77" {
		t.Errorf("requestId = %q, want req-77", body.RequestID)
	}
}

func TestServer_PublicVideosLimit(t *testing.T) {
	tests := []struct {
		target string
		status int
		limit  int
	}{
		{target: "/api/public-videos", status: http.StatusOK, limit: 0},
		{target: "/api/public-videos?limit=10", status: http.StatusOK, limit: 10},
		{target: "/api/public-videos?limit=5000", status: http.StatusOK, limit: maxLimit},
		{target: "/api/public-videos?limit=0", status: http.StatusBadRequest},
		{target: "/api/public-videos?limit=ten", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newTestServer(svc), http.MethodGet, tt.target, nil, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				if svc.calls != 0 {
					t.Error("service called for a bad limit")
				}
				return
			}
			if svc.listLimit != tt.limit {
				t.Errorf("limit = %d, want %d", svc.listLimit, tt.limit)
			}
			var records []model.VideoRecord
			if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil || len(records) != 1 {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestServer_UploadVideo(t *testing.T) {
	svc := &fakeService{}
	body, ct := multipartBody(t, map[string]string{"telegram_id": "42", "description": "hello"}, "clip.mp4", "video/mp4", []byte("video-bytes"))

	rec := do(t, newTestServer(svc), http.MethodPost, "/api/upload-video", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.URL != "https://store/42_1.mp4" {
		t.Errorf("body = %s", rec.Body.String())
	}

	in := svc.uploaded
	if in.TelegramID != "42" || in.Description != "hello" || in.Filename != "clip.mp4" || in.ContentType != "video/mp4" {
		t.Errorf("upload input = %+v", in)
	}
	if string(svc.uploadRaw) != "video-bytes" || in.Size != 11 {
		t.Errorf("file = %q (size %d)", svc.uploadRaw, in.Size)
	}
}

func TestServer_UploadVideoIgnoresQueryFields(t *testing.T) {
	svc := &fakeService{}
	body, ct := multipartBody(t, map[string]string{"telegram_id": "42"}, "clip.mp4", "video/mp4", []byte("video-bytes"))

	rec := do(t, newTestServer(svc), http.MethodPost, "/api/upload-video?telegram_id=99&description=spam", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.uploaded.TelegramID != "42" || svc.uploaded.Description != "" {
		t.Errorf("upload input = %+v, want form fields only", svc.uploaded)
	}

	svc = &fakeService{}
	body, ct = multipartBody(t, nil, "clip.mp4", "video/mp4", []byte("video-bytes"))
	do(t, newTestServer(svc), http.MethodPost, "/api/upload-video?telegram_id=99", body, ct)
	if svc.uploaded == nil || svc.uploaded.TelegramID != "" {
		t.Errorf("telegram_id taken from the query: %+v", svc.uploaded)
	}
}

func TestServer_UploadVideoWithoutFile(t *testing.T) {
	svc := &fakeService{err: &video.Error{Kind: video.ErrInvalid, Message: "file is required"}}
	body, ct := multipartBody(t, map[string]string{"telegram_id": "42"}, "", "", nil)

	rec := do(t, newTestServer(svc), http.MethodPost, "/api/upload-video", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.uploaded == nil || svc.uploaded.Body != nil {
		t.Error("service should see the upload without a body")
	}
}

func TestServer_UploadVideoTooLarge(t *testing.T) {
	svc := &fakeService{}
	srv := NewServer(svc, Options{MaxUploadBytes: 16})
	body, ct := multipartBody(t, map[string]string{"telegram_id": "42"}, "clip.mp4", "video/mp4", bytes.Repeat([]byte("x"), 2<<20))

	rec := do(t, srv, http.MethodPost, "/api/upload-video", body, ct)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service called for an oversized body")
	}
}

func TestServer_UploadVideoNotMultipart(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/upload-video", strings.NewReader("raw"), "video/mp4")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("service called for a non-multipart body")
	}
}

func TestServer_PublishVideo(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/upload-video",
		strings.NewReader(`{"telegram_id":42,"videoUrl":"https://cdn.example.com/a.mp4","description":"d"}`), "application/json; charset=utf-8")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if p := svc.published; p == nil || p.TelegramID != "42" || p.VideoURL != "https://cdn.example.com/a.mp4" || p.Description != "d" {
		t.Errorf("publish input = %+v", svc.published)
	}
}

func TestServer_UpdateVideo(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/update-video",
		strings.NewReader(`{"url":"https://store/x.mp4","likes":3,"user_likes":[7,"8"],"comments":[{"text":"hi"}]}`), "application/json")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	in := svc.updated
	if in.URL != "https://store/x.mp4" || in.Engagement.Likes != 3 || in.Description != nil {
		t.Errorf("update input = %+v", in)
	}
	if len(in.Engagement.UserLikes) != 2 || in.Engagement.UserLikes[0] != "7" || in.Engagement.UserLikes[1] != "8" {
		t.Errorf("user_likes = %v", in.Engagement.UserLikes)
	}
	if len(in.Engagement.Comments) != 1 || string(in.Engagement.Comments[0]) != `{"text":"hi"}` {
		t.Errorf("comments = %s", in.Engagement.Comments)
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    model.VideoRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Success || resp.Data.Likes != 3 {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServer_BadJSON(t *testing.T) {
	tests := []struct {
		target string
		body   string
	}{
		{target: "/api/update-video", body: `{"url":`},
		{target: "/api/update-video", body: ``},
		{target: "/api/update-video", body: `{"url":"x","likes":"many"}`},
		{target: "/api/register-channel", body: `[]`},
		{target: "/api/moderate-video", body: `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.target+" "+tt.body, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newTestServer(svc), http.MethodPost, tt.target, strings.NewReader(tt.body), "application/json")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if decodeError(t, rec).Kind != "invalid" {
				t.Errorf("body = %s", rec.Body.String())
			}
			if svc.calls != 0 {
				t.Error("service called for a malformed body")
			}
		})
	}
}

func TestServer_DeleteVideo(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "post body", method: http.MethodPost, target: "/api/delete-video", body: `{"url":"https://store/x.mp4","telegram_id":"42"}`},
		{name: "delete body with numeric id", method: http.MethodDelete, target: "/api/delete-video", body: `{"url":"https://store/x.mp4","telegram_id":42}`},
		{name: "delete query", method: http.MethodDelete, target: "/api/delete-video?url=https%3A%2F%2Fstore%2Fx.mp4&telegram_id=42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			rec := do(t, newTestServer(svc), tt.method, tt.target, body, "application/json")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
			}
			if svc.deleted != [2]string{"https://store/x.mp4", "42"} {
				t.Errorf("deleted = %v", svc.deleted)
			}
		})
	}
}

func TestServer_RegisterChannelAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "canonical", body: `{"telegram_id":"42","channel_link":"https://t.me/foo"}`},
		{name: "numeric id", body: `{"telegram_id":42,"channel_link":"https://t.me/foo"}`},
		{name: "older client spelling", body: `{"userId":"42","channelName":"https://t.me/foo"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newTestServer(svc), http.MethodPost, "/api/register-channel", strings.NewReader(tt.body), "application/json")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
			}
			if svc.registered != [2]string{"42", "https://t.me/foo"} {
				t.Errorf("registered = %v", svc.registered)
			}
		})
	}
}

func TestServer_GetChannel(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/get-channel?telegram_id=42", nil, "")
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["channel_link"] != "https://t.me/foo" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServer_DownloadVideo(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec := do(t, srv, http.MethodGet, "/api/download-video?url=https%3A%2F%2Fstore%2F42_1.webm", nil, "")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://store/42_1.webm?signature=abc" {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, srv, http.MethodGet, "/api/download-video?url=https%3A%2F%2Fstore%2F42_1.webm&stream=1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "video-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=42_1.webm` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("Content-Type") != "video/webm" || rec.Header().Get("Content-Length") != "11" {
		t.Errorf("headers = %v", rec.Header())
	}
}

func TestServer_ModerateVideo(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/moderate-video", strings.NewReader(`{"videoUrl":"https://x/y.mp4"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.moderated != "https://x/y.mp4" {
		t.Errorf("moderated = %q", svc.moderated)
	}
	var v moderation.Verdict
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil || !v.Approved {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type panicService struct{ fakeService }

func (p *panicService) ListChannels(context.Context) ([]model.ChannelLink, error) {
	panic("boom")
}

func TestServer_RecoversPanics(t *testing.T) {
	rec := do(t, newTestServer(&panicService{}), http.MethodGet, "/api/channels", nil, "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

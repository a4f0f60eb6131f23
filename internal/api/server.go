package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
	"github.com/KasumiMercury/tgclips-function-api/internal/video"
)

// Service is the operation set the handlers expose.
type Service interface {
	ListPublic(ctx context.Context, limit int) ([]model.VideoRecord, error)
	Upload(ctx context.Context, in video.UploadInput) (*model.VideoRecord, error)
	Publish(ctx context.Context, in video.PublishInput) (*model.VideoRecord, error)
	Update(ctx context.Context, in video.UpdateInput) (*model.VideoRecord, error)
	Delete(ctx context.Context, url string, telegramID model.ID) error
	RegisterChannel(ctx context.Context, telegramID model.ID, channelLink string) (*model.ChannelLink, error)
	GetChannel(ctx context.Context, telegramID model.ID) (*model.ChannelLink, error)
	ListChannels(ctx context.Context) ([]model.ChannelLink, error)
	DownloadURL(ctx context.Context, url string) (string, error)
	Open(ctx context.Context, url string) (*objectstore.Object, string, error)
	ModerateURL(ctx context.Context, videoURL string) (*moderation.Verdict, error)
}

type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

// Server routes every endpoint of the API. It is the single handler set
// behind both the long-running server and the function adapter.
type Server struct {
	svc            Service
	maxUploadBytes int64
	handler        http.Handler
}

func NewServer(svc Service, opts Options) *Server {
	s := &Server{
		svc:            svc,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 100 << 20
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.Handle("/api/public-videos", route{http.MethodGet: s.publicVideos})
	mux.Handle("/api/upload-video", route{http.MethodPost: s.uploadVideo})
	mux.Handle("/api/update-video", route{http.MethodPost: s.updateVideo})
	mux.Handle("/api/delete-video", route{http.MethodPost: s.deleteVideo, http.MethodDelete: s.deleteVideo})
	mux.Handle("/api/register-channel", route{http.MethodPost: s.registerChannel})
	mux.Handle("/api/get-channel", route{http.MethodGet: s.getChannel})
	mux.Handle("/api/channels", route{http.MethodGet: s.channels})
	mux.Handle("/api/download-video", route{http.MethodGet: s.downloadVideo})
	mux.Handle("/api/moderate-video", route{http.MethodPost: s.moderateVideo})

	s.handler = Chain(
		RequestID,
		Logging,
		Recover,
		CORS(opts.CORSOrigins),
	)(mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// root serves the index and answers every unregistered path.
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		Error(w, http.StatusNotFound, "not_found", "route not found")
		return
	}
	route{http.MethodGet: s.index}.ServeHTTP(w, r)
}

// route dispatches one path by method.
type route map[string]http.HandlerFunc

func (rt route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.Method]; ok {
		h(w, r)
		return
	}

	allowed := make([]string, 0, len(rt)+1)
	for m := range rt {
		allowed = append(allowed, m)
	}
	allowed = append(allowed, http.MethodOptions)
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	Error(w, http.StatusMethodNotAllowed, "invalid", "method "+r.Method+" not allowed")
}

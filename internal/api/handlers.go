package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/KasumiMercury/tgclips-function-api/internal/video"
	"github.com/pkg/errors"
)

const (
	maxJSONBytes     = 1 << 20
	multipartMemory  = 32 << 20
	multipartOverrun = 1 << 20
)

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	Message(w, http.StatusOK, "tgclips api")
}

func (s *Server) publicVideos(w http.ResponseWriter, r *http.Request) {
	limit, err := getLimitQuery(r.URL)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}

	records, err := s.svc.ListPublic(r.Context(), limit)
	if err != nil {
		fail(w, r, "publicVideos", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type publishRequest struct {
	TelegramID  model.ID `json:"telegram_id"`
	VideoURL    string   `json:"videoUrl"`
	Description string   `json:"description"`
}

func (s *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	if isJSON(r) {
		var req publishRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		record, err := s.svc.Publish(r.Context(), video.PublishInput{
			TelegramID:  req.TelegramID,
			VideoURL:    req.VideoURL,
			Description: req.Description,
		})
		if err != nil {
			fail(w, r, "publishVideo", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "video published", "url": record.URL})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverrun)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "invalid", "file exceeds the upload limit")
			return
		}
		Error(w, http.StatusBadRequest, "invalid", "expected a multipart form with telegram_id and file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := video.UploadInput{
		TelegramID:  model.ID(strings.TrimSpace(r.PostFormValue("telegram_id"))),
		Description: r.PostFormValue("description"),
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in.Body = file
		in.Filename = header.Filename
		in.ContentType = header.Header.Get("Content-Type")
		in.Size = header.Size
	case errors.Is(err, http.ErrMissingFile):
		// Upload reports the missing file
	default:
		Error(w, http.StatusBadRequest, "invalid", "could not read file")
		return
	}

	record, err := s.svc.Upload(r.Context(), in)
	if err != nil {
		fail(w, r, "uploadVideo", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "video uploaded", "url": record.URL})
}

type updateRequest struct {
	URL          string            `json:"url"`
	Description  *string           `json:"description"`
	Views        []json.RawMessage `json:"views"`
	Likes        int64             `json:"likes"`
	Dislikes     int64             `json:"dislikes"`
	UserLikes    model.IDs         `json:"user_likes"`
	UserDislikes model.IDs         `json:"user_dislikes"`
	Comments     []json.RawMessage `json:"comments"`
	Shares       int64             `json:"shares"`
	ViewTime     float64           `json:"view_time"`
	Replays      int64             `json:"replays"`
	Duration     float64           `json:"duration"`
	LastPosition float64           `json:"last_position"`
	ChatMessages []json.RawMessage `json:"chat_messages"`
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := s.svc.Update(r.Context(), video.UpdateInput{
		URL:         req.URL,
		Description: req.Description,
		Engagement: model.Engagement{
			Views:        req.Views,
			Likes:        req.Likes,
			Dislikes:     req.Dislikes,
			UserLikes:    req.UserLikes,
			UserDislikes: req.UserDislikes,
			Comments:     req.Comments,
			Shares:       req.Shares,
			ViewTime:     req.ViewTime,
			Replays:      req.Replays,
			Duration:     req.Duration,
			LastPosition: req.LastPosition,
			ChatMessages: req.ChatMessages,
		},
	})
	if err != nil {
		fail(w, r, "updateVideo", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": record})
}

type deleteRequest struct {
	URL        string   `json:"url"`
	TelegramID model.ID `json:"telegram_id"`
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	// DELETE callers may pass the pair as query parameters
	q := r.URL.Query()
	if req.URL == "" {
		req.URL = q.Get("url")
	}
	if req.TelegramID == "" {
		req.TelegramID = model.ID(q.Get("telegram_id"))
	}

	if err := s.svc.Delete(r.Context(), req.URL, req.TelegramID); err != nil {
		fail(w, r, "deleteVideo", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "video deleted"})
}

// registerRequest also takes the userId/channelName spelling of older clients.
type registerRequest struct {
	TelegramID  model.ID `json:"telegram_id"`
	ChannelLink string   `json:"channel_link"`
	UserID      model.ID `json:"userId"`
	ChannelName string   `json:"channelName"`
}

func (s *Server) registerChannel(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TelegramID == "" {
		req.TelegramID = req.UserID
	}
	if req.ChannelLink == "" {
		req.ChannelLink = req.ChannelName
	}

	link, err := s.svc.RegisterChannel(r.Context(), req.TelegramID, strings.TrimSpace(req.ChannelLink))
	if err != nil {
		fail(w, r, "registerChannel", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": link})
}

func (s *Server) getChannel(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.GetChannel(r.Context(), model.ID(r.URL.Query().Get("telegram_id")))
	if err != nil {
		fail(w, r, "getChannel", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"channel_link": link.ChannelLink})
}

func (s *Server) channels(w http.ResponseWriter, r *http.Request) {
	links, err := s.svc.ListChannels(r.Context())
	if err != nil {
		fail(w, r, "channels", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) downloadVideo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	url := q.Get("url")

	if stream, _ := strconv.ParseBool(q.Get("stream")); !stream {
		signed, err := s.svc.DownloadURL(r.Context(), url)
		if err != nil {
			fail(w, r, "downloadVideo", err)
			return
		}
		http.Redirect(w, r, signed, http.StatusFound)
		return
	}

	obj, name, err := s.svc.Open(r.Context(), url)
	if err != nil {
		fail(w, r, "downloadVideo", err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.WarnContext(r.Context(), "Download interrupted",
			slog.Group("downloadVideo", "url", url, "error", err),
		)
	}
}

type moderateRequest struct {
	VideoURL string `json:"videoUrl"`
}

func (s *Server) moderateVideo(w http.ResponseWriter, r *http.Request) {
	var req moderateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verdict, err := s.svc.ModerateURL(r.Context(), req.VideoURL)
	if err != nil {
		fail(w, r, "moderateVideo", err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// decodeJSON reads a bounded JSON body into v and answers 400 itself when it
// cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "invalid", "request body is required")
	default:
		Error(w, http.StatusBadRequest, "invalid", "malformed JSON body: "+err.Error())
	}
	return false
}

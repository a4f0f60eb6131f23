package moderation

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Threshold is the probability above which a category rejects content.
const Threshold = 0.5

const models = "nudity-2.1,offensive,weapon,gore-2.0,violence"

// Verdict is the interpreted vendor response.
type Verdict struct {
	Approved bool               `json:"approved"`
	Scores   map[string]float64 `json:"scores"`
	Flagged  []string           `json:"flagged,omitempty"`
}

// Reason describes why the verdict rejected content.
func (v *Verdict) Reason() string {
	if v.Approved {
		return ""
	}
	return "content failed moderation: " + strings.Join(v.Flagged, ", ")
}

// category maps a verdict category to the places a vendor response may carry
// its score. A category scores the highest of its summary paths; without a
// summary it scores the highest of its frame paths over all frames.
type category struct {
	name    string
	summary []string
	frames  []string
}

var categories = []category{
	{
		name:    "nudity",
		summary: []string{"summary.nudity.sexual_activity", "summary.nudity.sexual_display", "summary.nudity.erotica"},
		frames:  []string{"nudity.sexual_activity", "nudity.sexual_display", "nudity.erotica"},
	},
	{name: "violence", summary: []string{"summary.violence.prob", "summary.violence"}, frames: []string{"violence.prob"}},
	{name: "weapons", summary: []string{"summary.weapon.prob", "summary.weapon"}, frames: []string{"weapon.prob", "weapon"}},
	{name: "gore", summary: []string{"summary.gore.prob", "summary.gore"}, frames: []string{"gore.prob"}},
	{name: "offensive", summary: []string{"summary.offensive.prob", "summary.offensive"}, frames: []string{"offensive.prob"}},
}

// Client talks to the Sightengine synchronous video check endpoint.
type Client struct {
	endpoint   string
	apiUser    string
	apiSecret  string
	httpClient *http.Client
}

func NewClient(endpoint, apiUser, apiSecret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		apiUser:    apiUser,
		apiSecret:  apiSecret,
		httpClient: httpClient,
	}
}

// CheckVideo submits a video buffer for classification.
func (c *Client) CheckVideo(ctx context.Context, data []byte, filename, contentType string) (*Verdict, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="media"; filename="`+escapeQuotes(filename)+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, errors.Wrap(err, "build moderation request")
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.Wrap(err, "build moderation request")
	}
	for k, v := range map[string]string{
		"models":     models,
		"api_user":   c.apiUser,
		"api_secret": c.apiSecret,
	} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, "build moderation request")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "build moderation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, errors.Wrap(err, "build moderation request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// CheckURL asks the vendor to fetch and classify a remote video.
func (c *Client) CheckURL(ctx context.Context, videoURL string) (*Verdict, error) {
	q := url.Values{}
	q.Set("url", videoURL)
	q.Set("models", models)
	q.Set("api_user", c.apiUser)
	q.Set("api_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build moderation request")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Verdict, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call moderation vendor")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read moderation response")
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.Errorf("moderation vendor returned %d with a non-JSON body", resp.StatusCode)
	}

	res := gjson.ParseBytes(raw)
	if status := res.Get("status").String(); resp.StatusCode != http.StatusOK || status != "success" {
		msg := res.Get("error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, errors.Errorf("moderation vendor rejected the request (%d): %s", resp.StatusCode, msg)
	}

	return interpret(res), nil
}

// interpret scores every category and flags those above Threshold.
func interpret(res gjson.Result) *Verdict {
	v := &Verdict{Approved: true, Scores: make(map[string]float64, len(categories))}
	for _, cat := range categories {
		score := scoreOf(res, cat)
		v.Scores[cat.name] = score
		if score > Threshold {
			v.Flagged = append(v.Flagged, cat.name)
		}
	}
	sort.Strings(v.Flagged)
	v.Approved = len(v.Flagged) == 0
	return v
}

func scoreOf(res gjson.Result, cat category) float64 {
	var max float64
	summarized := false
	for _, path := range cat.summary {
		if r := res.Get(path); r.Type == gjson.Number {
			summarized = true
			if r.Float() > max {
				max = r.Float()
			}
		}
	}
	if summarized {
		return max
	}

	for _, frame := range res.Get("data.frames").Array() {
		for _, path := range cat.frames {
			if r := frame.Get(path); r.Type == gjson.Number && r.Float() > max {
				max = r.Float()
			}
		}
	}
	return max
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

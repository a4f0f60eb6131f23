package moderation

import (
	"context"
	"sort"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// policyCategories are the Natural Language moderation categories that
// reject a description. Topical ones (Politics, Finance, ...) are ignored.
var policyCategories = map[string]bool{
	"Toxic":              true,
	"Insult":             true,
	"Profanity":          true,
	"Derogatory":         true,
	"Sexual":             true,
	"Violent":            true,
	"Firearms & Weapons": true,
	"Illicit Drugs":      true,
}

type textModerationAPI interface {
	ModerateText(ctx context.Context, req *languagepb.ModerateTextRequest, opts ...gax.CallOption) (*languagepb.ModerateTextResponse, error)
}

// TextClient checks free text with Cloud Natural Language.
type TextClient struct {
	api textModerationAPI
}

// NewTextClient dials the Natural Language API. credentialsFile may be empty
// to use application default credentials.
func NewTextClient(ctx context.Context, credentialsFile string) (*TextClient, func() error, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := language.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create language client")
	}
	return &TextClient{api: client}, client.Close, nil
}

// CheckText scores text against policyCategories.
func (c *TextClient) CheckText(ctx context.Context, text string) (*Verdict, error) {
	v := &Verdict{Approved: true, Scores: map[string]float64{}}
	if text == "" {
		return v, nil
	}

	resp, err := c.api.ModerateText(ctx, &languagepb.ModerateTextRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type: languagepb.Document_PLAIN_TEXT,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "moderate text")
	}

	for _, cat := range resp.GetModerationCategories() {
		if !policyCategories[cat.GetName()] {
			continue
		}
		score := float64(cat.GetConfidence())
		v.Scores[cat.GetName()] = score
		if score > Threshold {
			v.Flagged = append(v.Flagged, cat.GetName())
		}
	}
	sort.Strings(v.Flagged)
	v.Approved = len(v.Flagged) == 0
	return v, nil
}

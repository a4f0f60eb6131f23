package model

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// VideoRecord is one row of the public_videos table.
// Engagement sequences are stored as JSON so clients may keep their own shapes.
type VideoRecord struct {
	bun.BaseModel `bun:"table:public_videos,alias:v"`

	URL          string            `bun:"url,pk" json:"url"`
	AuthorID     ID                `bun:"author_id,notnull" json:"author_id"`
	Description  string            `bun:"description,notnull,default:''" json:"description"`
	IsPublic     bool              `bun:"is_public,notnull,default:false" json:"is_public"`
	Views        []json.RawMessage `bun:"views,type:jsonb,nullzero" json:"views"`
	Likes        int64             `bun:"likes,notnull,default:0" json:"likes"`
	Dislikes     int64             `bun:"dislikes,notnull,default:0" json:"dislikes"`
	UserLikes    IDs               `bun:"user_likes,type:jsonb,nullzero" json:"user_likes"`
	UserDislikes IDs               `bun:"user_dislikes,type:jsonb,nullzero" json:"user_dislikes"`
	Comments     []json.RawMessage `bun:"comments,type:jsonb,nullzero" json:"comments"`
	Shares       int64             `bun:"shares,notnull,default:0" json:"shares"`
	ViewTime     float64           `bun:"view_time,notnull,default:0" json:"view_time"`
	Replays      int64             `bun:"replays,notnull,default:0" json:"replays"`
	Duration     float64           `bun:"duration,notnull,default:0" json:"duration"`
	LastPosition float64           `bun:"last_position,notnull,default:0" json:"last_position"`
	ChatMessages []json.RawMessage `bun:"chat_messages,type:jsonb,nullzero" json:"chat_messages"`
	Timestamp    time.Time         `bun:"timestamp,notnull" json:"timestamp"`
	UpdatedAt    time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// Normalize replaces nil sequences with empty ones so records always
// serialize engagement fields as [] rather than null.
func (v *VideoRecord) Normalize() {
	if v.Views == nil {
		v.Views = []json.RawMessage{}
	}
	if v.UserLikes == nil {
		v.UserLikes = IDs{}
	}
	if v.UserDislikes == nil {
		v.UserDislikes = IDs{}
	}
	if v.Comments == nil {
		v.Comments = []json.RawMessage{}
	}
	if v.ChatMessages == nil {
		v.ChatMessages = []json.RawMessage{}
	}
}

// Engagement holds the counters a client may overwrite through update-video.
type Engagement struct {
	Views        []json.RawMessage
	Likes        int64
	Dislikes     int64
	UserLikes    IDs
	UserDislikes IDs
	Comments     []json.RawMessage
	Shares       int64
	ViewTime     float64
	Replays      int64
	Duration     float64
	LastPosition float64
	ChatMessages []json.RawMessage
}

// ChannelLink is one row of the users table.
type ChannelLink struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	TelegramID  ID        `bun:"telegram_id,pk" json:"telegram_id"`
	ChannelLink string    `bun:"channel_link,notnull" json:"channel_link"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

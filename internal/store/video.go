package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// VideoStore persists VideoRecords in the public_videos table.
type VideoStore struct {
	db bun.IDB
}

func NewVideoStore(db bun.IDB) *VideoStore {
	return &VideoStore{db: db}
}

// ListPublic returns public records, newest first. limit <= 0 means no cap.
func (s *VideoStore) ListPublic(ctx context.Context, limit int) ([]model.VideoRecord, error) {
	records := make([]model.VideoRecord, 0)
	q := s.db.NewSelect().
		Model(&records).
		Where("? = ?", bun.Ident("is_public"), true).
		OrderExpr("? DESC", bun.Ident("timestamp"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, "select public videos")
	}

	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

// Get returns the record stored under url, or nil when there is none.
func (s *VideoStore) Get(ctx context.Context, url string) (*model.VideoRecord, error) {
	record := new(model.VideoRecord)
	err := s.db.NewSelect().Model(record).Where("? = ?", bun.Ident("url"), url).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select video")
	}

	record.Normalize()
	return record, nil
}

// Insert adds a new record. A taken url fails with ErrDuplicate.
func (s *VideoStore) Insert(ctx context.Context, record *model.VideoRecord) error {
	record.Normalize()
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if duplicate(err) {
			return errors.Wrapf(ErrDuplicate, "insert video %s", record.URL)
		}
		return errors.Wrap(err, "insert video")
	}
	return nil
}

// UpsertEngagement overwrites the engagement fields of the record at url,
// creating a private ownerless record when none exists. description is only
// written when non-nil.
func (s *VideoStore) UpsertEngagement(ctx context.Context, url string, e model.Engagement, description *string, now time.Time) (*model.VideoRecord, error) {
	record := &model.VideoRecord{
		URL:          url,
		Views:        e.Views,
		Likes:        e.Likes,
		Dislikes:     e.Dislikes,
		UserLikes:    e.UserLikes,
		UserDislikes: e.UserDislikes,
		Comments:     e.Comments,
		Shares:       e.Shares,
		ViewTime:     e.ViewTime,
		Replays:      e.Replays,
		Duration:     e.Duration,
		LastPosition: e.LastPosition,
		ChatMessages: e.ChatMessages,
		Timestamp:    now,
		UpdatedAt:    now,
	}
	if description != nil {
		record.Description = *description
	}
	record.Normalize()

	q := s.db.NewInsert().
		Model(record).
		On("CONFLICT (url) DO UPDATE")
	for _, col := range engagementColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
	}
	if description != nil {
		q = q.Set("? = EXCLUDED.?", bun.Ident("description"), bun.Ident("description"))
	}

	if _, err := q.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "upsert video")
	}

	// Fetch the record to return the merged row
	return s.Get(ctx, url)
}

// Delete removes the record at url and reports how many rows went away.
func (s *VideoStore) Delete(ctx context.Context, url string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*model.VideoRecord)(nil)).
		Where("? = ?", bun.Ident("url"), url).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "delete video")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "delete video")
	}
	return n, nil
}

var engagementColumns = []string{
	"views",
	"likes",
	"dislikes",
	"user_likes",
	"user_dislikes",
	"comments",
	"shares",
	"view_time",
	"replays",
	"duration",
	"last_position",
	"chat_messages",
	"updated_at",
}

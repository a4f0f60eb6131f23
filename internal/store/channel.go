package store

import (
	"context"
	"database/sql"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// ChannelStore persists ChannelLinks in the users table.
type ChannelStore struct {
	db bun.IDB
}

func NewChannelStore(db bun.IDB) *ChannelStore {
	return &ChannelStore{db: db}
}

// Upsert stores link keyed by its telegram id; the last write wins.
func (s *ChannelStore) Upsert(ctx context.Context, link *model.ChannelLink) (*model.ChannelLink, error) {
	_, err := s.db.NewInsert().
		Model(link).
		On("CONFLICT (telegram_id) DO UPDATE").
		Set("? = EXCLUDED.?", bun.Ident("channel_link"), bun.Ident("channel_link")).
		Set("? = EXCLUDED.?", bun.Ident("updated_at"), bun.Ident("updated_at")).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "upsert channel")
	}

	return s.Get(ctx, link.TelegramID)
}

// Get returns the link registered for id, or nil when there is none.
func (s *ChannelStore) Get(ctx context.Context, id model.ID) (*model.ChannelLink, error) {
	link := new(model.ChannelLink)
	err := s.db.NewSelect().Model(link).Where("? = ?", bun.Ident("telegram_id"), string(id)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select channel")
	}
	return link, nil
}

// List returns every registered link ordered by telegram id.
func (s *ChannelStore) List(ctx context.Context) ([]model.ChannelLink, error) {
	links := make([]model.ChannelLink, 0)
	err := s.db.NewSelect().Model(&links).OrderExpr("? ASC", bun.Ident("telegram_id")).Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "select channels")
	}
	return links, nil
}

package store

import (
	"context"
	"database/sql"

	"github.com/KasumiMercury/tgclips-function-api/internal/model"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunotel"
)

// NewDBClient opens the hosted Postgres database behind dsn.
func NewDBClient(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName("tgclips")))
	return db
}

// Migrate creates the tables and indexes the stores rely on when they do not exist yet.
func Migrate(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*model.VideoRecord)(nil),
		(*model.ChannelLink)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrapf(err, "create table for %T", m)
		}
	}

	_, err := db.NewCreateIndex().
		Model((*model.VideoRecord)(nil)).
		Index("public_videos_public_timestamp_idx").
		Column("is_public", "timestamp").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "create public_videos index")
	}

	return nil
}

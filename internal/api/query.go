package api

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const maxLimit = 1000

// getLimitQuery reads the optional "limit" query parameter.
// 0 means the caller did not ask for a cap.
func getLimitQuery(u *url.URL) (int, error) {
	group := slog.Group("getLimitQuery")

	limit := u.Query().Get("limit")
	if limit == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(limit)
	if err != nil || n < 1 {
		slog.Info("limit rejected because of invalid value", group)
		return 0, errors.Errorf("limit must be a positive integer, got %q", limit)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

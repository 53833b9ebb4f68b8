package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit fills a four-column product grid six rows deep.
	DefaultLimit = 24
	// MaxLimit caps how many rows a single listing can return.
	MaxLimit = 96
)

// ErrInvalidCursor is returned for cursors this package did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params are the paging inputs a listing endpoint accepts.
type Params struct {
	Limit  int
	Cursor string
}

// Size is the normalized page size.
func (p Params) Size() int {
	return NormalizeLimit(p.Limit)
}

// Fetch is the row count to query: one past the page so a next page can be detected.
func (p Params) Fetch() int {
	return p.Size() + 1
}

// Cursor is the keyset position of the last row on a page. Listings are
// ordered newest first with the id breaking ties.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor renders a cursor safe to drop into a query string unescaped.
func EncodeCursor(cursor Cursor) string {
	payload := strconv.FormatInt(cursor.CreatedAt.UTC().UnixNano(), 10) + "." + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor from EncodeCursor. An empty value means the
// first page and yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	nanos, id, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}
	ts, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}
	return &Cursor{CreatedAt: time.Unix(0, ts).UTC(), ID: parsedID}, nil
}

// Trim cuts rows fetched with Params.Fetch down to one page and returns the
// cursor for the next page, or "" on the last page.
func Trim[T any](rows []T, params Params, position func(T) Cursor) ([]T, string) {
	size := params.Size()
	if len(rows) <= size {
		return rows, ""
	}
	rows = rows[:size]
	return rows, EncodeCursor(position(rows[len(rows)-1]))
}

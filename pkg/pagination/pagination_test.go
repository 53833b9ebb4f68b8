package pagination

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorSurvivesQueryString(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(want)
	if url.QueryEscape(encoded) != encoded {
		t.Fatalf("cursor %q needs escaping", encoded)
	}

	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseCursorRejectsForeignValues(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should mean first page, got %+v %v", c, err)
	}
	for _, value := range []string{"%%%", "bm8tc2VwYXJhdG9y", "YWJjLm5vdC1hLXV1aWQ"} {
		if _, err := ParseCursor(value); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("%q: expected ErrInvalidCursor, got %v", value, err)
		}
	}
}

func TestTrimReportsNextPage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Hour), ID: uuid.New()}
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, Params{Limit: 3}, identity)
	if len(page) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page))
	}
	cursor, err := ParseCursor(next)
	if err != nil || cursor == nil || cursor.ID != rows[2].ID {
		t.Fatalf("next cursor should point at the last row kept, got %+v %v", cursor, err)
	}

	page, next = Trim(rows[:3], Params{Limit: 3}, identity)
	if len(page) != 3 || next != "" {
		t.Fatalf("last page must not carry a cursor, got %d rows and %q", len(page), next)
	}
}

func TestParamsClampLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -4: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		p := Params{Limit: in}
		if p.Size() != want || p.Fetch() != want+1 {
			t.Fatalf("limit %d: expected size %d, got %d/%d", in, want, p.Size(), p.Fetch())
		}
	}
}

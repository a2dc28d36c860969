package util

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseDayFirst(t *testing.T) {
    cases := map[string]time.Time{
        "01/12/2010 08:26":    time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC),
        "1/12/2010 8:26":      time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC),
        "13/01/2011":          time.Date(2011, 1, 13, 0, 0, 0, 0, time.UTC),
        "13-01-2011 10:00":    time.Date(2011, 1, 13, 10, 0, 0, 0, time.UTC),
        "13.01.2011":          time.Date(2011, 1, 13, 0, 0, 0, 0, time.UTC),
        "2011-01-13 10:00:05": time.Date(2011, 1, 13, 10, 0, 5, 0, time.UTC),
        "2011-01-13":          time.Date(2011, 1, 13, 0, 0, 0, 0, time.UTC),
    }
    for in, want := range cases {
        got, ok := ParseDayFirst(in)
        require.True(t, ok, in)
        assert.True(t, want.Equal(got), "%s: got %v", in, got)
    }
}

func TestParseDayFirstRejects(t *testing.T) {
    for _, in := range []string{"", "not a date", "32/01/2011", "01/13/2011", "2011-13-01"} {
        _, ok := ParseDayFirst(in)
        assert.False(t, ok, in)
    }
}

func TestWeekEnding(t *testing.T) {
    sunday := time.Date(2011, 1, 2, 15, 30, 0, 0, time.UTC)
    assert.Equal(t, time.Date(2011, 1, 2, 0, 0, 0, 0, time.UTC), WeekEnding(sunday))

    monday := time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC)
    assert.Equal(t, time.Date(2011, 1, 9, 0, 0, 0, 0, time.UTC), WeekEnding(monday))

    saturday := time.Date(2011, 1, 8, 23, 59, 0, 0, time.UTC)
    assert.Equal(t, time.Date(2011, 1, 9, 0, 0, 0, 0, time.UTC), WeekEnding(saturday))
}

func TestWeeklyRange(t *testing.T) {
    last := time.Date(2011, 1, 16, 0, 0, 0, 0, time.UTC)
    got := WeeklyRange(last.AddDate(0, 0, 1), 2)
    require.Len(t, got, 2)
    assert.Equal(t, "2011-01-23", got[0].Format(ISODate))
    assert.Equal(t, "2011-01-30", got[1].Format(ISODate))
    assert.Nil(t, WeeklyRange(last, 0))
}

func TestParseQuantity(t *testing.T) {
    v, ok := ParseQuantity(" 12 ")
    assert.True(t, ok)
    assert.Equal(t, int64(12), v)

    v, ok = ParseQuantity("-5.0")
    assert.True(t, ok)
    assert.Equal(t, int64(-5), v)

    _, ok = ParseQuantity("1.5")
    assert.False(t, ok)
}

func TestNormalizeHeader(t *testing.T) {
    assert.Equal(t, "stockcode", NormalizeHeader("\ufeffStock Code"))
    assert.Equal(t, "invoicedate", NormalizeHeader("invoice_date"))
}

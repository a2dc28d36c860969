package sales

import (
    "testing"

    "DemandCast/internal/domain/models"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func rec(code, ts string, qty int64, price string) models.TransactionRecord {
    return models.TransactionRecord{
        ProductCode: code,
        Timestamp:   ts,
        Quantity:    qty,
        UnitPrice:   decimal.RequireFromString(price),
    }
}

func TestCleanDropsNegativeAndBadDates(t *testing.T) {
    raw := []models.TransactionRecord{
        rec("A", "01/12/2010 08:26", 6, "2.55"),
        rec("A", "01/12/2010 09:00", -5, "2.55"),
        rec("B", "not a date", 3, "1.00"),
        rec("B", "02/12/2010", 0, "1.00"),
    }

    rep, err := Clean(raw)
    require.NoError(t, err)

    assert.Equal(t, 4, rep.Input)
    assert.Equal(t, 1, rep.DroppedNegative)
    assert.Equal(t, 1, rep.DroppedBadDate)
    require.Len(t, rep.Rows, 2)

    for _, r := range rep.Rows {
        assert.GreaterOrEqual(t, r.Quantity, int64(0))
        assert.False(t, r.Date.IsZero())
    }
    assert.True(t, decimal.RequireFromString("15.30").Equal(rep.Rows[0].Revenue))
    assert.True(t, rep.Rows[1].Revenue.IsZero())
}

func TestCleanEmptyInput(t *testing.T) {
    _, err := Clean(nil)
    assert.ErrorIs(t, err, models.ErrEmptyDataset)
}

func TestCleanAllMalformedDates(t *testing.T) {
    rep, err := Clean([]models.TransactionRecord{rec("A", "??", 1, "1"), rec("A", "", 2, "1")})
    require.NoError(t, err)
    assert.Empty(t, rep.Rows)
    assert.Equal(t, 2, rep.DroppedBadDate)
}

package sales

import (
    "fmt"

    "DemandCast/internal/domain/models"
    "DemandCast/pkg/util"

    "github.com/shopspring/decimal"
)

// CleanReport is the cleaned dataset plus what was thrown away.
type CleanReport struct {
    Rows            []models.CleanedTransaction
    Input           int
    DroppedNegative int
    DroppedBadDate  int
}

// Clean drops returns (Quantity < 0) and rows whose timestamp does not parse
// day-first, and derives Revenue for the rest. Zero quantities are kept.
// Only an empty input is an error; a table of malformed dates cleans to an
// empty collection.
func Clean(raw []models.TransactionRecord) (CleanReport, error) {
    if len(raw) == 0 {
        return CleanReport{}, fmt.Errorf("clean: %w", models.ErrEmptyDataset)
    }
    rep := CleanReport{
        Rows:  make([]models.CleanedTransaction, 0, len(raw)),
        Input: len(raw),
    }
    for _, r := range raw {
        if r.Quantity < 0 {
            rep.DroppedNegative++
            continue
        }
        date, ok := util.ParseDayFirst(r.Timestamp)
        if !ok {
            rep.DroppedBadDate++
            continue
        }
        rep.Rows = append(rep.Rows, models.CleanedTransaction{
            TransactionRecord: r,
            Date:              date,
            Revenue:           decimal.NewFromInt(r.Quantity).Mul(r.UnitPrice),
        })
    }
    return rep, nil
}

package sales

import (
    "sort"
    "time"

    "DemandCast/internal/domain/models"
    "DemandCast/pkg/util"
)

// WeeklyOptions tunes weekly aggregation.
type WeeklyOptions struct {
    // ZeroFillGaps inserts zero-quantity weeks between the first and last
    // week that had sales. Off by default: only weeks with at least one
    // transaction are emitted.
    ZeroFillGaps bool
}

// WeeklySeries buckets one product's transactions into weeks ending Sunday and
// sums quantity per week. An unknown product yields an empty series.
func WeeklySeries(rows []models.CleanedTransaction, productCode string, opts WeeklyOptions) models.WeeklySalesSeries {
    out := models.WeeklySalesSeries{ProductCode: productCode}

    buckets := make(map[time.Time]int64)
    for _, r := range rows {
        if r.ProductCode != productCode {
            continue
        }
        buckets[util.WeekEnding(r.Date)] += r.Quantity
    }
    if len(buckets) == 0 {
        return out
    }

    weeks := make([]time.Time, 0, len(buckets))
    for w := range buckets {
        weeks = append(weeks, w)
    }
    sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

    if opts.ZeroFillGaps {
        first, last := weeks[0], weeks[len(weeks)-1]
        weeks = weeks[:0]
        for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
            weeks = append(weeks, w)
        }
    }

    out.Points = make([]models.WeeklyPoint, len(weeks))
    for i, w := range weeks {
        out.Points[i] = models.WeeklyPoint{WeekEnding: w, Quantity: float64(buckets[w])}
    }
    return out
}

// GroupByProduct indexes rows by product code, preserving row order.
func GroupByProduct(rows []models.CleanedTransaction) map[string][]models.CleanedTransaction {
    out := make(map[string][]models.CleanedTransaction)
    for _, r := range rows {
        out[r.ProductCode] = append(out[r.ProductCode], r)
    }
    return out
}

package sales

import (
    "sort"

    "DemandCast/internal/domain/models"
)

// DefaultRankLimit is the size of the selectable product set.
const DefaultRankLimit = 10

// RankProducts sums quantity per product and returns the top limit products,
// highest first. Equal totals keep first-seen order.
func RankProducts(rows []models.CleanedTransaction, limit int) models.ProductRanking {
    if limit <= 0 {
        limit = DefaultRankLimit
    }
    idx := make(map[string]int)
    totals := make([]models.ProductTotal, 0)
    for _, r := range rows {
        i, ok := idx[r.ProductCode]
        if !ok {
            i = len(totals)
            idx[r.ProductCode] = i
            totals = append(totals, models.ProductTotal{ProductCode: r.ProductCode})
        }
        totals[i].TotalQuantity += r.Quantity
    }
    sort.SliceStable(totals, func(a, b int) bool {
        return totals[a].TotalQuantity > totals[b].TotalQuantity
    })
    if len(totals) > limit {
        totals = totals[:limit]
    }
    return models.ProductRanking(totals)
}

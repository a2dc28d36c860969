package util

import (
    "strconv"
    "strings"
)

// NormalizeHeader lower-cases a column header and strips spaces and
// underscores, so "Stock Code", "stock_code" and "StockCode" compare equal.
func NormalizeHeader(s string) string {
    s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
    s = strings.ToLower(s)
    return strings.NewReplacer(" ", "", "_", "").Replace(s)
}

// ParseQuantity parses an integer quantity. Whole-number floats ("6.0") are
// accepted because spreadsheet exports often emit them.
func ParseQuantity(s string) (int64, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return 0, false
    }
    if v, err := strconv.ParseInt(s, 10, 64); err == nil {
        return v, true
    }
    f, err := strconv.ParseFloat(s, 64)
    if err != nil || f != float64(int64(f)) {
        return 0, false
    }
    return int64(f), true
}

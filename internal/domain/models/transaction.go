package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one raw POS row as read from a source. Nothing about it
// is trusted: the timestamp is unparsed and quantity may be negative (returns).
type TransactionRecord struct {
	ProductCode string
	Timestamp   string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Source      string // location the row was loaded from
}

// CleanedTransaction is a TransactionRecord that passed cleaning: Quantity >= 0
// and Date holds the parsed timestamp.
type CleanedTransaction struct {
	TransactionRecord
	Date    time.Time
	Revenue decimal.Decimal
}

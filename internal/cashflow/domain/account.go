package cashflow

// Account is the single process-wide liquidity record. Both buckets are kept
// non-negative by policy; TotalBalance is always the sum of the two.
type Account struct {
	CashBalance   int64 `json:"cashBalance"`
	OnlineBalance int64 `json:"onlineBalance"`
	TotalBalance  int64 `json:"totalBalance"`
}

// Bucket names one of the two liquidity buckets.
type Bucket string

const (
	BucketCash   Bucket = "cash"
	BucketOnline Bucket = "online"
)

// Direction names a manual adjustment direction.
type Direction string

const (
	DirectionAdd      Direction = "add"
	DirectionSubtract Direction = "subtract"
)

// Normalized returns the account with TotalBalance recomputed.
func (a Account) Normalized() Account {
	a.TotalBalance = a.CashBalance + a.OnlineBalance
	return a
}

// Credit adds received money to the buckets. No upper bound applies.
func (a Account) Credit(cash, online int64) Account {
	a.CashBalance += cash
	a.OnlineBalance += online
	return a.Normalized()
}

// Debit removes paid-out money, clamping each bucket at zero. The clamp
// silently absorbs an overdraw instead of failing the payment.
func (a Account) Debit(cash, online int64) Account {
	a.CashBalance = clampZero(a.CashBalance - cash)
	a.OnlineBalance = clampZero(a.OnlineBalance - online)
	return a.Normalized()
}

func clampZero(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}

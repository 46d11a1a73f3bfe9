package domain

import "time"

// Contribution is a collection drive with a per-member target amount.
type Contribution struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	TargetAmount Money     `json:"targetAmount" swaggertype:"number"`
	DueDate      *Date     `json:"dueDate,omitempty"`
	CreatedBy    uint      `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PaymentEntry struct {
	Amount     Money     `json:"amount" swaggertype:"number"`
	PaidAt     time.Time `json:"paidAt"`
	Note       string    `json:"note,omitempty"`
	RecordedBy uint      `json:"recordedBy"`
	Reference  string    `json:"reference"`
}

// PaymentLedger is one member's running total for a contribution. The
// history is append-only.
type PaymentLedger struct {
	ContributionID uint           `json:"contributionId"`
	UserID         uint           `json:"userId"`
	UserName       string         `json:"userName,omitempty"`
	AmountPaid     Money          `json:"amountPaid" swaggertype:"number"`
	IsPaid         bool           `json:"isPaid"`
	PaymentHistory []PaymentEntry `json:"paymentHistory"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (l *PaymentLedger) ApplyPayment(target Money, entry PaymentEntry) {
	l.PaymentHistory = append(l.PaymentHistory, entry)
	l.AmountPaid += entry.Amount
	l.IsPaid = l.AmountPaid >= target
}

// Remaining is what is still owed, never negative.
func (l PaymentLedger) Remaining(target Money) Money {
	if l.AmountPaid >= target {
		return 0
	}
	return target - l.AmountPaid
}

// MarkFullyPaid records the outstanding balance as a single entry. It returns
// false when nothing is owed.
func (l *PaymentLedger) MarkFullyPaid(target Money, entry PaymentEntry) bool {
	remaining := l.Remaining(target)
	if remaining <= 0 {
		l.IsPaid = true
		return false
	}
	entry.Amount = remaining
	l.ApplyPayment(target, entry)
	return true
}

type ContributionDetail struct {
	Contribution
	Payments       []PaymentLedger `json:"payments"`
	TotalCollected Money           `json:"totalCollected" swaggertype:"number"`
	PaidCount      int             `json:"paidCount"`
}

func NewContributionDetail(c Contribution, ledgers []PaymentLedger) ContributionDetail {
	detail := ContributionDetail{Contribution: c, Payments: ledgers}
	if detail.Payments == nil {
		detail.Payments = []PaymentLedger{}
	}
	for _, l := range ledgers {
		detail.TotalCollected += l.AmountPaid
		if l.IsPaid {
			detail.PaidCount++
		}
	}
	return detail
}

// UserContribution is a contribution seen from one member's side.
type UserContribution struct {
	Contribution Contribution  `json:"contribution"`
	Ledger       PaymentLedger `json:"ledger"`
	Remaining    Money         `json:"remaining" swaggertype:"number"`
}

// Package ledger computes the payment position of a share: what it pledged through its bets
// and what it paid through deposits.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/solawi/internal/models"
)

// MonthsDue returns how many monthly installments of a bet are payable on today.
// Every calendar month from the month of start through the month of min(end, today) counts,
// so a bet starting on the 20th is due for that whole month.
func MonthsDue(start models.Date, end *models.Date, today models.Date) int {
	if start.After(today) {
		return 0
	}
	last := today
	if end != nil && end.Before(today) {
		last = *end
	}
	if last.Before(start) {
		return 0
	}
	return last.MonthIndex() - start.MonthIndex() + 1
}

// ExpectedForBet returns the amount a single bet requires up to today.
func ExpectedForBet(bet models.Bet, today models.Date) decimal.Decimal {
	months := MonthsDue(bet.StartDate, bet.EndDate, today)
	return bet.Value.Mul(decimal.NewFromInt(int64(months)))
}

// Expected returns the total amount due for all bets up to today.
func Expected(bets []models.Bet, today models.Date) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(ExpectedForBet(b, today))
	}
	return total
}

// TotalDeposits sums deposits that are neither ignored nor security deposits.
func TotalDeposits(deposits []models.Deposit) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deposits {
		if d.Counts() {
			total = total.Add(d.Amount)
		}
	}
	return total
}

// CountDeposits counts deposits included in TotalDeposits.
func CountDeposits(deposits []models.Deposit) int {
	n := 0
	for _, d := range deposits {
		if d.Counts() {
			n++
		}
	}
	return n
}

// IsActive reports whether any bet covers today.
func IsActive(bets []models.Bet, today models.Date) bool {
	for _, b := range bets {
		if b.StartDate.After(today) {
			continue
		}
		if b.EndDate == nil || !b.EndDate.Before(today) {
			return true
		}
	}
	return false
}

// JoinDate returns the earliest bet start, or nil for a share without bets.
func JoinDate(bets []models.Bet) *models.Date {
	var first *models.Date
	for i := range bets {
		if first == nil || bets[i].StartDate.Before(*first) {
			d := bets[i].StartDate
			first = &d
		}
	}
	return first
}

// Details computes the ledger position of share as of today.
func Details(share models.Share, deposits []models.Deposit, today models.Date) models.ShareDetails {
	expected := Expected(share.Bets, today)
	total := TotalDeposits(deposits)
	return models.ShareDetails{
		Share:           share,
		JoinDate:        JoinDate(share.Bets),
		CurrentlyActive: !share.Archived && IsActive(share.Bets, today),
		ExpectedToday:   expected,
		TotalDeposits:   total,
		DifferenceToday: total.Sub(expected),
	}
}

// Status computes the payment overview row for share.
func Status(share models.Share, stationName string, deposits []models.Deposit, today models.Date) models.PaymentStatus {
	expected := Expected(share.Bets, today)
	total := TotalDeposits(deposits)
	return models.PaymentStatus{
		ID:               share.ID,
		Name:             share.DisplayName(),
		TotalDeposits:    total,
		NumberOfDeposits: CountDeposits(deposits),
		Archived:         share.Archived,
		Note:             share.Note,
		StationName:      stationName,
		ExpectedToday:    expected,
		DifferenceToday:  total.Sub(expected),
	}
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Station is a pickup depot where shares are delivered.
type Station struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Share is a harvest share held by one or more members.
type Share struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	StationID *int64   `json:"station_id"`
	Note      *string  `json:"note"`
	Archived  bool     `json:"archived"`
	Bets      []Bet    `json:"bets"`
	Members   []Member `json:"members"`
}

// DisplayName returns the stored name, falling back to the member names.
func (s Share) DisplayName() string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	names := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		names = append(names, m.Name)
	}
	return strings.Join(names, " & ")
}

// Member is a person holding a share.
type Member struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	ShareID int64   `json:"share_id"`
}

// MemberListing is a member row of the members overview.
type MemberListing struct {
	Member
	StationName string `json:"station_name"`
	JoinDate    *Date  `json:"join_date"`
	Active      bool   `json:"active"`
}

// Person is a bank account holder whose payments are booked to a share.
type Person struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	ShareID  int64     `json:"share_id"`
	Deposits []Deposit `json:"deposits,omitempty"`
}

// Deposit is an incoming payment of a person.
type Deposit struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  Date            `json:"timestamp"`
	Title      string          `json:"title"`
	PersonID   int64           `json:"person_id"`
	PersonName string          `json:"person_name,omitempty"`
	Ignore     bool            `json:"ignore"`
	IsSecurity bool            `json:"is_security"`
	AddedBy    *int64          `json:"added_by"`
}

// Counts reports whether the deposit counts towards paid contributions.
func (d Deposit) Counts() bool {
	return !d.Ignore && !d.IsSecurity
}

// Bet is the monthly amount a share pledged for a period. EndDate nil means open-ended.
type Bet struct {
	ID        int64           `json:"id"`
	ShareID   int64           `json:"share_id"`
	Value     decimal.Decimal `json:"value"`
	StartDate Date            `json:"start_date"`
	EndDate   *Date           `json:"end_date"`
}

// User is a bookkeeper account.
type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"password_changed_at"`
}

// UserSummary is the public view of a user in listings.
type UserSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// ShareDetails is a share with its ledger position as of a day.
type ShareDetails struct {
	Share
	JoinDate        *Date           `json:"join_date"`
	CurrentlyActive bool            `json:"currently_active"`
	ExpectedToday   decimal.Decimal `json:"expected_today"`
	TotalDeposits   decimal.Decimal `json:"total_deposits"`
	DifferenceToday decimal.Decimal `json:"difference_today"`
}

// PaymentStatus is one row of the payment overview.
type PaymentStatus struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	NumberOfDeposits int             `json:"number_of_deposits"`
	Archived         bool            `json:"archived"`
	Note             *string         `json:"note"`
	StationName      string          `json:"station_name"`
	ExpectedToday    decimal.Decimal `json:"expected_today"`
	DifferenceToday  decimal.Decimal `json:"difference_today"`
}

// BankTransaction is one parsed line of a bank statement.
type BankTransaction struct {
	Line   int
	Date   Date
	Name   string
	Title  string
	Amount decimal.Decimal
}

// ImportResult summarizes a bank statement import.
type ImportResult struct {
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	NewPersons int `json:"new_persons"`
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/store"
)

// DepositInput books a payment by hand.
type DepositInput struct {
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  models.Date     `json:"timestamp"`
	Title      string          `json:"title"`
	PersonID   int64           `json:"person_id"`
	Ignore     bool            `json:"ignore"`
	IsSecurity bool            `json:"is_security"`
}

// DepositPatch toggles the flags of a deposit.
type DepositPatch struct {
	Ignore     *bool `json:"ignore"`
	IsSecurity *bool `json:"is_security"`
}

// CreateDeposit books in for person in.PersonID, recording addedBy as author.
func (s *Service) CreateDeposit(ctx context.Context, in DepositInput, addedBy int64) (models.Deposit, error) {
	if in.Timestamp.IsZero() {
		return models.Deposit{}, invalidf("timestamp is required")
	}
	if _, err := s.store.GetPerson(ctx, in.PersonID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Deposit{}, invalidf("unknown person %d", in.PersonID)
		}
		return models.Deposit{}, err
	}
	id, err := s.store.CreateDeposit(ctx, models.Deposit{
		Amount:     in.Amount,
		Timestamp:  in.Timestamp,
		Title:      in.Title,
		PersonID:   in.PersonID,
		Ignore:     in.Ignore,
		IsSecurity: in.IsSecurity,
		AddedBy:    &addedBy,
	})
	if err != nil {
		return models.Deposit{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return s.store.GetDeposit(ctx, id)
}

// PatchDeposit applies the set flags of p.
func (s *Service) PatchDeposit(ctx context.Context, id int64, p DepositPatch) (models.Deposit, error) {
	d, err := s.store.GetDeposit(ctx, id)
	if err != nil {
		return models.Deposit{}, err
	}
	if p.Ignore != nil {
		d.Ignore = *p.Ignore
	}
	if p.IsSecurity != nil {
		d.IsSecurity = *p.IsSecurity
	}
	if err := s.store.UpdateDeposit(ctx, d); err != nil {
		return models.Deposit{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return d, nil
}

// Person returns the person with all their deposits.
func (s *Service) Person(ctx context.Context, id int64) (models.Person, error) {
	p, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return models.Person{}, err
	}
	if p.Deposits, err = s.store.DepositsForPerson(ctx, id); err != nil {
		return models.Person{}, err
	}
	return p, nil
}

func sameBooking(d models.Deposit, t models.BankTransaction) bool {
	return d.Timestamp.Equal(t.Date.Time) && d.Amount.Equal(t.Amount) && d.Title == t.Title
}

// ImportDeposits books parsed bank transactions in one transaction. Unknown account
// holders get a new person and a new share named after them. A transaction already
// booked for the person with the same date, amount and title is skipped.
func (s *Service) ImportDeposits(ctx context.Context, txs []models.BankTransaction, addedBy int64) (models.ImportResult, error) {
	var res models.ImportResult
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		res = models.ImportResult{}
		known := map[int64][]models.Deposit{}
		for _, t := range txs {
			person, err := tx.FindPersonByName(ctx, t.Name)
			switch {
			case errors.Is(err, store.ErrNotFound):
				shareID, err := tx.CreateShare(ctx, models.Share{Name: t.Name})
				if err != nil {
					return err
				}
				person = models.Person{Name: t.Name, ShareID: shareID}
				if person.ID, err = tx.CreatePerson(ctx, person); err != nil {
					return err
				}
				known[person.ID] = []models.Deposit{}
				res.NewPersons++
			case err != nil:
				return err
			}

			existing, ok := known[person.ID]
			if !ok {
				if existing, err = tx.DepositsForPerson(ctx, person.ID); err != nil {
					return err
				}
			}
			duplicate := false
			for _, d := range existing {
				if sameBooking(d, t) {
					duplicate = true
					break
				}
			}
			if duplicate {
				res.Skipped++
				known[person.ID] = existing
				continue
			}

			d := models.Deposit{
				Amount:    t.Amount,
				Timestamp: t.Date,
				Title:     t.Title,
				PersonID:  person.ID,
				AddedBy:   &addedBy,
			}
			if d.ID, err = tx.CreateDeposit(ctx, d); err != nil {
				return fmt.Errorf("line %d: %w", t.Line, err)
			}
			known[person.ID] = append(existing, d)
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("import deposits: %w", err)
	}
	observability.DepositsImportedTotal.WithLabelValues("imported").Add(float64(res.Imported))
	observability.DepositsImportedTotal.WithLabelValues("skipped").Add(float64(res.Skipped))
	s.invalidatePaymentStatus(ctx)
	observability.LoggerFromContext(ctx).Info("deposits imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("new_persons", res.NewPersons))
	return res, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/store"
	"github.com/kjstillabower/solawi/internal/validation"
)

// BetInput holds every field of a bet; updates replace all of them.
type BetInput struct {
	Value     decimal.Decimal `json:"value"`
	StartDate models.Date     `json:"start_date"`
	EndDate   *models.Date    `json:"end_date"`
}

func (in BetInput) validate() error {
	if in.StartDate.IsZero() {
		return invalidf("start_date is required")
	}
	if err := validation.ValidateAmount(in.Value); err != nil {
		return invalid(err)
	}
	if err := validation.ValidatePeriod(in.StartDate, in.EndDate); err != nil {
		return invalid(err)
	}
	return nil
}

// CreateBet adds a bet to the share.
func (s *Service) CreateBet(ctx context.Context, shareID int64, in BetInput) (models.Bet, error) {
	if err := in.validate(); err != nil {
		return models.Bet{}, err
	}
	if _, err := s.store.GetShare(ctx, shareID); err != nil {
		return models.Bet{}, err
	}
	b := models.Bet{ShareID: shareID, Value: in.Value, StartDate: in.StartDate, EndDate: in.EndDate}
	id, err := s.store.CreateBet(ctx, b)
	if err != nil {
		return models.Bet{}, err
	}
	b.ID = id
	s.invalidatePaymentStatus(ctx)
	return b, nil
}

// UpdateBet replaces value and period of the bet.
func (s *Service) UpdateBet(ctx context.Context, id int64, in BetInput) (models.Bet, error) {
	if err := in.validate(); err != nil {
		return models.Bet{}, err
	}
	b, err := s.store.GetBet(ctx, id)
	if err != nil {
		return models.Bet{}, err
	}
	b.Value, b.StartDate, b.EndDate = in.Value, in.StartDate, in.EndDate
	if err := s.store.UpdateBet(ctx, b); err != nil {
		return models.Bet{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return b, nil
}

// DeleteBet removes a bet of the share. A bet of another share is reported as not found.
func (s *Service) DeleteBet(ctx context.Context, shareID, betID int64) error {
	b, err := s.store.GetBet(ctx, betID)
	if err != nil {
		return err
	}
	if b.ShareID != shareID {
		return fmt.Errorf("bet %d of share %d: %w", betID, shareID, store.ErrNotFound)
	}
	if err := s.store.DeleteBet(ctx, betID); err != nil {
		return err
	}
	s.invalidatePaymentStatus(ctx)
	return nil
}

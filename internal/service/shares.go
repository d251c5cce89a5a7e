package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/ledger"
	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/store"
	"github.com/kjstillabower/solawi/internal/validation"
)

// ShareInput creates a share or replaces its editable fields.
type ShareInput struct {
	Name      string  `json:"name"`
	StationID *int64  `json:"station_id"`
	Note      *string `json:"note"`
	Archived  bool    `json:"archived"`
}

// SharePatch changes only the fields that are set.
type SharePatch struct {
	Name      *string `json:"name"`
	StationID *int64  `json:"station_id"`
	Note      *string `json:"note"`
	Archived  *bool   `json:"archived"`
}

// ListShares returns all shares with bets and members.
func (s *Service) ListShares(ctx context.Context) ([]models.Share, error) {
	return s.store.ListShares(ctx)
}

// ShareDetails returns the share with its ledger position as of today.
func (s *Service) ShareDetails(ctx context.Context, id int64) (models.ShareDetails, error) {
	share, err := s.store.GetShare(ctx, id)
	if err != nil {
		return models.ShareDetails{}, err
	}
	deposits, err := s.store.DepositsForShare(ctx, id)
	if err != nil {
		return models.ShareDetails{}, err
	}
	return ledger.Details(share, deposits, s.today()), nil
}

func (s *Service) checkStation(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetStation(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalidf("unknown station %d", *id)
		}
		return err
	}
	return nil
}

// CreateShare inserts a share. The name may be empty; it then displays as its members.
func (s *Service) CreateShare(ctx context.Context, in ShareInput) (models.Share, error) {
	if err := s.checkStation(ctx, in.StationID); err != nil {
		return models.Share{}, err
	}
	id, err := s.store.CreateShare(ctx, models.Share{
		Name:      in.Name,
		StationID: in.StationID,
		Note:      in.Note,
		Archived:  in.Archived,
	})
	if err != nil {
		return models.Share{}, err
	}
	s.invalidatePaymentStatus(ctx)
	observability.LoggerFromContext(ctx).Info("share created", zap.Int64("share_id", id))
	return s.store.GetShare(ctx, id)
}

// UpdateShare replaces station, note and archived flag. The name is left untouched.
func (s *Service) UpdateShare(ctx context.Context, id int64, in ShareInput) (models.Share, error) {
	share, err := s.store.GetShare(ctx, id)
	if err != nil {
		return models.Share{}, err
	}
	if err := s.checkStation(ctx, in.StationID); err != nil {
		return models.Share{}, err
	}
	share.StationID = in.StationID
	share.Note = in.Note
	share.Archived = in.Archived
	if err := s.store.UpdateShare(ctx, share); err != nil {
		return models.Share{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return s.store.GetShare(ctx, id)
}

// PatchShare applies the set fields of p.
func (s *Service) PatchShare(ctx context.Context, id int64, p SharePatch) (models.Share, error) {
	share, err := s.store.GetShare(ctx, id)
	if err != nil {
		return models.Share{}, err
	}
	if p.Name != nil {
		share.Name = *p.Name
	}
	if p.StationID != nil {
		if err := s.checkStation(ctx, p.StationID); err != nil {
			return models.Share{}, err
		}
		share.StationID = p.StationID
	}
	if p.Note != nil {
		share.Note = p.Note
	}
	if p.Archived != nil {
		share.Archived = *p.Archived
	}
	if err := s.store.UpdateShare(ctx, share); err != nil {
		return models.Share{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return s.store.GetShare(ctx, id)
}

// ShareEmails returns the email addresses of the share's members that have one.
func (s *Service) ShareEmails(ctx context.Context, id int64) ([]string, error) {
	share, err := s.store.GetShare(ctx, id)
	if err != nil {
		return nil, err
	}
	emails := []string{}
	for _, m := range share.Members {
		if m.Email != nil && *m.Email != "" {
			emails = append(emails, *m.Email)
		}
	}
	return emails, nil
}

// ShareDeposits returns all deposits booked to the share's persons.
func (s *Service) ShareDeposits(ctx context.Context, id int64) ([]models.Deposit, error) {
	if _, err := s.store.GetShare(ctx, id); err != nil {
		return nil, err
	}
	return s.store.DepositsForShare(ctx, id)
}

// ShareBets returns the share's bets ordered by start date.
func (s *Service) ShareBets(ctx context.Context, id int64) ([]models.Bet, error) {
	if _, err := s.store.GetShare(ctx, id); err != nil {
		return nil, err
	}
	return s.store.BetsForShare(ctx, id)
}

// PaymentStatus returns the payment overview of every share as of today.
// The result is cached per day until a mutation invalidates it.
func (s *Service) PaymentStatus(ctx context.Context) ([]models.PaymentStatus, error) {
	logger := observability.LoggerFromContext(ctx)
	key := paymentStatusKey(s.today())
	gen := s.generation.Load()

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			observability.PaymentStatusCacheTotal.WithLabelValues("error").Inc()
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			logger.Warn("payment status cache get failed", zap.Error(err))
		case ok:
			var cached []models.PaymentStatus
			if err := json.Unmarshal(raw, &cached); err == nil {
				observability.PaymentStatusCacheTotal.WithLabelValues("hit").Inc()
				return cached, nil
			}
			logger.Warn("discarding undecodable payment status cache entry")
		default:
			observability.PaymentStatusCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	status, err := s.computePaymentStatus(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.generation.Load() == gen {
		raw, err := json.Marshal(status)
		if err != nil {
			return nil, fmt.Errorf("encode payment status: %w", err)
		}
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			logger.Warn("payment status cache set failed", zap.Error(err))
		}
		// A write that invalidated between the check and Set may have been overwritten.
		if s.generation.Load() != gen {
			if err := s.cache.Delete(ctx, key); err != nil {
				observability.CacheErrorsTotal.WithLabelValues("delete").Inc()
				logger.Warn("payment status cache delete failed", zap.Error(err))
			}
		}
	}
	return status, nil
}

func (s *Service) computePaymentStatus(ctx context.Context) ([]models.PaymentStatus, error) {
	shares, err := s.store.ListShares(ctx)
	if err != nil {
		return nil, err
	}
	deposits, err := s.store.DepositsByShare(ctx)
	if err != nil {
		return nil, err
	}
	stations, err := s.store.StationNames(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	status := make([]models.PaymentStatus, 0, len(shares))
	for _, share := range shares {
		var station string
		if share.StationID != nil {
			station = stations[*share.StationID]
		}
		status = append(status, ledger.Status(share, station, deposits[share.ID], today))
	}
	return status, nil
}

// MergeShares moves members, persons and bets of drop into keep, concatenates the
// notes and deletes drop. All changes happen in one transaction.
func (s *Service) MergeShares(ctx context.Context, keep, drop int64) (models.Share, error) {
	if keep == drop {
		return models.Share{}, invalid(ErrSelfMerge)
	}
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		kept, err := tx.GetShare(ctx, keep)
		if err != nil {
			return err
		}
		dropped, err := tx.GetShare(ctx, drop)
		if err != nil {
			return err
		}
		if err := tx.MoveMembers(ctx, drop, keep); err != nil {
			return err
		}
		if err := tx.MovePersons(ctx, drop, keep); err != nil {
			return err
		}
		if err := tx.MoveBets(ctx, drop, keep); err != nil {
			return err
		}
		kept.Note = joinNotes(kept.Note, dropped.Note)
		if err := tx.UpdateShare(ctx, kept); err != nil {
			return err
		}
		return tx.DeleteShare(ctx, drop)
	})
	if err != nil {
		return models.Share{}, fmt.Errorf("merge share %d into %d: %w", drop, keep, err)
	}
	observability.SharesMergedTotal.Inc()
	s.invalidatePaymentStatus(ctx)
	observability.LoggerFromContext(ctx).Info("shares merged", zap.Int64("kept", keep), zap.Int64("dropped", drop))
	return s.store.GetShare(ctx, keep)
}

func validName(name string) (string, error) {
	n, err := validation.ValidateName(name)
	if err != nil {
		return "", invalid(err)
	}
	return n, nil
}

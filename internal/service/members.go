package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/ledger"
	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/store"
	"github.com/kjstillabower/solawi/internal/validation"
)

// MemberInput creates a member. Without a positive ShareID a new share is created for the member.
type MemberInput struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	ShareID *int64  `json:"share_id"`
}

// MemberPatch changes only the fields that are set.
type MemberPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	ShareID *int64  `json:"share_id"`
}

// ListMembers returns the members overview. With activeOnly, members of archived or
// currently inactive shares are left out.
func (s *Service) ListMembers(ctx context.Context, activeOnly bool) ([]models.MemberListing, error) {
	shares, err := s.store.ListShares(ctx)
	if err != nil {
		return nil, err
	}
	stations, err := s.store.StationNames(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	out := []models.MemberListing{}
	for _, share := range shares {
		active := !share.Archived && ledger.IsActive(share.Bets, today)
		if activeOnly && !active {
			continue
		}
		var station string
		if share.StationID != nil {
			station = stations[*share.StationID]
		}
		join := ledger.JoinDate(share.Bets)
		for _, m := range share.Members {
			out = append(out, models.MemberListing{
				Member:      m,
				StationName: station,
				JoinDate:    join,
				Active:      active,
			})
		}
	}
	return out, nil
}

func (s *Service) checkShare(ctx context.Context, id int64) error {
	if _, err := s.store.GetShare(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalidf("unknown share %d", id)
		}
		return err
	}
	return nil
}

// CreateMember inserts a member, creating an unnamed share when none is given.
func (s *Service) CreateMember(ctx context.Context, in MemberInput) (models.Member, error) {
	name, err := validName(in.Name)
	if err != nil {
		return models.Member{}, err
	}
	email, err := validation.ValidateOptionalEmail(in.Email)
	if err != nil {
		return models.Member{}, invalid(err)
	}
	m := models.Member{Name: name, Email: email, Phone: in.Phone}

	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		if in.ShareID != nil && *in.ShareID > 0 {
			if _, err := tx.GetShare(ctx, *in.ShareID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return invalidf("unknown share %d", *in.ShareID)
				}
				return err
			}
			m.ShareID = *in.ShareID
		} else {
			shareID, err := tx.CreateShare(ctx, models.Share{})
			if err != nil {
				return err
			}
			m.ShareID = shareID
		}
		id, err := tx.CreateMember(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		return nil
	})
	if err != nil {
		return models.Member{}, err
	}
	s.invalidatePaymentStatus(ctx)
	observability.LoggerFromContext(ctx).Info("member created",
		zap.Int64("member_id", m.ID), zap.Int64("share_id", m.ShareID))
	return m, nil
}

// PatchMember applies the set fields of p.
func (s *Service) PatchMember(ctx context.Context, id int64, p MemberPatch) (models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	if p.Name != nil {
		if m.Name, err = validName(*p.Name); err != nil {
			return models.Member{}, err
		}
	}
	if p.Email != nil {
		if m.Email, err = validation.ValidateOptionalEmail(p.Email); err != nil {
			return models.Member{}, invalid(err)
		}
	}
	if p.Phone != nil {
		m.Phone = p.Phone
	}
	if p.ShareID != nil {
		if err := s.checkShare(ctx, *p.ShareID); err != nil {
			return models.Member{}, err
		}
		m.ShareID = *p.ShareID
	}
	if err := s.store.UpdateMember(ctx, m); err != nil {
		return models.Member{}, err
	}
	s.invalidatePaymentStatus(ctx)
	return m, nil
}

// DeleteMember removes the member. The share stays.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.invalidatePaymentStatus(ctx)
	return nil
}

// ListStations returns all pickup stations.
func (s *Service) ListStations(ctx context.Context) ([]models.Station, error) {
	return s.store.ListStations(ctx)
}

// CreateStation inserts a pickup station.
func (s *Service) CreateStation(ctx context.Context, name string) (models.Station, error) {
	n, err := validName(name)
	if err != nil {
		return models.Station{}, err
	}
	return s.store.CreateStation(ctx, n)
}

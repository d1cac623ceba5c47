// Package card manages the binding between users and external cards.
// A card must pass settlement-gateway validation before it is bound, at
// most one binding per user is active at a time, and a card enabled by
// one user cannot be claimed by another while its owner is enabled.
package card

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/services/bank"
)

var (
	ErrValidationFailed = errors.New("card validation failed")
	ErrCardInUse        = errors.New("card is already registered by another user")
	ErrNoActiveCard     = errors.New("no active card")
)

type Service interface {
	Activate(ctx context.Context, userID uint, req bank.ValidateCardRequest) (*models.UserCard, error)
	Deactivate(userID uint) error
	GetActiveCard(userID uint) (*models.UserCard, error)
}

type service struct {
	repo     repositories.CardRepository
	userRepo repositories.UserRepository
	gateway  bank.Gateway
}

func NewService(repo repositories.CardRepository, userRepo repositories.UserRepository, gateway bank.Gateway) Service {
	if repo == nil {
		panic("card repo is required")
	}
	if userRepo == nil {
		panic("user repo is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	return &service{repo: repo, userRepo: userRepo, gateway: gateway}
}

// Activate validates the card with the settlement gateway and binds it
// to the caller, deactivating the caller's previous active card. A card
// already bound to a different, still-enabled user is rejected; if the
// prior owner is disabled the binding transfers ownership. All binding
// changes happen in one unit of work, so a rejection leaves the
// caller's previous card untouched.
func (s *service) Activate(ctx context.Context, userID uint, req bank.ValidateCardRequest) (*models.UserCard, error) {
	res, err := s.gateway.ValidateCard(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("gateway validation error: %w", err)
	}
	if !res.OK {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, res.Reason)
	}

	var binding *models.UserCard
	err = s.repo.ExecuteInTransaction(func(r repositories.CardRepository) error {
		now := time.Now()

		existing, err := r.GetByNumber(req.Number)
		switch {
		case err == nil:
			owner, ownerErr := s.userRepo.GetByID(existing.UserID)
			if ownerErr == nil && owner.Enabled && owner.ID != userID {
				return ErrCardInUse
			}

			if err := r.DeactivateAllForUser(userID); err != nil {
				return err
			}

			// Ownership transfer or reactivation for the same user.
			existing.UserID = userID
			existing.Active = true
			existing.Verified = true
			existing.VerifiedAt = &now
			existing.HolderName = res.HolderName
			existing.MaskedNumber = res.MaskedNumber
			if err := r.Update(existing); err != nil {
				return err
			}
			binding = existing
			return nil

		case errors.Is(err, repositories.ErrCardNotFound):
			if err := r.DeactivateAllForUser(userID); err != nil {
				return err
			}
			binding = &models.UserCard{
				UserID:       userID,
				CardNumber:   req.Number,
				MaskedNumber: res.MaskedNumber,
				HolderName:   res.HolderName,
				Verified:     true,
				Active:       true,
				VerifiedAt:   &now,
			}
			return r.Create(binding)

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	log.Printf("card: bound %s to user %d", binding.MaskedNumber, userID)
	return binding, nil
}

func (s *service) Deactivate(userID uint) error {
	return s.repo.DeactivateAllForUser(userID)
}

func (s *service) GetActiveCard(userID uint) (*models.UserCard, error) {
	card, err := s.repo.GetActiveByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return nil, ErrNoActiveCard
		}
		return nil, err
	}
	return card, nil
}

package services

import (
	"errors"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

var (
	ErrBadFrequency         = errors.New("Invalid subscription frequency.")
	ErrSubscriptionNotFound = errors.New("Subscription not found.")
)

var frequencies = map[string]bool{
	"weekly":   true,
	"biweekly": true,
	"monthly":  true,
}

type SubscriptionService struct {
	Subs *repos.SubscriptionRepo
}

func NewSubscriptionService(subs *repos.SubscriptionRepo) *SubscriptionService {
	return &SubscriptionService{Subs: subs}
}

func (s *SubscriptionService) Subscribe(userID, productID, frequency string) error {
	if !frequencies[frequency] {
		return ErrBadFrequency
	}
	return s.Subs.Upsert(userID, productID, frequency)
}

// ActiveFor returns the user's active subscription for a product, if any.
func (s *SubscriptionService) ActiveFor(userID, productID string) (domain.Subscription, bool) {
	sub, err := s.Subs.ActiveForUserProduct(userID, productID)
	if err != nil {
		return domain.Subscription{}, false
	}
	return sub, true
}

func (s *SubscriptionService) ListActive(userID string) ([]domain.Subscription, error) {
	return s.Subs.ActiveByUser(userID)
}

func (s *SubscriptionService) Cancel(subscriptionID, userID string) error {
	ok, err := s.Subs.Cancel(subscriptionID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSubscriptionNotFound
	}
	return nil
}

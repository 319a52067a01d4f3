package services

import (
	"errors"
	"strings"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

var (
	ErrBadRating      = errors.New("Rating must be between 1 and 5.")
	ErrEmptyReview    = errors.New("Review text may not be empty.")
	ErrNotEligible    = errors.New("You can only review sellers you have purchased from.")
	ErrReviewNotFound = errors.New("Review not found.")
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders}
}

// SubmitProduct writes or replaces the user's review of a product.
func (s *ReviewService) SubmitProduct(userID, productID string, rating int, body string) error {
	if rating < 1 || rating > 5 {
		return ErrBadRating
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyReview
	}
	return s.Reviews.Upsert(repos.ProductReview, productID, userID, rating, body)
}

// SubmitSeller is gated: the reviewer must have bought something from the
// seller.
func (s *ReviewService) SubmitSeller(userID, sellerID string, rating int, body string) error {
	if rating < 1 || rating > 5 {
		return ErrBadRating
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyReview
	}
	bought, err := s.Orders.HasPurchasedFrom(userID, sellerID)
	if err != nil {
		return err
	}
	if !bought {
		return ErrNotEligible
	}
	return s.Reviews.Upsert(repos.SellerReview, sellerID, userID, rating, body)
}

func (s *ReviewService) DeleteOwn(kind repos.ReviewKind, subjectID, userID string) error {
	return s.Reviews.Delete(kind, subjectID, userID)
}

func (s *ReviewService) List(kind repos.ReviewKind, subjectID string, o repos.ReviewListOpts) ([]domain.Review, error) {
	return s.Reviews.ListForSubject(kind, subjectID, o)
}

func (s *ReviewService) Summary(kind repos.ReviewKind, subjectID string) (repos.RatingSummary, error) {
	return s.Reviews.Summary(kind, subjectID)
}

func (s *ReviewService) ToggleVote(kind repos.ReviewKind, reviewID, userID string) (bool, error) {
	return s.Reviews.ToggleVote(kind, reviewID, userID)
}

func (s *ReviewService) Mine(userID string) (products, sellers []repos.AuthoredReview, err error) {
	products, err = s.Reviews.AuthoredBy(repos.ProductReview, userID)
	if err != nil {
		return nil, nil, err
	}
	sellers, err = s.Reviews.AuthoredBy(repos.SellerReview, userID)
	if err != nil {
		return nil, nil, err
	}
	return products, sellers, nil
}

// Feed returns the latest reviews across the site. limit is clamped to 1..50.
func (s *ReviewService) Feed(kindFilter string, limit int) ([]repos.FeedRow, error) {
	if limit < 1 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}
	if kindFilter != string(repos.ProductReview) && kindFilter != string(repos.SellerReview) {
		kindFilter = ""
	}
	return s.Reviews.RecentFeed(kindFilter, limit)
}

package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type SubscriptionRepo struct{ db *sqlx.DB }

func NewSubscriptionRepo(db *sqlx.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Upsert reactivates or creates the user's subscription for a product.
func (r *SubscriptionRepo) Upsert(userID, productID, frequency string) error {
	_, err := r.db.Exec(`
		INSERT INTO subscriptions(id, user_id, product_id, frequency, active, created_at)
		VALUES(?,?,?,?,1,CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, product_id) DO UPDATE
		SET frequency = excluded.frequency,
		    active = 1,
		    created_at = CURRENT_TIMESTAMP`,
		uuid.NewString(), userID, productID, frequency)
	return err
}

func (r *SubscriptionRepo) ActiveForUserProduct(userID, productID string) (domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.Get(&s, `
		SELECT id, user_id, product_id, frequency, active, created_at,
		       '' AS product_name, '' AS category_name
		FROM subscriptions
		WHERE user_id = ? AND product_id = ? AND active = 1`, userID, productID)
	return s, err
}

func (r *SubscriptionRepo) ActiveByUser(userID string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := r.db.Select(&out, `
		SELECT s.id, s.user_id, s.product_id, s.frequency, s.active, s.created_at,
		       p.name AS product_name, c.name AS category_name
		FROM subscriptions s
		JOIN products p ON p.id = s.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE s.user_id = ? AND s.active = 1
		ORDER BY datetime(s.created_at) DESC`, userID)
	return out, err
}

// Cancel deactivates a subscription owned by the user; returns whether a row
// changed.
func (r *SubscriptionRepo) Cancel(subscriptionID, userID string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET active = 0
		WHERE id = ? AND user_id = ? AND active = 1`, subscriptionID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

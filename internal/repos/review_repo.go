package repos

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

// ReviewKind selects between the two review tables. Product and seller
// reviews share shape and vote handling; only the subject differs.
type ReviewKind string

const (
	ProductReview ReviewKind = "product"
	SellerReview  ReviewKind = "seller"
)

func (k ReviewKind) table() string {
	if k == SellerReview {
		return "seller_reviews"
	}
	return "product_reviews"
}

func (k ReviewKind) subjectCol() string {
	if k == SellerReview {
		return "seller_id"
	}
	return "product_id"
}

// verifiedClause marks reviews written by actual purchasers.
func (k ReviewKind) verifiedClause() string {
	if k == SellerReview {
		return `EXISTS (SELECT 1 FROM order_items oi JOIN orders o ON o.id = oi.order_id
		         WHERE o.user_id = ranked.user_id AND oi.seller_id = ranked.subject_id)`
	}
	return `EXISTS (SELECT 1 FROM order_items oi JOIN orders o ON o.id = oi.order_id
	         WHERE o.user_id = ranked.user_id AND oi.product_id = ranked.subject_id)`
}

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert writes the one review a user may hold per subject; a second write
// replaces rating/body and refreshes the timestamp.
func (r *ReviewRepo) Upsert(kind ReviewKind, subjectID, userID string, rating int, body string) error {
	q := fmt.Sprintf(`
		INSERT INTO %s(id, %s, user_id, rating, body, created_at)
		VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(%s, user_id) DO UPDATE
		SET rating = excluded.rating,
		    body = excluded.body,
		    created_at = CURRENT_TIMESTAMP`,
		kind.table(), kind.subjectCol(), kind.subjectCol())
	_, err := r.db.Exec(q, uuid.NewString(), subjectID, userID, rating, body)
	return err
}

func (r *ReviewRepo) Delete(kind ReviewKind, subjectID, userID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND user_id = ?`, kind.table(), kind.subjectCol())
	_, err := r.db.Exec(q, subjectID, userID)
	return err
}

func (r *ReviewRepo) ByUserForSubject(kind ReviewKind, subjectID, userID string) (domain.Review, error) {
	var rv domain.Review
	q := fmt.Sprintf(`
		SELECT id, %s AS subject_id, user_id, rating, body, created_at,
		       '' AS firstname, '' AS lastname
		FROM %s WHERE %s = ? AND user_id = ?`,
		kind.subjectCol(), kind.table(), kind.subjectCol())
	err := r.db.Get(&rv, q, subjectID, userID)
	return rv, err
}

type ReviewListOpts struct {
	ViewerID  string
	MinRating int
	Sort      string // helpful | recent
	Limit     int
	Page      int
}

// ListForSubject returns reviews with helpful-vote counts, whether the viewer
// voted, a helpfulness rank (top three are pinned), and a verified-purchaser
// flag.
func (r *ReviewRepo) ListForSubject(kind ReviewKind, subjectID string, o ReviewListOpts) ([]domain.Review, error) {
	where := fmt.Sprintf(`r.%s = ?`, kind.subjectCol())
	args := []any{o.ViewerID, subjectID}
	if o.MinRating > 0 {
		where += ` AND r.rating >= ?`
		args = append(args, o.MinRating)
	}

	order := `CASE WHEN helpful_rank <= 3 THEN 0 ELSE 1 END, helpful_rank, created_at DESC`
	if o.Sort == "recent" {
		order = `created_at DESC`
	}

	limitClause := ""
	if o.Limit > 0 {
		page := o.Page
		if page < 1 {
			page = 1
		}
		limitClause = ` LIMIT ? OFFSET ?`
		args = append(args, o.Limit, (page-1)*o.Limit)
	}

	q := fmt.Sprintf(`
WITH aggregated AS (
    SELECT r.id,
           r.%s AS subject_id,
           r.user_id,
           r.rating,
           r.body,
           r.created_at,
           u.firstname,
           u.lastname,
           COALESCE(SUM(v.vote), 0) AS helpful_count,
           COALESCE(MAX(CASE WHEN v.user_id = ? THEN 1 ELSE 0 END), 0) AS user_voted
    FROM %s r
    JOIN users u ON u.id = r.user_id
    LEFT JOIN review_votes v
           ON v.review_type = '%s'
          AND v.review_id = r.id
    WHERE %s
    GROUP BY r.id, u.firstname, u.lastname
),
ranked AS (
    SELECT *,
           ROW_NUMBER() OVER (ORDER BY helpful_count DESC, created_at DESC) AS helpful_rank
    FROM aggregated
)
SELECT id, subject_id, user_id, rating, body, created_at, firstname, lastname,
       helpful_count, user_voted, helpful_rank,
       %s AS verified
FROM ranked
ORDER BY %s%s`,
		kind.subjectCol(), kind.table(), string(kind), where, kind.verifiedClause(), order, limitClause)

	var out []domain.Review
	err := r.db.Select(&out, q, args...)
	return out, err
}

type RatingSummary struct {
	AvgRating float64 `db:"avg_rating"`
	Count     int     `db:"review_count"`
}

func (r *ReviewRepo) Summary(kind ReviewKind, subjectID string) (RatingSummary, error) {
	var s RatingSummary
	q := fmt.Sprintf(`
		SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count
		FROM %s WHERE %s = ?`, kind.table(), kind.subjectCol())
	err := r.db.Get(&s, q, subjectID)
	return s, err
}

// ToggleVote flips the viewer's helpfulness vote on a review. Returns the
// resulting state (true when the vote now exists).
func (r *ReviewRepo) ToggleVote(kind ReviewKind, reviewID, userID string) (bool, error) {
	res, err := r.db.Exec(`
		DELETE FROM review_votes
		WHERE review_type = ? AND review_id = ? AND user_id = ?`,
		string(kind), reviewID, userID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = r.db.Exec(`
		INSERT INTO review_votes(review_type, review_id, user_id, vote)
		VALUES(?,?,?,1)
		ON CONFLICT(review_type, review_id, user_id) DO NOTHING`,
		string(kind), reviewID, userID)
	return err == nil, err
}

// ---------- Cross-subject listings ----------

type AuthoredReview struct {
	ID          string `db:"id"`
	SubjectID   string `db:"subject_id"`
	SubjectName string `db:"subject_name"`
	Rating      int    `db:"rating"`
	Body        string `db:"body"`
	CreatedAt   string `db:"created_at"`
}

// AuthoredBy returns all reviews a user has written for one review kind,
// newest first.
func (r *ReviewRepo) AuthoredBy(kind ReviewKind, userID string) ([]AuthoredReview, error) {
	var q string
	if kind == SellerReview {
		q = `
		SELECT sr.id, sr.seller_id AS subject_id,
		       u.firstname || ' ' || u.lastname AS subject_name,
		       sr.rating, sr.body, sr.created_at
		FROM seller_reviews sr
		JOIN users u ON u.id = sr.seller_id
		WHERE sr.user_id = ?
		ORDER BY datetime(sr.created_at) DESC`
	} else {
		q = `
		SELECT pr.id, pr.product_id AS subject_id,
		       p.name AS subject_name,
		       pr.rating, pr.body, pr.created_at
		FROM product_reviews pr
		JOIN products p ON p.id = pr.product_id
		WHERE pr.user_id = ?
		ORDER BY datetime(pr.created_at) DESC`
	}
	var out []AuthoredReview
	err := r.db.Select(&out, q, userID)
	return out, err
}

type FeedRow struct {
	ReviewType  string `db:"review_type"`
	ReviewID    string `db:"review_id"`
	SubjectName string `db:"subject_name"`
	Reviewer    string `db:"reviewer"`
	Rating      int    `db:"rating"`
	Body        string `db:"body"`
	CreatedAt   string `db:"created_at"`
}

// RecentFeed lists the latest reviews across both kinds. kindFilter may be
// "product", "seller", or "" for all.
func (r *ReviewRepo) RecentFeed(kindFilter string, limit int) ([]FeedRow, error) {
	if limit <= 0 {
		limit = 5
	}
	q := `
		SELECT * FROM (
		  SELECT 'product' AS review_type, pr.id AS review_id,
		         p.name AS subject_name,
		         u.firstname || ' ' || u.lastname AS reviewer,
		         pr.rating, pr.body, pr.created_at
		  FROM product_reviews pr
		  JOIN products p ON p.id = pr.product_id
		  JOIN users u ON u.id = pr.user_id
		  UNION ALL
		  SELECT 'seller', sr.id,
		         s.firstname || ' ' || s.lastname,
		         u.firstname || ' ' || u.lastname,
		         sr.rating, sr.body, sr.created_at
		  FROM seller_reviews sr
		  JOIN users s ON s.id = sr.seller_id
		  JOIN users u ON u.id = sr.user_id
		)
		WHERE (? = '' OR review_type = ?)
		ORDER BY datetime(created_at) DESC
		LIMIT ?`
	var out []FeedRow
	err := r.db.Select(&out, q, kindFilter, kindFilter, limit)
	return out, err
}

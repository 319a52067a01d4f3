package repos

import (
	"bazaar/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// RefreshAvailability recomputes the derived products.available flag from the
// current listing set. Idempotent; callers invoke it (with the db or an open
// tx) after every mutation that changes listing quantity or activity.
func RefreshAvailability(e sqlx.Ext, productID string) error {
	_, err := e.Exec(`
		UPDATE products
		SET available = EXISTS (
		  SELECT 1 FROM listings
		  WHERE product_id = ? AND is_active = 1 AND quantity > 0
		)
		WHERE id = ?`, productID, productID)
	return err
}

const productSelect = `
WITH active_prices AS (
  SELECT product_id, MIN(price) AS min_price
  FROM listings
  WHERE is_active = 1 AND quantity > 0
  GROUP BY product_id
),
product_ratings AS (
  SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
  FROM product_reviews
  GROUP BY product_id
)
SELECT p.id,
       p.category_id,
       c.name AS category_name,
       p.name,
       COALESCE(p.description,'') AS description,
       p.base_price,
       p.available,
       COALESCE(p.image_link,'') AS image_link,
       COALESCE(p.creator_id,'') AS creator_id,
       ap.min_price AS listing_price,
       COALESCE(pr.avg_rating, 0) AS avg_rating,
       COALESCE(pr.review_count, 0) AS review_count
FROM products p
JOIN categories c ON c.id = p.category_id
LEFT JOIN active_prices ap ON ap.product_id = p.id
LEFT JOIN product_ratings pr ON pr.product_id = p.id
`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, productSelect+`WHERE p.id = ?`, id)
	return p, err
}

type SearchOpts struct {
	CategoryID      string
	Q               string
	Sort            string // price_asc | price_desc
	RatingThreshold float64
	Limit, Offset   int
}

// Search lists available products with the buyer-facing price (cheapest
// active offer, base price fallback) and review aggregates.
func (r *ProductRepo) Search(o SearchOpts) ([]domain.Product, error) {
	where := `p.available = 1`
	args := []any{}
	if o.CategoryID != "" {
		where += ` AND p.category_id = ?`
		args = append(args, o.CategoryID)
	}
	if o.Q != "" {
		where += ` AND (LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)`
		like := "%" + o.Q + "%"
		args = append(args, like, like)
	}
	if o.RatingThreshold > 0 {
		where += ` AND COALESCE(pr.avg_rating, 0) >= ?`
		args = append(args, o.RatingThreshold)
	}

	order := `COALESCE(ap.min_price, p.base_price) ASC, p.id`
	if o.Sort == "price_desc" {
		order = `COALESCE(ap.min_price, p.base_price) DESC, p.id`
	}

	limit := o.Limit
	if limit <= 0 {
		limit = 24
	}

	sql := productSelect + `WHERE ` + where + `
ORDER BY ` + order + `
LIMIT ? OFFSET ?`
	args = append(args, limit, o.Offset)

	var out []domain.Product
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// Similar returns up to limit available products in the same category,
// ordered by closest buyer-facing price.
func (r *ProductRepo) Similar(p domain.Product, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	var out []domain.Product
	err := r.db.Select(&out, productSelect+`
WHERE p.available = 1 AND p.id != ? AND p.category_id = ?
ORDER BY ABS(COALESCE(ap.min_price, p.base_price) - ?) ASC,
         COALESCE(ap.min_price, p.base_price) ASC, p.id
LIMIT ?`, p.ID, p.CategoryID, p.Price(), limit)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
		INSERT INTO products(id, category_id, name, description, base_price, available, image_link, creator_id)
		VALUES(?,?,?,?,?,?,?,?)`,
		p.ID, p.CategoryID, p.Name, p.Description, p.BasePrice, p.Available, p.ImageLink, p.CreatorID)
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET category_id=?, name=?, description=?, base_price=?, image_link=?
		WHERE id=?`,
		p.CategoryID, p.Name, p.Description, p.BasePrice, p.ImageLink, p.ID)
	return err
}

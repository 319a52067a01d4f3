package repos

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// OpenDB opens the sqlite database and bootstraps the schema. With seed set
// it also inserts the demo accounts and catalog (SEED_DEMO_DATA in config).
// Transactions are opened with _txlock=immediate so writers take the database
// write lock up front; with a single-writer store that is what serializes
// concurrent checkouts the way SELECT ... FOR UPDATE would on a row store.
func OpenDB(dsn string, seed bool) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withImmediateTxLock(dsn))
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if seed {
		// Demo accounts first: listings reference seller rows.
		if err := seedUsers(db); err != nil {
			return nil, err
		}
		if err := seedIfEmpty(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func withImmediateTxLock(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if dsn == ":memory:" {
		return "file::memory:?_txlock=immediate"
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=immediate"
	}
	return dsn + "?_txlock=immediate"
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users (buyers and sellers; balance is custodial)
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  firstname TEXT NOT NULL,
  lastname TEXT NOT NULL,
  address TEXT,
  password_hash TEXT NOT NULL,
  balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
  is_seller INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Catalog
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  base_price NUMERIC NOT NULL CHECK (base_price >= 0),
  available INTEGER NOT NULL DEFAULT 0,   -- derived: any active listing with qty > 0
  image_link TEXT,
  creator_id TEXT REFERENCES users(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Listings: one sellable offer per (seller, product)
CREATE TABLE IF NOT EXISTS listings(
  id TEXT PRIMARY KEY,
  seller_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  price NUMERIC NOT NULL CHECK (price >= 0),
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  UNIQUE(seller_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_listings_product ON listings(product_id);
CREATE INDEX IF NOT EXISTS idx_listings_seller  ON listings(seller_id);

-- Cart: snapshot fields are re-stamped from the listing on every write
CREATE TABLE IF NOT EXISTS cart_items(
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  seller_id  TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (user_id, listing_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','shipped','fulfilled')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  listing_id TEXT NOT NULL,
  seller_id  TEXT NOT NULL,
  product_id TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  fulfillment_status TEXT NOT NULL DEFAULT 'Order Placed'
    CHECK (fulfillment_status IN ('Order Placed','Shipped','Delivered')),
  fulfilled_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_order_items_order  ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_seller ON order_items(seller_id);

-- Reviews: one per (reviewer, subject), upsert-on-conflict
CREATE TABLE IF NOT EXISTS product_reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  body TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(product_id, user_id)
);

CREATE TABLE IF NOT EXISTS seller_reviews(
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  body TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(seller_id, user_id)
);

CREATE TABLE IF NOT EXISTS review_votes(
  review_type TEXT NOT NULL CHECK (review_type IN ('product','seller')),
  review_id TEXT NOT NULL,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  vote INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (review_type, review_id, user_id)
);

-- Product subscriptions (recurring interest; one per user/product)
CREATE TABLE IF NOT EXISTS subscriptions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  frequency TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(user_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/listings")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('home-goods','Home Goods'),
	  ('electronics','Electronics'),
	  ('books','Books'),
	  ('outdoors','Outdoors')`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,base_price,available,image_link) VALUES
	  ('p-lamp-001','home-goods','Brass Desk Lamp','Adjustable arm, warm-white bulb included',34.00,1,'products/p-lamp-001/main.jpg'),
	  ('p-kettle-001','home-goods','Stovetop Kettle','2L enamel kettle',25.50,1,'products/p-kettle-001/main.jpg'),
	  ('p-headp-001','electronics','Wired Headphones','Closed-back, 3.5mm jack',59.99,1,'products/p-headp-001/main.jpg'),
	  ('p-novel-001','books','The Long Meadow','Paperback, 384 pages',12.00,0,'products/p-novel-001/main.jpg')`)

	tx.MustExec(`INSERT INTO listings(id,seller_id,product_id,price,quantity,is_active) VALUES
	  ('l-mei-lamp','u-mei','p-lamp-001',32.00,8,1),
	  ('l-noor-lamp','u-noor','p-lamp-001',29.50,3,1),
	  ('l-mei-kettle','u-mei','p-kettle-001',25.50,12,1),
	  ('l-noor-headp','u-noor','p-headp-001',54.00,5,1),
	  ('l-mei-novel','u-mei','p-novel-001',12.00,0,0)`)

	return tx.Commit()
}

// seedUsers ensures demo buyers and sellers exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, First, Last, Address, Hash, Balance string
		Seller                                         bool
	}
	mk := func(id, email, first, last, address, balance string, seller bool, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, First: first, Last: last, Address: address,
			Hash: string(h), Balance: balance, Seller: seller}
	}

	users := []u{
		mk("u-ada", "ada@bazaar.test", "Ada", "Okafor", "12 Ridge Rd", "250.00", false, "Passw0rd!"),
		mk("u-bjorn", "bjorn@bazaar.test", "Bjorn", "Lindqvist", "4 Harbor Ln", "80.00", false, "Passw0rd!"),
		mk("u-mei", "mei@bazaar.test", "Mei", "Tanaka", "88 Willow Ave", "0", true, "Passw0rd!"),
		mk("u-noor", "noor@bazaar.test", "Noor", "Haddad", "7 Cedar Ct", "15.00", true, "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,firstname,lastname,address,password_hash,balance,is_seller)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.First, x.Last, x.Address, x.Hash, x.Balance, x.Seller); err != nil {
			return err
		}
	}

	return tx.Commit()
}

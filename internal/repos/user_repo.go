package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

// ErrInsufficientFunds is returned by Withdraw when the guarded update
// matched no row, meaning the balance would have gone negative.
var ErrInsufficientFunds = errors.New("insufficient balance for withdrawal")

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,firstname,lastname,COALESCE(address,'') AS address,password_hash,balance,is_seller`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) EmailExists(email string) (bool, error) {
	var n int
	if err := r.DB.Get(&n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) Create(u *domain.User) error {
	_, err := r.DB.Exec(`
		INSERT INTO users(id,email,firstname,lastname,address,password_hash,balance,is_seller)
		VALUES(?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Address, u.Hash, u.Balance, u.IsSeller)
	return err
}

func (r *UserRepo) UpdateAccount(id, firstname, lastname, email, address string) error {
	_, err := r.DB.Exec(`
		UPDATE users SET firstname=?, lastname=?, email=?, address=? WHERE id=?`,
		firstname, lastname, email, address, id)
	return err
}

// Deposit adds funds to the user's balance.
func (r *UserRepo) Deposit(id string, amount decimal.Decimal) error {
	_, err := r.DB.Exec(`UPDATE users SET balance = balance + ? WHERE id=?`, amount, id)
	return err
}

// Withdraw subtracts funds, guarded so the balance can never go negative.
func (r *UserRepo) Withdraw(id string, amount decimal.Decimal) error {
	res, err := r.DB.Exec(`
		UPDATE users SET balance = balance - ?
		WHERE id=? AND balance >= ?`, amount, id, amount)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// ---------- Sessions ----------

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.firstname,u.lastname,COALESCE(u.address,'') AS address,
             u.password_hash,u.balance,u.is_seller
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

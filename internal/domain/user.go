package domain

import "github.com/shopspring/decimal"

type User struct {
	ID        string          `db:"id"`
	Email     string          `db:"email"`
	FirstName string          `db:"firstname"`
	LastName  string          `db:"lastname"`
	Address   string          `db:"address"`
	Hash      string          `db:"password_hash"`
	Balance   decimal.Decimal `db:"balance"`
	IsSeller  bool            `db:"is_seller"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

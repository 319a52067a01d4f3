package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

var (
	ErrAmountNotPositive = errors.New("Amount must be positive.")
	ErrOverdraw          = errors.New("Withdrawal amount exceeds current balance.")
)

type AccountService struct {
	Users *repos.UserRepo
}

func NewAccountService(users *repos.UserRepo) *AccountService {
	return &AccountService{Users: users}
}

func (s *AccountService) Get(userID string) (*domain.User, error) {
	return s.Users.ByID(userID)
}

func (s *AccountService) UpdateProfile(userID, firstname, lastname, email, address string) error {
	return s.Users.UpdateAccount(userID, firstname, lastname, email, address)
}

func (s *AccountService) Deposit(userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	return s.Users.Deposit(userID, amount)
}

func (s *AccountService) Withdraw(userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if err := s.Users.Withdraw(userID, amount); err != nil {
		if errors.Is(err, repos.ErrInsufficientFunds) {
			return ErrOverdraw
		}
		return err
	}
	return nil
}

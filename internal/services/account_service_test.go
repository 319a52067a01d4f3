package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func newAccountDB(t *testing.T) *services.AccountService {
	t.Helper()
	db, err := repos.OpenDB(":memory:", true)
	require.NoError(t, err)
	return services.NewAccountService(repos.NewUserRepo(db))
}

func TestDepositAndWithdraw(t *testing.T) {
	svc := newAccountDB(t)

	// u-noor starts at 15.00
	require.NoError(t, svc.Deposit("u-noor", decimal.RequireFromString("10.50")))
	u, err := svc.Get("u-noor")
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("25.5")), "balance: %s", u.Balance)

	require.NoError(t, svc.Withdraw("u-noor", decimal.RequireFromString("20")))
	u, err = svc.Get("u-noor")
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("5.5")), "balance: %s", u.Balance)
}

func TestWithdrawCannotOverdraw(t *testing.T) {
	svc := newAccountDB(t)

	err := svc.Withdraw("u-noor", decimal.RequireFromString("15.01"))
	assert.ErrorIs(t, err, services.ErrOverdraw)
	assert.EqualError(t, err, "Withdrawal amount exceeds current balance.")

	u, err := svc.Get("u-noor")
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("15")))
}

func TestWithdrawSurfacesStorageErrors(t *testing.T) {
	db, err := repos.OpenDB(":memory:", true)
	require.NoError(t, err)
	svc := services.NewAccountService(repos.NewUserRepo(db))

	// Kill the connection; the failure must not read as an overdraw.
	require.NoError(t, db.Close())
	err = svc.Withdraw("u-noor", decimal.RequireFromString("5"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrOverdraw)
}

func TestBalanceMovesRejectNonPositiveAmounts(t *testing.T) {
	svc := newAccountDB(t)

	assert.ErrorIs(t, svc.Deposit("u-noor", decimal.Zero), services.ErrAmountNotPositive)
	assert.ErrorIs(t, svc.Withdraw("u-noor", decimal.RequireFromString("-5")), services.ErrAmountNotPositive)
}

func TestUpdateProfile(t *testing.T) {
	svc := newAccountDB(t)

	require.NoError(t, svc.UpdateProfile("u-ada", "Ada", "Okafor-Bell", "ada@bazaar.test", "99 New St"))
	u, err := svc.Get("u-ada")
	require.NoError(t, err)
	assert.Equal(t, "Okafor-Bell", u.LastName)
	assert.Equal(t, "99 New St", u.Address)
}

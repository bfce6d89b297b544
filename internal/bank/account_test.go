package bank

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	a, err := NewAccount("sidorov s")
	require.NoError(t, err)
	assert.Equal(t, "Sidorov S", a.HolderName())
	assert.GreaterOrEqual(t, a.Number(), MinAccountNumber)
	assert.Less(t, a.Number(), MaxAccountNumber)
	assert.True(t, a.Balance().IsZero())
	assert.Empty(t, a.Transactions())
}

func TestNewAccountWithNumberBounds(t *testing.T) {
	for _, n := range []int64{MinAccountNumber - 1, MaxAccountNumber, 0, -5} {
		_, err := NewAccountWithNumber("Ivanov I", n)
		assert.ErrorIs(t, err, ErrAccountNumber, "number %d", n)
	}
	_, err := NewAccountWithNumber("Ivanov I", MaxAccountNumber-1)
	assert.NoError(t, err)
}

func TestSetHolderName(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 100000001)
	require.NoError(t, a.SetHolderName("petrov p"))
	assert.Equal(t, "Petrov P", a.HolderName())

	err := a.SetHolderName("Petrov")
	assert.True(t, IsFormatError(err))
	assert.Equal(t, "Petrov P", a.HolderName())
}

func TestAddTransactionRejectsDuplicate(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 100000001)
	tx, err := newTransaction(Deposit, a, d("5"), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.setStatus(StatusCommitted))

	require.NoError(t, a.AddTransaction(tx))
	err = a.AddTransaction(tx)
	assert.True(t, IsDuplicateError(err))
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Len(t, a.Transactions(), 1)
	assert.True(t, a.Balance().Equal(d("5")))
}

func TestAddTransactionRejectsNil(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 100000001)
	err := a.AddTransaction(nil)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrMissingTransaction)
	assert.Empty(t, a.Transactions())
	assert.True(t, a.Balance().IsZero())
}

func TestBalanceCacheInvalidation(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 100000001)
	l := NewLedger()

	_, err := l.Perform(Deposit, a, d("7"), nil)
	require.NoError(t, err)

	v, hit := a.lookupBalance()
	assert.False(t, hit)
	assert.True(t, v.Equal(d("7")))
	v, hit = a.lookupBalance()
	assert.True(t, hit)
	assert.True(t, v.Equal(d("7")))

	// 取消的交易仍使快取失效，但不改變餘額
	_, err = l.Perform(Withdraw, a, d("8"), nil)
	require.NoError(t, err)
	v, hit = a.lookupBalance()
	assert.False(t, hit)
	assert.True(t, v.Equal(d("7")))
}

func TestTransactionsReturnsCopy(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 100000001)
	_, err := NewLedger().Perform(Deposit, a, d("1"), nil)
	require.NoError(t, err)

	txs := a.Transactions()
	txs[0] = nil
	assert.NotNil(t, a.Transactions()[0])
}

func TestAccountJSON(t *testing.T) {
	a := mustAccount(t, "Ivanov I", 123456789)
	c := mustAccount(t, "Petrov P", 987654321)
	l := NewLedger()
	_, err := l.Perform(Deposit, a, d("10.25"), nil)
	require.NoError(t, err)
	tx, err := l.Perform(Transfer, a, d("0.25"), c)
	require.NoError(t, err)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":123456789,"holder_name":"Ivanov I","balance":"10","transaction_count":2}`, string(raw))

	raw, err = json.Marshal(tx)
	require.NoError(t, err)
	var view map[string]any
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, "TRANSFER", view["type"])
	assert.Equal(t, "COMMITTED", view["status"])
	assert.Equal(t, "0.25", view["amount"])
	assert.EqualValues(t, 123456789, view["from_account"])
	assert.EqualValues(t, 987654321, view["to_account"])
}

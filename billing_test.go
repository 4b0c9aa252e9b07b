package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_PaidAndSettled(t *testing.T) {
	paidAt := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	open := Transaction{Id: 1, Amount: 90000, Balance: 40000, Status: "open", Receipts: []Receipt{
		{Id: 1, TransactionId: 1, Amount: 30000, PaidAt: paidAt},
		{Id: 2, TransactionId: 1, Amount: 20000, PaidAt: paidAt.AddDate(0, 0, 7)},
	}}
	paid := Transaction{Id: 2, Amount: 45000, Balance: 0, Status: "open"}
	revoked := Transaction{Id: 3, Amount: 45000, Balance: 45000, Status: "revoked"}
	finalized := Transaction{Id: 4, Amount: 45000, Balance: 5000, Status: "finalized"}

	assert.Equal(t, 50000.0, open.Paid())
	assert.False(t, open.Settled())
	assert.True(t, paid.Settled())
	assert.True(t, revoked.Settled())
	assert.True(t, finalized.Settled())

	pending := Pending([]Transaction{open, paid, revoked, finalized})
	assert.Equal(t, []int{1}, lo.Map(pending, func(tx Transaction, _ int) int { return tx.Id }))
}

func TestBilling_CachesReads(t *testing.T) {
	var feeCalls, transactionCalls atomic.Int32
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fees.list":
			feeCalls.Add(1)
			writeJSON(w, http.StatusOK, []Fee{{Id: 1, Name: "Matrícula", Amount: 60000, Period: "yearly"}})
		case "/transactions.list":
			transactionCalls.Add(1)
			assert.Equal(t, "8", r.URL.Query().Get("student_id"))
			writeJSON(w, http.StatusOK, []Transaction{{Id: 3, StudentId: 8, Balance: 100}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	billing := NewBilling(api, newTestCache(t), nil)

	for i := 0; i < 3; i++ {
		fees, err := billing.FeesCached(context.Background())
		require.NoError(t, err)
		require.Len(t, fees, 1)
		assert.Equal(t, "Matrícula", fees[0].Name)

		transactions, err := billing.TransactionsCached(context.Background(), 8)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
	}

	assert.Equal(t, int32(1), feeCalls.Load())
	assert.Equal(t, int32(1), transactionCalls.Load())
}

func TestInPeriodAndRows(t *testing.T) {
	transactions := []Transaction{
		{Id: 1, Amount: 45000, Balance: 15000, DueDate: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
			Receipts: []Receipt{{Id: 1, Amount: 10000}, {Id: 2, Amount: 20000}}},
		{Id: 2, Amount: 45000, Balance: 45000, DueDate: time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)},
		{Id: 3, Amount: 45000, Balance: 45000, DueDate: time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)},
	}

	march := InPeriod(transactions, Filter{Year: 2026, Month: time.March})
	assert.Equal(t, []int{1, 2}, lo.Map(march, func(tx Transaction, _ int) int { return tx.Id }))

	rows := TransactionRows(march)
	require.Len(t, rows, 2)
	assert.Equal(t, 30000.0, rows[0].Paid)
	assert.Equal(t, 0.0, rows[1].Paid)

	assert.Len(t, InPeriod(transactions, Filter{}), 3)
}

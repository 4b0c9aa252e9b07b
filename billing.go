package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const feesKey = "fees"

func transactionsKey(studentId int) string {
	return fmt.Sprintf("transactions:%d", studentId)
}

func (c *APIClient) ListFees(ctx context.Context) ([]Fee, error) {
	fees := make([]Fee, 0, 20)
	if err := c.Call(ctx, http.MethodGet, "fees.list", nil, nil, &fees); err != nil {
		return nil, errors.Wrap(err, "failed to list fees")
	}
	return fees, nil
}

func (c *APIClient) ListTransactions(ctx context.Context, studentId int) ([]Transaction, error) {
	query := url.Values{"student_id": {strconv.Itoa(studentId)}}
	transactions := make([]Transaction, 0, 20)
	if err := c.Call(ctx, http.MethodGet, "transactions.list", query, nil, &transactions); err != nil {
		return nil, errors.Wrapf(err, "failed to list transactions of student %d", studentId)
	}
	return transactions, nil
}

// Paid sums the receipts attached to the transaction.
func (t Transaction) Paid() float64 {
	return lo.SumBy(t.Receipts, func(receipt Receipt) float64 {
		return receipt.Amount
	})
}

// Settled is true once nothing more can be paid into the transaction.
func (t Transaction) Settled() bool {
	return t.Balance <= 0 || t.Status == "finalized" || t.Status == "revoked"
}

type Billing struct {
	api     *APIClient
	cache   *SessionCache
	filters *FilterStore
}

func NewBilling(api *APIClient, cache *SessionCache, filters *FilterStore) *Billing {
	return &Billing{api: api, cache: cache, filters: filters}
}

func (b *Billing) FeesCached(ctx context.Context) ([]Fee, error) {
	return Cached(b.cache, feesKey, func() ([]Fee, error) {
		return b.api.ListFees(ctx)
	})
}

func (b *Billing) TransactionsCached(ctx context.Context, studentId int) ([]Transaction, error) {
	return Cached(b.cache, transactionsKey(studentId), func() ([]Transaction, error) {
		return b.api.ListTransactions(ctx, studentId)
	})
}

// TransactionsInPeriod narrows the student's transactions to the selected filter period.
func (b *Billing) TransactionsInPeriod(ctx context.Context, studentId int) ([]Transaction, error) {
	transactions, err := b.TransactionsCached(ctx, studentId)
	if err != nil {
		return nil, err
	}
	if b.filters == nil {
		return transactions, nil
	}
	return InPeriod(transactions, b.filters.Get()), nil
}

// InPeriod keeps the transactions due inside the filter period.
func InPeriod(transactions []Transaction, filter Filter) []Transaction {
	return lo.Filter(transactions, func(t Transaction, _ int) bool {
		return filter.Contains(t.DueDate)
	})
}

// TransactionRow is a transaction as listed to an operator.
type TransactionRow struct {
	Transaction
	Paid float64 `json:"paid"`
}

func TransactionRows(transactions []Transaction) []TransactionRow {
	return lo.Map(transactions, func(t Transaction, _ int) TransactionRow {
		return TransactionRow{Transaction: t, Paid: t.Paid()}
	})
}

// Pending returns the transactions still open for payment.
func Pending(transactions []Transaction) []Transaction {
	return lo.Reject(transactions, func(t Transaction, _ int) bool {
		return t.Settled()
	})
}

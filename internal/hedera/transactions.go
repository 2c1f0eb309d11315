package hedera

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
	"hedera-defi/internal/units"
)

const (
	maxTransactionsLimit = 100
	whalePageCap         = 5
)

// GetAccountTransactions lists the newest transactions touching an account.
func (c *Client) GetAccountTransactions(ctx context.Context, accountID string, limit int) ([]model.Transaction, error) {
	c.track("getAccountTransactions")
	if err := units.ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	if err := units.ValidateLimit(limit, 1, maxTransactionsLimit); err != nil {
		return nil, err
	}

	raw, _ := c.exec.Execute(ctx, c.mirror, "transactions", url.Values{
		"account.id": {accountID},
		"limit":      {strconv.Itoa(limit)},
		"order":      {"desc"},
	})
	return normalize.Transactions(raw), nil
}

// GetRecentTransactions lists the newest network-wide transactions.
func (c *Client) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	c.track("getRecentTransactions")
	if err := units.ValidateLimit(limit, 1, maxTransactionsLimit); err != nil {
		return nil, err
	}

	raw, _ := c.exec.Execute(ctx, c.mirror, "transactions", url.Values{
		"limit": {strconv.Itoa(limit)},
		"order": {"desc"},
	})
	return normalize.Transactions(raw), nil
}

// GetWhaleTransactions finds successful crypto transfers inside window that
// moved at least threshold HBAR. Results are newest first.
func (c *Client) GetWhaleTransactions(ctx context.Context, threshold decimal.Decimal, window time.Duration) ([]model.WhaleTransfer, error) {
	c.track("getWhaleTransactions")
	if !threshold.IsPositive() {
		return nil, &units.ValidationError{Field: "threshold", Value: threshold.String(), Reason: "must be positive"}
	}
	if window <= 0 {
		return nil, &units.ValidationError{Field: "window", Value: window.String(), Reason: "must be positive"}
	}
	return c.whales(ctx, threshold, window), nil
}

func (c *Client) whales(ctx context.Context, threshold decimal.Decimal, window time.Duration) []model.WhaleTransfer {
	since := c.now().UTC().Add(-window)
	path := "transactions"
	params := url.Values{
		"limit":           {strconv.Itoa(mirrorPageSize)},
		"order":           {"desc"},
		"timestamp":       {"gt:" + mirrorTimestamp(since)},
		"transactiontype": {"CRYPTOTRANSFER"},
	}

	whales := make([]model.WhaleTransfer, 0)
	for page := 0; page < whalePageCap; page++ {
		raw, ok := c.exec.Execute(ctx, c.mirror, path, params)
		for _, tx := range normalize.Transactions(raw) {
			if w, ok := whaleTransfer(tx, threshold); ok {
				whales = append(whales, w)
			}
		}

		next := normalize.NextLink(raw)
		if !ok || next == "" {
			break
		}
		if path, params, ok = c.mirrorPath(next); !ok {
			c.logger.Warn().Str("link", next).Msg("unparseable pagination link")
			break
		}
	}

	if len(whales) == 0 {
		return whales
	}
	price := decimal.Zero
	if rate := c.exchangeRate(ctx); rate != nil {
		price = rate.PriceUSD()
	}
	for i := range whales {
		whales[i].ValueUSD = whales[i].AmountHbar.Mul(price)
	}
	return whales
}

// whaleTransfer picks the largest debit and credit of a transaction. The
// credited amount is the whale size so fee legs do not inflate it.
func whaleTransfer(tx model.Transaction, threshold decimal.Decimal) (model.WhaleTransfer, bool) {
	if !tx.Succeeded() {
		return model.WhaleTransfer{}, false
	}
	var from, to model.Transfer
	for _, t := range tx.Transfers {
		if t.Amount.LessThan(from.Amount) {
			from = t
		}
		if t.Amount.GreaterThan(to.Amount) {
			to = t
		}
	}
	if to.AccountID == "" || to.Amount.LessThan(threshold) {
		return model.WhaleTransfer{}, false
	}
	return model.WhaleTransfer{
		TransactionID: tx.TransactionID,
		ConsensusAt:   tx.ConsensusAt,
		From:          from.AccountID,
		To:            to.AccountID,
		AmountHbar:    to.Amount,
	}, true
}

// mirrorTimestamp renders t as the mirror node's "seconds.nanoseconds".
func mirrorTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}

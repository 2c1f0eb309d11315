package hedera

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
	"hedera-defi/internal/units"
)

// Sort orders accepted by GetTopTokens. The empty order keeps the mirror
// node's token id order.
const (
	SortNone   = ""
	SortSupply = "supply"
	SortSymbol = "symbol"
	SortName   = "name"
	SortPrice  = "price"
)

// GetTopTokens lists up to limit fungible tokens, priced from the DEX token
// list where possible.
func (c *Client) GetTopTokens(ctx context.Context, limit int, sortBy string) ([]model.Token, error) {
	c.track("getTopTokens")
	if err := units.ValidateLimit(limit, 1, maxTopTokensLimit); err != nil {
		return nil, err
	}
	sortBy = strings.ToLower(strings.TrimSpace(sortBy))
	switch sortBy {
	case SortNone, SortSupply, SortSymbol, SortName, SortPrice:
	default:
		return nil, &units.ValidationError{Field: "sortBy", Value: sortBy, Reason: "expected supply, symbol, name or price"}
	}

	tokens := c.mirrorTokens(ctx, limit)
	c.enrichPrices(ctx, tokens)
	sortTokens(tokens, sortBy)
	return tokens, nil
}

// GetTokenInfo returns nil without error when the token cannot be fetched.
func (c *Client) GetTokenInfo(ctx context.Context, tokenID string) (*model.Token, error) {
	c.track("getTokenInfo")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return nil, err
	}

	raw, _ := c.exec.Execute(ctx, c.mirror, "tokens/"+tokenID, nil)
	token := normalize.Token(raw)
	if token == nil {
		return nil, nil
	}
	single := []model.Token{*token}
	c.enrichPrices(ctx, single)
	return &single[0], nil
}

// GetAllTokenImages groups DEX token icons by token id.
func (c *Client) GetAllTokenImages(ctx context.Context) model.TokenImages {
	c.track("getAllTokenImages")
	return normalize.TokenImages(c.dexTokens(ctx))
}

func (c *Client) mirrorTokens(ctx context.Context, want int) []model.Token {
	path := "tokens"
	params := url.Values{
		"limit": {strconv.Itoa(min(want, mirrorPageSize))},
		"type":  {"FUNGIBLE_COMMON"},
	}

	tokens := make([]model.Token, 0, want)
	maxPages := want/mirrorPageSize + 1
	for page := 0; page < maxPages && len(tokens) < want; page++ {
		raw, ok := c.exec.Execute(ctx, c.mirror, path, params)
		tokens = append(tokens, normalize.Tokens(raw)...)

		next := normalize.NextLink(raw)
		if !ok || next == "" {
			break
		}
		if path, params, ok = c.mirrorPath(next); !ok {
			c.logger.Warn().Str("link", next).Msg("unparseable pagination link")
			break
		}
	}

	if len(tokens) > want {
		tokens = tokens[:want]
	}
	return tokens
}

// mirrorPath splits a links.next value such as
// "/api/v1/tokens?limit=100&token.id=gt:0.0.5" into a path relative to the
// mirror base URL and its query.
func (c *Client) mirrorPath(link string) (string, url.Values, bool) {
	next, err := url.Parse(link)
	if err != nil {
		return "", nil, false
	}
	base, err := url.Parse(c.mirror.BaseURL)
	if err != nil {
		return "", nil, false
	}
	path := strings.TrimPrefix(next.Path, strings.TrimRight(base.Path, "/"))
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", nil, false
	}
	return path, next.Query(), true
}

// enrichPrices joins DEX prices and icons by token id.
func (c *Client) enrichPrices(ctx context.Context, tokens []model.Token) {
	if len(tokens) == 0 {
		return
	}
	byID := make(map[string]model.Token)
	for _, t := range c.dexTokens(ctx) {
		byID[t.TokenID] = t
	}
	for i := range tokens {
		if dex, ok := byID[tokens[i].TokenID]; ok {
			tokens[i].Price = dex.Price
			tokens[i].IconURL = dex.IconURL
			tokens[i].InTopPools = dex.InTopPools
		}
	}
}

func sortTokens(tokens []model.Token, sortBy string) {
	var less func(a, b model.Token) bool
	switch sortBy {
	case SortSupply:
		less = func(a, b model.Token) bool { return a.TotalSupply > b.TotalSupply }
	case SortSymbol:
		less = func(a, b model.Token) bool { return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol) }
	case SortName:
		less = func(a, b model.Token) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortPrice:
		less = func(a, b model.Token) bool { return a.Price.GreaterThan(b.Price) }
	default:
		return
	}
	sort.SliceStable(tokens, func(i, j int) bool { return less(tokens[i], tokens[j]) })
}

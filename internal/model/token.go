package model

import "github.com/shopspring/decimal"

// Token merges mirror-node token metadata with DEX pricing. Price, TVL,
// Volume24h and Holders are zero when unknown, not verified zero.
type Token struct {
	TokenID     string          `json:"token_id"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Type        string          `json:"type,omitempty"`
	Decimals    int32           `json:"decimals"`
	TotalSupply int64           `json:"total_supply"`
	Price       decimal.Decimal `json:"price"`
	TVL         decimal.Decimal `json:"tvl"`
	Volume24h   decimal.Decimal `json:"volume_24h"`
	Holders     int64           `json:"holders"`
	IconURL     string          `json:"icon_url,omitempty"`
	InTopPools  bool            `json:"in_top_pools,omitempty"`
}

// TokenImage is the icon metadata for one DEX token.
type TokenImage struct {
	TokenID string `json:"token_id"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

// TokenImageStats summarises TokenImages.
type TokenImageStats struct {
	TotalTokens      int `json:"total_tokens"`
	TokensWithImages int `json:"tokens_with_images"`
	PNGImagesCount   int `json:"png_images_count"`
	OtherFormatCount int `json:"other_format_count"`
}

// TokenImages groups icons by token id.
type TokenImages struct {
	AllImages map[string]TokenImage `json:"all_images"`
	PNGImages map[string]TokenImage `json:"png_images"`
	Stats     TokenImageStats       `json:"stats"`
}

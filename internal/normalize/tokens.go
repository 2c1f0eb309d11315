package normalize

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"hedera-defi/internal/model"
)

// IconBaseURL prefixes relative DEX icon paths.
const IconBaseURL = "https://www.saucerswap.finance"

// Token maps a mirror node token detail. It returns nil when the payload has
// no token id.
func Token(raw json.RawMessage) *model.Token {
	r, ok := object(raw)
	if !ok {
		return nil
	}
	token := mirrorToken(r)
	if token.TokenID == "" {
		return nil
	}
	return &token
}

// Tokens maps the mirror node token list.
func Tokens(raw json.RawMessage) []model.Token {
	items := list(parse(raw), "tokens")
	tokens := make([]model.Token, 0, len(items))
	for _, item := range items {
		tokens = append(tokens, mirrorToken(item))
	}
	return tokens
}

func mirrorToken(r gjson.Result) model.Token {
	return model.Token{
		TokenID:     str(r, "token_id", "tokenId"),
		Symbol:      str(r, "symbol"),
		Name:        str(r, "name"),
		Type:        str(r, "type"),
		Decimals:    i32(r, "decimals"),
		TotalSupply: i64(r, "total_supply", "totalSupply"),
	}
}

// DexTokens maps the DEX token list, which carries USD prices and icons.
func DexTokens(raw json.RawMessage) []model.Token {
	items := list(parse(raw), "tokens")
	tokens := make([]model.Token, 0, len(items))
	for _, item := range items {
		tokens = append(tokens, model.Token{
			TokenID:    str(item, "id", "token_id", "tokenId"),
			Symbol:     str(item, "symbol"),
			Name:       str(item, "name"),
			Decimals:   i32(item, "decimals"),
			Price:      dec(item, "price_usd", "priceUsd"),
			IconURL:    IconURL(str(item, "icon")),
			InTopPools: boolean(item, "in_top_pools", "inTopPools"),
		})
	}
	return tokens
}

// IconURL resolves a possibly relative icon path.
func IconURL(icon string) string {
	icon = strings.TrimSpace(icon)
	switch {
	case icon == "":
		return ""
	case strings.HasPrefix(icon, "http://"), strings.HasPrefix(icon, "https://"):
		return icon
	case strings.HasPrefix(icon, "/"):
		return IconBaseURL + icon
	default:
		return IconBaseURL + "/" + icon
	}
}

// TokenImages groups DEX token icons, separating PNG files.
func TokenImages(tokens []model.Token) model.TokenImages {
	images := model.TokenImages{
		AllImages: make(map[string]model.TokenImage),
		PNGImages: make(map[string]model.TokenImage),
	}
	images.Stats.TotalTokens = len(tokens)

	for _, t := range tokens {
		if t.IconURL == "" || t.TokenID == "" {
			continue
		}
		img := model.TokenImage{TokenID: t.TokenID, Symbol: t.Symbol, Name: t.Name, IconURL: t.IconURL}
		images.AllImages[t.TokenID] = img

		path := strings.ToLower(t.IconURL)
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		if strings.HasSuffix(path, ".png") {
			images.PNGImages[t.TokenID] = img
		}
	}

	images.Stats.TokensWithImages = len(images.AllImages)
	images.Stats.PNGImagesCount = len(images.PNGImages)
	images.Stats.OtherFormatCount = images.Stats.TokensWithImages - images.Stats.PNGImagesCount
	return images
}

// NextLink returns links.next of a paged mirror node response.
func NextLink(raw json.RawMessage) string {
	return str(pick(parse(raw), "links"), "next")
}

package fetcher

import (
	"net/url"
	"strings"
)

// Source tags used in cache keys and logs.
const (
	SourceMirror     = "mirror"
	SourceSaucerSwap = "saucerswap"
	SourceBonzo      = "bonzo"
)

// Default upstream endpoints.
const (
	DefaultMirrorURL     = "https://mainnet-public.mirrornode.hedera.com/api/v1"
	DefaultSaucerSwapURL = "https://server.saucerswap.finance/api/public"
	DefaultBonzoURL      = "https://mainnet-data.bonzo.finance"

	saucerSwapOrigin = "https://www.saucerswap.finance"
	bonzoOrigin      = "https://app.bonzo.finance"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Source describes one upstream API: where it lives, which headers it needs
// and whether query parameters are forwarded.
type Source struct {
	Name     string
	BaseURL  string
	Headers  map[string]string
	UseQuery bool
}

// MirrorSource is the Hedera mirror node REST API. Query parameters are
// passed through. The API key is optional and only sent when set.
func MirrorSource(baseURL, apiKey string) Source {
	if baseURL == "" {
		baseURL = DefaultMirrorURL
	}
	headers := map[string]string{"Accept": "application/json"}
	if apiKey != "" {
		headers["x-api-key"] = apiKey
	}
	return Source{
		Name:     SourceMirror,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Headers:  headers,
		UseQuery: true,
	}
}

// SaucerSwapSource is the SaucerSwap public API. It rejects requests that
// do not look like they come from the SaucerSwap web app.
func SaucerSwapSource(baseURL string) Source {
	if baseURL == "" {
		baseURL = DefaultSaucerSwapURL
	}
	return Source{
		Name:    SourceSaucerSwap,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Headers: browserHeaders(saucerSwapOrigin),
	}
}

// BonzoSource is the Bonzo Finance data API.
func BonzoSource(baseURL string) Source {
	if baseURL == "" {
		baseURL = DefaultBonzoURL
	}
	return Source{
		Name:    SourceBonzo,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Headers: browserHeaders(bonzoOrigin),
	}
}

func browserHeaders(origin string) map[string]string {
	return map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Origin":          origin,
		"Referer":         origin + "/",
		"User-Agent":      browserUserAgent,
		"sec-fetch-dest":  "empty",
		"sec-fetch-mode":  "cors",
		"sec-fetch-site":  "same-site",
	}
}

// URL builds the request URL for path.
func (s Source) URL(path string, params url.Values) string {
	endpoint := s.BaseURL + "/" + strings.TrimLeft(path, "/")
	if s.UseQuery && len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

// CacheKey is source:path:encoded-params. Headers are not part of the key;
// they are constant per source.
func (s Source) CacheKey(path string, params url.Values) string {
	encoded := ""
	if s.UseQuery {
		encoded = params.Encode()
	}
	return s.Name + ":" + strings.TrimLeft(path, "/") + ":" + encoded
}

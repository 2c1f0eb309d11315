package normalize

import (
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

// NetworkSupply converts the mirror node supply payload to HBAR. When the
// payload carries no usable timestamp, now is used.
func NetworkSupply(raw json.RawMessage, now time.Time) model.NetworkSupply {
	r := parse(raw)
	supply := model.NetworkSupply{
		TotalSupply:       units.TinybarsToHbar(dec(r, "total_supply", "totalSupply")),
		CirculatingSupply: units.TinybarsToHbar(dec(r, "released_supply", "releasedSupply", "circulating_supply")),
		Timestamp:         now.UTC(),
	}
	if ts, ok := units.ParseTimestamp(str(r, "timestamp")); ok {
		supply.Timestamp = ts
	}
	return supply
}

// NetworkNodes maps the node list; stakes are converted to HBAR.
func NetworkNodes(raw json.RawMessage) []model.NetworkNode {
	items := list(parse(raw), "nodes")
	nodes := make([]model.NetworkNode, 0, len(items))
	for _, item := range items {
		node := model.NetworkNode{
			NodeID:      i64(item, "node_id", "nodeId"),
			NodeAccount: str(item, "node_account_id", "nodeAccountId"),
			Description: str(item, "description"),
			Memo:        str(item, "memo"),
			Stake:       units.TinybarsToHbar(dec(item, "stake")),
			StakeReward: units.TinybarsToHbar(dec(item, "stake_rewarded", "stakeRewarded")),
			RewardRate:  i64(item, "reward_rate_start", "rewardRateStart"),
			Endpoints:   make([]string, 0),
		}
		for _, ep := range list(item, "service_endpoints", "serviceEndpoints") {
			host := str(ep, "domain_name", "domainName")
			if host == "" {
				host = str(ep, "ip_address_v4", "ipAddressV4")
			}
			if host == "" {
				continue
			}
			if port := i64(ep, "port"); port > 0 {
				host = net.JoinHostPort(host, strconv.FormatInt(port, 10))
			}
			node.Endpoints = append(node.Endpoints, host)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// ExchangeRate returns nil when the payload has no current rate.
func ExchangeRate(raw json.RawMessage) *model.NetworkExchangeRate {
	r, ok := object(raw)
	if !ok {
		return nil
	}
	current := pick(r, "current_rate", "currentRate")
	if !current.IsObject() {
		return nil
	}

	rate := &model.NetworkExchangeRate{
		Current: exchangeRate(current),
		Next:    exchangeRate(pick(r, "next_rate", "nextRate")),
	}
	if ts, ok := units.ParseTimestamp(str(r, "timestamp")); ok {
		rate.Timestamp = ts
	}
	return rate
}

func exchangeRate(r gjson.Result) model.ExchangeRate {
	rate := model.ExchangeRate{
		HbarEquivalent: i64(r, "hbar_equivalent", "hbarEquivalent"),
		CentEquivalent: i64(r, "cent_equivalent", "centEquivalent"),
	}
	if exp := i64(r, "expiration_time", "expirationTime"); exp > 0 {
		rate.ExpirationTime = time.Unix(exp, 0).UTC()
	}
	return rate
}

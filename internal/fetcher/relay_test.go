package fetcher

import (
	"context"
	"testing"
)

func TestRelayMissingConfig(t *testing.T) {
	relay := NewRelay(RelayOptions{}, noopLogger())
	if _, _, err := relay.NativeBalance(context.Background(), "0x00000000000000000000000000000000000004d2"); err == nil {
		t.Fatal("未配置 RPC 时应报错")
	}
}

func TestRelayRejectsInvalidAddresses(t *testing.T) {
	relay := NewRelay(RelayOptions{RPCURL: "http://localhost"}, noopLogger())
	if _, _, err := relay.NativeBalance(context.Background(), "0.0.1234"); err == nil {
		t.Fatal("非 EVM 地址应报错")
	}
	if _, _, err := relay.TokenBalance(context.Background(), "nope", "0x00000000000000000000000000000000000004d2"); err == nil {
		t.Fatal("invalid token address should error")
	}
}

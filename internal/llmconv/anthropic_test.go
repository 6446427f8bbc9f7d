package llmconv

import "testing"

func TestEstimateCostUSDKnownModel(t *testing.T) {
	usage := &Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	got := estimateCostUSD("claude-sonnet-4-20250514", usage)
	want := 3.00 + 15.00
	if got != want {
		t.Fatalf("estimateCostUSD() = %v, want %v", got, want)
	}
}

func TestEstimateCostUSDUnknownModelIsZero(t *testing.T) {
	usage := &Usage{InputTokens: 1000, OutputTokens: 1000}
	if got := estimateCostUSD("some-future-model", usage); got != 0 {
		t.Fatalf("estimateCostUSD() = %v, want 0 for unknown model", got)
	}
}

func TestEstimateCostUSDNilUsage(t *testing.T) {
	if got := estimateCostUSD("claude-sonnet-4-20250514", nil); got != 0 {
		t.Fatalf("estimateCostUSD() = %v, want 0 for nil usage", got)
	}
}

func TestEstimateCostUSDIncludesCacheReads(t *testing.T) {
	usage := &Usage{CacheReadTokens: 1_000_000}
	got := estimateCostUSD("claude-sonnet-4-20250514", usage)
	if got != 3.00 {
		t.Fatalf("estimateCostUSD() = %v, want 3.00 for cache-read-only input", got)
	}
}

package stats

import "testing"

func TestCacheHitBookkeepingIsAtomic(t *testing.T) {
	a := New()
	a.RecordCacheHit("openai", 3, 1)

	snap := a.Snapshot(0)
	if snap.TotalRequests != 1 || snap.SuccessfulRequests != 1 || snap.CacheHits != 1 {
		t.Fatalf("unexpected snapshot after cache hit: %+v", snap)
	}
	if snap.TotalInputTokens != 3 || snap.TotalOutputTokens != 1 {
		t.Fatalf("unexpected token counters: %+v", snap)
	}
}

func TestCacheHitScenarioExactNumbers(t *testing.T) {
	// §8 scenario 1.
	a := New()
	a.RecordCacheHit("openai", 3, 1)

	snap := a.Snapshot(0)
	if snap.TotalRequests != 1 || snap.SuccessfulRequests != 1 || snap.CacheHits != 1 ||
		snap.TotalInputTokens != 3 || snap.TotalOutputTokens != 1 {
		t.Fatalf("scenario mismatch: %+v", snap)
	}
}

func TestSuccessAndFailureEachCountTotalsOnce(t *testing.T) {
	a := New()
	a.RecordSuccess("anthropic", 5, 2)
	a.RecordFailure("openai", "transport_error", "boom")

	snap := a.Snapshot(0)
	if snap.TotalRequests != 2 {
		t.Fatalf("expected total=2, got %d", snap.TotalRequests)
	}
	if snap.SuccessfulRequests != 1 || snap.FailedRequests != 1 {
		t.Fatalf("expected 1 success + 1 failure, got %+v", snap)
	}
	if snap.TotalRequests != snap.SuccessfulRequests+snap.FailedRequests {
		t.Fatalf("invariant violated: total != successful+failed: %+v", snap)
	}
}

func TestCacheMissDoesNotDoubleCountTotals(t *testing.T) {
	a := New()
	a.RecordCacheMiss()
	a.RecordSuccess("openai", 1, 1)

	snap := a.Snapshot(0)
	if snap.CacheMisses != 1 {
		t.Fatalf("expected cacheMisses=1, got %d", snap.CacheMisses)
	}
	if snap.TotalRequests != 1 {
		t.Fatalf("a miss followed by success must count totals once, got total=%d", snap.TotalRequests)
	}
}

func TestCacheHitsPlusMissesNeverExceedsTotal(t *testing.T) {
	a := New()
	a.RecordCacheHit("openai", 1, 1)
	a.RecordCacheMiss()
	a.RecordSuccess("anthropic", 1, 1)

	snap := a.Snapshot(0)
	if snap.CacheHits+snap.CacheMisses > snap.TotalRequests {
		t.Fatalf("invariant violated: cacheHits+cacheMisses > total: %+v", snap)
	}
}

func TestRecentErrorsBoundedFIFO(t *testing.T) {
	a := New()
	for i := 0; i < 15; i++ {
		a.RecordFailure("openai", "transport_error", "error")
	}

	snap := a.Snapshot(0)
	if len(snap.RecentErrors) != maxRecentErrors {
		t.Fatalf("expected recentErrors bounded to %d, got %d", maxRecentErrors, len(snap.RecentErrors))
	}
	if snap.TotalErrors != 15 {
		t.Fatalf("expected total error count to keep growing past the FIFO bound, got %d", snap.TotalErrors)
	}
}

func TestFailoverScenarioByProviderBreakdown(t *testing.T) {
	// §8 scenario 2: primary openai fails, anthropic succeeds.
	a := New()
	a.RecordSuccess("anthropic", 5, 2)

	snap := a.Snapshot(0)
	if len(snap.RequestsLabels) != 1 || snap.RequestsLabels[0] != "anthropic" || snap.RequestsData[0] != 1 {
		t.Fatalf("expected anthropic to be credited with the request, got %+v", snap)
	}
}

// Package stats implements the analytics aggregator: the process-wide
// counters for requests, tokens, errors, and cache hits/misses, with a
// single shared lock guarding all mutations.
//
// Contract (§4.5): for every terminal disposition of a request — cache hit,
// provider success, or failure — exactly one bookkeeping method runs, never
// two. Reads (Snapshot) take the same lock but never block on I/O, since
// counters are monotonic in-memory values.
package stats

import (
	"sort"
	"sync"
)

const maxRecentErrors = 10

type requestCounters struct {
	total            int
	successful       int
	failed           int
	byProvider       map[string]int
	errorsByProvider map[string]int
	cacheHits        int
	cacheMisses      int
}

type tokenCounters struct {
	totalInput       int
	totalOutput      int
	inputByProvider  map[string]int
	outputByProvider map[string]int
}

type errorCounters struct {
	total        int
	byType       map[string]int
	recentErrors []string
}

// Aggregator is the Analytics Aggregator (C5). Safe for concurrent use.
type Aggregator struct {
	mu  sync.Mutex
	req requestCounters
	tok tokenCounters
	err errorCounters
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		req: requestCounters{
			byProvider:       make(map[string]int),
			errorsByProvider: make(map[string]int),
		},
		tok: tokenCounters{
			inputByProvider:  make(map[string]int),
			outputByProvider: make(map[string]int),
		},
		err: errorCounters{
			byType: make(map[string]int),
		},
	}
}

// RecordCacheHit executes the single cache-hit bookkeeping block: total,
// successful, cacheHits, per-provider request/token counters all move
// together under one critical section.
func (a *Aggregator) RecordCacheHit(provider string, inputTokens, outputTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.req.total++
	a.req.successful++
	a.req.cacheHits++
	a.req.byProvider[provider]++
	a.tok.totalInput += inputTokens
	a.tok.totalOutput += outputTokens
	a.tok.inputByProvider[provider] += inputTokens
	a.tok.outputByProvider[provider] += outputTokens
}

// RecordCacheMiss increments cacheMisses only. It does not touch totals —
// the request's eventual provider-success or -failure disposition increments
// totals exactly once via RecordSuccess/RecordFailure.
func (a *Aggregator) RecordCacheMiss() {
	a.mu.Lock()
	a.req.cacheMisses++
	a.mu.Unlock()
}

// RecordSuccess executes the provider-success bookkeeping block.
func (a *Aggregator) RecordSuccess(provider string, inputTokens, outputTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.req.total++
	a.req.successful++
	a.req.byProvider[provider]++
	a.tok.totalInput += inputTokens
	a.tok.totalOutput += outputTokens
	a.tok.inputByProvider[provider] += inputTokens
	a.tok.outputByProvider[provider] += outputTokens
}

// RecordFailure executes the failure bookkeeping block: failedRequests++,
// errorsByProvider[primary]++, errorStats.total++, errorStats.byType[kind]++,
// and appends to the bounded recentErrors FIFO.
func (a *Aggregator) RecordFailure(primaryProvider, kind, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.req.total++
	a.req.failed++
	a.req.errorsByProvider[primaryProvider]++

	a.err.total++
	a.err.byType[kind]++
	a.err.recentErrors = append(a.err.recentErrors, message)
	if len(a.err.recentErrors) > maxRecentErrors {
		a.err.recentErrors = a.err.recentErrors[len(a.err.recentErrors)-maxRecentErrors:]
	}
}

// Snapshot is the read-only view of every counter, carrying the exact field
// names the external HTML stats template expects (§6).
type Snapshot struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	CacheHits          int
	CacheMisses        int
	CacheHitRate       float64
	TotalInputTokens   int
	TotalOutputTokens  int
	TotalErrors        int
	RecentErrors       []string

	RequestsLabels   []string
	RequestsData     []int
	TokensLabels     []string
	InputTokensData  []int
	OutputTokensData []int
	ErrorLabels      []string
	ErrorData        []int

	CacheSize int
}

// Snapshot takes the lock once and returns a consistent, fully-populated view
// of every counter group. cacheSize is supplied by the caller since cache
// size lives in the PromptCache, not the Aggregator.
func (a *Aggregator) Snapshot(cacheSize int) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	hitRate := 0.0
	if total := a.req.cacheHits + a.req.cacheMisses; total > 0 {
		hitRate = float64(a.req.cacheHits) / float64(total)
	}

	providers := sortedKeys(a.req.byProvider)
	requestsData := make([]int, len(providers))
	inputTokensData := make([]int, len(providers))
	outputTokensData := make([]int, len(providers))
	for i, p := range providers {
		requestsData[i] = a.req.byProvider[p]
		inputTokensData[i] = a.tok.inputByProvider[p]
		outputTokensData[i] = a.tok.outputByProvider[p]
	}

	errTypes := sortedKeys(a.err.byType)
	errorData := make([]int, len(errTypes))
	for i, k := range errTypes {
		errorData[i] = a.err.byType[k]
	}

	recent := make([]string, len(a.err.recentErrors))
	copy(recent, a.err.recentErrors)

	return Snapshot{
		TotalRequests:      a.req.total,
		SuccessfulRequests: a.req.successful,
		FailedRequests:     a.req.failed,
		CacheHits:          a.req.cacheHits,
		CacheMisses:        a.req.cacheMisses,
		CacheHitRate:       hitRate,
		TotalInputTokens:   a.tok.totalInput,
		TotalOutputTokens:  a.tok.totalOutput,
		TotalErrors:        a.err.total,
		RecentErrors:       recent,
		RequestsLabels:     providers,
		RequestsData:       requestsData,
		TokensLabels:       providers,
		InputTokensData:    inputTokensData,
		OutputTokensData:   outputTokensData,
		ErrorLabels:        errTypes,
		ErrorData:          errorData,
		CacheSize:          cacheSize,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

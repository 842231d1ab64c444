package dto

import "errors"

var (
	// ErrPriceUnavailable means the price provider failed or returned an
	// empty or unusable series after a cache miss. Fatal to the run: no
	// report can be produced without price data.
	ErrPriceUnavailable = errors.New("price data unavailable")

	// ErrInsufficientData means the price series is shorter than the longest
	// moving-average window. Fatal to classification.
	ErrInsufficientData = errors.New("insufficient price data for classification")

	// ErrStorageUnavailable means the relational store is unreachable.
	// Non-fatal: persistence is skipped and the run continues degraded.
	ErrStorageUnavailable = errors.New("relational storage unavailable")

	// ErrCacheUnavailable means the key-value store is unreachable. Never
	// surfaced to callers: every cache operation degrades to a miss.
	ErrCacheUnavailable = errors.New("cache store unavailable")
)

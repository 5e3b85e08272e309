package model

import "time"

// FundingRate is one venue's current funding rate for one market. The
// annualized rate is computed once when the record is created and never
// recomputed downstream.
type FundingRate struct {
	Exchange              string     `json:"exchange"`
	Symbol                string     `json:"symbol"`
	RawSymbol             string     `json:"rawSymbol"`
	FundingRate           float64    `json:"fundingRate"`
	FundingRateAnnualized float64    `json:"fundingRateAnnualized"`
	Timestamp             time.Time  `json:"timestamp"`
	FundingInterval       float64    `json:"fundingInterval"`
	NextFundingTime       *time.Time `json:"nextFundingTime,omitempty"`
	MarkPrice             *float64   `json:"markPrice,omitempty"`
	IndexPrice            *float64   `json:"indexPrice,omitempty"`
	OpenInterest          *float64   `json:"openInterest,omitempty"`
	Volume24h             *float64   `json:"volume24h,omitempty"`
}

// FetchResult is the outcome of one adapter invocation. Immutable once
// produced; Rates is empty when Success is false.
type FetchResult struct {
	Success   bool          `json:"success"`
	Rates     []FundingRate `json:"rates"`
	Error     string        `json:"error,omitempty"`
	FetchTime time.Time     `json:"fetchTime"`
}

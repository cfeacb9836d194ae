package kite

import "fmt"

// envelope is the common Kite Connect response wrapper
type envelope[T any] struct {
	Status    string `json:"status"`
	Data      T      `json:"data"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

// SessionData is returned by POST /session/token
type SessionData struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	AccessToken string `json:"access_token"`
	LoginTime   string `json:"login_time"`
}

// Quote is one instrument entry of GET /quote
type Quote struct {
	InstrumentToken int64   `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	Volume          int64   `json:"volume"`
	OI              int64   `json:"oi"`
	OHLC            OHLC    `json:"ohlc"`
	Depth           Depth   `json:"depth"`
}

// OHLC is the day's open/high/low/close
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Depth is the top of book
type Depth struct {
	Buy  []DepthItem `json:"buy"`
	Sell []DepthItem `json:"sell"`
}

// DepthItem is one price level
type DepthItem struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// BestBid returns the first buy level price or 0
func (q Quote) BestBid() float64 {
	if len(q.Depth.Buy) == 0 {
		return 0
	}
	return q.Depth.Buy[0].Price
}

// BestAsk returns the first sell level price or 0
func (q Quote) BestAsk() float64 {
	if len(q.Depth.Sell) == 0 {
		return 0
	}
	return q.Depth.Sell[0].Price
}

// APIError is a Kite error response
type APIError struct {
	StatusCode int
	ErrorType  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kite %s (%d): %s", e.ErrorType, e.StatusCode, e.Message)
}

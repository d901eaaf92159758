package oanda

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rustyeddy/fxbot/broker"
	"github.com/rustyeddy/fxbot/market"
)

const (
	// PracticeURL is OANDA's demo environment.
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is OANDA's live trading environment.
	LiveURL = "https://api-fxtrade.oanda.com"
)

// Client implements broker.Broker against the OANDA v20 REST API.
type Client struct {
	accountID string
	http      *resty.Client
}

// NewClient builds an OANDA client for the given account. practice selects
// the demo environment.
func NewClient(accountID, token string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{accountID: accountID, http: http}
}

type apiError struct {
	Message string `json:"errorMessage"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, resty.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out).SetError(&apiError{})
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("oanda %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
			msg = e.Message
		}
		return fmt.Errorf("oanda %s %s: %s", method, path, msg)
	}
	return nil
}

type accountSummary struct {
	Account struct {
		ID              string `json:"id"`
		Currency        string `json:"currency"`
		Balance         string `json:"balance"`
		NAV             string `json:"NAV"`
		UnrealizedPL    string `json:"unrealizedPL"`
		MarginUsed      string `json:"marginUsed"`
		MarginAvailable string `json:"marginAvailable"`
		OpenTradeCount  int    `json:"openTradeCount"`
	} `json:"account"`
}

func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var out accountSummary
	if err := c.get(ctx, "/v3/accounts/"+c.accountID+"/summary", &out); err != nil {
		return broker.Account{}, err
	}
	a := out.Account
	return broker.Account{
		ID:           a.ID,
		Currency:     a.Currency,
		Balance:      num(a.Balance),
		NAV:          num(a.NAV),
		UnrealizedPL: num(a.UnrealizedPL),
		MarginUsed:   num(a.MarginUsed),
		MarginAvail:  num(a.MarginAvailable),
		OpenTrades:   a.OpenTradeCount,
	}, nil
}

type pricingResponse struct {
	Prices []struct {
		Instrument string    `json:"instrument"`
		Time       time.Time `json:"time"`
		Bids       []struct {
			Price string `json:"price"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
		} `json:"asks"`
	} `json:"prices"`
}

func (c *Client) GetPrice(ctx context.Context, instrument string) (market.Price, error) {
	var out pricingResponse
	req := c.http.R().SetContext(ctx).
		SetQueryParam("instruments", instrument).
		SetResult(&out).SetError(&apiError{})
	resp, err := req.Get("/v3/accounts/" + c.accountID + "/pricing")
	if err != nil {
		return market.Price{}, fmt.Errorf("oanda pricing: %w", err)
	}
	if resp.IsError() {
		return market.Price{}, fmt.Errorf("oanda pricing: %s", resp.Status())
	}
	if len(out.Prices) == 0 || len(out.Prices[0].Bids) == 0 || len(out.Prices[0].Asks) == 0 {
		return market.Price{}, fmt.Errorf("oanda pricing: no quote for %s", instrument)
	}
	p := out.Prices[0]
	return market.Price{
		Instrument: instrument,
		Bid:        num(p.Bids[0].Price),
		Ask:        num(p.Asks[0].Price),
		Time:       p.Time,
	}, nil
}

type openPositionsResponse struct {
	Positions []struct {
		Instrument string `json:"instrument"`
		Long       side   `json:"long"`
		Short      side   `json:"short"`
	} `json:"positions"`
}

type side struct {
	Units        string `json:"units"`
	AveragePrice string `json:"averagePrice"`
	UnrealizedPL string `json:"unrealizedPL"`
}

func (c *Client) GetOpenPositions(ctx context.Context) ([]broker.Position, error) {
	var out openPositionsResponse
	if err := c.get(ctx, "/v3/accounts/"+c.accountID+"/openPositions", &out); err != nil {
		return nil, err
	}

	var positions []broker.Position
	for _, p := range out.Positions {
		for _, s := range []side{p.Long, p.Short} {
			units := num(s.Units)
			if units == 0 {
				continue
			}
			positions = append(positions, broker.Position{
				Instrument:   p.Instrument,
				Units:        units,
				AveragePrice: num(s.AveragePrice),
				UnrealizedPL: num(s.UnrealizedPL),
			})
		}
	}
	return positions, nil
}

type orderRequest struct {
	Order orderBody `json:"order"`
}

type orderBody struct {
	Type             string      `json:"type"`
	Instrument       string      `json:"instrument"`
	Units            string      `json:"units"`
	StopLossOnFill   *priceField `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *priceField `json:"takeProfitOnFill,omitempty"`
}

type priceField struct {
	Price string `json:"price"`
}

type transaction struct {
	ID         string    `json:"id"`
	Instrument string    `json:"instrument"`
	Units      string    `json:"units"`
	Price      string    `json:"price"`
	PL         string    `json:"pl"`
	Time       time.Time `json:"time"`
}

type orderResponse struct {
	OrderFillTransaction   *transaction `json:"orderFillTransaction"`
	OrderCreateTransaction *transaction `json:"orderCreateTransaction"`
	OrderCancelTransaction *struct {
		Reason string `json:"reason"`
	} `json:"orderCancelTransaction"`
}

func (c *Client) CreateMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderFill, error) {
	body := orderRequest{Order: orderBody{
		Type:       "MARKET",
		Instrument: req.Instrument,
		Units:      strconv.FormatFloat(req.Units, 'f', 0, 64),
	}}
	if req.StopLoss != nil {
		body.Order.StopLossOnFill = &priceField{Price: price(*req.StopLoss)}
	}
	if req.TakeProfit != nil {
		body.Order.TakeProfitOnFill = &priceField{Price: price(*req.TakeProfit)}
	}

	var out orderResponse
	if err := c.do(ctx, resty.MethodPost, "/v3/accounts/"+c.accountID+"/orders", body, &out); err != nil {
		return broker.OrderFill{}, err
	}
	if out.OrderCancelTransaction != nil {
		return broker.OrderFill{}, fmt.Errorf("oanda order canceled: %s", out.OrderCancelTransaction.Reason)
	}
	return fillFrom(out, req.Instrument)
}

type closeResponse struct {
	LongOrderFillTransaction  *transaction `json:"longOrderFillTransaction"`
	ShortOrderFillTransaction *transaction `json:"shortOrderFillTransaction"`
}

func (c *Client) ClosePosition(ctx context.Context, instrument string) (broker.OrderFill, error) {
	body := map[string]string{"longUnits": "ALL", "shortUnits": "ALL"}

	var out closeResponse
	path := "/v3/accounts/" + c.accountID + "/positions/" + instrument + "/close"
	if err := c.do(ctx, resty.MethodPut, path, body, &out); err != nil {
		// OANDA rejects a close for a side with no units; retry long-only,
		// then short-only, before giving up.
		if fill, rerr := c.closeSide(ctx, path, "longUnits"); rerr == nil {
			return fill, nil
		}
		if fill, rerr := c.closeSide(ctx, path, "shortUnits"); rerr == nil {
			return fill, nil
		}
		return broker.OrderFill{}, err
	}

	tx := out.LongOrderFillTransaction
	if tx == nil {
		tx = out.ShortOrderFillTransaction
	}
	if tx == nil {
		return broker.OrderFill{}, fmt.Errorf("oanda close: no fill for %s", instrument)
	}
	return txFill(*tx, instrument), nil
}

func (c *Client) closeSide(ctx context.Context, path, units string) (broker.OrderFill, error) {
	var out closeResponse
	if err := c.do(ctx, resty.MethodPut, path, map[string]string{units: "ALL"}, &out); err != nil {
		return broker.OrderFill{}, err
	}
	tx := out.LongOrderFillTransaction
	if tx == nil {
		tx = out.ShortOrderFillTransaction
	}
	if tx == nil {
		return broker.OrderFill{}, fmt.Errorf("oanda close: empty response")
	}
	return txFill(*tx, tx.Instrument), nil
}

func fillFrom(out orderResponse, instrument string) (broker.OrderFill, error) {
	tx := out.OrderFillTransaction
	if tx == nil {
		tx = out.OrderCreateTransaction
	}
	if tx == nil {
		return broker.OrderFill{}, fmt.Errorf("oanda order: no transaction in response")
	}
	return txFill(*tx, instrument), nil
}

func txFill(tx transaction, instrument string) broker.OrderFill {
	if tx.Instrument == "" {
		tx.Instrument = instrument
	}
	return broker.OrderFill{
		TradeID:    tx.ID,
		Instrument: tx.Instrument,
		Units:      num(tx.Units),
		Price:      num(tx.Price),
		RealizedPL: num(tx.PL),
		Time:       tx.Time,
	}
}

// num parses OANDA's string-encoded decimals; malformed values read as zero,
// which callers treat as "absent".
func num(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func price(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}

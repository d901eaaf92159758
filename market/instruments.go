package market

import "math"

// AssetClass groups instruments by the venue conventions that apply to them.
type AssetClass string

const (
	Forex   AssetClass = "forex"
	Futures AssetClass = "futures"
)

// InstrumentMeta describes the static, venue-level properties of a tradeable
// instrument. Pip location is the decimal exponent of one pip (-4 for most FX
// pairs, -2 for JPY quotes). MaxSpreadPips of zero means "no spread limit".
type InstrumentMeta struct {
	Name             string
	Class            AssetClass
	BaseCurrency     string
	QuoteCurrency    string
	PipLocation      int
	MinimumTradeSize float64
	MaximumTradeSize float64
	MaxSpreadPips    float64
	Description      string
}

// PipSize returns the price increment of one pip for this instrument.
func (m InstrumentMeta) PipSize() float64 {
	return math.Pow(10, float64(m.PipLocation))
}

// Pips converts an absolute price difference into pips.
func (m InstrumentMeta) Pips(priceDiff float64) float64 {
	return math.Abs(priceDiff) / m.PipSize()
}

// PriceDistance converts a pip count into an absolute price distance.
func (m InstrumentMeta) PriceDistance(pips float64) float64 {
	return pips * m.PipSize()
}

// Instruments is the default catalog: the major FX pairs plus the common
// index/commodity futures contracts. Entries can be extended or overridden
// from configuration at startup.
var Instruments = map[string]InstrumentMeta{
	"EUR_USD": fx("EUR", "USD", -4, "Euro / US Dollar"),
	"GBP_USD": fx("GBP", "USD", -4, "British Pound / US Dollar"),
	"USD_JPY": fx("USD", "JPY", -2, "US Dollar / Japanese Yen"),
	"USD_CHF": fx("USD", "CHF", -4, "US Dollar / Swiss Franc"),
	"AUD_USD": fx("AUD", "USD", -4, "Australian Dollar / US Dollar"),
	"USD_CAD": fx("USD", "CAD", -4, "US Dollar / Canadian Dollar"),
	"NZD_USD": fx("NZD", "USD", -4, "New Zealand Dollar / US Dollar"),
	"EUR_GBP": fx("EUR", "GBP", -4, "Euro / British Pound"),
	"EUR_JPY": fx("EUR", "JPY", -2, "Euro / Japanese Yen"),
	"GBP_JPY": fx("GBP", "JPY", -2, "British Pound / Japanese Yen"),

	"ES":  fut("ES", 0, "E-mini S&P 500 Futures"),
	"NQ":  fut("NQ", 0, "E-mini NASDAQ-100 Futures"),
	"YM":  fut("YM", 0, "E-mini Dow Futures"),
	"RTY": fut("RTY", 0, "E-mini Russell 2000 Futures"),
	"CL":  fut("CL", -2, "Crude Oil Futures"),
	"GC":  fut("GC", -1, "Gold Futures"),
	"SI":  fut("SI", -3, "Silver Futures"),
}

func fx(base, quote string, pipLoc int, desc string) InstrumentMeta {
	return InstrumentMeta{
		Class:            Forex,
		BaseCurrency:     base,
		QuoteCurrency:    quote,
		Name:             base + "_" + quote,
		PipLocation:      pipLoc,
		MinimumTradeSize: 1,
		MaximumTradeSize: 10_000_000,
		Description:      desc,
	}
}

func fut(name string, pipLoc int, desc string) InstrumentMeta {
	return InstrumentMeta{
		Class:            Futures,
		Name:             name,
		QuoteCurrency:    "USD",
		PipLocation:      pipLoc,
		MinimumTradeSize: 1,
		MaximumTradeSize: 1_000,
		Description:      desc,
	}
}

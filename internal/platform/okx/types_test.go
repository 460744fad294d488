package okx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIFundingRate_ToDomain(t *testing.T) {
	api := APIFundingRate{
		InstID:      "BTC-USDT-SWAP",
		FundingRate: "0.0003",
		FundingTime: "1756512000000",
	}

	fr, err := api.ToDomain()

	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", fr.Symbol)
	assert.Equal(t, 0.0003, fr.Rate)
	assert.Equal(t, time.UnixMilli(1756512000000).UTC(), fr.Timestamp)
}

func TestAPIFundingRate_ToDomain_BadRate(t *testing.T) {
	_, err := APIFundingRate{InstID: "BTC-USDT-SWAP", FundingRate: "abc"}.ToDomain()
	assert.Error(t, err)
}

func TestAPIOrderBook_ToDomain(t *testing.T) {
	api := APIOrderBook{
		Asks: [][]string{
			{"100.5", "2", "0", "1"},
			{"100.6", "3", "0", "2"},
		},
		Bids: [][]string{
			{"100.4", "1.5", "0", "1"},
			{"0", "5", "0", "1"}, // zero price levels are dropped
		},
		TS: "1756512000000",
	}

	book, err := api.ToDomain()

	require.NoError(t, err)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, 100.5, book.Asks[0].Price)
	assert.Equal(t, 2.0, book.Asks[0].Quantity)
	require.Len(t, book.Bids, 1)
	assert.Equal(t, 100.4, book.Bids[0].Price)
	assert.Equal(t, time.UnixMilli(1756512000000).UTC(), api.Timestamp())
}

func TestAPIOrderBook_ToDomain_MalformedLevel(t *testing.T) {
	_, err := APIOrderBook{Asks: [][]string{{"100.5"}}}.ToDomain()
	assert.Error(t, err)

	_, err = APIOrderBook{Asks: [][]string{{"x", "1"}}}.ToDomain()
	assert.Error(t, err)
}

func TestAPITradeFee_TakerRate(t *testing.T) {
	// OKX reports fees as negative fractions; TakerU wins when present.
	rate, err := APITradeFee{Taker: "-0.001", TakerU: "-0.0005"}.TakerRate()
	require.NoError(t, err)
	assert.Equal(t, 0.0005, rate)

	rate, err = APITradeFee{Taker: "-0.001"}.TakerRate()
	require.NoError(t, err)
	assert.Equal(t, 0.001, rate)

	_, err = APITradeFee{Taker: ""}.TakerRate()
	assert.Error(t, err)
}

func TestInstIDConversion(t *testing.T) {
	assert.Equal(t, "BTC-USDT", SymbolFromInstID("BTC-USDT-SWAP"))
	assert.Equal(t, "BTC-USDT", SymbolFromInstID("BTC-USDT"))
	assert.Equal(t, "ETH-USDT-SWAP", SwapInstID("ETH-USDT"))
}

package trading

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testTraderPubkey = mustPubkey("027f31ebc5462c1fdce1b737ecff52d37d75dea43ce11c74d25aa297165faa2007")

func mustPubkey(hexStr string) *btcec.PublicKey {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		panic(err)
	}
	pk, err := btcec.ParsePubKey(b)
	if err != nil {
		panic(err)
	}
	return pk
}

func dummyLongOrder(price decimal.Decimal, quantity decimal.Decimal, timestampDelay time.Duration) types.Order {
	now := time.Now()
	return types.Order{
		ID:             uuid.New(),
		TraderID:       testTraderPubkey,
		Direction:      types.Long,
		Type:           types.Limit,
		Price:          price,
		Quantity:       quantity,
		Leverage:       1.0,
		ContractSymbol: "BTCUSD",
		CreatedAt:      now.Add(timestampDelay),
		Expiry:         now.Add(time.Minute),
		State:          types.OrderOpen,
		Reason:         types.Manual,
	}
}

func TestWhenShortThenSortDesc(t *testing.T) {
	order1 := dummyLongOrder(decimal.NewFromInt(20_000), decimal.Zero, 0)
	order2 := dummyLongOrder(decimal.NewFromInt(21_000), decimal.Zero, 0)
	order3 := dummyLongOrder(decimal.NewFromInt(20_500), decimal.Zero, 0)

	orders := []types.Order{order3, order1, order2}
	sortOrders(orders, types.Short)

	require.Equal(t, order2.ID, orders[0].ID)
	require.Equal(t, order3.ID, orders[1].ID)
	require.Equal(t, order1.ID, orders[2].ID)
}

func TestWhenLongThenSortAsc(t *testing.T) {
	order1 := dummyLongOrder(decimal.NewFromInt(20_000), decimal.Zero, 0)
	order2 := dummyLongOrder(decimal.NewFromInt(21_000), decimal.Zero, 0)
	order3 := dummyLongOrder(decimal.NewFromInt(20_500), decimal.Zero, 0)

	orders := []types.Order{order3, order1, order2}
	sortOrders(orders, types.Long)

	require.Equal(t, order1.ID, orders[0].ID)
	require.Equal(t, order3.ID, orders[1].ID)
	require.Equal(t, order2.ID, orders[2].ID)
}

func TestWhenAllSamePriceSortByTimestamp(t *testing.T) {
	order1 := dummyLongOrder(decimal.NewFromInt(20_000), decimal.Zero, 0)
	order2 := dummyLongOrder(decimal.NewFromInt(20_000), decimal.Zero, time.Second)
	order3 := dummyLongOrder(decimal.NewFromInt(20_000), decimal.Zero, 2*time.Second)

	orders := []types.Order{order3, order1, order2}
	sortOrders(orders, types.Long)
	require.Equal(t, []uuid.UUID{order1.ID, order2.ID, order3.ID}, idsOf(orders))

	sortOrders(orders, types.Short)
	require.Equal(t, []uuid.UUID{order1.ID, order2.ID, order3.ID}, idsOf(orders))
}

func idsOf(orders []types.Order) []uuid.UUID {
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func marketOrder(direction types.Direction, quantity decimal.Decimal) types.Order {
	now := time.Now()
	return types.Order{
		ID:             uuid.New(),
		TraderID:       testTraderPubkey,
		Direction:      direction,
		Type:           types.Market,
		Price:          decimal.Zero,
		Quantity:       quantity,
		Leverage:       1.0,
		ContractSymbol: "BTCUSD",
		CreatedAt:      now,
		Expiry:         now.Add(time.Minute),
		State:          types.OrderOpen,
		Reason:         types.Manual,
	}
}

func TestGivenLimitAndMarketWithSameAmountThenMatch(t *testing.T) {
	allOrders := []types.Order{
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(100), 0),
		dummyLongOrder(decimal.NewFromInt(21_000), decimal.NewFromInt(200), 0),
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(300), 0),
		dummyLongOrder(decimal.NewFromInt(22_000), decimal.NewFromInt(400), 0),
	}

	order := marketOrder(types.Short, decimal.NewFromInt(100))

	var oraclePubkey [32]byte
	matched, err := MatchMarket(order, allOrders, oraclePubkey, &chaincfg.MainNetParams)
	require.NoError(t, err)

	require.Len(t, matched.MakerMatches, 1)
	makerMatches := matched.MakerMatches[0].Filled.Matches
	require.Len(t, makerMatches, 1)
	require.True(t, makerMatches[0].Quantity.Equal(decimal.NewFromInt(100)))

	require.Equal(t, order.ID, matched.TakerMatches.Filled.OrderID)
	require.Len(t, matched.TakerMatches.Filled.Matches, 1)
	require.True(t, matched.TakerMatches.Filled.Matches[0].Quantity.Equal(order.Quantity))
}

// This test exists purely as a safety check: multi-maker fills are
// unsupported, and any change that accidentally enables them should fail
// this test loudly.
func TestGivenLimitAndMarketWithSmallerAmountThenError(t *testing.T) {
	allOrders := []types.Order{
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(400), 0),
		dummyLongOrder(decimal.NewFromInt(21_000), decimal.NewFromInt(200), 0),
		dummyLongOrder(decimal.NewFromInt(22_000), decimal.NewFromInt(100), 0),
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(300), 0),
	}

	order := marketOrder(types.Short, decimal.NewFromInt(200))

	var oraclePubkey [32]byte
	_, err := MatchMarket(order, allOrders, oraclePubkey, &chaincfg.MainNetParams)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrQuantityTooLarge)
}

func TestGivenLongWhenNeededShortDirectionThenNoMatch(t *testing.T) {
	allOrders := []types.Order{
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(100), 0),
		dummyLongOrder(decimal.NewFromInt(21_000), decimal.NewFromInt(200), 0),
		dummyLongOrder(decimal.NewFromInt(22_000), decimal.NewFromInt(400), 0),
		dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(300), 0),
	}

	// All candidates are Long; a Long market order needs Short makers.
	order := marketOrder(types.Long, decimal.NewFromInt(200))

	var oraclePubkey [32]byte
	_, err := MatchMarket(order, allOrders, oraclePubkey, &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestMatchMarketRejectsNonMarketOrder(t *testing.T) {
	order := dummyLongOrder(decimal.NewFromInt(20_000), decimal.NewFromInt(100), 0)
	var oraclePubkey [32]byte
	_, err := MatchMarket(order, nil, oraclePubkey, &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrNotMarketOrder)
}

package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"tanuki/config"
	"tanuki/model"
	"tanuki/utils/pointer"
	"tanuki/utils/resty"
)

// decodeOrderRequest : mock으로 전달된 서명 대상 바디를 숫자 원문 그대로 읽는다
func decodeOrderRequest(t *testing.T, requestBody any) map[string]any {
	t.Helper()
	raw, ok := requestBody.([]byte)
	require.True(t, ok, "request body must be pre-encoded for signing")

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var body map[string]any
	require.NoError(t, decoder.Decode(&body))
	return body
}

func placedOrderMock(t *testing.T, check func(body map[string]any)) resty.MockFunc {
	return resty.MockFunc{
		Method: "POST",
		Path:   testBaseURL + pathOrders,
		ResultBody: func(header any, requestBody any, param ...resty.QueryParam) (resty.MockFuncResponse, error) {
			headers, ok := header.(map[string]string)
			require.True(t, ok)
			require.Equal(t, "test-key", headers["api-key"])
			require.NotEmpty(t, headers["signature"])
			require.NotEmpty(t, headers["timestamp"])

			body := decodeOrderRequest(t, requestBody)
			check(body)

			return resty.MockFuncResponse{Body: map[string]any{
				"id": 5522064, "status": "placed", "side": body["side"], "type": body["type"],
				"tradingPairName": body["tradingPairName"],
				"createdAt":       "2021-01-01T00:00:00Z",
			}}, nil
		},
	}
}

func Test_CreateOrder_Limit(t *testing.T) {
	gopax := newTestGopax(t, placedOrderMock(t, func(body map[string]any) {
		require.Equal(t, "ETH-KRW", body["tradingPairName"])
		require.Equal(t, "buy", body["side"])
		require.Equal(t, "limit", body["type"])
		// quote scale 0, base scale 8에서 절사 (반올림 아님)
		require.Equal(t, json.Number("25087000"), body["price"])
		require.Equal(t, json.Number("0.12345678"), body["amount"])
		require.Equal(t, "my-oid-1", body["clientOrderId"])
		require.Equal(t, "po", body["timeInForce"])
		require.Equal(t, "extra", body["passthrough"])
	}))

	order, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeLimit, model.SideTypeBuy,
		0.123456789123, pointer.Create(25087000.789), map[string]any{
			"clientOrderId": "my-oid-1",
			"timeInForce":   "PO",
			"passthrough":   "extra",
		})
	require.NoError(t, err)
	require.Equal(t, "5522064", order.ID)
	require.Equal(t, model.OrderStatusOpen, order.Status)
	require.Equal(t, "ETH/KRW", order.Symbol)
}

func Test_CreateOrder_LimitRequiresPrice(t *testing.T) {
	gopax := newTestGopax(t)

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeLimit, model.SideTypeBuy, 1, nil, nil)
	require.ErrorIs(t, err, ErrInvalidOrder)
}

func Test_CreateOrder_NonPositiveAmount(t *testing.T) {
	gopax := newTestGopax(t)

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeLimit, model.SideTypeBuy,
		0, pointer.Create(100.0), nil)
	require.ErrorIs(t, err, ErrInvalidOrder)
}

func Test_CreateOrder_MarketBuySpendFromPrice(t *testing.T) {
	gopax := newTestGopax(t, placedOrderMock(t, func(body map[string]any) {
		// amount = price x amount를 quote 정밀도로 절사, price 필드는 없다
		require.Equal(t, json.Number("201"), body["amount"])
		require.NotContains(t, body, "price")
	}))

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeMarket, model.SideTypeBuy,
		2, pointer.Create(100.5), nil)
	require.NoError(t, err)
}

func Test_CreateOrder_MarketBuyWithoutPriceFails(t *testing.T) {
	// 네트워크로 나가기 전에 실패해야 한다: POST mock이 없어도 typed error가 나온다
	gopax := newTestGopax(t)

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeMarket, model.SideTypeBuy, 2, nil, nil)
	require.ErrorIs(t, err, ErrInvalidOrder)
}

func Test_CreateOrder_MarketBuyQuoteAmountMode(t *testing.T) {
	// 옵션을 끄면 amount 자체가 quote 지출 총액이다
	mocks := append(listingMocks(), placedOrderMock(t, func(body map[string]any) {
		require.Equal(t, json.Number("50000"), body["amount"])
	}))
	gopax, err := NewGopax(
		config.Config{
			APIKey:                            "test-key",
			SecretKey:                         testSecretKey,
			CreateMarketBuyOrderRequiresPrice: pointer.Create(false),
		},
		WithRestyClient(resty.NewMockRestyClient(mocks)),
	)
	require.NoError(t, err)

	_, err = gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeMarket, model.SideTypeBuy,
		50000.7, nil, nil)
	require.NoError(t, err)
}

func Test_CreateOrder_MarketSell(t *testing.T) {
	gopax := newTestGopax(t, placedOrderMock(t, func(body map[string]any) {
		require.Equal(t, json.Number("1.23456789"), body["amount"])
		require.NotContains(t, body, "price")
	}))

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeMarket, model.SideTypeSell,
		1.234567891, nil, nil)
	require.NoError(t, err)
}

func Test_CreateOrder_StopPriceAtQuotePrecision(t *testing.T) {
	gopax := newTestGopax(t, placedOrderMock(t, func(body map[string]any) {
		require.Equal(t, json.Number("2999999"), body["stopPrice"])
	}))

	_, err := gopax.CreateOrder(context.Background(), "ETH/KRW", model.OrderTypeLimit, model.SideTypeBuy,
		1, pointer.Create(3000000.0), map[string]any{"stopPrice": 2999999.9})
	require.NoError(t, err)
}

// -----------------------------------------------------------------------------
// 취소 / 단건 조회
// -----------------------------------------------------------------------------

func Test_CancelOrder_PreservesRequestedID(t *testing.T) {
	gopax := newTestGopax(t, resty.MockFunc{
		Method: "DELETE",
		Path:   testBaseURL + pathOrders + "/5522064",
		ResultBody: func(header any, requestBody any, param ...resty.QueryParam) (resty.MockFuncResponse, error) {
			// 취소 응답은 빈 객체다
			return resty.MockFuncResponse{Body: map[string]any{}}, nil
		},
	})

	order, err := gopax.CancelOrder(context.Background(), "5522064", nil)
	require.NoError(t, err)
	require.Equal(t, "5522064", order.ID)
}

func Test_FetchOrder_ByExchangeID(t *testing.T) {
	gopax := newTestGopax(t, resty.MockFunc{
		Method: "GET",
		Path:   testBaseURL + pathOrders + "/5522064",
		ResultBody: func(header any, requestBody any, param ...resty.QueryParam) (resty.MockFuncResponse, error) {
			return resty.MockFuncResponse{Body: map[string]any{
				"id": 5522064, "status": "completed", "side": "buy", "type": "limit",
				"tradingPairName": "ETH-KRW", "price": 3000000, "amount": 2, "remaining": 0,
			}}, nil
		},
	})

	order, err := gopax.FetchOrder(context.Background(), "5522064", nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusClosed, order.Status)
	require.Equal(t, 2.0, pointer.NotNull(order.Filled, 0))
	require.Equal(t, 6000000.0, pointer.NotNull(order.Cost, 0))
}

func Test_FetchOrder_ByClientOrderID(t *testing.T) {
	gopax := newTestGopax(t, resty.MockFunc{
		Method: "GET",
		Path:   testBaseURL + pathOrders + "/clientOrderId/my-oid-1",
		ResultBody: func(header any, requestBody any, param ...resty.QueryParam) (resty.MockFuncResponse, error) {
			return resty.MockFuncResponse{Body: map[string]any{
				"id": 5522064, "clientOrderId": "my-oid-1", "status": "placed",
				"side": "buy", "type": "limit", "tradingPairName": "ETH-KRW",
			}}, nil
		},
	})

	order, err := gopax.FetchOrder(context.Background(), "", map[string]any{"clientOrderId": "my-oid-1"})
	require.NoError(t, err)
	require.Equal(t, "my-oid-1", order.ClientOrderID)
}

func Test_OrderInstancePath_NeitherIdentifier(t *testing.T) {
	_, _, err := orderInstancePath("", nil)
	require.ErrorIs(t, err, ErrBadRequest)
}

// -----------------------------------------------------------------------------
// 주문 내역
// -----------------------------------------------------------------------------

func orderHistoryMock() resty.MockFunc {
	return resty.MockFunc{
		Method: "GET",
		Path:   testBaseURL + pathOrders,
		ResultBody: func(header any, requestBody any, param ...resty.QueryParam) (resty.MockFuncResponse, error) {
			return resty.MockFuncResponse{Body: []map[string]any{
				{"id": 1, "status": "completed", "side": "buy", "type": "limit", "tradingPairName": "ETH-KRW",
					"price": 3000000, "amount": 1, "remaining": 0},
				{"id": 2, "status": "placed", "side": "sell", "type": "limit", "tradingPairName": "BTC-KRW",
					"price": 50000000, "amount": 0.1, "remaining": 0.1},
				{"id": 3, "status": "cancelled", "side": "buy", "type": "limit", "tradingPairName": "ETH-KRW",
					"price": 2900000, "amount": 1, "remaining": 1},
			}}, nil
		},
	}
}

func Test_FetchOrders_SymbolFilter(t *testing.T) {
	gopax := newTestGopax(t, orderHistoryMock())

	orders, err := gopax.FetchOrders(context.Background(), "ETH/KRW", 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, model.OrderStatusClosed, orders[0].Status)
	require.Equal(t, model.OrderStatusCanceled, orders[1].Status)
}

func Test_FetchClosedOrders(t *testing.T) {
	gopax := newTestGopax(t, orderHistoryMock())

	orders, err := gopax.FetchClosedOrders(context.Background(), "", 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "1", orders[0].ID)
	require.Equal(t, model.OrderStatusClosed, orders[0].Status)
}

func Test_FetchOpenOrders(t *testing.T) {
	gopax := newTestGopax(t, orderHistoryMock())

	orders, err := gopax.FetchOpenOrders(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, orders, 3)
}

// -----------------------------------------------------------------------------
// 변환
// -----------------------------------------------------------------------------

func Test_OrderStatus(t *testing.T) {
	require.Equal(t, model.OrderStatusClosed, orderStatus("completed"))
	require.Equal(t, model.OrderStatusCanceled, orderStatus("cancelled"))
	for _, native := range []string{"placed", "updated", "reserved", "something-new"} {
		require.Equal(t, model.OrderStatusOpen, orderStatus(native))
	}
}

func Test_ConvertOrder_DerivationAndIdempotence(t *testing.T) {
	gopax := newTestGopax(t)
	payload := model.GopaxOrder{
		ID:              "453324",
		Status:          "completed",
		Side:            "buy",
		Type:            "limit",
		Price:           pointer.Create(3000000.0),
		Amount:          pointer.Create(2.0),
		Remaining:       pointer.Create(0.5),
		TradingPairName: "ETH-KRW",
		TimeInForce:     "po",
		BalanceChange: &model.GopaxBalanceChange{
			BaseFee: &model.GopaxFeeChange{
				Taking: pointer.Create(-0.001),
				Making: pointer.Create(-0.0005),
			},
		},
	}

	order := gopax.convertOrder(payload)
	require.Equal(t, 1.5, pointer.NotNull(order.Filled, 0))
	require.Equal(t, 4500000.0, pointer.NotNull(order.Cost, 0))
	require.Equal(t, model.TimeInForcePO, order.TimeInForce)
	require.NotNil(t, order.Fee)
	require.Equal(t, "ETH", order.Fee.Currency)
	require.InDelta(t, 0.0015, pointer.NotNull(order.Fee.Cost, 0), 1e-12)

	// 같은 페이로드는 항상 같은 레코드로 변환된다
	require.Equal(t, order, gopax.convertOrder(payload))
}

func Test_OrderFee_SellUsesQuote(t *testing.T) {
	fee := orderFee(&model.GopaxBalanceChange{
		QuoteFee: &model.GopaxFeeChange{Taking: pointer.Create(-1200.0)},
	}, model.SideTypeSell, "ETH/KRW")

	require.NotNil(t, fee)
	require.Equal(t, "KRW", fee.Currency)
	require.Equal(t, 1200.0, pointer.NotNull(fee.Cost, 0))
}

func Test_OrderFee_MissingComponent(t *testing.T) {
	// 매수인데 baseFee가 없으면 수수료 정보 없음
	fee := orderFee(&model.GopaxBalanceChange{
		QuoteFee: &model.GopaxFeeChange{Taking: pointer.Create(-1200.0)},
	}, model.SideTypeBuy, "ETH/KRW")
	require.Nil(t, fee)

	require.Nil(t, orderFee(nil, model.SideTypeBuy, "ETH/KRW"))
}

func Test_ToPrecision(t *testing.T) {
	require.Equal(t, json.Number("0.99999999"), toPrecision(0.999999999, pointer.Create(8)))
	require.Equal(t, json.Number("25087000"), toPrecision(25087000.789, pointer.Create(0)))
	// scale을 모르면 절사하지 않는다
	require.Equal(t, json.Number("1.5"), toPrecision(1.5, nil))
}

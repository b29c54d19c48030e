package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"tanuki/model"
)

// -----------------------------------------------------------------------------
// 주문 생성 / 취소 / 조회
// -----------------------------------------------------------------------------

// CreateOrder builds and submits an order request. 시장가 매수의 amount는
// quote 화폐로 지출할 총액이다 (price 옵션 정책은 아래 참고).
func (g *Gopax) CreateOrder(ctx context.Context, symbol string, orderType model.OrderType, side model.SideType,
	amount float64, price *float64, params map[string]any) (model.Order, error) {

	market, err := g.Market(symbol)
	if err != nil {
		return model.Order{}, err
	}
	if amount <= 0 {
		return model.Order{}, errors.Join(ErrInvalidOrder, fmt.Errorf("amount must be positive, got %v", amount))
	}

	body := map[string]any{
		"tradingPairName": market.ID,
		"side":            string(side),
		"type":            string(orderType),
	}

	// 옵션 필드는 wire 요청으로 옮기고 잔여 옵션 백에서 제거한다 (중복 제출 방지)
	residual := copyParams(params)
	if clientOrderID := popString(residual, "clientOrderId"); clientOrderID != "" {
		body["clientOrderId"] = clientOrderID
	}
	if stopPrice, ok := popFloat(residual, "stopPrice"); ok {
		body["stopPrice"] = toPrecision(stopPrice, market.PricePrecision)
	}
	if timeInForce := popString(residual, "timeInForce"); timeInForce != "" {
		body["timeInForce"] = strings.ToLower(timeInForce)
	}

	switch orderType {
	case model.OrderTypeLimit:
		if price == nil {
			return model.Order{}, errors.Join(ErrInvalidOrder, errors.New("limit order requires both price and amount"))
		}
		body["price"] = toPrecision(*price, market.PricePrecision)
		body["amount"] = toPrecision(amount, market.AmountPrecision)
	case model.OrderTypeMarket:
		if side == model.SideTypeSell {
			body["amount"] = toPrecision(amount, market.AmountPrecision)
		} else if g.requiresPriceForMarketBuy {
			if price == nil {
				return model.Order{}, errors.Join(ErrInvalidOrder,
					errors.New("market buy requires a price argument to compute the total quote amount to spend; "+
						"supply a price or disable create_market_buy_order_requires_price and pass the quote amount as amount"))
			}
			body["amount"] = toPrecision(*price*amount, market.PricePrecision)
		} else {
			// 옵션이 꺼져 있으면 amount 자체를 quote 지출 총액으로 사용
			body["amount"] = toPrecision(amount, market.PricePrecision)
		}
	default:
		return model.Order{}, errors.Join(ErrInvalidOrder, fmt.Errorf("unsupported order type %q", orderType))
	}

	for key, value := range residual {
		body[key] = value
	}

	responseBody, err := g.privateRequest(ctx, "POST", pathOrders, nil, body)
	if err != nil {
		return model.Order{}, err
	}
	return g.parseOrderBody(responseBody)
}

func (g *Gopax) CancelOrder(ctx context.Context, id string, params map[string]any) (model.Order, error) {
	path, _, err := orderInstancePath(id, params)
	if err != nil {
		return model.Order{}, err
	}
	responseBody, err := g.privateRequest(ctx, "DELETE", path, nil, nil)
	if err != nil {
		return model.Order{}, err
	}
	order, err := g.parseOrderBody(responseBody)
	if err != nil {
		return model.Order{}, err
	}
	// 취소 응답은 대부분 필드가 비어 있으므로 요청한 식별자를 보존한다
	if order.ID == "" {
		order.ID = id
	}
	return order, nil
}

func (g *Gopax) FetchOrder(ctx context.Context, id string, params map[string]any) (model.Order, error) {
	path, _, err := orderInstancePath(id, params)
	if err != nil {
		return model.Order{}, err
	}
	responseBody, err := g.privateRequest(ctx, "GET", path, nil, nil)
	if err != nil {
		return model.Order{}, err
	}
	return g.parseOrderBody(responseBody)
}

// FetchOrders : 전체 주문 내역 (과거 포함)
func (g *Gopax) FetchOrders(ctx context.Context, symbol string, limit int) ([]model.Order, error) {
	return g.fetchOrderHistory(ctx, symbol, limit, true)
}

// FetchOpenOrders : 과거(완료/취소) 주문을 소스에서 제외하고 조회
func (g *Gopax) FetchOpenOrders(ctx context.Context, symbol string, limit int) ([]model.Order, error) {
	return g.fetchOrderHistory(ctx, symbol, limit, false)
}

// FetchClosedOrders : 전체 내역을 받아 closed 상태만 남기는 후처리 필터
func (g *Gopax) FetchClosedOrders(ctx context.Context, symbol string, limit int) ([]model.Order, error) {
	orders, err := g.fetchOrderHistory(ctx, symbol, 0, true)
	if err != nil {
		return nil, err
	}
	closed := lo.Filter(orders, func(order model.Order, _ int) bool {
		return order.Status == model.OrderStatusClosed
	})
	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}
	return closed, nil
}

func (g *Gopax) fetchOrderHistory(ctx context.Context, symbol string, limit int, includePast bool) ([]model.Order, error) {
	query := url.Values{}
	query.Set("includePast", fmt.Sprintf("%t", includePast))

	responseBody, err := g.privateRequest(ctx, "GET", pathOrders, query, nil)
	if err != nil {
		return nil, err
	}
	var payloads []model.GopaxOrder
	if err := json.Unmarshal(responseBody, &payloads); err != nil {
		return nil, fmt.Errorf("orders parse: %w", err)
	}
	orders := make([]model.Order, 0, len(payloads))
	for _, payload := range payloads {
		order := g.convertOrder(payload)
		if symbol != "" && order.Symbol != symbol {
			continue
		}
		orders = append(orders, order)
	}
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (g *Gopax) parseOrderBody(body []byte) (model.Order, error) {
	var payload model.GopaxOrder
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Order{}, fmt.Errorf("order parse: %w", err)
	}
	return g.convertOrder(payload), nil
}

// orderInstancePath : 거래소 발급 id 또는 clientOrderId 중 존재하는 쪽으로
// 엔드포인트를 선택한다. 둘이 동시에 쓰이는 일은 없다.
func orderInstancePath(id string, params map[string]any) (string, map[string]any, error) {
	residual := copyParams(params)
	if clientOrderID := popString(residual, "clientOrderId"); clientOrderID != "" {
		return pathOrders + "/clientOrderId/" + clientOrderID, residual, nil
	}
	if id == "" {
		return "", nil, errors.Join(ErrBadRequest, errors.New("order id or clientOrderId required"))
	}
	return pathOrders + "/" + id, residual, nil
}

// -----------------------------------------------------------------------------
// 주문 응답 변환
// -----------------------------------------------------------------------------

// placed/updated/reserved → open, completed → closed, cancelled → canceled.
// 모르는 상태는 open으로 둔다.
func orderStatus(native string) model.OrderStatusType {
	switch native {
	case "completed":
		return model.OrderStatusClosed
	case "cancelled":
		return model.OrderStatusCanceled
	default:
		return model.OrderStatusOpen
	}
}

func (g *Gopax) convertOrder(payload model.GopaxOrder) model.Order {
	symbol := g.symbolFromNativeID(payload.TradingPairName)
	side := model.SideType(payload.Side)
	filled := subOpt(payload.Amount, payload.Remaining)
	cost := mulOpt(filled, payload.Price)

	var timeInForce model.TimeInForceType
	if payload.TimeInForce != "" {
		timeInForce = model.TimeInForceType(strings.ToUpper(payload.TimeInForce))
	}

	return model.Order{
		ID:            payload.ID.String(),
		ClientOrderID: payload.ClientOrderID,
		Timestamp:     parse8601(payload.CreatedAt),
		UpdatedAt:     parse8601(payload.UpdatedAt),
		Status:        orderStatus(payload.Status),
		Symbol:        symbol,
		Type:          model.OrderType(payload.Type),
		TimeInForce:   timeInForce,
		Side:          side,
		Price:         payload.Price,
		Amount:        payload.Amount,
		Filled:        filled,
		Remaining:     payload.Remaining,
		Cost:          cost,
		Fee:           orderFee(payload.BalanceChange, side, symbol),
		Info:          payload,
	}
}

// orderFee : 매수는 baseFee를 base 화폐로, 매도는 quoteFee를 quote 화폐로.
// 비용은 taking/making 성분 절대값의 합이다.
func orderFee(change *model.GopaxBalanceChange, side model.SideType, symbol string) *model.Fee {
	if change == nil {
		return nil
	}
	var component *model.GopaxFeeChange
	currency := ""
	base, quote, found := strings.Cut(symbol, "/")
	if side == model.SideTypeBuy {
		component = change.BaseFee
		if found {
			currency = base
		}
	} else {
		component = change.QuoteFee
		if found {
			currency = quote
		}
	}
	if component == nil {
		return nil
	}
	cost := sumAbs(component.Taking, component.Making)
	if cost == nil {
		return nil
	}
	return &model.Fee{Currency: currency, Cost: cost}
}

// -----------------------------------------------------------------------------
// 정밀도 / 옵션 백 헬퍼
// -----------------------------------------------------------------------------

// toPrecision encodes a number at the market's declared scale, truncating so
// the encoded value never exceeds what the caller holds.
func toPrecision(value float64, scale *int) json.Number {
	d := decimal.NewFromFloat(value)
	if scale != nil {
		d = d.Truncate(int32(*scale))
	}
	return json.Number(d.String())
}

func copyParams(params map[string]any) map[string]any {
	residual := make(map[string]any, len(params))
	for key, value := range params {
		residual[key] = value
	}
	return residual
}

func popString(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok {
		return ""
	}
	delete(params, key)
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func popFloat(params map[string]any, key string) (float64, bool) {
	value, ok := params[key]
	if !ok {
		return 0, false
	}
	delete(params, key)
	switch number := value.(type) {
	case float64:
		return number, true
	case float32:
		return float64(number), true
	case int:
		return float64(number), true
	case int64:
		return float64(number), true
	default:
		return 0, false
	}
}

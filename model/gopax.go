package model

import "encoding/json"

// GoPax REST 응답 구조체. 옵션 필드는 전부 포인터로 두어
// 응답에 없는 값이 0으로 둔갑하지 않도록 한다.

// FlexString : 숫자로도 문자열로도 내려오는 식별자 필드용
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = FlexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = FlexString(number.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// GopaxTradingPair : GET /trading-pairs 응답 항목
type GopaxTradingPair struct {
	ID              int64                `json:"id"`
	Name            string               `json:"name"` // e.g. "ETH-KRW"
	BaseAsset       string               `json:"baseAsset"`
	QuoteAsset      string               `json:"quoteAsset"`
	BaseAssetScale  *int                 `json:"baseAssetScale"`
	QuoteAssetScale *int                 `json:"quoteAssetScale"`
	PriceMin        *float64             `json:"priceMin"`
	OrderAmountMin  *GopaxOrderAmountMin `json:"restApiOrderAmountMin"`
	MakerFeePercent *float64             `json:"makerFeePercent"`
	TakerFeePercent *float64             `json:"takerFeePercent"`
	SupportedOrders []string             `json:"supportedOrderTypes"`
}

type GopaxOrderAmountMin struct {
	LimitAsk  *GopaxAmountMin `json:"limitAsk"`
	LimitBid  *GopaxAmountMin `json:"limitBid"`
	MarketAsk *GopaxAmountMin `json:"marketAsk"`
	MarketBid *GopaxAmountMin `json:"marketBid"`
}

type GopaxAmountMin struct {
	MinAmount *float64 `json:"minAmount"`
}

// GopaxAsset : GET /assets 응답 항목
type GopaxAsset struct {
	ID                  string   `json:"id"` // e.g. "KRW", "ETH"
	Name                string   `json:"name"`
	Scale               *int     `json:"scale"`
	WithdrawalFee       *float64 `json:"withdrawalFee"`
	WithdrawalAmountMin *float64 `json:"withdrawalAmountMin"`
}

// GopaxTickerSnapshot : 단일 티커(/ticker, price 키)와 멀티 티커(/stats, close 키)
// 두 가지 형태를 모두 담는다. Price의 존재 여부가 형태 판별 기준이다.
type GopaxTickerSnapshot struct {
	Name        string   `json:"name"` // stats 형태에서만 존재
	Price       *float64 `json:"price"`
	Open        *float64 `json:"open"`
	High        *float64 `json:"high"`
	Low         *float64 `json:"low"`
	Close       *float64 `json:"close"`
	Bid         *float64 `json:"bid"`
	BidVolume   *float64 `json:"bidVolume"`
	Ask         *float64 `json:"ask"`
	AskVolume   *float64 `json:"askVolume"`
	Volume      *float64 `json:"volume"`
	QuoteVolume *float64 `json:"quoteVolume"`
	Time        string   `json:"time"` // ISO8601
}

// GopaxBookSnapshot : GET /trading-pairs/{pair}/book 응답
// 각 레벨은 [레벨ID, 가격, 수량, 타임스탬프] 4-튜플이다.
type GopaxBookSnapshot struct {
	Sequence int64       `json:"sequence"`
	Bid      [][]float64 `json:"bid"`
	Ask      [][]float64 `json:"ask"`
}

// GopaxTrade : public 체결(/trading-pairs/{pair}/trades)과
// private 체결 내역(/trades) 두 형태를 모두 담는다.
// TradingPairName의 존재 여부가 형태 판별 기준이다.
type GopaxTrade struct {
	// public 형태
	Time   string   `json:"time"` // ISO8601
	Date   *int64   `json:"date"`
	Price  *float64 `json:"price"`
	Amount *float64 `json:"amount"`
	Side   string   `json:"side"` // "buy" | "sell"

	// private 형태
	ID              FlexString `json:"id"`
	OrderID         FlexString `json:"orderId"`
	Timestamp       string     `json:"timestamp"` // ISO8601
	TradingPairName string     `json:"tradingPairName"`
	BaseAmount      *float64   `json:"baseAmount"`
	QuoteAmount     *float64   `json:"quoteAmount"`
	Fee             *float64   `json:"fee"`
	Position        string     `json:"position"` // "maker" | "taker"
}

// GopaxBalance : GET /balances 응답 항목
type GopaxBalance struct {
	Asset             string   `json:"asset"`
	Avail             *float64 `json:"avail"`
	Hold              *float64 `json:"hold"`
	PendingWithdrawal *float64 `json:"pendingWithdrawal"`
	LastUpdatedAt     string   `json:"lastUpdatedAt"`
}

// GopaxOrder : 주문 생성/조회/취소 응답
type GopaxOrder struct {
	ID              FlexString          `json:"id"`
	ClientOrderID   string              `json:"clientOrderId"`
	Status          string              `json:"status"` // placed, cancelled, completed, updated, reserved
	Side            string              `json:"side"`
	Type            string              `json:"type"` // limit, market
	Price           *float64            `json:"price"`
	StopPrice       *float64            `json:"stopPrice"`
	Amount          *float64            `json:"amount"`
	Remaining       *float64            `json:"remaining"`
	TradingPairName string              `json:"tradingPairName"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
	TimeInForce     string              `json:"timeInForce"`
	BalanceChange   *GopaxBalanceChange `json:"balanceChange"`
}

type GopaxBalanceChange struct {
	BaseFee  *GopaxFeeChange `json:"baseFee"`
	QuoteFee *GopaxFeeChange `json:"quoteFee"`
}

type GopaxFeeChange struct {
	Taking *float64 `json:"taking"`
	Making *float64 `json:"making"`
}

// GopaxDepositAddress : GET /crypto-deposit-addresses 응답 항목
type GopaxDepositAddress struct {
	Asset     string     `json:"asset"`
	Address   string     `json:"address"`
	MemoID    FlexString `json:"memoId"`
	CreatedAt *int64     `json:"createdAt"`
}

// GopaxTransaction : GET /deposit-withdrawal-status 응답 항목
// reviewStartedAt/completedAt은 unix seconds.
type GopaxTransaction struct {
	ID                 FlexString `json:"id"`
	TxID               string     `json:"txId"`
	Type               string     `json:"type"` // crypto_deposit, crypto_withdrawal, fiat_deposit, fiat_withdrawal
	NetAmount          *float64   `json:"netAmount"`
	FeeAmount          *float64   `json:"feeAmount"`
	Asset              string     `json:"asset"`
	ReviewStartedAt    *int64     `json:"reviewStartedAt"`
	CompletedAt        *int64     `json:"completedAt"`
	SourceAddress      *string    `json:"sourceAddress"`
	SourceMemoID       *string    `json:"sourceMemoId"`
	DestinationAddress *string    `json:"destinationAddress"`
	DestinationMemoID  *string    `json:"destinationMemoId"`
	Status             string     `json:"status"`
}

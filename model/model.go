package model

// 교환소 중립(canonical) 모델.
// 숫자 필드가 포인터인 경우 "값이 0"과 "응답에 없음"을 구분하기 위함이다.
// Info는 원본 페이로드를 그대로 보존하는 필드로, 이후 로직에서 해석하지 않는다.

type SideType string
type OrderType string
type OrderStatusType string
type TimeInForceType string
type TransactionType string

const (
	SideTypeBuy  SideType = "buy"
	SideTypeSell SideType = "sell"
)

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

const (
	OrderStatusOpen     OrderStatusType = "open"
	OrderStatusClosed   OrderStatusType = "closed"
	OrderStatusCanceled OrderStatusType = "canceled"
)

const (
	TimeInForceGTC TimeInForceType = "GTC"
	TimeInForcePO  TimeInForceType = "PO"
	TimeInForceIOC TimeInForceType = "IOC"
	TimeInForceFOK TimeInForceType = "FOK"
)

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Market : 거래쌍 정보. Symbol은 항상 base+"/"+quote (예: "ETH/KRW"),
// ID는 거래소 고유 이름 (예: "ETH-KRW").
type Market struct {
	ID        string
	NumericID int64
	Symbol    string
	Base      string
	Quote     string
	BaseID    string
	QuoteID   string

	// decimal scale accepted by the exchange for each field
	PricePrecision  *int
	AmountPrecision *int

	Maker *float64
	Taker *float64

	MinAmount *float64
	MinPrice  *float64
	MinCost   *float64

	Info any
}

type Currency struct {
	Code          string
	ID            string
	Name          string
	Precision     *int
	Fee           *float64 // withdrawal fee
	MinWithdrawal *float64
	Info          any
}

type Ticker struct {
	Symbol    string
	Timestamp *int64 // ms

	High      *float64
	Low       *float64
	Bid       *float64
	BidVolume *float64
	Ask       *float64
	AskVolume *float64
	Open      *float64
	Close     *float64
	Last      *float64
	VWAP      *float64

	BaseVolume  *float64
	QuoteVolume *float64

	// last와 open이 모두 있을 때만 계산된다
	Change     *float64
	Percentage *float64
	Average    *float64

	Info any
}

type PriceLevel struct {
	Price  float64
	Amount float64
}

// OrderBook : 스냅샷. Nonce는 거래소의 sequence 값을 그대로 노출한다.
type OrderBook struct {
	Symbol    string
	Timestamp *int64
	Nonce     int64
	Bids      []PriceLevel // best first: 가격 내림차순
	Asks      []PriceLevel // best first: 가격 오름차순
	Info      any
}

type Fee struct {
	Currency string
	Cost     *float64
	Rate     *float64
}

type Trade struct {
	ID           string
	OrderID      string
	Timestamp    *int64
	Symbol       string
	Side         SideType
	TakerOrMaker string
	Price        *float64
	Amount       *float64
	Cost         *float64
	Fee          *Fee
	Info         any
}

type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

type Balance struct {
	Free  float64
	Used  float64
	Total float64
}

// Account : canonical 화폐 코드로 키잉된 잔고 맵
type Account struct {
	Balances map[string]Balance
	Info     any
}

type Order struct {
	ID            string
	ClientOrderID string
	Timestamp     *int64
	UpdatedAt     *int64
	Status        OrderStatusType
	Symbol        string
	Type          OrderType
	TimeInForce   TimeInForceType
	Side          SideType
	Price         *float64
	Amount        *float64
	Filled        *float64
	Remaining     *float64
	Cost          *float64
	Fee           *Fee
	Info          any
}

type DepositAddress struct {
	Currency string
	Address  string
	Tag      *string
	Info     any
}

type Transaction struct {
	ID          string
	TxID        string
	Timestamp   *int64
	Type        TransactionType
	Amount      *float64
	Currency    string
	Status      string
	Address     *string
	AddressFrom *string
	Tag         *string
	TagFrom     *string
	Fee         *Fee
	Info        any
}

package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"tanuki/config"
	"tanuki/model"
	"tanuki/utils/auth"
	"tanuki/utils/collection"
	"tanuki/utils/log"
	"tanuki/utils/resty"

	restyv2 "github.com/go-resty/resty/v2"
)

const (
	gopaxBaseREST = config.DefaultBaseURL

	pathTradingPairs     = "/trading-pairs"
	pathAssets           = "/assets"
	pathBalances         = "/balances"
	pathOrders           = "/orders"
	pathMyTrades         = "/trades"
	pathDepositAddresses = "/crypto-deposit-addresses"
	pathTransactions     = "/deposit-withdrawal-status"
)

// Gopax : GoPax REST API를 중립 모델로 변환하는 어댑터.
// 파서/변환 로직은 전부 순수 함수이고 상태는 prefetch된 마켓/자산 목록뿐이다.
type Gopax struct {
	apiKey    string
	secretKey string
	baseURL   string
	resty     resty.RestyClient

	requiresPriceForMarketBuy bool

	marketsBySymbol  map[string]model.Market
	marketsByID      map[string]model.Market
	currenciesByCode map[string]model.Currency
}

type GopaxOption func(*Gopax)

// WithRestyClient : transport 주입 (테스트에서 mock으로 교체)
func WithRestyClient(client resty.RestyClient) GopaxOption {
	return func(g *Gopax) {
		g.resty = client
	}
}

func NewGopax(cfg config.Config, opts ...GopaxOption) (*Gopax, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = gopaxBaseREST
	}
	g := &Gopax{
		apiKey:                    cfg.APIKey,
		secretKey:                 cfg.SecretKey,
		baseURL:                   baseURL,
		requiresPriceForMarketBuy: cfg.MarketBuyRequiresPrice(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.resty == nil {
		g.resty = resty.NewDefaultRestyClient(false, cfg.HTTPTimeout())
	}

	if err := g.LoadMarkets(context.Background()); err != nil {
		log.Warnf("[GOPAX] market prefetch failed: %v", err)
	} else {
		log.Infof("[SETUP] Using Gopax exchange with %d pre-fetched pairs", len(g.marketsBySymbol))
	}
	return g, nil
}

// -----------------------------------------------------------------------------
// 마켓 / 자산 목록
// -----------------------------------------------------------------------------

// LoadMarkets fetches the trading pair and asset listings and rebuilds the
// lookup maps. The maps are replaced wholesale, never mutated in place.
func (g *Gopax) LoadMarkets(ctx context.Context) error {
	markets, err := g.FetchMarkets(ctx)
	if err != nil {
		return err
	}
	currencies, err := g.FetchCurrencies(ctx)
	if err != nil {
		return err
	}
	g.marketsBySymbol = collection.AssociateBy(markets, func(m model.Market) string { return m.Symbol })
	g.marketsByID = collection.AssociateBy(markets, func(m model.Market) string { return m.ID })
	g.currenciesByCode = collection.AssociateBy(currencies, func(c model.Currency) string { return c.Code })
	return nil
}

func (g *Gopax) FetchMarkets(ctx context.Context) ([]model.Market, error) {
	body, err := g.publicGET(ctx, pathTradingPairs, nil)
	if err != nil {
		return nil, err
	}
	var pairs []model.GopaxTradingPair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("trading pairs parse: %w", err)
	}
	return collection.Map(pairs, convertTradingPairToMarket), nil
}

func (g *Gopax) FetchCurrencies(ctx context.Context) ([]model.Currency, error) {
	body, err := g.publicGET(ctx, pathAssets, nil)
	if err != nil {
		return nil, err
	}
	var assets []model.GopaxAsset
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("assets parse: %w", err)
	}
	return collection.Map(assets, convertAssetToCurrency), nil
}

// Market resolves a canonical symbol ("ETH/KRW") to its market record.
func (g *Gopax) Market(symbol string) (model.Market, error) {
	market, ok := g.marketsBySymbol[symbol]
	if !ok {
		return model.Market{}, errors.Join(ErrBadSymbol, fmt.Errorf("no market for symbol %q", symbol))
	}
	return market, nil
}

// Currency resolves a canonical currency code to its record.
func (g *Gopax) Currency(code string) (model.Currency, error) {
	currency, ok := g.currenciesByCode[CurrencyCode(code)]
	if !ok {
		return model.Currency{}, errors.Join(ErrBadSymbol, fmt.Errorf("no currency for code %q", code))
	}
	return currency, nil
}

// marketByID : 거래소 고유 이름("ETH-KRW")으로 마켓 조회. 목록에 없으면
// 이름만으로 canonical 심볼을 유도한다.
func (g *Gopax) marketByID(nativeID string) (model.Market, bool) {
	market, ok := g.marketsByID[nativeID]
	return market, ok
}

func (g *Gopax) symbolFromNativeID(nativeID string) string {
	if market, ok := g.marketsByID[nativeID]; ok {
		return market.Symbol
	}
	parts := strings.Split(nativeID, "-")
	if len(parts) == 2 {
		return CurrencyCode(parts[0]) + "/" + CurrencyCode(parts[1])
	}
	return nativeID
}

// CurrencyCode canonicalizes a native asset id. Idempotent; the single source
// of truth every other component resolves codes through.
func CurrencyCode(nativeID string) string {
	return strings.ToUpper(strings.TrimSpace(nativeID))
}

func convertTradingPairToMarket(pair model.GopaxTradingPair) model.Market {
	base := CurrencyCode(pair.BaseAsset)
	quote := CurrencyCode(pair.QuoteAsset)

	var minAmount, minCost *float64
	if pair.OrderAmountMin != nil {
		// ask 쪽 최소값은 base 수량, bid 쪽 최소값은 quote 금액
		if pair.OrderAmountMin.LimitAsk != nil {
			minAmount = pair.OrderAmountMin.LimitAsk.MinAmount
		}
		if pair.OrderAmountMin.LimitBid != nil {
			minCost = pair.OrderAmountMin.LimitBid.MinAmount
		}
	}

	return model.Market{
		ID:              pair.Name,
		NumericID:       pair.ID,
		Symbol:          base + "/" + quote,
		Base:            base,
		Quote:           quote,
		BaseID:          pair.BaseAsset,
		QuoteID:         pair.QuoteAsset,
		PricePrecision:  pair.QuoteAssetScale,
		AmountPrecision: pair.BaseAssetScale,
		Maker:           percentToRate(pair.MakerFeePercent),
		Taker:           percentToRate(pair.TakerFeePercent),
		MinAmount:       minAmount,
		MinPrice:        pair.PriceMin,
		MinCost:         minCost,
		Info:            pair,
	}
}

func convertAssetToCurrency(asset model.GopaxAsset) model.Currency {
	return model.Currency{
		Code:          CurrencyCode(asset.ID),
		ID:            asset.ID,
		Name:          asset.Name,
		Precision:     asset.Scale,
		Fee:           asset.WithdrawalFee,
		MinWithdrawal: asset.WithdrawalAmountMin,
		Info:          asset,
	}
}

// -----------------------------------------------------------------------------
// 요청 헬퍼
// -----------------------------------------------------------------------------

func (g *Gopax) publicGET(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := g.resty.
		MakeRequest(ctx, nil, nil).
		Get(g.baseURL+path, toQueryParams(query)...)
	return g.handleResponse(resp, err)
}

// privateRequest signs and issues an authenticated call. For non-POST calls on
// the bare /orders path the query feeds the signature but is left off the URL;
// relaxing that quirk silently invalidates every order-history request.
func (g *Gopax) privateRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyBytes = encoded
	}

	timestamp := time.Now().UnixMilli()
	headers, err := auth.SignGopax(g.apiKey, g.secretKey, timestamp, method, path, query, bodyBytes)
	if err != nil {
		return nil, err
	}

	var reqBody any
	if bodyBytes != nil {
		reqBody = bodyBytes
	}
	request := g.resty.MakeRequest(ctx, reqBody, headers)

	var queryParams []resty.QueryParam
	if path != pathOrders {
		queryParams = toQueryParams(query)
	}

	full := g.baseURL + path
	switch method {
	case "GET":
		resp, reqErr := request.Get(full, queryParams...)
		return g.handleResponse(resp, reqErr)
	case "POST":
		resp, reqErr := request.Post(full)
		return g.handleResponse(resp, reqErr)
	case "DELETE":
		resp, reqErr := request.Delete(full, queryParams...)
		return g.handleResponse(resp, reqErr)
	default:
		return nil, fmt.Errorf("unsupported method %s", method)
	}
}

func (g *Gopax) handleResponse(resp *restyv2.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("gopax request failed: %w", err)
	}
	body := resp.Body()
	if classified := ClassifyResponse(body); classified != nil {
		return nil, classified
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("gopax http %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	return body, nil
}

func toQueryParams(query url.Values) []resty.QueryParam {
	if len(query) == 0 {
		return nil
	}
	params := make([]resty.QueryParam, 0, len(query))
	for _, key := range sortedKeys(query) {
		for _, value := range query[key] {
			params = append(params, resty.QueryParam{Key: key, Value: value})
		}
	}
	return params
}

func sortedKeys(query url.Values) []string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// -----------------------------------------------------------------------------
// 공용 변환 헬퍼
// -----------------------------------------------------------------------------

func parse8601(value string) *int64 {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Warnf("[GOPAX] unparsable timestamp %q", value)
		return nil
	}
	ms := parsed.UnixMilli()
	return &ms
}

func percentToRate(percent *float64) *float64 {
	if percent == nil {
		return nil
	}
	rate := *percent / 100
	return &rate
}

func mulOpt(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	product := *a * *b
	return &product
}

func subOpt(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	diff := *a - *b
	return &diff
}

// sumAbs : 존재하는 값들의 절대값 합. 전부 없으면 nil.
func sumAbs(values ...*float64) *float64 {
	var total float64
	seen := false
	for _, value := range values {
		if value == nil {
			continue
		}
		total += math.Abs(*value)
		seen = true
	}
	if !seen {
		return nil
	}
	return &total
}

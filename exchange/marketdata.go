package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"tanuki/model"
	"tanuki/utils/log"
	"tanuki/utils/pointer"
)

// -----------------------------------------------------------------------------
// 티커
// -----------------------------------------------------------------------------

func (g *Gopax) FetchTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	market, err := g.Market(symbol)
	if err != nil {
		return model.Ticker{}, err
	}
	body, err := g.publicGET(ctx, pathTradingPairs+"/"+market.ID+"/ticker", nil)
	if err != nil {
		return model.Ticker{}, err
	}
	var snapshot model.GopaxTickerSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return model.Ticker{}, fmt.Errorf("ticker parse: %w", err)
	}
	return convertTickerSnapshot(snapshot, market.Symbol), nil
}

func (g *Gopax) FetchTickers(ctx context.Context) (map[string]model.Ticker, error) {
	body, err := g.publicGET(ctx, pathTradingPairs+"/stats", nil)
	if err != nil {
		return nil, err
	}
	var snapshots []model.GopaxTickerSnapshot
	if err := json.Unmarshal(body, &snapshots); err != nil {
		return nil, fmt.Errorf("tickers parse: %w", err)
	}
	tickers := make(map[string]model.Ticker, len(snapshots))
	for _, snapshot := range snapshots {
		symbol := g.symbolFromNativeID(snapshot.Name)
		tickers[symbol] = convertTickerSnapshot(snapshot, symbol)
	}
	return tickers, nil
}

// convertTickerSnapshot normalizes both ticker shapes: the single snapshot keyed
// by "price" and the stats entry keyed by "close". last는 [price, close] 중
// 먼저 존재하는 값이다.
func convertTickerSnapshot(snapshot model.GopaxTickerSnapshot, symbol string) model.Ticker {
	last := pointer.FirstNotNull(snapshot.Price, snapshot.Close)
	open := snapshot.Open

	// change/average는 last와 open이 모두 있을 때만, percentage는 open>0일 때만
	var change, percentage, average *float64
	if last != nil && open != nil {
		change = pointer.Create(*last - *open)
		average = pointer.Create((*last + *open) / 2)
		if *open > 0 {
			percentage = pointer.Create((*last - *open) / *open * 100)
		}
	}

	var vwap *float64
	if snapshot.Volume != nil && snapshot.QuoteVolume != nil && *snapshot.Volume > 0 {
		vwap = pointer.Create(*snapshot.QuoteVolume / *snapshot.Volume)
	}

	return model.Ticker{
		Symbol:      symbol,
		Timestamp:   parse8601(snapshot.Time),
		High:        snapshot.High,
		Low:         snapshot.Low,
		Bid:         snapshot.Bid,
		BidVolume:   snapshot.BidVolume,
		Ask:         snapshot.Ask,
		AskVolume:   snapshot.AskVolume,
		Open:        open,
		Close:       last,
		Last:        last,
		VWAP:        vwap,
		BaseVolume:  snapshot.Volume,
		QuoteVolume: snapshot.QuoteVolume,
		Change:      change,
		Percentage:  percentage,
		Average:     average,
		Info:        snapshot,
	}
}

// -----------------------------------------------------------------------------
// 호가
// -----------------------------------------------------------------------------

func (g *Gopax) FetchOrderBook(ctx context.Context, symbol string) (model.OrderBook, error) {
	market, err := g.Market(symbol)
	if err != nil {
		return model.OrderBook{}, err
	}
	body, err := g.publicGET(ctx, pathTradingPairs+"/"+market.ID+"/book", nil)
	if err != nil {
		return model.OrderBook{}, err
	}
	var snapshot model.GopaxBookSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return model.OrderBook{}, fmt.Errorf("order book parse: %w", err)
	}
	return convertOrderBook(snapshot, market.Symbol), nil
}

// convertOrderBook : 각 레벨 4-튜플 [레벨ID, 가격, 수량, 타임스탬프]에서
// 가격(1)과 수량(2)만 취한다. sequence는 nonce로 그대로 노출한다.
// 출력 계약상 양쪽 모두 재정렬한다 (bids 내림차순, asks 오름차순).
func convertOrderBook(snapshot model.GopaxBookSnapshot, symbol string) model.OrderBook {
	bids := convertBookSide(snapshot.Bid)
	asks := convertBookSide(snapshot.Ask)
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	return model.OrderBook{
		Symbol: symbol,
		Nonce:  snapshot.Sequence,
		Bids:   bids,
		Asks:   asks,
		Info:   snapshot,
	}
}

func convertBookSide(levels [][]float64) []model.PriceLevel {
	side := make([]model.PriceLevel, 0, len(levels))
	for _, level := range levels {
		if len(level) < 3 {
			log.Warnf("[GOPAX] malformed book level %v", level)
			continue
		}
		side = append(side, model.PriceLevel{Price: level[1], Amount: level[2]})
	}
	return side
}

// -----------------------------------------------------------------------------
// 체결
// -----------------------------------------------------------------------------

func (g *Gopax) FetchTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	market, err := g.Market(symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := g.publicGET(ctx, pathTradingPairs+"/"+market.ID+"/trades", query)
	if err != nil {
		return nil, err
	}
	var entries []model.GopaxTrade
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("trades parse: %w", err)
	}
	trades := make([]model.Trade, 0, len(entries))
	for _, entry := range entries {
		trades = append(trades, g.convertTrade(entry, &market))
	}
	return trades, nil
}

func (g *Gopax) FetchMyTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := g.privateRequest(ctx, "GET", pathMyTrades, query, nil)
	if err != nil {
		return nil, err
	}
	var entries []model.GopaxTrade
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("trade history parse: %w", err)
	}
	trades := make([]model.Trade, 0, len(entries))
	for _, entry := range entries {
		trade := g.convertTrade(entry, nil)
		if symbol != "" && trade.Symbol != symbol {
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// convertTrade normalizes both trade shapes to one record. tradingPairName의
// 존재 여부로 private 체결 내역인지 판별한다.
func (g *Gopax) convertTrade(trade model.GopaxTrade, market *model.Market) model.Trade {
	if trade.TradingPairName != "" {
		return g.convertPrivateTrade(trade)
	}
	return convertPublicTrade(trade, market)
}

func convertPublicTrade(trade model.GopaxTrade, market *model.Market) model.Trade {
	symbol := ""
	if market != nil {
		symbol = market.Symbol
	}
	return model.Trade{
		ID:        trade.ID.String(),
		Timestamp: parse8601(trade.Time),
		Symbol:    symbol,
		Side:      model.SideType(trade.Side),
		Price:     trade.Price,
		Amount:    trade.Amount,
		Cost:      mulOpt(trade.Price, trade.Amount),
		Info:      trade,
	}
}

func (g *Gopax) convertPrivateTrade(trade model.GopaxTrade) model.Trade {
	symbol := g.symbolFromNativeID(trade.TradingPairName)
	side := model.SideType(trade.Side)

	// 수수료 화폐: 매수는 base, 매도는 quote
	var fee *model.Fee
	if trade.Fee != nil {
		feeCurrency := ""
		if market, ok := g.marketByID(trade.TradingPairName); ok {
			if side == model.SideTypeBuy {
				feeCurrency = market.Base
			} else {
				feeCurrency = market.Quote
			}
		}
		fee = &model.Fee{Currency: feeCurrency, Cost: trade.Fee}
	}

	return model.Trade{
		ID:           trade.ID.String(),
		OrderID:      trade.OrderID.String(),
		Timestamp:    parse8601(trade.Timestamp),
		Symbol:       symbol,
		Side:         side,
		TakerOrMaker: trade.Position,
		Price:        trade.Price,
		Amount:       trade.BaseAmount,
		Cost:         mulOpt(trade.Price, trade.BaseAmount),
		Fee:          fee,
		Info:         trade,
	}
}

// -----------------------------------------------------------------------------
// 캔들
// -----------------------------------------------------------------------------

const defaultOHLCVLimit = 1024

func timeframeInterval(timeframe string) (int64, error) {
	switch timeframe {
	case "1m":
		return 1, nil
	case "5m":
		return 5, nil
	case "30m":
		return 30, nil
	case "1d":
		return 1440, nil
	default:
		return 0, fmt.Errorf("unsupported gopax timeframe: %s", timeframe)
	}
}

func (g *Gopax) FetchOHLCV(ctx context.Context, symbol, timeframe string, since *int64, limit int) ([]model.Candle, error) {
	market, err := g.Market(symbol)
	if err != nil {
		return nil, err
	}
	interval, err := timeframeInterval(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultOHLCVLimit
	}
	durationMs := interval * 60 * 1000
	now := time.Now().UnixMilli()

	// 명시된 start가 없으면 현재 시각에서 limit 구간만큼 거슬러 올라간다
	var start, end int64
	if since == nil {
		end = now
		start = end - int64(limit)*durationMs
	} else {
		start = *since
		end = start + int64(limit)*durationMs
		if end > now {
			end = now
		}
	}

	query := url.Values{}
	query.Set("start", strconv.FormatInt(start, 10))
	query.Set("end", strconv.FormatInt(end, 10))
	query.Set("interval", strconv.FormatInt(interval, 10))

	body, err := g.publicGET(ctx, pathTradingPairs+"/"+market.ID+"/candles", query)
	if err != nil {
		return nil, err
	}
	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("candles parse: %w", err)
	}
	return convertCandles(rows), nil
}

// convertCandles reindexes each exchange row
// [ts, low, high, open, close, volume] into the conventional
// [ts, open, high, low, close, volume] order.
func convertCandles(rows [][]float64) []model.Candle {
	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			log.Warnf("[GOPAX] malformed candle row %v", row)
			continue
		}
		candles = append(candles, model.Candle{
			Timestamp: int64(row[0]),
			Open:      row[3],
			High:      row[2],
			Low:       row[1],
			Close:     row[4],
			Volume:    row[5],
		})
	}
	return candles
}

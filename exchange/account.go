package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tanuki/model"
	"tanuki/utils/pointer"
)

// -----------------------------------------------------------------------------
// 잔고
// -----------------------------------------------------------------------------

// FetchBalance : free = avail, used = hold + pendingWithdrawal.
// 응답에 없는 화폐는 free/used 0으로 취급한다 (에러 아님).
func (g *Gopax) FetchBalance(ctx context.Context) (model.Account, error) {
	body, err := g.privateRequest(ctx, "GET", pathBalances, nil, nil)
	if err != nil {
		return model.Account{}, err
	}
	var entries []model.GopaxBalance
	if err := json.Unmarshal(body, &entries); err != nil {
		return model.Account{}, fmt.Errorf("balances parse: %w", err)
	}

	balances := make(map[string]model.Balance, len(entries))
	for _, entry := range entries {
		free := pointer.NotNull(entry.Avail, 0)
		used := pointer.NotNull(entry.Hold, 0) + pointer.NotNull(entry.PendingWithdrawal, 0)
		balances[CurrencyCode(entry.Asset)] = model.Balance{
			Free:  free,
			Used:  used,
			Total: free + used,
		}
	}
	return model.Account{Balances: balances, Info: entries}, nil
}

// -----------------------------------------------------------------------------
// 입금 주소
// -----------------------------------------------------------------------------

func (g *Gopax) FetchDepositAddresses(ctx context.Context) (map[string]model.DepositAddress, error) {
	body, err := g.privateRequest(ctx, "GET", pathDepositAddresses, nil, nil)
	if err != nil {
		return nil, err
	}
	var entries []model.GopaxDepositAddress
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("deposit addresses parse: %w", err)
	}

	addresses := make(map[string]model.DepositAddress, len(entries))
	for _, entry := range entries {
		if err := checkAddress(entry.Address); err != nil {
			return nil, err
		}
		var tag *string
		if memo := entry.MemoID.String(); memo != "" {
			tag = pointer.Create(memo)
		}
		code := CurrencyCode(entry.Asset)
		addresses[code] = model.DepositAddress{
			Currency: code,
			Address:  entry.Address,
			Tag:      tag,
			Info:     entry,
		}
	}
	return addresses, nil
}

// FetchDepositAddress : 단일 화폐 조회. 주소가 없으면 addressing 에러다.
func (g *Gopax) FetchDepositAddress(ctx context.Context, code string) (model.DepositAddress, error) {
	addresses, err := g.FetchDepositAddresses(ctx)
	if err != nil {
		return model.DepositAddress{}, err
	}
	address, ok := addresses[CurrencyCode(code)]
	if !ok {
		return model.DepositAddress{}, errors.Join(ErrInvalidAddress, fmt.Errorf("no deposit address for %s", code))
	}
	return address, nil
}

func checkAddress(address string) error {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" || trimmed != address || strings.ContainsAny(address, " \t\n") || len(address) < 4 {
		return errors.Join(ErrInvalidAddress, fmt.Errorf("malformed deposit address %q", address))
	}
	return nil
}

// -----------------------------------------------------------------------------
// 입출금 내역
// -----------------------------------------------------------------------------

// FetchDepositsWithdrawals : 시간 창과 limit은 요청 전에 검증한다.
// 미래의 since나 양수가 아닌 limit은 네트워크 왕복 없이 즉시 실패한다.
func (g *Gopax) FetchDepositsWithdrawals(ctx context.Context, code string, since *int64, limit *int) ([]model.Transaction, error) {
	now := time.Now().UnixMilli()
	if since != nil && *since > now {
		return nil, errors.Join(ErrBadRequest, fmt.Errorf("since %d is in the future", *since))
	}
	if limit != nil && *limit <= 0 {
		return nil, errors.Join(ErrBadRequest, fmt.Errorf("limit must be positive, got %d", *limit))
	}

	body, err := g.privateRequest(ctx, "GET", pathTransactions, nil, nil)
	if err != nil {
		return nil, err
	}
	var entries []model.GopaxTransaction
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("transactions parse: %w", err)
	}

	contextCode := CurrencyCode(code)
	transactions := make([]model.Transaction, 0, len(entries))
	for _, entry := range entries {
		transaction := convertTransaction(entry, contextCode)
		if contextCode != "" && transaction.Currency != contextCode {
			continue
		}
		if since != nil && (transaction.Timestamp == nil || *transaction.Timestamp < *since) {
			continue
		}
		transactions = append(transactions, transaction)
		if limit != nil && len(transactions) >= *limit {
			break
		}
	}
	return transactions, nil
}

// crypto_withdrawal/fiat_withdrawal → withdrawal, 그 외는 전부 deposit
func transactionType(native string) model.TransactionType {
	switch native {
	case "crypto_withdrawal", "fiat_withdrawal":
		return model.TransactionTypeWithdrawal
	default:
		return model.TransactionTypeDeposit
	}
}

// convertTransaction : reviewStartedAt이 기본 타임스탬프, completedAt이 있으면
// 그것이 우선한다. 화폐 코드는 페이로드에 없으면 조회 컨텍스트의 코드를 쓴다.
func convertTransaction(entry model.GopaxTransaction, contextCode string) model.Transaction {
	timestamp := secondsToMs(entry.ReviewStartedAt)
	if completed := secondsToMs(entry.CompletedAt); completed != nil {
		timestamp = completed
	}

	currency := CurrencyCode(entry.Asset)
	if currency == "" {
		currency = contextCode
	}

	var fee *model.Fee
	if entry.FeeAmount != nil {
		var rate *float64
		if entry.NetAmount != nil && *entry.NetAmount != 0 {
			rate = pointer.Create(*entry.FeeAmount / *entry.NetAmount)
		}
		fee = &model.Fee{Currency: currency, Cost: entry.FeeAmount, Rate: rate}
	}

	return model.Transaction{
		ID:          entry.ID.String(),
		TxID:        entry.TxID,
		Timestamp:   timestamp,
		Type:        transactionType(entry.Type),
		Amount:      entry.NetAmount,
		Currency:    currency,
		Status:      entry.Status,
		Address:     entry.DestinationAddress,
		AddressFrom: entry.SourceAddress,
		Tag:         entry.DestinationMemoID,
		TagFrom:     entry.SourceMemoID,
		Fee:         fee,
		Info:        entry,
	}
}

func secondsToMs(seconds *int64) *int64 {
	if seconds == nil {
		return nil
	}
	return pointer.Create(*seconds * 1000)
}

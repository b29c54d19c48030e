package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Typed error kinds raised when a GoPax error payload is recognized.
// Callers match with errors.Is; the raw payload stays reachable via errors.As(APIError).
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOrderNotFound     = errors.New("order not found")
	ErrBadSymbol         = errors.New("unknown trading pair")
	ErrInvalidAddress    = errors.New("invalid deposit address")
	ErrBadRequest        = errors.New("bad request")
)

// APIError : 거래소가 내려준 에러 페이로드 원문
type APIError struct {
	Code    string
	Message string
	Body    string
}

func (e APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gopax error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gopax error: %s", e.Message)
}

// exactErrorKinds : errorCode 정확 일치 테이블. 여기 없는 코드는 분류하지 않고
// 상위에서 원문 상태 그대로 노출한다.
var exactErrorKinds = map[string]error{
	"100":   ErrBadSymbol,         // Invalid asset
	"101":   ErrBadSymbol,         // Invalid trading pair
	"103":   ErrInvalidOrder,      // Invalid order type
	"104":   ErrInvalidOrder,      // Invalid order side
	"105":   ErrInvalidOrder,      // Invalid amount
	"106":   ErrInvalidOrder,      // Invalid price
	"10002": ErrAuthentication,    // Invalid api key
	"10155": ErrAuthentication,    // Invalid api key or signature
	"10203": ErrOrderNotFound,     // No such order id
	"10212": ErrInvalidOrder,      // Invalid option combination
	"10221": ErrOrderNotFound,     // No such client order id
	"10222": ErrInvalidOrder,      // Client order id being used
	"10223": ErrInsufficientFunds, // Not enough balance
	"10227": ErrInvalidOrder,      // Forbidden order type
}

// broadErrorKinds : errorCode가 없을 때 응답 본문 전체를 순서대로 스캔하는
// 부분 문자열 테이블. 먼저 일치한 항목이 이기므로 구체적인 패턴이 앞에 와야 한다.
var broadErrorKinds = []struct {
	Substr string
	Kind   error
}{
	{"ERROR_INVALID_ORDER_TYPE", ErrInvalidOrder},
	{"ERROR_INVALID_AMOUNT", ErrInvalidOrder},
	{"ERROR_INVALID_TRADING_PAIR", ErrBadSymbol},
	{"No external deposit address", ErrInvalidAddress},
	{"Forbidden order type", ErrInvalidOrder},
	{"the client order ID will be reusable again after cancelling or completion", ErrInvalidOrder},
	{"No such client order ID", ErrOrderNotFound},
	{"No such order ID", ErrOrderNotFound},
	{"Not enough amount", ErrInsufficientFunds},
	{"Invalid option combination", ErrInvalidOrder},
}

// ClassifyResponse inspects a raw response body and returns a typed error when the
// payload signals a recognizable failure. Array responses are never error payloads.
// Unrecognized codes and messages return nil so the caller can surface the raw status.
func ClassifyResponse(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil
	}

	message, _ := payload["errorMessage"].(string)
	code := stringifyCode(payload["errorCode"])

	if code != "" {
		kind, ok := exactErrorKinds[code]
		if !ok {
			return nil
		}
		return errors.Join(kind, APIError{Code: code, Message: message, Body: string(trimmed)})
	}

	if _, present := payload["errorMessage"]; !present {
		return nil
	}
	text := string(trimmed)
	for _, entry := range broadErrorKinds {
		if strings.Contains(text, entry.Substr) {
			return errors.Join(entry.Kind, APIError{Message: message, Body: text})
		}
	}
	return nil
}

func stringifyCode(value any) string {
	switch code := value.(type) {
	case nil:
		return ""
	case string:
		return code
	case float64:
		return strconv.FormatFloat(code, 'f', -1, 64)
	case json.Number:
		return code.String()
	default:
		return fmt.Sprintf("%v", code)
	}
}

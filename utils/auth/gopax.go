package auth

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ordersCollectionPath : GET/DELETE 요청 중 쿼리가 서명에만 포함되는 유일한 경로.
// GoPax는 이 경로에 한해서 쿼리 스트링을 URL이 아닌 서명 문자열에 붙인다.
const ordersCollectionPath = "/orders"

// SigningMessage builds the canonical string GoPax signs:
// "t" + timestamp(ms) + METHOD + path, plus the JSON body for POST requests,
// or "?"+encoded query for non-POST requests against the bare /orders path.
// The query is never appended for any other path.
func SigningMessage(timestamp int64, method, path string, query url.Values, body []byte) string {
	method = strings.ToUpper(method)
	message := "t" + strconv.FormatInt(timestamp, 10) + method + path
	if method == "POST" {
		message += string(body)
	} else if path == ordersCollectionPath && len(query) > 0 {
		message += "?" + query.Encode()
	}
	return message
}

// SignGopax : private 호출용 서명 헤더 생성
// secret은 base64 인코딩된 키이며, HMAC-SHA512 서명 결과도 base64로 인코딩한다.
// The returned headers replace any caller supplied headers on private calls.
func SignGopax(apiKey, secretKey string, timestamp int64, method, path string, query url.Values, body []byte) (map[string]string, error) {
	rawSecret, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}

	message := SigningMessage(timestamp, method, path, query, body)
	mac := hmac.New(sha512.New, rawSecret)
	mac.Write([]byte(message))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"api-key":   apiKey,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"signature": signature,
	}, nil
}

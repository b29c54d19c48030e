package exchange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ClassifyResponse_ExactCode(t *testing.T) {
	err := ClassifyResponse([]byte(`{"errorCode":10155,"errorMessage":"Invalid api key or signature"}`))
	require.ErrorIs(t, err, ErrAuthentication)

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "10155", apiErr.Code)
	require.Equal(t, "Invalid api key or signature", apiErr.Message)
}

func Test_ClassifyResponse_ExactCodeAsString(t *testing.T) {
	err := ClassifyResponse([]byte(`{"errorCode":"10223","errorMessage":"Not enough balance"}`))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func Test_ClassifyResponse_UnknownCodeFallsThrough(t *testing.T) {
	// 테이블에 없는 코드는 분류하지 않는다. errorMessage 스캔으로도 넘어가지 않는다.
	err := ClassifyResponse([]byte(`{"errorCode":99999,"errorMessage":"Not enough amount"}`))
	require.NoError(t, err)
}

func Test_ClassifyResponse_BroadScan(t *testing.T) {
	err := ClassifyResponse([]byte(`{"errorMessage":"Not enough amount of ETH to place this order"}`))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func Test_ClassifyResponse_BroadScanFirstMatchWins(t *testing.T) {
	body := []byte(`{"errorMessage":"Not enough amount / Invalid option combination"}`)
	err := ClassifyResponse(body)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.False(t, errors.Is(err, ErrInvalidOrder))
}

func Test_ClassifyResponse_NoMessageNoScan(t *testing.T) {
	// errorMessage 키 자체가 없으면 본문에 패턴이 있어도 스캔하지 않는다
	err := ClassifyResponse([]byte(`{"detail":"Not enough amount"}`))
	require.NoError(t, err)
}

func Test_ClassifyResponse_ArrayBodyNeverClassifies(t *testing.T) {
	err := ClassifyResponse([]byte(`[{"errorCode":10155,"errorMessage":"Invalid api key"}]`))
	require.NoError(t, err)
}

func Test_ClassifyResponse_EmptyAndMalformed(t *testing.T) {
	require.NoError(t, ClassifyResponse(nil))
	require.NoError(t, ClassifyResponse([]byte("  ")))
	require.NoError(t, ClassifyResponse([]byte(`{"errorCode":`)))
}

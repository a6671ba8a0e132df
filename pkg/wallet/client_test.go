package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewSigner_DerivesAddress(t *testing.T) {
	s, err := NewSigner(testKey)
	require.NoError(t, err)
	require.NotEqual(t, "0x0000000000000000000000000000000000000000", s.Address().Hex())
}

func TestNewSigner_AcceptsHexPrefix(t *testing.T) {
	withPrefix, err := NewSigner("0x" + testKey)
	require.NoError(t, err)
	without, err := NewSigner(testKey)
	require.NoError(t, err)
	require.Equal(t, without.Address(), withPrefix.Address())
}

func TestNewSigner_RejectsEmptyKey(t *testing.T) {
	_, err := NewSigner("")
	require.Error(t, err)
}

func TestSignOrder_ProducesSignature(t *testing.T) {
	s, err := NewSigner(testKey)
	require.NoError(t, err)

	order, err := s.SignOrder("token-1", "BUY", "0.45", "100")
	require.NoError(t, err)
	require.Equal(t, "token-1", order.TokenID)
	require.NotEmpty(t, order.Signature)
}

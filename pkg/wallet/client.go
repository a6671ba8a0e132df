// Package wallet derives a trading address from a configured private key
// and signs the thin order shape this system is allowed to produce.
//
// Live order-placement transport, on-chain redemption (EVM/Safe proxy call
// construction) and custody/key management beyond "a private key is
// available via config" are out of scope; this package exists only to
// derive an address and sign a thin order payload, not to submit anything
// to a venue.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer derives an address from a private key and signs order payloads
// with it. It never dials a node and never broadcasts a transaction.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner parses a hex-encoded private key (with or without a leading
// "0x") and derives its address.
func NewSigner(hexKey string) (*Signer, error) {
	if hexKey == "" {
		return nil, errors.New("private key cannot be empty")
	}
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signer's derived wallet address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignedOrder is a thin signed-order shape: enough to describe what a
// venue-specific order builder would sign, without constructing that
// venue's actual order payload.
type SignedOrder struct {
	TokenID   string
	Side      string // "BUY" or "SELL"
	Price     string // decimal string, kept opaque to this package
	Size      string
	Signature []byte
}

// SignOrder signs the keccak256 digest of the order's canonical fields.
// It does not encode a specific exchange's EIP-712 order schema — that
// construction belongs to the excluded venue-specific order builder.
func (s *Signer) SignOrder(tokenID, side, price, size string) (SignedOrder, error) {
	digest := crypto.Keccak256([]byte(tokenID + "|" + side + "|" + price + "|" + size))
	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		SignErrorsTotal.Inc()
		return SignedOrder{}, fmt.Errorf("sign order: %w", err)
	}
	OrdersSignedTotal.Inc()
	return SignedOrder{TokenID: tokenID, Side: side, Price: price, Size: size, Signature: sig}, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

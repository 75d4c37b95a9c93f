package concrnt

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// GetHash returns the keccak256 digest used for every document signature.
func GetHash(bytes []byte) []byte {
	return crypto.Keccak256(bytes)
}

func SignBytes(bytes []byte, privatekey string) ([]byte, error) {
	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	signature, err := crypto.Sign(GetHash(bytes), key)
	if err != nil {
		return nil, fmt.Errorf("sign failed: %w", err)
	}

	return signature, nil
}

// VerifySignature recovers the signer of message and checks it matches address.
// The address prefix (con, ccs, ...) is taken from the address itself.
func VerifySignature(message []byte, signature []byte, address string) error {
	if len(address) < 3 {
		return fmt.Errorf("invalid address: %q", address)
	}

	pubkey, err := crypto.SigToPub(GetHash(message), signature)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered, err := PubkeyToAddr(pubkey, address[:3])
	if err != nil {
		return err
	}

	if recovered != address {
		return fmt.Errorf("signature mismatch: signed by %s, expected %s", recovered, address)
	}

	return nil
}

func PubkeyToAddr(pubkey *ecdsa.PublicKey, hrp string) (string, error) {
	ethAddr := crypto.PubkeyToAddress(*pubkey)
	addr, err := bech32.ConvertAndEncode(hrp, ethAddr.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return addr, nil
}

func PrivKeyToAddr(privatekey string, hrp string) (string, error) {
	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return PubkeyToAddr(&key.PublicKey, hrp)
}

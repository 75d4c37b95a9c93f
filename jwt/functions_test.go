package jwt

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/totegamma/concrnt-inscriber"
)

func newIdentity(t *testing.T) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	priv := hex.EncodeToString(crypto.FromECDSA(key))
	ccid, err := concrnt.PrivKeyToAddr(priv, "con")
	if err != nil {
		t.Fatalf("derive ccid: %v", err)
	}
	return priv, ccid
}

func TestCreateValidate(t *testing.T) {
	priv, ccid := newIdentity(t)

	token, err := Create(NewClaims(ccid, "inscriber.example.com", "jti-1", time.Minute), priv)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, claims, err := Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Issuer != ccid || claims.Audience != "inscriber.example.com" || claims.Subject != Subject {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateExpired(t *testing.T) {
	priv, ccid := newIdentity(t)

	token, err := Create(NewClaims(ccid, "aud", "", -time.Minute), priv)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateWrongIssuer(t *testing.T) {
	priv, _ := newIdentity(t)
	_, other := newIdentity(t)

	token, err := Create(NewClaims(other, "aud", "", time.Minute), priv)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := Validate(token); err == nil {
		t.Fatalf("expected token signed by another key to be rejected")
	}
}

func TestValidateMalformed(t *testing.T) {
	for _, token := range []string{"", "a.b", strings.Repeat(".", 3)} {
		if _, _, err := Validate(token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}

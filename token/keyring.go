package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Keyring holds the HMAC signing keys by key ID. New tokens are signed with
// the active key; verification selects the key named by the token's kid
// header, so rotating the active key does not invalidate unexpired tokens
// signed by a previous key.
type Keyring struct {
	keys      map[string][]byte
	activeKID string
}

func NewKeyring(activeKID string, keys map[string]string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("[NewKeyring] at least one signing key is required")
	}
	if _, ok := keys[activeKID]; !ok {
		return nil, errors.Errorf("[NewKeyring] active key id %q not present in keyring", activeKID)
	}
	kr := &Keyring{
		keys:      make(map[string][]byte, len(keys)),
		activeKID: activeKID,
	}
	for kid, secret := range keys {
		if secret == "" {
			return nil, errors.Errorf("[NewKeyring] empty secret for key id %q", kid)
		}
		kr.keys[kid] = []byte(secret)
	}
	return kr, nil
}

// ActiveKeyID returns the key ID embedded in newly minted tokens.
func (k *Keyring) ActiveKeyID() string {
	return k.activeKID
}

// SigningKey returns the secret of the active key.
func (k *Keyring) SigningKey() []byte {
	return k.keys[k.activeKID]
}

// GetVerificationKey resolves the verification key from the token's kid
// header. Tokens without a known kid do not verify.
func (k *Keyring) GetVerificationKey(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token missing kid header")
	}
	secret, ok := k.keys[kid]
	if !ok {
		return nil, errors.Errorf("unknown key id %q", kid)
	}
	return secret, nil
}

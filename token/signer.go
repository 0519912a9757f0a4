package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs access tokens and resolves the key that verifies them.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Keyfunc(token *jwt.Token) (any, error)
	Method() jwt.SigningMethod
}

// KeyPairSigner signs with one RSA key pair and publishes its public half as a JWKS.
type KeyPairSigner struct {
	keyPair *KeyPair
}

var _ Signer = (*KeyPairSigner)(nil)

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

// Sign stamps the key ID into the header so verifiers can pick the key from the JWKS.
func (s *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(s.Method(), claims)
	t.Header["kid"] = s.keyPair.KeyID

	raw, err := t.SignedString(s.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrapf(err, "[KeyPairSigner.Sign] key %s", s.keyPair.KeyID)
	}
	return raw, nil
}

// Keyfunc is a jwt.Keyfunc accepting RSA tokens that carry this signer's key ID, or none.
func (s *KeyPairSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.Errorf("[KeyPairSigner.Keyfunc] unexpected signing method %v", t.Header["alg"])
	}
	if kid, ok := t.Header["kid"].(string); ok && kid != s.keyPair.KeyID {
		return nil, errors.Errorf("[KeyPairSigner.Keyfunc] unknown key %q", kid)
	}
	return s.keyPair.PublicKey, nil
}

func (s *KeyPairSigner) Method() jwt.SigningMethod {
	return s.keyPair.GetSigningMethod()
}

// JWKS returns the key set served at /.well-known/jwks.json
func (s *KeyPairSigner) JWKS() (*JWKS, error) {
	jwk, err := s.keyPair.ToJWK()
	if err != nil {
		return nil, errors.Wrap(err, "[KeyPairSigner.JWKS]")
	}
	return &JWKS{Keys: []JWK{*jwk}}, nil
}

package keys

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// JWKS es el documento de claves publicado por el identity provider.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK es una clave individual. Solo soportamos RSA: es lo que publica el
// proveedor y lo único que el allow-list de algoritmos acepta.
type JWK struct {
	KID string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// publicKey decodifica los campos n/e en una *rsa.PublicKey.
func (k JWK) publicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

// findKey busca un kid dentro del JSON crudo de un JWKS.
func findKey(raw []byte, kid string) (*rsa.PublicKey, error) {
	var doc JWKS
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}
	for _, k := range doc.Keys {
		if k.KID != kid {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		return k.publicKey()
	}
	return nil, ErrKeyNotFound
}

package jwtx

import "encoding/base64"

// JWK is the public representation of a signing key (RFC 7517, OKP type for
// Ed25519).
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	X   string `json:"x"`
}

// JWKS is the key set document served at /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWK returns the signer's verification key as a JWK.
func (s *Signer) PublicJWK() JWK {
	return JWK{
		Kty: "OKP",
		Crv: "Ed25519",
		Kid: s.kid,
		Use: "sig",
		Alg: "EdDSA",
		X:   base64.RawURLEncoding.EncodeToString(s.pub),
	}
}

// JWKS returns the full key set for publication.
func (s *Signer) JWKS() JWKS {
	return JWKS{Keys: []JWK{s.PublicJWK()}}
}

package issuing

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// signingMethod looks up a registered JWS algorithm. "none" is refused.
func signingMethod(algorithm string) (jwtlib.SigningMethod, error) {
	if strings.TrimSpace(algorithm) == "" {
		return nil, configErr("algorithm", "must not be blank")
	}
	method := jwtlib.GetSigningMethod(algorithm)
	if method == nil || method == jwtlib.SigningMethodNone {
		return nil, configErr("algorithm", fmt.Sprintf("unsupported algorithm %q", algorithm))
	}
	return method, nil
}

// checkKey verifies that key is the type the method signs with.
func checkKey(method jwtlib.SigningMethod, key any) error {
	if key == nil {
		return configErr("key", "must not be nil")
	}

	switch m := method.(type) {
	case *jwtlib.SigningMethodHMAC:
		b, ok := key.([]byte)
		if !ok {
			return configErr("key", fmt.Sprintf("%s needs a []byte secret, got %T", m.Alg(), key))
		}
		if len(b) == 0 {
			return configErr("key", "must not be empty")
		}
	case *jwtlib.SigningMethodRSA, *jwtlib.SigningMethodRSAPSS:
		k, ok := key.(*rsa.PrivateKey)
		if !ok || k == nil {
			return configErr("key", fmt.Sprintf("%s needs an *rsa.PrivateKey, got %T", method.Alg(), key))
		}
	case *jwtlib.SigningMethodECDSA:
		k, ok := key.(*ecdsa.PrivateKey)
		if !ok || k == nil {
			return configErr("key", fmt.Sprintf("%s needs an *ecdsa.PrivateKey, got %T", m.Alg(), key))
		}
		if k.Curve == nil || k.Curve.Params().BitSize != m.CurveBits {
			return configErr("key", fmt.Sprintf("%s needs a %d-bit curve", m.Alg(), m.CurveBits))
		}
	case *jwtlib.SigningMethodEd25519:
		k, ok := key.(ed25519.PrivateKey)
		if !ok || len(k) != ed25519.PrivateKeySize {
			return configErr("key", fmt.Sprintf("%s needs an ed25519.PrivateKey, got %T", m.Alg(), key))
		}
	default:
		return configErr("algorithm", fmt.Sprintf("unsupported algorithm %q", method.Alg()))
	}
	return nil
}

// ParseSigningKey turns configured key material into the key type the
// algorithm family signs with:
//
//	HS256/384/512        the raw bytes, used as the shared secret
//	RS*, PS*             PEM-encoded RSA private key (PKCS#1 or PKCS#8)
//	ES256/384/512        PEM-encoded EC private key (SEC 1 or PKCS#8)
//	EdDSA                PEM-encoded PKCS#8 key, a raw 32-byte seed, or a raw 64-byte key
func ParseSigningKey(algorithm string, material []byte) (any, error) {
	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if len(material) == 0 {
		return nil, configErr("key", "must not be empty")
	}

	var key any
	switch method.(type) {
	case *jwtlib.SigningMethodHMAC:
		key = bytes.Clone(material)
	case *jwtlib.SigningMethodRSA, *jwtlib.SigningMethodRSAPSS:
		key, err = jwtlib.ParseRSAPrivateKeyFromPEM(material)
	case *jwtlib.SigningMethodECDSA:
		key, err = jwtlib.ParseECPrivateKeyFromPEM(material)
	case *jwtlib.SigningMethodEd25519:
		key, err = parseEd25519(material)
	default:
		return nil, configErr("algorithm", fmt.Sprintf("unsupported algorithm %q", algorithm))
	}
	if err != nil {
		return nil, configErr("key", fmt.Sprintf("parsing %s key: %v", algorithm, err))
	}
	if err := checkKey(method, key); err != nil {
		return nil, err
	}
	return key, nil
}

func parseEd25519(material []byte) (ed25519.PrivateKey, error) {
	trimmed := bytes.TrimSpace(material)
	if bytes.HasPrefix(trimmed, []byte("-----BEGIN")) {
		k, err := jwtlib.ParseEdPrivateKeyFromPEM(trimmed)
		if err != nil {
			return nil, err
		}
		priv, ok := k.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("PEM block holds %T, not an Ed25519 key", k)
		}
		return priv, nil
	}

	switch len(material) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(material), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(bytes.Clone(material)), nil
	}
	return nil, fmt.Errorf("raw key must be %d or %d bytes, got %d",
		ed25519.SeedSize, ed25519.PrivateKeySize, len(material))
}

// VerificationKey returns the key that verifies tokens signed with s: the
// shared secret for HMAC algorithms, the public half otherwise. It returns
// nil for the zero Settings.
func VerificationKey(s Settings) any {
	switch k := s.key.(type) {
	case []byte:
		return k
	case crypto.Signer:
		return k.Public()
	}
	return nil
}

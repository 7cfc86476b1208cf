package transport

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	ic "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// identity is a key pair, its peer ID and a certificate carrying the key
type identity struct {
	privateKey  crypto.PrivateKey
	peerID      peer.ID
	certificate *tls.Certificate
}

// newIdentity derives an identity from privateKey, generating an ed25519 key
// when it is nil
func newIdentity(privateKey crypto.PrivateKey) (*identity, error) {
	if privateKey == nil {
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		privateKey = key
	}

	var privkey ic.PrivKey
	var err error
	switch key := privateKey.(type) {
	case ed25519.PrivateKey:
		privkey, err = ic.UnmarshalEd25519PrivateKey(key)
	default:
		return nil, fmt.Errorf("unsupported key type: %T", privateKey)
	}
	if err != nil {
		return nil, err
	}
	peerID, err := peer.IDFromPublicKey(privkey.GetPublic())
	if err != nil {
		return nil, err
	}
	cert, err := createTLSCertFromKey(privateKey)
	if err != nil {
		return nil, err
	}
	return &identity{privateKey: privateKey, peerID: peerID, certificate: cert}, nil
}

// createTLSCertFromKey creates a self-signed certificate from a private key
func createTLSCertFromKey(key crypto.PrivateKey) (*tls.Certificate, error) {
	var publicKey crypto.PublicKey
	switch privateKey := key.(type) {
	case ed25519.PrivateKey:
		publicKey = privateKey.Public()
	default:
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "affine"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, publicKey, key)
	if err != nil {
		return nil, err
	}
	keyBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// parsePeerIDFromCertificate extracts the peer ID from a TLS certificate
func parsePeerIDFromCertificate(cert *x509.Certificate) (peer.ID, error) {
	var pubkey ic.PubKey
	var err error
	switch key := cert.PublicKey.(type) {
	case ed25519.PublicKey:
		pubkey, err = ic.UnmarshalEd25519PublicKey(key)
	default:
		return "", fmt.Errorf("unsupported public key type: %T", cert.PublicKey)
	}
	if err != nil {
		return "", err
	}
	return peer.IDFromPublicKey(pubkey)
}

// peerIDFromRawCerts parses the leaf of a TLS handshake's certificate chain
func peerIDFromRawCerts(rawCerts [][]byte) (peer.ID, error) {
	if len(rawCerts) == 0 {
		return "", fmt.Errorf("peer sent no certificate")
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return "", err
	}
	return parsePeerIDFromCertificate(cert)
}

package transport

import (
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ppopth/affine-cipher/pb"

	"github.com/libp2p/go-libp2p/core/peer"
	quic "github.com/quic-go/quic-go"
)

// ErrRemote wraps errors reported by the server in a response
var ErrRemote = errors.New("remote error")

// ErrUnexpectedPeer is returned when the server is not the expected peer
var ErrUnexpectedPeer = errors.New("unexpected peer")

// ClientOption configures a Client before dialing
type ClientOption func(*Client) error

// WithClientIdentity sets the key the client authenticates with
func WithClientIdentity(privateKey crypto.PrivateKey) ClientOption {
	return func(c *Client) error {
		if privateKey == nil {
			return fmt.Errorf("nil identity key")
		}
		c.privateKey = privateKey
		return nil
	}
}

// WithExpectedPeer makes the handshake fail unless the server is id
func WithExpectedPeer(id peer.ID) ClientOption {
	return func(c *Client) error {
		if err := id.Validate(); err != nil {
			return err
		}
		c.expected = id
		return nil
	}
}

// Client sends cipher requests over one QUIC connection
type Client struct {
	stats

	privateKey crypto.PrivateKey
	identity   *identity
	expected   peer.ID
	serverID   peer.ID

	udpConn   *net.UDPConn
	transport *quic.Transport
	conn      *quic.Conn
}

// Dial connects to the server at addr
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	var err error
	if c.identity, err = newIdentity(c.privateKey); err != nil {
		return nil, err
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	if c.udpConn, err = net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0}); err != nil {
		return nil, err
	}
	c.transport = &quic.Transport{Conn: c.udpConn}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*c.identity.certificate},
		// The certificate is self-signed; the peer ID in it is what gets checked.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: c.verifyServer,
		NextProtos:            []string{Protocol},
	}
	quicConfig := &quic.Config{
		MaxIdleTimeout:  5 * time.Minute,
		KeepAlivePeriod: 15 * time.Second,
	}
	c.conn, err = c.transport.Dial(ctx, udpAddr, tlsConfig, quicConfig)
	if err != nil {
		c.transport.Close()
		c.udpConn.Close()
		return nil, err
	}
	log.Infof("connected to %s at %s", c.serverID, addr)
	return c, nil
}

// verifyServer records the server's peer ID and checks it if one is expected
func (c *Client) verifyServer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	id, err := peerIDFromRawCerts(rawCerts)
	if err != nil {
		return err
	}
	if c.expected != "" && id != c.expected {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedPeer, id, c.expected)
	}
	c.serverID = id
	return nil
}

// ID returns the client's own peer ID
func (c *Client) ID() peer.ID {
	return c.identity.peerID
}

// ServerID returns the peer ID the server proved during the handshake
func (c *Client) ServerID() peer.ID {
	return c.serverID
}

// Do sends req on a fresh stream and waits for the answer. A response
// carrying an error is returned together with an ErrRemote error.
func (c *Client) Do(ctx context.Context, req *pb.CipherRequest) (*pb.CipherResponse, error) {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		stream.SetDeadline(deadline)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.CancelRead(0)
			stream.CancelWrite(0)
		case <-done:
		}
	}()

	if err := writeMessage(stream, req, c); err != nil {
		stream.CancelWrite(0)
		return nil, err
	}
	// closes the send side only; the answer still arrives
	if err := stream.Close(); err != nil {
		return nil, err
	}

	resp := &pb.CipherResponse{}
	if err := readMessage(stream, resp, c); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	return resp, nil
}

// Close tears down the connection
func (c *Client) Close() error {
	c.conn.CloseWithError(0, "")
	err := c.transport.Close()
	if cerr := c.udpConn.Close(); err == nil {
		err = cerr
	}
	return err
}

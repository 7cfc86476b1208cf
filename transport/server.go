// Package transport serves cipher requests over QUIC.
//
// Every endpoint has an ed25519 identity whose libp2p peer ID is carried in a
// self-signed TLS certificate. Each request travels on its own bidirectional
// stream as a length-prefixed protobuf message and is answered on the same
// stream.
package transport

import (
	"context"
	"crypto"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/ppopth/affine-cipher/pb"
	"github.com/ppopth/affine-cipher/service"

	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
	quic "github.com/quic-go/quic-go"
)

var log = logging.Logger("transport")

const (
	DefaultPort = 7001
	// Protocol is the ALPN protocol negotiated by both ends
	Protocol = "affine/1"
	// DefaultRequestTimeout bounds reading, serving and answering one stream
	DefaultRequestTimeout = 30 * time.Second
)

// ServerOption configures a Server during construction
type ServerOption func(*Server) error

// WithAddrPort sets the UDP endpoint to listen on
func WithAddrPort(ep netip.AddrPort) ServerOption {
	return func(s *Server) error {
		s.endpoint = net.UDPAddrFromAddrPort(ep)
		return nil
	}
}

// WithIdentity sets the server's identity from a private key
func WithIdentity(privateKey crypto.PrivateKey) ServerOption {
	return func(s *Server) error {
		if privateKey == nil {
			return fmt.Errorf("nil identity key")
		}
		s.privateKey = privateKey
		return nil
	}
}

// WithRequestTimeout bounds the handling of one request stream
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", d)
		}
		s.requestTimeout = d
		return nil
	}
}

// Server answers cipher requests from any client presenting a certificate
type Server struct {
	stats

	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup

	service        *service.Service
	endpoint       *net.UDPAddr
	privateKey     crypto.PrivateKey
	identity       *identity
	requestTimeout time.Duration

	udpConn   *net.UDPConn
	transport *quic.Transport
	listener  *quic.Listener
}

// NewServer starts listening and serving svc
func NewServer(svc *service.Service, opts ...ServerOption) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server needs a service")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:            ctx,
		cancel:         cancel,
		service:        svc,
		endpoint:       net.UDPAddrFromAddrPort(netip.AddrPortFrom(netip.IPv4Unspecified(), DefaultPort)),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			cancel()
			return nil, err
		}
	}

	var err error
	if s.identity, err = newIdentity(s.privateKey); err != nil {
		cancel()
		return nil, err
	}
	if s.udpConn, err = net.ListenUDP("udp", s.endpoint); err != nil {
		cancel()
		return nil, err
	}
	s.transport = &quic.Transport{Conn: s.udpConn}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*s.identity.certificate},
		ClientAuth:   tls.RequireAnyClientCert,
		NextProtos:   []string{Protocol},
	}
	quicConfig := &quic.Config{
		MaxIdleTimeout: 5 * time.Minute,
	}
	if s.listener, err = s.transport.Listen(tlsConfig, quicConfig); err != nil {
		s.udpConn.Close()
		cancel()
		return nil, err
	}

	s.waitGroup.Add(1)
	go s.acceptLoop()
	return s, nil
}

// LocalAddr returns the address the server listens on
func (s *Server) LocalAddr() net.Addr {
	return s.udpConn.LocalAddr()
}

// ID returns the server's peer ID
func (s *Server) ID() peer.ID {
	return s.identity.peerID
}

// Close stops accepting, closes every connection and waits for handlers
func (s *Server) Close() error {
	s.cancel()
	err := s.transport.Close()
	s.waitGroup.Wait()
	if cerr := s.udpConn.Close(); err == nil {
		err = cerr
	}
	return err
}

// acceptLoop handles incoming connections
func (s *Server) acceptLoop() {
	defer s.waitGroup.Done()

	log.Infof("listening on %s", s.LocalAddr())
	log.Infof("peer ID: %s", s.identity.peerID)

	for {
		conn, err := s.listener.Accept(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				log.Warnf("listener accept error: %v", err)
			}
			return
		}

		peerID, err := peerIDFromRawCerts(rawCertificates(conn))
		if err != nil {
			log.Warnf("failed to identify peer at %s: %v", conn.RemoteAddr(), err)
			conn.CloseWithError(0, err.Error())
			continue
		}
		log.Debugf("accepted connection from %s at %s", peerID, conn.RemoteAddr())

		s.waitGroup.Add(1)
		go s.handleConnection(peerID, conn)
	}
}

// handleConnection serves every stream the peer opens until it goes away
func (s *Server) handleConnection(peerID peer.ID, conn *quic.Conn) {
	defer s.waitGroup.Done()
	defer conn.CloseWithError(0, "")

	for {
		stream, err := conn.AcceptStream(s.ctx)
		if err != nil {
			log.Debugf("connection to %s closed: %v", peerID, err)
			return
		}
		s.waitGroup.Add(1)
		go s.handleStream(peerID, stream)
	}
}

// handleStream reads one request and answers it on the same stream
func (s *Server) handleStream(peerID peer.ID, stream *quic.Stream) {
	defer s.waitGroup.Done()
	defer stream.Close()

	if err := stream.SetDeadline(time.Now().Add(s.requestTimeout)); err != nil {
		log.Warnf("failed setting stream deadline: %v", err)
	}

	req := &pb.CipherRequest{}
	var resp *pb.CipherResponse
	if err := readMessage(stream, req, s); err != nil {
		if !errors.Is(err, ErrMessageTooLarge) {
			log.Debugf("failed reading request from %s: %v", peerID, err)
			stream.CancelRead(0)
			return
		}
		resp = &pb.CipherResponse{Error: err.Error()}
		stream.CancelRead(0)
	} else {
		log.Debugf("%s request from %s", req.Op, peerID)
		resp = s.service.Handle(req)
	}

	if err := writeMessage(stream, resp, s); err != nil {
		log.Warnf("failed answering %s: %v", peerID, err)
	}
}

func rawCertificates(conn *quic.Conn) [][]byte {
	certs := conn.ConnectionState().TLS.PeerCertificates
	raw := make([][]byte, len(certs))
	for i, cert := range certs {
		raw[i] = cert.Raw
	}
	return raw
}

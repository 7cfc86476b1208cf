package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ppopth/affine-cipher/httpapi"
	"github.com/ppopth/affine-cipher/keyfile"
	"github.com/ppopth/affine-cipher/pb"
	"github.com/ppopth/affine-cipher/service"
	"github.com/ppopth/affine-cipher/transport"

	json "github.com/goccy/go-json"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
)

func main() {
	var (
		alphabetName = flag.String("alphabet", "eng", "Alphabet to use (eng, tr)")
		op           = flag.String("op", "encrypt", "Operation (encrypt, decrypt)")
		word         = flag.String("word", "", "Word to transform")
		cipher       = flag.String("cipher", "caesar", "Catalog cipher (caesar, random, example1, example2)")
		keyPath      = flag.String("key", "", "Key file to use instead of a catalog cipher")
		savePath     = flag.String("save", "", "Write the key used to this file")
		unknown      = flag.String("unknown", "reject", "Unknown character policy (reject, random, fixed:<n>)")
		truncate     = flag.Bool("truncate", false, "Truncate words that are too long instead of failing")
		seed         = flag.Int64("seed", 0, "Seed for random keys and substitutions (0 uses crypto/rand)")
		jsonOutput   = flag.Bool("json", false, "Print the result as JSON")
		logLevel     = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		serveAddr    = flag.String("serve", "", "Serve requests over QUIC on this address, e.g. 0.0.0.0:7001")
		httpAddr     = flag.String("http", "", "Serve the HTTP API on this address, e.g. :8080")
		remoteAddr   = flag.String("remote", "", "Send the request to a QUIC server at this address")
		remotePeer   = flag.String("peer", "", "Expected peer ID of the remote server")
	)
	flag.Parse()

	level, err := logging.LevelFromString(*logLevel)
	if err != nil {
		log.Printf("Invalid log level %q, using info", *logLevel)
		level = logging.LevelInfo
	}
	logging.SetAllLoggers(level)

	var svcOpts []service.Option
	if *seed != 0 {
		svcOpts = append(svcOpts, service.WithRandomSource(rand.New(rand.NewSource(*seed))))
	}
	svc, err := service.New(svcOpts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	if *serveAddr != "" || *httpAddr != "" {
		if err := serve(svc, *serveAddr, *httpAddr); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *word == "" {
		fmt.Fprintln(os.Stderr, "missing -word")
		flag.Usage()
		os.Exit(2)
	}
	req := &pb.CipherRequest{
		Op:            *op,
		Alphabet:      *alphabetName,
		Word:          *word,
		Cipher:        *cipher,
		UnknownPolicy: *unknown,
		Truncate:      *truncate,
	}
	if *keyPath != "" {
		kf, err := keyfile.Load(*keyPath)
		if err != nil {
			log.Fatalf("Failed to load key: %v", err)
		}
		if req.KeyFile, err = keyfile.Marshal(kf); err != nil {
			log.Fatalf("Failed to encode key: %v", err)
		}
	}

	var resp *pb.CipherResponse
	if *remoteAddr != "" {
		resp, err = remote(*remoteAddr, *remotePeer, req)
		if err != nil {
			log.Fatal(err)
		}
		if *savePath != "" {
			if err := os.WriteFile(withExtension(*savePath), resp.KeyFile, 0o600); err != nil {
				log.Fatalf("Failed to save key: %v", err)
			}
		}
	} else {
		out, err := svc.Process(req)
		if err != nil {
			log.Fatal(err)
		}
		if *savePath != "" {
			if _, err := keyfile.Save(withExtension(*savePath), out.Alphabet.Name(), out.Spec); err != nil {
				log.Fatalf("Failed to save key: %v", err)
			}
		}
		resp = out.Response()
	}

	if err := printResponse(resp, *jsonOutput); err != nil {
		log.Fatal(err)
	}
}

// serve runs the QUIC server and the HTTP API until interrupted
func serve(svc *service.Service, quicAddr, httpAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if quicAddr != "" {
		ep, err := netip.ParseAddrPort(quicAddr)
		if err != nil {
			return fmt.Errorf("invalid -serve address: %w", err)
		}
		srv, err := transport.NewServer(svc, transport.WithAddrPort(ep))
		if err != nil {
			return fmt.Errorf("failed to start QUIC server: %w", err)
		}
		defer srv.Close()
		log.Printf("QUIC server %s listening on %s", srv.ID(), srv.LocalAddr())
	}

	errCh := make(chan error, 1)
	if httpAddr != "" {
		handler, err := httpapi.NewHandler(svc, httpapi.WithAllowedOrigins("*"))
		if err != nil {
			return err
		}
		defer handler.Close()

		httpServer := &http.Server{
			Addr:              httpAddr,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("HTTP API listening on %s", httpAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
	}

	select {
	case <-ctx.Done():
		log.Printf("Shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

// remote sends req to a QUIC server
func remote(addr, expected string, req *pb.CipherRequest) (*pb.CipherResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var opts []transport.ClientOption
	if expected != "" {
		id, err := peer.Decode(expected)
		if err != nil {
			return nil, fmt.Errorf("invalid -peer: %w", err)
		}
		opts = append(opts, transport.WithExpectedPeer(id))
	}
	client, err := transport.Dial(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer client.Close()
	return client.Do(ctx, req)
}

func printResponse(resp *pb.CipherResponse, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	n := int(resp.Size)
	fmt.Printf("input:     %s\n", resp.Input)
	fmt.Printf("output:    %s\n", resp.Output)
	fmt.Printf("word:      %v\n", resp.Word)
	fmt.Printf("lock:      %v\n", rows(resp.Lock, n))
	fmt.Printf("constant:  %v\n", resp.Constant)
	fmt.Printf("key:       %v\n", rows(resp.Key, n))
	fmt.Printf("encrypted: %v\n", resp.Encrypted)
	if resp.Truncated {
		fmt.Println("note:      word was truncated")
	}
	if resp.Substitutions > 0 {
		fmt.Printf("note:      %d unknown characters substituted\n", resp.Substitutions)
	}
	return nil
}

func rows(flat []uint32, n int) [][]uint32 {
	if n == 0 {
		return nil
	}
	out := make([][]uint32, 0, n)
	for i := 0; i+n <= len(flat); i += n {
		out = append(out, flat[i:i+n])
	}
	return out
}

func withExtension(path string) string {
	if strings.HasSuffix(path, keyfile.Extension) {
		return path
	}
	return path + keyfile.Extension
}

// Package service runs cipher requests arriving over the network.
//
// A request names an alphabet, an operation and either a catalog cipher or
// an encoded key file. The service builds a fresh engine per request, so
// requests never share state except the random source.
package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppopth/affine-cipher/affine"
	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/field"
	"github.com/ppopth/affine-cipher/keyfile"
	"github.com/ppopth/affine-cipher/pb"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("service")

// DefaultCipher is used when a request names neither a cipher nor a key
const DefaultCipher = affine.Caesar

// Option configures a Service during construction
type Option func(*Service) error

// WithRandomSource sets the source for random keys and random substitution.
// Reads are serialized, so non thread-safe readers like math/rand are fine.
func WithRandomSource(r io.Reader) Option {
	return func(s *Service) error {
		if r == nil {
			return fmt.Errorf("nil random source")
		}
		s.rng = &lockedReader{r: r}
		return nil
	}
}

// WithMaxAttempts bounds random key generation
func WithMaxAttempts(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		s.maxAttempts = n
		return nil
	}
}

// Service turns requests into results
type Service struct {
	rng         io.Reader
	maxAttempts int
}

// New creates a Service drawing randomness from crypto/rand unless
// WithRandomSource says otherwise
func New(opts ...Option) (*Service, error) {
	s := &Service{
		rng:         rand.Reader,
		maxAttempts: affine.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Outcome is everything produced while serving one request
type Outcome struct {
	Alphabet *alphabet.Alphabet
	Result   *affine.Result
	Spec     affine.CipherSpec
	// KeyFile captures Spec for later replay
	KeyFile *keyfile.KeyFile
}

// Process serves req
func (s *Service) Process(req *pb.CipherRequest) (*Outcome, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	a, err := alphabet.ByName(req.Alphabet)
	if err != nil {
		return nil, err
	}
	op, err := affine.ParseOperation(req.Op)
	if err != nil {
		return nil, err
	}
	policy := alphabet.Reject()
	if strings.TrimSpace(req.UnknownPolicy) != "" {
		if policy, err = alphabet.ParseUnknownCharPolicy(req.UnknownPolicy); err != nil {
			return nil, err
		}
	}
	engine, err := affine.NewEngine(a,
		affine.WithUnknownCharPolicy(policy),
		affine.WithTruncation(req.Truncate),
		affine.WithRandom(s.rng),
	)
	if err != nil {
		return nil, err
	}

	spec, err := s.resolve(a, req)
	if err != nil {
		return nil, err
	}
	res, err := engine.Apply(op, req.Word, spec)
	if err != nil {
		return nil, err
	}
	kf, err := keyfile.New(a.Name(), spec)
	if err != nil {
		return nil, err
	}
	log.Debugf("%s of %d-character word with %q over %s", op, len(res.Word), spec.Name, a.Name())
	return &Outcome{Alphabet: a, Result: res, Spec: spec, KeyFile: kf}, nil
}

// resolve picks the cipher: an attached key file wins over a catalog name
func (s *Service) resolve(a *alphabet.Alphabet, req *pb.CipherRequest) (affine.CipherSpec, error) {
	if len(req.KeyFile) > 0 {
		kf, err := keyfile.Unmarshal(req.KeyFile)
		if err != nil {
			return affine.CipherSpec{}, err
		}
		return kf.SpecFor(a)
	}

	n := utf8.RuneCountInString(a.Fold(req.Word))
	if n >= a.Size() {
		if !req.Truncate {
			return affine.CipherSpec{}, fmt.Errorf("%w: %d characters, alphabet %q has %d",
				affine.ErrTooLong, n, a.Name(), a.Size())
		}
		n = a.Size() - 1
	}

	catalog, err := affine.NewCatalog(a.Field(),
		affine.WithRandomSource(s.rng),
		affine.WithMaxAttempts(s.maxAttempts),
	)
	if err != nil {
		return affine.CipherSpec{}, err
	}
	name := req.Cipher
	if strings.TrimSpace(name) == "" {
		name = DefaultCipher.String()
	}
	return catalog.Lookup(name, n)
}

// Handle serves req and reports failures inside the response
func (s *Service) Handle(req *pb.CipherRequest) *pb.CipherResponse {
	out, err := s.Process(req)
	if err != nil {
		log.Debugf("request failed: %v", err)
		return &pb.CipherResponse{Error: err.Error()}
	}
	return out.Response()
}

// Response flattens the outcome into its wire form
func (o *Outcome) Response() *pb.CipherResponse {
	res := o.Result
	resp := &pb.CipherResponse{
		Input:         res.Input,
		Output:        res.Output,
		Size:          uint32(len(res.Word)),
		Word:          flattenVector(res.Word),
		Lock:          flattenMatrix(res.Matrix),
		Constant:      flattenVector(res.Constant),
		Key:           flattenMatrix(res.Inverse),
		Encrypted:     flattenVector(res.Transformed),
		Truncated:     res.Truncated,
		Substitutions: uint32(len(res.Substitutions)),
	}
	if o.KeyFile != nil {
		data, err := keyfile.Marshal(o.KeyFile)
		if err != nil {
			log.Warnf("failed encoding key file: %v", err)
		} else {
			resp.KeyFile = data
		}
	}
	return resp
}

func flattenVector(v []field.Element) []uint32 {
	out := make([]uint32, len(v))
	for i, e := range v {
		out[i] = uint32(e)
	}
	return out
}

func flattenMatrix(M [][]field.Element) []uint32 {
	out := make([]uint32, 0, len(M)*len(M))
	for _, row := range M {
		out = append(out, flattenVector(row)...)
	}
	return out
}

type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

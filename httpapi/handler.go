// Package httpapi exposes the cipher over HTTP.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppopth/affine-cipher/affine"
	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/keyfile"
	"github.com/ppopth/affine-cipher/pb"
	"github.com/ppopth/affine-cipher/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("httpapi")

const (
	DefaultKeyTTL = 10 * time.Minute
	// MaxKeyFileSize caps uploaded key files
	MaxKeyFileSize = 64 << 10
	// keyMethod selects an uploaded key instead of a catalog cipher
	keyMethod = "key"
)

// ErrUnknownKeyToken is returned for tokens never issued or already expired
var ErrUnknownKeyToken = errors.New("unknown key token")

// ErrNoKey is returned when no key has been computed yet
var ErrNoKey = errors.New("no key computed yet")

// Option configures a Handler during construction
type Option func(*Handler) error

// WithKeyTTL sets how long uploaded keys stay usable
func WithKeyTTL(d time.Duration) Option {
	return func(h *Handler) error {
		if d <= 0 {
			return fmt.Errorf("key TTL must be positive, got %s", d)
		}
		h.keyTTL = d
		return nil
	}
}

// WithAllowedOrigins sets the CORS origins; "*" allows any origin
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) error {
		h.origins = origins
		return nil
	}
}

// Handler serves the cipher endpoints
type Handler struct {
	service *service.Service
	keys    *KeyCache
	keyTTL  time.Duration
	origins []string

	latestMu sync.Mutex
	latest   []byte // encoded key file of the last computation
}

// NewHandler creates a handler over svc
func NewHandler(svc *service.Service, opts ...Option) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("handler needs a service")
	}
	h := &Handler{
		service: svc,
		keyTTL:  DefaultKeyTTL,
		origins: []string{"http://localhost:3000"},
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	h.keys = NewKeyCache(h.keyTTL)
	return h, nil
}

// Close stops the key cache sweeper
func (h *Handler) Close() error {
	return h.keys.Close()
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	config := cors.DefaultConfig()
	if len(h.origins) == 1 && h.origins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = h.origins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(config))

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		crypto := api.Group("/crypto")
		{
			crypto.POST("", h.Transform)
			crypto.POST("/key", h.UploadKey)
			crypto.GET("/key/:name", h.DownloadKey)
		}
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// CryptoRequest is the body of POST /api/v1/crypto
type CryptoRequest struct {
	Language string `json:"language"`
	Word     string `json:"word" binding:"required"`
	EncDec   string `json:"enc_dec" binding:"required"`
	// catalog cipher name, or "key" to use KeyToken
	Method   string `json:"method"`
	KeyToken string `json:"key_token"`
	Unknown  string `json:"unknown"`
	Truncate bool   `json:"truncate"`
}

// CryptoResponse is the result of one transform
type CryptoResponse struct {
	Language      string                  `json:"language"`
	EncDec        string                  `json:"enc_dec"`
	Method        string                  `json:"method"`
	Word          string                  `json:"word"`
	WordEncrypted string                  `json:"word_encrypted"`
	Truncated     bool                    `json:"truncated"`
	Substitutions []alphabet.Substitution `json:"substitutions,omitempty"`
	Arrays        affine.Arrays           `json:"arrays"`
	LaTeX         affine.LaTeXArrays      `json:"latex"`
}

// KeyUploadResponse is the answer to a key upload
type KeyUploadResponse struct {
	Token    string `json:"token"`
	Alphabet string `json:"alphabet"`
	Size     uint32 `json:"size"`
	Expires  string `json:"expires"`
}

// ErrorResponse carries a failure message
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"alphabets": alphabet.Names(),
	})
}

// Transform encrypts or decrypts a word and remembers the key it used
func (h *Handler) Transform(c *gin.Context) {
	var req CryptoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	preq := &pb.CipherRequest{
		Op:            req.EncDec,
		Alphabet:      req.Language,
		Word:          req.Word,
		Cipher:        req.Method,
		UnknownPolicy: req.Unknown,
		Truncate:      req.Truncate,
	}
	if strings.EqualFold(strings.TrimSpace(req.Method), keyMethod) {
		data, ok := h.keys.Get(req.KeyToken)
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("%v: %q", ErrUnknownKeyToken, req.KeyToken)})
			return
		}
		preq.KeyFile = data
		preq.Cipher = ""
	}

	out, err := h.service.Process(preq)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	data, err := keyfile.Marshal(out.KeyFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	h.latestMu.Lock()
	h.latest = data
	h.latestMu.Unlock()

	res := out.Result
	c.JSON(http.StatusOK, CryptoResponse{
		Language:      out.Alphabet.Name(),
		EncDec:        res.Operation.String(),
		Method:        out.Spec.Name,
		Word:          res.Input,
		WordEncrypted: res.Output,
		Truncated:     res.Truncated,
		Substitutions: res.Substitutions,
		Arrays:        res.Arrays(),
		LaTeX:         res.LaTeX(),
	})
}

// UploadKey stores a key file sent as the multipart field "key_file"
func (h *Handler) UploadKey(c *gin.Context) {
	file, _, err := c.Request.FormFile("key_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "key_file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxKeyFileSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("failed to read key file: %v", err)})
		return
	}
	if len(data) > MaxKeyFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "key file too large"})
		return
	}
	kf, err := keyfile.Unmarshal(data)
	if err == nil {
		_, err = kf.Spec()
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.keys.Put(data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	log.Debugf("stored %d×%d key for %q", kf.Size, kf.Size, kf.Alphabet)
	c.JSON(http.StatusCreated, KeyUploadResponse{
		Token:    token,
		Alphabet: kf.Alphabet,
		Size:     kf.Size,
		Expires:  time.Now().Add(h.keyTTL).UTC().Format(time.RFC3339),
	})
}

// DownloadKey sends the key of the last computation as an attachment
func (h *Handler) DownloadKey(c *gin.Context) {
	h.latestMu.Lock()
	data := h.latest
	h.latestMu.Unlock()
	if data == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrNoKey.Error()})
		return
	}

	name := c.Param("name")
	if !strings.HasSuffix(name, keyfile.Extension) {
		name += keyfile.Extension
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

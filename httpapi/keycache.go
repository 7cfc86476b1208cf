package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

var sweepInterval = 1 * time.Minute

type cachedKey struct {
	data   []byte
	expiry time.Time
}

// KeyCache holds uploaded key files under random tokens until they expire
type KeyCache struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lk  sync.Mutex
	m   map[string]cachedKey
	ttl time.Duration
}

func NewKeyCache(ttl time.Duration) *KeyCache {
	ctx, cancel := context.WithCancel(context.Background())

	kc := &KeyCache{
		ctx:    ctx,
		cancel: cancel,

		m:   make(map[string]cachedKey),
		ttl: ttl,
	}

	kc.wg.Add(1)
	go kc.background()

	return kc
}

// Put stores data and returns its token
func (kc *KeyCache) Put(data []byte) (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw[:])

	kc.lk.Lock()
	defer kc.lk.Unlock()

	kc.m[token] = cachedKey{
		data:   append([]byte(nil), data...),
		expiry: time.Now().Add(kc.ttl),
	}
	return token, nil
}

// Get returns the key file stored under token unless it expired
func (kc *KeyCache) Get(token string) ([]byte, bool) {
	kc.lk.Lock()
	defer kc.lk.Unlock()

	entry, ok := kc.m[token]
	if !ok || entry.expiry.Before(time.Now()) {
		return nil, false
	}
	return entry.data, true
}

func (kc *KeyCache) Len() int {
	kc.lk.Lock()
	defer kc.lk.Unlock()
	return len(kc.m)
}

func (kc *KeyCache) background() {
	defer kc.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			kc.sweep(now)

		case <-kc.ctx.Done():
			return
		}
	}
}

func (kc *KeyCache) sweep(now time.Time) {
	kc.lk.Lock()
	defer kc.lk.Unlock()

	for k, entry := range kc.m {
		if entry.expiry.Before(now) {
			delete(kc.m, k)
		}
	}
}

func (kc *KeyCache) Close() error {
	kc.cancel()
	kc.wg.Wait()
	return nil
}

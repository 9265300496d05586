// Package cache implementa o cache TTL em memória dos resultados de enriquecimento.
//
// O armazenamento é um LRU limitado (hashicorp/golang-lru) para que o número
// de entradas não cresça sem controle; a expiração por TTL é decidida aqui,
// com relógio injetável. Nada é persistido: um restart esvazia o cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"url-insights/clock"
	"url-insights/enrich/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxEntries = 1000

// Entry é uma entrada do cache.
type Entry struct {
	Key       string
	Value     domain.Result
	CreatedAt time.Time
	TTL       time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

type Cache struct {
	mu           sync.Mutex
	entries      *lru.Cache[string, Entry]
	clock        clock.Clock
	cleanupEvery time.Duration
}

type Option func(*Cache)

func WithClock(c clock.Clock) Option {
	return func(ca *Cache) { ca.clock = c }
}

func WithCleanupEvery(d time.Duration) Option {
	return func(ca *Cache) { ca.cleanupEvery = d }
}

// New cria um cache com no máximo maxEntries entradas (<= 0 usa DefaultMaxEntries).
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		// só acontece com tamanho <= 0, já tratado acima
		panic(err)
	}
	c := &Cache{
		entries:      entries,
		clock:        clock.Real{},
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clock = clock.OrReal(c.clock)
	return c
}

// Get devolve o valor se existir e ainda estiver dentro do TTL.
// Entrada vencida é removida na hora.
func (c *Cache) Get(key string) (domain.Result, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries.Get(key)
	if !ok {
		return domain.Result{}, false
	}
	if ent.expired(now) {
		c.entries.Remove(key)
		return domain.Result{}, false
	}
	return ent.Value, true
}

// Put grava (ou sobrescreve) a entrada; sobrescrever reinicia o created-at.
// ttl <= 0 não armazena nada.
func (c *Cache) Put(key string, value domain.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, Entry{Key: key, Value: value, CreatedAt: now, TTL: ttl})
}

// Contains informa se há entrada válida, sem promover no LRU.
func (c *Cache) Contains(key string) bool {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries.Peek(key)
	return ok && !ent.expired(now)
}

// Sweep remove todas as entradas vencidas e devolve quantas saíram.
func (c *Cache) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range c.entries.Keys() {
		ent, ok := c.entries.Peek(k)
		if ok && ent.expired(now) {
			c.entries.Remove(k)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// StartJanitor roda Sweep periodicamente até ctx encerrar.
func (c *Cache) StartJanitor(ctx interface{ Done() <-chan struct{} }) {
	if c.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(c.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Sweep()
			}
		}
	}()
}

// Key deriva a chave de cache a partir da URL já normalizada e dos limites
// que alteram o resultado. Mesmos parâmetros efetivos => mesma chave.
func Key(normalizedURL string, limits domain.PlanLimits) string {
	h := sha256.New()
	h.Write([]byte(normalizedURL))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(limits.TopK)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(limits.MaxChars)))
	h.Write([]byte{'|'})
	h.Write([]byte(domain.ParserVersion))
	return hex.EncodeToString(h.Sum(nil))
}

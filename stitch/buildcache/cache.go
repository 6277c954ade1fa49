/*
Package buildcache memoizes rasterization results.

Two tiers are consulted in order: an in-process map (volatile) and JSON
files on disk (stable across restarts). The cache is a performance
optimization, never a source of truth: every disk failure is swallowed
and the conversion proceeds uncached. Concurrent requests for the same
key are serialized through an in-flight gate, so a font is rasterized
successfully at most once per process however many requests race for
it. A failed computation is not stored; the next request computes again.
*/
package buildcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'xstitch.cache'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.cache")
}

// Key identifies one rasterization request. Equality is structural and
// exact; distinct keys denote distinct outputs.
type Key struct {
	FontFile string
	Height   int
	Bold     int
	Strategy string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d|%s", k.FontFile, k.Height, k.Bold, k.Strategy)
}

// Service is an owned cache for serialized font records. Front-ends
// hold one service for the process lifetime and pass it to the
// rasterizer; there is no ambient global.
type Service struct {
	mu       sync.Mutex
	l1       map[Key][]byte
	inflight map[Key]chan struct{}
	dir      string
}

// New creates a cache service with its disk tier rooted at dir. An
// empty dir disables the disk tier.
func New(dir string) *Service {
	return &Service{
		l1:       make(map[Key][]byte),
		inflight: make(map[Key]chan struct{}),
		dir:      dir,
	}
}

// DefaultDir returns the disk cache directory: the user's cache
// directory under the application key from conf, or a .cache/rasterize
// folder under the working directory when no app-key is configured.
func DefaultDir(conf schuko.Configuration) string {
	if conf != nil {
		if key := conf.GetString("app-key"); key != "" {
			if cachedir, err := os.UserCacheDir(); err == nil {
				return filepath.Join(cachedir, key, "rasterize")
			}
		}
	}
	return filepath.Join(".cache", "rasterize")
}

var pathSanitizer = strings.NewReplacer(".", "_", "/", "_", "\\", "_")

// Path returns the deterministic disk location for a key's entry.
func (s *Service) Path(key Key) string {
	digest := md5.Sum([]byte(key.String()))
	h := hex.EncodeToString(digest[:])[:12]
	name := fmt.Sprintf("%s_%d_%d_%s_%s.json",
		pathSanitizer.Replace(key.FontFile), key.Height, key.Bold, key.Strategy, h)
	return filepath.Join(s.dir, name)
}

// GetOrCompute returns the cached serialization for key, computing and
// storing it on a full miss. Concurrent callers with the same key block
// until the first computation finishes, then read its result from the
// cache. Two successful calls for one key return structurally identical
// data.
func (s *Service) GetOrCompute(ctx context.Context, key Key, compute func() ([]byte, error)) ([]byte, error) {
	for {
		s.mu.Lock()
		if data, ok := s.l1[key]; ok {
			s.mu.Unlock()
			return data, nil
		}
		ch, busy := s.inflight[key]
		if !busy {
			ch = make(chan struct{})
			s.inflight[key] = ch
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
			// recheck L1; the winner has stored its result or failed
		}
	}
	data, err := s.computeLocked(key, compute)
	s.mu.Lock()
	close(s.inflight[key])
	delete(s.inflight, key)
	if err == nil {
		s.l1[key] = data
	}
	s.mu.Unlock()
	return data, err
}

// computeLocked runs with the in-flight gate held for key.
func (s *Service) computeLocked(key Key, compute func() ([]byte, error)) ([]byte, error) {
	if data := s.readDisk(key); data != nil {
		tracer().Debugf("disk cache hit for %v", key)
		return data, nil
	}
	data, err := compute()
	if err != nil {
		return nil, err
	}
	s.writeDisk(key, data)
	return data, nil
}

// readDisk returns a disk entry, or nil on any failure.
func (s *Service) readDisk(key Key) []byte {
	if s.dir == "" {
		return nil
	}
	data, err := ioutil.ReadFile(s.Path(key))
	if err != nil {
		return nil
	}
	return data
}

// writeDisk stores an entry atomically: write to a temp file in the
// cache directory, then rename. Failures at any step leave no partial
// file behind and are silently ignored; the disk tier may simply be
// unavailable (read-only deployments).
func (s *Service) writeDisk(key Key, data []byte) {
	if s.dir == "" {
		return
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		tracer().Debugf("disk cache unavailable: %v", err)
		return
	}
	tmp, err := ioutil.TempFile(s.dir, "*.tmp")
	if err != nil {
		return
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		os.Remove(tmp.Name())
	}
}

// ETag computes a short, stable HTTP validator for a serialized font
// record. The serialization is canonical, so structurally identical
// records share an ETag.
func ETag(data []byte) string {
	digest := md5.Sum(data)
	return hex.EncodeToString(digest[:])[:16]
}

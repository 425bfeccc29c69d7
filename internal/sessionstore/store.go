package sessionstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Prefix marks a hashed reference in place of an encoded state.
const Prefix = "h@"

// DefaultMaxEntries bounds the store; the least recently used entries
// are evicted first.
const DefaultMaxEntries = 500

// Key derivation is domain-separated so a state hash never collides with
// any other use of the same bytes.
var hashKey = [32]byte{
	's', 'c', 'o', 'u', 't', '.', 's', 'e', 's', 's', 'i', 'o', 'n', '.',
	's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("sessionstore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("sessionstore: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("sessionstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("sessionstore: zstd decoder initialization failed: " + err.Error())
	}
}

// Store maps short hashes to encoded state strings.
type Store struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	seq        uint64
	entries    map[string]*entry
}

type entry struct {
	Value string `cbor:"1,keyasint"`
	Used  uint64 `cbor:"2,keyasint"`
}

type snapshot struct {
	Version int               `cbor:"1,keyasint"`
	Entries map[string]*entry `cbor:"2,keyasint"`
}

const snapshotVersion = 1

// New returns an empty in-memory store. Save is a no-op unless path is
// set.
func New(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{path: path, maxEntries: maxEntries, entries: map[string]*entry{}}
}

// Load reads the snapshot at path. A missing file yields an empty store.
func Load(path string, maxEntries int) (*Store, error) {
	s := New(path, maxEntries)
	compressed, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress session store: %w", err)
	}
	var snap snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session store: %w", err)
	}
	if snap.Version != snapshotVersion {
		return s, nil
	}
	for hash, e := range snap.Entries {
		if e == nil {
			continue
		}
		s.entries[hash] = e
		s.seq = max(s.seq, e.Used)
	}
	return s, nil
}

// Hash returns the reference for value without storing it.
func Hash(value string) string {
	h, err := blake3.NewKeyed(hashKey[:])
	if err != nil {
		panic("sessionstore: keyed hasher: " + err.Error())
	}
	h.Write([]byte(value))
	return Prefix + hex.EncodeToString(h.Sum(nil))[:7]
}

// IsHash reports whether raw looks like a hashed reference.
func IsHash(raw string) bool {
	return strings.HasPrefix(raw, Prefix)
}

// Put stores value and returns its reference.
func (s *Store) Put(value string) string {
	hash := Hash(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.entries[hash] = &entry{Value: value, Used: s.seq}
	s.evict()
	return hash
}

// Lookup resolves a reference.
func (s *Store) Lookup(hash string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[hash]
	if !ok {
		return "", false
	}
	s.seq++
	e.Used = s.seq
	return e.Value, true
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save writes the store atomically as zstd-compressed CBOR.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	snap := snapshot{Version: snapshotVersion, Entries: make(map[string]*entry, len(s.entries))}
	for hash, e := range s.entries {
		dup := *e
		snap.Entries[hash] = &dup
	}
	s.mu.Unlock()

	data, err := encMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}
	compressed := zstdEncoder.EncodeAll(data, nil)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session store: %w", err)
	}
	return nil
}

func (s *Store) evict() {
	over := len(s.entries) - s.maxEntries
	if over <= 0 {
		return
	}
	type aged struct {
		hash string
		used uint64
	}
	all := make([]aged, 0, len(s.entries))
	for hash, e := range s.entries {
		all = append(all, aged{hash, e.Used})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].used < all[j].used })
	for _, a := range all[:over] {
		delete(s.entries, a.hash)
	}
}

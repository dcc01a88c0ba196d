// Package journal persists backtest runs and their per-date report rows.
package journal

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/signal"
)

// RunRecord is one completed pipeline run.
type RunRecord struct {
	RunID   string
	Ticker  string
	Period  string
	Config  signal.Config
	FeeBP   float64
	Result  backtest.Result
	Created time.Time
}

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// Seed a PRNG from crypto/rand so ULID entropy is unpredictable, while
	// ulid.Monotonic keeps same-millisecond IDs lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a time-sortable ULID string, which keeps run listings in
// creation order without an extra index.
func NewRunID() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
)

// TimeRange selects how far back a query reaches.
type TimeRange int

const (
	Range30Min TimeRange = iota
	Range1Hour
	Range6Hour
	Range1Day
	Range1Week
)

func (t TimeRange) String() string {
	switch t {
	case Range30Min:
		return "30min"
	case Range1Hour:
		return "1hour"
	case Range6Hour:
		return "6hours"
	case Range1Day:
		return "1day"
	case Range1Week:
		return "1week"
	default:
		return "unknown"
	}
}

// Duration returns the window covered by the range.
func (t TimeRange) Duration() time.Duration {
	switch t {
	case Range30Min:
		return 30 * time.Minute
	case Range1Hour:
		return 1 * time.Hour
	case Range6Hour:
		return 6 * time.Hour
	case Range1Day:
		return 24 * time.Hour
	case Range1Week:
		return 7 * 24 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// ParseRange maps common spellings ("30m", "1h", "1d", ...) to a TimeRange.
func ParseRange(s string) (TimeRange, error) {
	switch s {
	case "30m", "30min":
		return Range30Min, nil
	case "1h", "1hour":
		return Range1Hour, nil
	case "6h", "6hours":
		return Range6Hour, nil
	case "1d", "1day", "24h":
		return Range1Day, nil
	case "1w", "1week", "7d":
		return Range1Week, nil
	}
	return Range30Min, fmt.Errorf("unknown time range %q", s)
}

// retention is how long samples are kept before the cleanup pass removes
// them.
const retention = 7 * 24 * time.Hour

// DataPoint is one recorded (or bucket-averaged) sample row.
type DataPoint struct {
	Timestamp     time.Time
	CPUMean       float64
	MemoryPercent float64
	NetSentRate   float64
	NetRecvRate   float64
}

// SampleEntry is one row queued for writing.
type SampleEntry struct {
	Timestamp     time.Time
	CPUMean       float64
	MemoryPercent float64
	NetSentRate   float64
	NetRecvRate   float64
}

// Storage persists one row per sampling tick into sqlite. Writes go through
// a bounded queue and a batching background writer, so recording can never
// hold up the sampling loop.
type Storage struct {
	db        *sql.DB
	writeChan chan *SampleEntry
	closeChan chan struct{}
	wg        sync.WaitGroup
}

var _ engine.Consumer = (*Storage)(nil)

// NewStorage opens (and if needed creates) the database at path and starts
// the background writer and cleanup routines.
func NewStorage(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Storage{
		db:        db,
		writeChan: make(chan *SampleEntry, 1000),
		closeChan: make(chan struct{}),
	}

	s.wg.Add(2)
	go s.writer()
	go s.cleanup()

	return s, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		cpu_mean REAL,
		memory_percent REAL,
		net_sent_rate REAL,
		net_recv_rate REAL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_time
	ON samples(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// OnTick records the tick as one row. Degraded categories land as zeros;
// the row still marks that the tick happened.
func (s *Storage) OnTick(t engine.Tick) error {
	s.Write(entryFromTick(t))
	return nil
}

func entryFromTick(t engine.Tick) *SampleEntry {
	entry := &SampleEntry{
		Timestamp: t.Sample.Timestamp,
		CPUMean:   model.CPUMean(t.Sample.CPU),
	}
	if t.Sample.Memory != nil {
		entry.MemoryPercent = t.Sample.Memory.Percent
	}
	if t.Rates != nil {
		entry.NetSentRate = t.Rates.BytesSentPerSec
		entry.NetRecvRate = t.Rates.BytesRecvPerSec
	}
	return entry
}

// Write queues an entry without blocking. When the queue is full the entry
// is dropped; losing a metrics row beats stalling the producer.
func (s *Storage) Write(entry *SampleEntry) {
	select {
	case s.writeChan <- entry:
	default:
	}
}

// writer batches queued entries into transactions: a batch goes out at 50
// entries or after 5 seconds, whichever comes first.
func (s *Storage) writer() {
	defer s.wg.Done()

	buffer := make([]*SampleEntry, 0, 100)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case entry := <-s.writeChan:
			buffer = append(buffer, entry)
			if len(buffer) >= 50 {
				s.batchWrite(buffer)
				buffer = buffer[:0]
			}

		case <-ticker.C:
			if len(buffer) > 0 {
				s.batchWrite(buffer)
				buffer = buffer[:0]
			}

		case <-s.closeChan:
			// Final flush.
			if len(buffer) > 0 {
				s.batchWrite(buffer)
			}
			return
		}
	}
}

func (s *Storage) batchWrite(entries []*SampleEntry) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Warnf("sample batch write: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO samples
		(timestamp, cpu_mean, memory_percent, net_sent_rate, net_recv_rate)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		log.Warnf("sample batch write: %v", err)
		return
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(
			entry.Timestamp.Unix(),
			entry.CPUMean,
			entry.MemoryPercent,
			entry.NetSentRate,
			entry.NetRecvRate,
		); err != nil {
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		log.Warnf("sample batch write: %v", err)
	}
}

// Query returns recorded points for the window: full resolution for the
// shortest range, bucket averages beyond that so a week of data stays
// renderable.
func (s *Storage) Query(timeRange TimeRange) ([]DataPoint, error) {
	cutoff := time.Now().Add(-timeRange.Duration()).Unix()

	var bucketSize int64
	switch timeRange {
	case Range30Min:
		rows, err := s.db.Query(`
			SELECT timestamp, cpu_mean, memory_percent, net_sent_rate, net_recv_rate
			FROM samples
			WHERE timestamp > ?
			ORDER BY timestamp ASC
		`, cutoff)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanRows(rows)

	case Range1Hour:
		bucketSize = 30
	case Range6Hour:
		bucketSize = 300
	case Range1Day:
		bucketSize = 600
	case Range1Week:
		bucketSize = 3600
	}

	rows, err := s.db.Query(`
		SELECT
			(timestamp / ?) * ? as bucket,
			AVG(cpu_mean),
			AVG(memory_percent),
			AVG(net_sent_rate),
			AVG(net_recv_rate)
		FROM samples
		WHERE timestamp > ?
		GROUP BY bucket
		ORDER BY bucket ASC
	`, bucketSize, bucketSize, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]DataPoint, error) {
	var points []DataPoint
	for rows.Next() {
		var ts int64
		var cpu, mem, sent, recv float64
		if err := rows.Scan(&ts, &cpu, &mem, &sent, &recv); err != nil {
			continue
		}
		points = append(points, DataPoint{
			Timestamp:     time.Unix(ts, 0),
			CPUMean:       cpu,
			MemoryPercent: mem,
			NetSentRate:   sent,
			NetRecvRate:   recv,
		})
	}
	return points, rows.Err()
}

// cleanup trims samples past retention once an hour.
func (s *Storage) cleanup() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-retention).Unix()
			s.batchDelete(cutoff)

		case <-s.closeChan:
			return
		}
	}
}

// batchDelete removes old rows in slices so the table is never locked for
// long.
func (s *Storage) batchDelete(cutoff int64) {
	const batchSize = 1000
	for {
		result, err := s.db.Exec(
			"DELETE FROM samples WHERE timestamp < ? LIMIT ?",
			cutoff,
			batchSize,
		)
		if err != nil {
			log.Warnf("sample cleanup: %v", err)
			return
		}
		affected, err := result.RowsAffected()
		if err != nil || affected == 0 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Close flushes pending writes and closes the database.
func (s *Storage) Close() error {
	close(s.closeChan)
	s.wg.Wait()
	return s.db.Close()
}

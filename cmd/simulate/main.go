package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nutrivida/clinic-scheduling/internal/db"
	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

// The simulator hammers the booking API with concurrent patients racing
// for the same week of slots, then asks Postgres whether any two
// non-cancelled appointments overlap. A non-zero overlap count at the
// end means the conflict arbitration is broken.

type simConfig struct {
	baseURL      string
	duration     time.Duration
	workers      int
	days         int
	patientLimit int
	postgresDSN  string
}

type metrics struct {
	total    int64
	success  int64
	conflict int64
	rejected int64
	failed   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&m.rejected, 1)
	default:
		atomic.AddInt64(&m.failed, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) percentile(p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

func main() {
	cfg := loadSimConfig()
	logger.Info().
		Str("base_url", cfg.baseURL).
		Int("workers", cfg.workers).
		Dur("duration", cfg.duration).
		Msg("simulation starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.ConnectPostgres(ctx, db.Options{DSN: cfg.postgresDSN})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	patients, err := loadIDs(pool, "SELECT id FROM patients LIMIT $1", cfg.patientLimit)
	if err != nil || len(patients) == 0 {
		logger.Fatal().Err(err).Msg("load patients (run cmd/seed first)")
	}
	nutritionists, err := loadIDs(pool, "SELECT id FROM nutritionists LIMIT $1", 100)
	if err != nil || len(nutritionists) == 0 {
		logger.Fatal().Err(err).Msg("load nutritionists (run cmd/seed first)")
	}
	logger.Info().Int("patients", len(patients)).Int("nutritionists", len(nutritionists)).Msg("data pool loaded")

	var m metrics
	runCtx, stop := context.WithTimeout(context.Background(), cfg.duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			runWorker(runCtx, cfg, rand.New(rand.NewSource(seed)), patients, nutritionists, &m)
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	report(&m)
	verifyNoOverlaps(pool)
}

func loadSimConfig() simConfig {
	return simConfig{
		baseURL:      envOr("SIM_BASE_URL", "http://127.0.0.1:8080"),
		duration:     envDuration("SIM_DURATION", 30*time.Second),
		workers:      envInt("SIM_WORKERS", 20),
		days:         envInt("SIM_DAYS", 7),
		patientLimit: envInt("SIM_PATIENT_LIMIT", 200),
		postgresDSN:  mustEnv("POSTGRES_DSN"),
	}
}

func runWorker(ctx context.Context, cfg simConfig, rng *rand.Rand, patients, nutritionists []uuid.UUID, m *metrics) {
	client := &http.Client{Timeout: 10 * time.Second}
	durations := []schedule.Duration{schedule.Duration30, schedule.Duration45, schedule.Duration60}

	for ctx.Err() == nil {
		patient := patients[rng.Intn(len(patients))]
		nutri := nutritionists[rng.Intn(len(nutritionists))]
		date := time.Now().UTC().AddDate(0, 0, rng.Intn(cfg.days))
		duration := durations[rng.Intn(len(durations))]

		slot, ok := pickSlot(ctx, client, cfg.baseURL, patient, nutri, date, duration, rng)
		if !ok {
			continue
		}

		status, latency, err := postBooking(ctx, client, cfg.baseURL, patient, nutri, date, slot, duration)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&m.total, 1)
				atomic.AddInt64(&m.failed, 1)
			}
			continue
		}
		m.record(latency, status)
	}
}

func pickSlot(ctx context.Context, client *http.Client, baseURL string, patient, nutri uuid.UUID, date time.Time, d schedule.Duration, rng *rand.Rand) (string, bool) {
	url := fmt.Sprintf("%s/slots?date=%s&duration=%s&nutritionist_id=%s",
		baseURL, schedule.FormatDate(date), d, nutri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("X-User-ID", patient.String())

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", false
	}

	var body struct {
		Slots []struct {
			Time      string `json:"time"`
			Available bool   `json:"available"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}

	var open []string
	for _, s := range body.Slots {
		if s.Available {
			open = append(open, s.Time)
		}
	}
	if len(open) == 0 {
		return "", false
	}
	return open[rng.Intn(len(open))], true
}

func postBooking(ctx context.Context, client *http.Client, baseURL string, patient, nutri uuid.UUID, date time.Time, startTime string, d schedule.Duration) (int, time.Duration, error) {
	payload, _ := json.Marshal(map[string]string{
		"nutritionist_id":  nutri.String(),
		"date":             schedule.FormatDate(date),
		"start_time":       startTime,
		"duration":         string(d),
		"appointment_type": "followup",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(payload))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", patient.String())

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency, nil
}

func report(m *metrics) {
	logger.Info().
		Int64("total", atomic.LoadInt64(&m.total)).
		Int64("success", atomic.LoadInt64(&m.success)).
		Int64("conflict", atomic.LoadInt64(&m.conflict)).
		Int64("rejected", atomic.LoadInt64(&m.rejected)).
		Int64("failed", atomic.LoadInt64(&m.failed)).
		Dur("p50", m.percentile(0.50)).
		Dur("p95", m.percentile(0.95)).
		Dur("p99", m.percentile(0.99)).
		Msg("simulation finished")
}

// verifyNoOverlaps checks the central invariant directly in the store:
// no two non-cancelled appointments for one nutritionist and date may
// have intersecting [start, start+duration) intervals.
func verifyNoOverlaps(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var overlaps int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.nutritionist_id = b.nutritionist_id
		 AND a.date = b.date
		 AND a.id < b.id
		 AND a.status <> 'cancelled'
		 AND b.status <> 'cancelled'
		 AND a.start_time < b.start_time + make_interval(mins => b.duration_minutes)
		 AND a.start_time + make_interval(mins => a.duration_minutes) > b.start_time
	`).Scan(&overlaps)
	if err != nil {
		logger.Error().Err(err).Msg("overlap verification query failed")
		return
	}

	if overlaps > 0 {
		logger.Error().Int("overlapping_pairs", overlaps).Msg("INVARIANT VIOLATED: overlapping appointments found")
		os.Exit(1)
	}
	logger.Info().Msg("invariant holds: no overlapping appointments")
}

func loadIDs(pool *pgxpool.Pool, query string, limit int) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal().Str("key", key).Msg("required env var missing")
	}
	return v
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

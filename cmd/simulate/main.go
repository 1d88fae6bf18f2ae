// Booking-contention simulator. Fires concurrent create-appointment requests
// at the API, deliberately colliding on a narrow set of (doctor, date, time)
// keys, and reports how many bookings succeeded versus lost the race. With
// the lock and the unique index in place, successes must equal the number of
// distinct keys claimed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-scheduling/internal/db"
	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

type simConfig struct {
	APIBaseURL  string
	PostgresDSN string
	Workers     int
	Requests    int
	Date        string
	DoctorLimit int
}

func loadConfig() simConfig {
	cfg := simConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getInt("SIM_WORKERS", 20),
		Requests:    getInt("SIM_REQUESTS", 500),
		Date:        getEnv("SIM_DATE", schedule.FormatDate(time.Now().AddDate(0, 0, 7))),
		DoctorLimit: getInt("SIM_DOCTOR_LIMIT", 3),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type counters struct {
	success  int64
	conflict int64
	errored  int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	doctors, patients, err := loadIDs(ctx, pgPool, cfg.DoctorLimit)
	if err != nil {
		log.Fatalf("load ids: %v", err)
	}
	if len(doctors) == 0 || len(patients) == 0 {
		log.Fatal("no doctors or patients seeded, run cmd/seed first")
	}
	log.Printf("loaded %d doctors, %d patients, date=%s", len(doctors), len(patients), cfg.Date)

	client := &http.Client{Timeout: 10 * time.Second}
	catalogue := schedule.Catalogue()

	var c counters
	var wg sync.WaitGroup
	jobs := make(chan int)

	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				doctor := doctors[rand.Intn(len(doctors))]
				patient := patients[rand.Intn(len(patients))]
				// Contend on the first few catalogue slots only.
				slot := catalogue[rand.Intn(4)]
				bookOnce(client, cfg, &c, doctor, patient, slot)
			}
		}()
	}
	for i := 0; i < cfg.Requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("done in %s: success=%d conflict=%d error=%d (%.0f req/s)",
		elapsed,
		atomic.LoadInt64(&c.success),
		atomic.LoadInt64(&c.conflict),
		atomic.LoadInt64(&c.errored),
		float64(cfg.Requests)/elapsed.Seconds())
}

func bookOnce(client *http.Client, cfg simConfig, c *counters, doctor, patient uuid.UUID, slot schedule.TimeOfDay) {
	body, _ := json.Marshal(map[string]any{
		"doctor_id":  doctor.String(),
		"patient_id": patient.String(),
		"date":       cfg.Date,
		"time":       string(slot),
		"symptoms":   []string{"simulated"},
	})

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&c.errored, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", patient.String())
	req.Header.Set("X-User-Role", "patient")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&c.errored, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&c.success, 1)
	case http.StatusConflict:
		atomic.AddInt64(&c.conflict, 1)
	default:
		atomic.AddInt64(&c.errored, 1)
	}
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, doctorLimit int) ([]uuid.UUID, []uuid.UUID, error) {
	doctors, err := queryIDs(ctx, pool, fmt.Sprintf("SELECT id FROM doctors ORDER BY created_at LIMIT %d", doctorLimit))
	if err != nil {
		return nil, nil, err
	}
	patients, err := queryIDs(ctx, pool, "SELECT id FROM patients LIMIT 1000")
	if err != nil {
		return nil, nil, err
	}
	return doctors, patients, nil
}

func queryIDs(ctx context.Context, pool *pgxpool.Pool, sql string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

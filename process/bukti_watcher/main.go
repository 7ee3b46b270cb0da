// Command bukti_watcher backfills OCR suggestions for proof-of-expense
// uploads. It sweeps bukti rows that have no suggestion yet, then watches the
// upload directory and re-sweeps whenever a new file lands, so suggestions
// appear even when the API process had OCR disabled or crashed mid-upload.
//
// Usage:
//
//	go run ./process/bukti_watcher -interval 5m [-once]
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"dokterku/models"
	"dokterku/pkg/ocr"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	interval := flag.Duration("interval", 5*time.Minute, "periodic sweep interval")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	base := os.Getenv("UPLOAD_BASE")
	if base == "" {
		base = "uploads"
	}

	sweep(db, base)
	if *once {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("fsnotify: %v", err)
	}
	defer watcher.Close()
	buktiDir := filepath.Join(base, "bukti")
	_ = os.MkdirAll(buktiDir, 0755)
	if err := watcher.Add(buktiDir); err != nil {
		log.Fatalf("watch %s: %v", buktiDir, err)
	}
	log.Printf("watching %s, sweep every %s", buktiDir, *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	// debounce: a burst of fsnotify events collapses into one sweep
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending = time.After(2 * time.Second)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		case <-pending:
			pending = nil
			sweep(db, base)
		case <-ticker.C:
			sweep(db, base)
		}
	}
}

// sweep OCRs every bukti row that has neither a suggestion nor a failure mark.
func sweep(db *gorm.DB, base string) {
	var rows []models.Bukti
	if err := db.Where("suggested_amount IS NULL AND failed = ?", false).
		Order("id ASC").Limit(200).Find(&rows).Error; err != nil {
		log.Printf("sweep query: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	log.Printf("sweep: %d bukti without suggestion", len(rows))

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4 // tesseract is memory hungry
	}
	jobs := make(chan models.Bukti)
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for bk := range jobs {
				processOne(db, base, bk)
			}
			done <- struct{}{}
		}()
	}
	for _, bk := range rows {
		jobs <- bk
	}
	close(jobs)
	for i := 0; i < workers; i++ {
		<-done
	}
}

func processOne(db *gorm.DB, base string, bk models.Bukti) {
	rel := strings.TrimPrefix(bk.StorePath, "public/")
	full := filepath.Join(base, rel)
	if _, err := os.Stat(full); err != nil {
		markFailed(db, &bk, "file missing: "+full)
		return
	}
	amt, conf, _, err := ocr.ExtractAmountFromImage(full)
	if err != nil {
		markFailed(db, &bk, err.Error())
		return
	}
	if amt <= 0 || conf <= 0.15 {
		markFailed(db, &bk, "no plausible amount")
		return
	}
	bk.SuggestedAmount = decimal.NewNullDecimal(decimal.NewFromInt(amt))
	bk.OCRConfidence = conf
	if err := db.Save(&bk).Error; err != nil {
		log.Printf("bukti %d: save: %v", bk.ID, err)
		return
	}
	log.Printf("bukti %d: suggested %d (conf %.2f)", bk.ID, amt, conf)
}

func markFailed(db *gorm.DB, bk *models.Bukti, reason string) {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	bk.Failed = true
	bk.FailedReason = reason
	if err := db.Save(bk).Error; err != nil {
		log.Printf("bukti %d: mark failed: %v", bk.ID, err)
	}
}

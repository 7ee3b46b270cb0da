// Package rekap produces the monthly treasury recap: validated totals per
// kind, per-validator activity, and the size of the pending queue. It is
// read-only and talks straight SQL through sqlx so it has no dependency on
// the server's GORM models.
package rekap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	// Queries are constants to avoid magic strings in the report loop.
	byKindQuery = `SELECT kind, COUNT(*) AS cnt, COALESCE(SUM(amount),0)::text AS total
		FROM transaksis
		WHERE status = 'disetujui' AND occurred_at >= $1 AND occurred_at < $2
		GROUP BY kind ORDER BY kind`

	byValidatorQuery = `SELECT u.username, COUNT(*) AS cnt, COALESCE(SUM(t.amount),0)::text AS total
		FROM transaksis t
		JOIN users u ON u.id = t.validated_by_id
		WHERE t.status IN ('disetujui','ditolak') AND t.validated_at >= $1 AND t.validated_at < $2
		GROUP BY u.username ORDER BY u.username`

	rejectedQuery = `SELECT t.id, t.kind, t.amount::text AS amount, t.category, t.validation_note, u.username AS created_by
		FROM transaksis t
		JOIN users u ON u.id = t.created_by_id
		WHERE t.status = 'ditolak' AND t.validated_at >= $1 AND t.validated_at < $2
		ORDER BY t.id`

	pendingCountQuery = `SELECT COUNT(*) FROM transaksis WHERE status = 'pending'`
)

type kindRow struct {
	Kind  string `db:"kind"`
	Count int64  `db:"cnt"`
	Total string `db:"total"` // numeric scanned as text to keep exact precision
}

type validatorRow struct {
	Username string `db:"username"`
	Count    int64  `db:"cnt"`
	Total    string `db:"total"`
}

type rejectedRow struct {
	ID        int64  `db:"id"`
	Kind      string `db:"kind"`
	Amount    string `db:"amount"`
	Category  string `db:"category"`
	Note      string `db:"validation_note"`
	CreatedBy string `db:"created_by"`
}

// MustConnect opens the Postgres connection from DB_DSN or exits.
func MustConnect() *sqlx.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return db
}

// Run prints the recap for month (YYYY-MM, UTC bounds). listRejected adds a
// per-record listing of rejections with the bendahara's note.
func Run(db *sqlx.DB, month string, listRejected bool) error {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var kinds []kindRow
	if err := db.SelectContext(ctx, &kinds, byKindQuery, start, end); err != nil {
		return fmt.Errorf("rekap by kind: %w", err)
	}
	var validators []validatorRow
	if err := db.SelectContext(ctx, &validators, byValidatorQuery, start, end); err != nil {
		return fmt.Errorf("rekap by validator: %w", err)
	}
	var pending int64
	if err := db.GetContext(ctx, &pending, pendingCountQuery); err != nil {
		return fmt.Errorf("pending count: %w", err)
	}

	fmt.Printf("Rekap keuangan %s (UTC):\n", month)
	fmt.Println("  Disetujui per jenis:")
	if len(kinds) == 0 {
		fmt.Println("    (tidak ada)")
	}
	for _, r := range kinds {
		fmt.Printf("    %-12s records=%d total=%s\n", r.Kind, r.Count, r.Total)
	}
	fmt.Println("  Aktivitas validator:")
	if len(validators) == 0 {
		fmt.Println("    (tidak ada)")
	}
	for _, r := range validators {
		fmt.Printf("    %-16s validated=%d total=%s\n", r.Username, r.Count, r.Total)
	}
	fmt.Printf("  Antrian pending saat ini: %d\n", pending)

	if listRejected {
		var rejected []rejectedRow
		if err := db.SelectContext(ctx, &rejected, rejectedQuery, start, end); err != nil {
			return fmt.Errorf("rejected listing: %w", err)
		}
		fmt.Println("  Ditolak:")
		for _, r := range rejected {
			fmt.Printf("    %d|%s|%s|%s|%s|%s\n", r.ID, r.Kind, r.Amount, r.Category, r.CreatedBy, r.Note)
		}
	}
	return nil
}

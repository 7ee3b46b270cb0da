package main

import (
	"flag"
	"log"
	"time"

	"dokterku/process/rekap"

	"github.com/joho/godotenv"
)

func main() {
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	listRejected := flag.Bool("rejected", false, "list rejected records with validator notes")
	flag.Parse()

	_ = godotenv.Load()

	db := rekap.MustConnect()
	defer db.Close()

	if err := rekap.Run(db, *month, *listRejected); err != nil {
		log.Fatalf("rekap failed: %v", err)
	}
}

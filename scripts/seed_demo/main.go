// Seeds a demo dataset: one account per clinic role plus a spread of pending
// and validated records, so the validation queue and the recap endpoints have
// something to show on a fresh install. Idempotent per username.
//
//	DB_DSN=... go run ./scripts/seed_demo [-records 30]
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"dokterku/models"
	"dokterku/pkg/validasi"

	"github.com/bxcodec/faker/v3"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const demoPassword = "demo1234"

var demoAccounts = []struct {
	Username string
	Role     string
}{
	{"petugas.demo", validasi.RolePetugas},
	{"bendahara.demo", validasi.RoleBendahara},
	{"dokter.demo", validasi.RoleDokter},
	{"paramedis.demo", validasi.RoleParamedis},
	{"manajer.demo", validasi.RoleManajer},
}

var categoriesByKind = map[validasi.Kind][]string{
	validasi.KindPendapatan:  {"pendaftaran", "obat", "laboratorium", "lainnya"},
	validasi.KindPengeluaran: {"alat_medis", "obat", "operasional", "listrik"},
	validasi.KindTindakan:    {"konsultasi", "perawatan_luka", "suntik_kb", "khitan"},
}

func main() {
	records := flag.Int("records", 30, "number of demo records to create")
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

	users := map[string]models.User{}
	for _, acc := range demoAccounts {
		users[acc.Role] = ensureUser(db, acc.Username, acc.Role)
	}

	var existing int64
	db.Model(&models.Transaksi{}).Where("description LIKE ?", "[demo]%").Count(&existing)
	if existing > 0 {
		fmt.Printf("demo records already present (%d), skipping record seed\n", existing)
		return
	}

	bendahara := users[validasi.RoleBendahara]
	kinds := []validasi.Kind{validasi.KindPendapatan, validasi.KindPengeluaran, validasi.KindTindakan}
	created := 0
	for i := 0; i < *records; i++ {
		kind := kinds[rand.Intn(len(kinds))]
		creator := users[validasi.RolePetugas]
		if kind == validasi.KindTindakan && rand.Intn(2) == 0 {
			creator = users[validasi.RoleDokter]
		}
		cats := categoriesByKind[kind]
		amount := decimal.NewFromInt(int64(rand.Intn(90)+10) * 5000)
		occurred := time.Now().UTC().AddDate(0, 0, -rand.Intn(45))
		tr := models.Transaksi{
			Kind:        string(kind),
			Amount:      amount,
			Category:    cats[rand.Intn(len(cats))],
			Description: "[demo] " + faker.Sentence(),
			CreatedByID: creator.ID,
			OccurredAt:  occurred,
			Status:      string(validasi.StatusPending),
		}
		// roughly two thirds of the backlog is already validated
		switch rand.Intn(3) {
		case 0:
			// stays pending
		case 1:
			decide(&tr, bendahara.ID, validasi.StatusDisetujui, "")
		case 2:
			decide(&tr, bendahara.ID, validasi.StatusDitolak, "nominal tidak sesuai bukti")
		}
		if err := db.Create(&tr).Error; err != nil {
			log.Fatalf("create transaksi: %v", err)
		}
		created++
	}
	fmt.Printf("seeded %d demo records (accounts password: %s)\n", created, demoPassword)
}

func decide(tr *models.Transaksi, validatorID uint, status validasi.Status, note string) {
	at := tr.OccurredAt.Add(time.Duration(rand.Intn(48)+1) * time.Hour)
	tr.Status = string(status)
	tr.ValidatedByID = &validatorID
	tr.ValidatedAt = &at
	tr.ValidationNote = note
}

func ensureUser(db *gorm.DB, username, roleName string) models.User {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err == nil {
		return user
	}
	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		log.Fatalf("role %q not seeded, start the server once with DB_AUTO_MIGRATE=1", roleName)
	}
	hpw, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	rid := role.ID
	user = models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user %s: %v", username, err)
	}
	prof := models.Profile{UserID: user.ID, Name: faker.Name(), Jabatan: roleName}
	if err := db.Create(&prof).Error; err != nil {
		log.Printf("warning: profile for %s: %v", username, err)
	}
	fmt.Printf("created %s (%s)\n", username, roleName)
	return user
}

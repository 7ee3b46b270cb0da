package main

import (
	"log"
	"os"
	"strings"

	"dokterku/models"
	"dokterku/pkg/validasi"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// workflow is the single writer of transaksi rows; handlers never touch the
// table directly for mutations.
var workflow *validasi.Workflow

// clinicRoles are seeded before users so the FK can be applied safely.
var clinicRoles = []models.Role{
	{Name: validasi.RoleAdmin, Description: "akses penuh"},
	{Name: validasi.RoleBendahara, Description: "validasi transaksi keuangan"},
	{Name: validasi.RolePetugas, Description: "entri pendapatan dan pengeluaran"},
	{Name: validasi.RoleDokter, Description: "entri tindakan medis"},
	{Name: validasi.RoleParamedis, Description: "entri tindakan paramedis"},
	{Name: validasi.RoleManajer, Description: "laporan, hanya baca"},
}

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Roles master table first so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Transaksi{}); err != nil {
			log.Printf("migration warning (transaksis): %v", err)
		}
		if err := db.AutoMigrate(&models.Profile{}); err != nil {
			log.Printf("migration warning (profiles): %v", err)
		}
		if err := db.AutoMigrate(&models.Bukti{}); err != nil {
			log.Printf("migration warning (buktis): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.AuditEntry{}); err != nil {
			log.Printf("migration warning (audit_entries): %v", err)
		}
		if err := db.AutoMigrate(&models.Notification{}); err != nil {
			log.Printf("migration warning (notifications): %v", err)
		}
	}

	// Ensure buktis -> transaksis FK exists (in case table existed before adding TransaksiID)
	if shouldMigrate {
		if err := ensureBuktiTransaksiFK(); err != nil {
			log.Printf("warning: ensuring buktis->transaksis FK failed: %v", err)
		}
	}
	seedDB()

	workflow = validasi.New(newGormStore(db), newGormEmitter(db))
}

// ensureBuktiTransaksiFK adds the transaksi_id column and FK constraint if they are missing.
func ensureBuktiTransaksiFK() error {
	// 1. Ensure transaksi_id column exists
	if err := db.Exec(`ALTER TABLE buktis ADD COLUMN IF NOT EXISTS transaksi_id BIGINT`).Error; err != nil {
		return err
	}
	// 2. Create index (idempotent)
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_buktis_transaksi_id ON buktis(transaksi_id)`).Error; err != nil {
		return err
	}
	// 3. Check if FK already present
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'buktis' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%transaksi_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%transaksis%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N == 0 {
		// 4. Deleting a draft keeps its proof; the bukti row just loses the link.
		if err := db.Exec(`ALTER TABLE buktis
			ADD CONSTRAINT fk_buktis_transaksis
			FOREIGN KEY (transaksi_id) REFERENCES transaksis(id)
			ON UPDATE CASCADE ON DELETE SET NULL`).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRoles() {
	for _, r := range clinicRoles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", validasi.RoleAdmin).First(&role).Error; err != nil {
			log.Printf("failed to find admin role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
	// Ensure admin has a one-to-one pegawai profile
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Printf("failed to find admin user after seeding: %v", err)
		return
	}
	var pcount int64
	db.Model(&models.Profile{}).Where("user_id = ?", admin.ID).Count(&pcount)
	if pcount == 0 {
		profile := models.Profile{UserID: admin.ID, Name: "Administrator", Email: "admin@dokterku.example", Jabatan: "Administrator Sistem"}
		if err := db.Create(&profile).Error; err != nil {
			log.Printf("failed to create profile for admin: %v", err)
		} else {
			log.Println("Seeded admin profile for user id:", admin.ID)
		}
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base directory for bukti uploads.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"dokterku/models"
	"dokterku/pkg/validasi"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	role := flag.String("role", validasi.RolePetugas, "role for the new account (admin|bendahara|petugas|dokter|paramedis|manajer)")
	name := flag.String("name", "", "display name for the profile (defaults to username)")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-role petugas] [-name \"Full Name\"] <username> <password>")
		os.Exit(2)
	}
	username := flag.Arg(0)
	password := flag.Arg(1)

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var r models.Role
	if err := db.Where("name = ?", *role).First(&r).Error; err != nil {
		log.Fatalf("role %q not found, run the server with DB_AUTO_MIGRATE=1 once to seed roles", *role)
	}

	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := r.ID
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	profName := *name
	if profName == "" {
		profName = username
	}
	prof := models.Profile{UserID: user.ID, Name: profName}
	if err := db.Create(&prof).Error; err != nil {
		log.Printf("warning: failed to create profile: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, *role)
}

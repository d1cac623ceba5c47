// Package main seeds the simulated card network and a pair of demo
// accounts for local development.
package main

import (
	"log"

	"enpay/internal/config"
	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/services/bank"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	bankCardRepo := repositories.NewBankCardRepository(repositories.DB)
	userRepo := repositories.NewUserRepository(repositories.DB)

	cards := []*models.BankCard{
		{
			Number:     "4111111111111111",
			CVV:        "123",
			Expiry:     "12/27",
			HolderName: "MARIA QUISPE",
			Balance:    decimal.RequireFromString("2000.00"),
			Active:     true,
		},
		{
			Number:     "5500000000000004",
			CVV:        "456",
			Expiry:     "06/28",
			HolderName: "JOSE FLORES",
			Balance:    decimal.RequireFromString("500.00"),
			Active:     true,
		},
		{
			Number:     "4000000000000002",
			CVV:        "789",
			Expiry:     "01/26",
			HolderName: "CARLA ROJAS",
			Balance:    decimal.RequireFromString("0.00"),
			Active:     false,
		},
	}
	for _, c := range cards {
		if err := bank.Seed(bankCardRepo, c); err != nil {
			log.Printf("Warning: failed to seed bank card %s: %v", c.Number, err)
		} else {
			log.Printf("Seeded bank card %s (%s)", c.Number, c.HolderName)
		}
	}

	users := []struct {
		email    string
		phone    string
		name     string
		role     string
		password string
	}{
		{"maria@example.com", "+51999000001", "Maria Quispe", "user", "demo1234"},
		{"jose@example.com", "+51999000002", "Jose Flores", "user", "demo1234"},
		{"admin@example.com", "+51999000009", "Platform Admin", "admin", "admin1234"},
	}
	for _, u := range users {
		if _, err := userRepo.GetByEmail(u.email); err == nil {
			log.Printf("User %s already exists, skipping", u.email)
			continue
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		if err := userRepo.Create(&models.User{
			Email:    u.email,
			Phone:    u.phone,
			Password: string(hashed),
			Name:     u.name,
			Role:     u.role,
			Enabled:  true,
		}); err != nil {
			log.Printf("Warning: failed to seed user %s: %v", u.email, err)
			continue
		}
		log.Printf("Seeded user %s (%s)", u.email, u.role)
	}

	log.Println("Seed complete")
}

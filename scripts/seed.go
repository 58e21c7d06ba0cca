//go:build ignore

// Seed creates a demo company with an administrator, a few employees and two
// weeks of check-ins. Run with: go run scripts/seed.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/pkg/config"
	"github.com/hugh/go-attend/pkg/util"
	"github.com/joho/godotenv"
)

const seedDays = 14

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)

	if err := database.Migrate(cfg.Database.URL(), logger); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "Admin123!pass"
	}

	admin, err := authService.Register(ctx, auth.RegisterInput{
		Email:       email,
		Password:    password,
		Name:        "Demo Admin",
		Role:        models.RoleAdministrator,
		CompanyName: "Demo Company",
		Location:    "Dhaka",
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	location, err := cfg.Attendance.Location()
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}
	rules := attendance.NewService(
		attendance.NewRepository(db),
		attendance.Policy{Location: location, AllowBackdating: true},
		logger,
	)
	today := models.Today(time.Now(), location)

	for i, name := range []string{"Rahim Uddin", "Karim Hossain", "Nadia Akter"} {
		resp, err := authService.Register(ctx, auth.RegisterInput{
			Email:     fmt.Sprintf("employee%d@example.com", i+1),
			Password:  password,
			Name:      name,
			Role:      models.RoleEmployee,
			CompanyID: admin.User.CompanyID,
		})
		if err != nil {
			log.Fatalf("failed to create employee %s: %v", name, err)
		}

		caller := access.CallerFromUser(resp.User)
		recorded := 0
		for d := seedDays - 1; d >= 0; d-- {
			// Skip a day now and then so reports have gaps.
			if (d+i)%5 == 4 {
				continue
			}
			date := today.AddDays(-d)
			in := attendance.CreateInput{ViaNFC: d%2 == 0, ViaQR: d%2 != 0, Date: &date}
			if _, err := rules.Create(ctx, caller, in); err != nil {
				log.Fatalf("failed to record attendance for %s on %s: %v", name, date, err)
			}
			recorded++
		}
		fmt.Printf("Employee %s: %d check-ins\n", resp.User.Email, recorded)
	}

	fmt.Printf("Seed complete!\n")
	fmt.Printf("Admin: %s\n", admin.User.Email)
	fmt.Printf("Company ID: %s\n", admin.User.CompanyID)
	fmt.Printf("Token: %s\n", admin.Token)
}

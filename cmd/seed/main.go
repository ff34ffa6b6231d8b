package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"clinicq/internal/auth"
	"clinicq/internal/patients"
	"clinicq/internal/queue"
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/database"
	"clinicq/internal/users"
	"clinicq/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "clinicq123"

type Seeder struct {
	db  *database.DB
	log *logger.Logger
}

func main() {
	log := logger.GetDefault()
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Error("Failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	seeder := &Seeder{db: db, log: log}
	ctx := context.Background()

	if err := seeder.CleanDatabase(); err != nil {
		log.Error("Failed to clean database", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Database cleaned")

	if err := seeder.SeedAll(ctx); err != nil {
		log.Error("Failed to seed database", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Seeding completed", slog.String("staff_password", seedPassword))
}

// CleanDatabase truncates every clinicq table
func (s *Seeder) CleanDatabase() error {
	return s.db.PostgreSQL.Exec("TRUNCATE TABLE queue_entries, patients, users RESTART IDENTITY CASCADE").Error
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.SeedStaff(ctx); err != nil {
		return fmt.Errorf("failed to seed staff: %w", err)
	}
	if err := s.SeedWaitingRoom(ctx); err != nil {
		return fmt.Errorf("failed to seed waiting room: %w", err)
	}

	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			s.log.Warn("Failed to clear Redis cache", slog.Any("error", err))
		}
	}
	return nil
}

// SeedStaff creates one account per clinic role
func (s *Seeder) SeedStaff(ctx context.Context) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	repo := auth.NewRepository(s.db.PostgreSQL)
	staff := []users.User{
		{FirstName: "Clinic", LastName: "Admin", Email: "admin@clinicq.local", Role: users.RoleSuperAdmin},
		{FirstName: "Rita", LastName: "Desk", Email: "reception@clinicq.local", Role: users.RoleReceptionist},
		{FirstName: "Omar", LastName: "Hale", Email: "doctor@clinicq.local", Role: users.RoleDoctor},
		{FirstName: "Lena", LastName: "Park", Email: "lab@clinicq.local", Role: users.RoleLabTechnician},
	}

	for i := range staff {
		staff[i].Password = string(hashedPassword)
		if err := repo.CreateUser(ctx, &staff[i]); err != nil {
			return fmt.Errorf("failed to create user %s: %w", staff[i].Email, err)
		}
		s.log.Info("Created staff account", slog.String("email", staff[i].Email), slog.String("role", string(staff[i].Role)))
	}
	return nil
}

// SeedWaitingRoom registers a handful of walk-ins through the normal ticketing path
func (s *Seeder) SeedWaitingRoom(ctx context.Context) error {
	repo := patients.NewRepository(s.db.PostgreSQL)
	directory := patients.NewDirectory(repo, nil, 0)
	queueService := queue.NewService(queue.NewGormStore(s.db.PostgreSQL), directory, nil, nil)
	service := patients.NewService(repo, queueService, directory)

	walkIns := []patients.CreatePatientRequest{
		{Name: "Jane Doe", Phone: "555-0101", Email: "jane.doe@example.com", Age: 34, Gender: "FEMALE"},
		{Name: "Sam Roe", Phone: "555-0102", Age: 58, Gender: "MALE"},
		{Name: "Priya Natarajan", Email: "priya@example.com", Age: 27, Gender: "FEMALE"},
		{Name: "Tomás Alvarez", Phone: "555-0104", Age: 9, Gender: "MALE"},
	}

	for i := range walkIns {
		result, err := service.Register(ctx, &walkIns[i])
		if err != nil {
			return err
		}
		s.log.Info("Registered walk-in",
			slog.String("patient", result.Patient.Name),
			slog.Int64("ticket_number", result.Entry.TicketNumber),
		)
	}
	return nil
}

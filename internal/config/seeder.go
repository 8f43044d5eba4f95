package config

import (
	"log"

	"tripeasy/internal/adapters/persistence/models"
	"tripeasy/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminIdentity(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedTourPackages(); err != nil {
		log.Printf("⚠️ Package seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminIdentity seeds the single fixed administrator login from config.
// Role resolution treats exactly this email as admin.
func (s *Seeder) seedAdminIdentity() error {
	var count int64
	s.db.Model(&models.Identity{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashed, err := password.Hash(s.cfg.Admin.Password)
	if err != nil {
		return err
	}

	admin := &models.Identity{
		Email:    s.cfg.Admin.Email,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded admin identity: %s", admin.Email)
	return nil
}

// seedTourPackages seeds the catalog master data once
func (s *Seeder) seedTourPackages() error {
	var count int64
	s.db.Model(&models.TourPackage{}).Count(&count)
	if count > 0 {
		return nil // Already seeded
	}

	packages := []models.TourPackage{
		{Code: "GOA4D", Name: "Goa Beach Escape", Destination: "Goa", Days: 4, Price: 15999, Description: "Four days of beaches, forts and nightlife with hotel and transfers included.", IsActive: true},
		{Code: "KER5D", Name: "Kerala Backwaters", Destination: "Alleppey", Days: 5, Price: 21499, Description: "Houseboat stay on the backwaters with Munnar tea garden day trip.", IsActive: true},
		{Code: "RAJ6D", Name: "Royal Rajasthan", Destination: "Jaipur - Udaipur", Days: 6, Price: 27999, Description: "Palaces, desert safari and lake city sunset cruise.", IsActive: true},
		{Code: "HIM7D", Name: "Himalayan Trails", Destination: "Manali - Leh", Days: 7, Price: 34999, Description: "High-altitude road trip with acclimatisation days and monastery visits.", IsActive: true},
		{Code: "AND5D", Name: "Andaman Islands", Destination: "Port Blair - Havelock", Days: 5, Price: 29999, Description: "Island hopping, snorkelling at Elephant Beach and cellular jail tour.", IsActive: true},
		{Code: "KAS5D", Name: "Kashmir Valley", Destination: "Srinagar - Gulmarg", Days: 5, Price: 24999, Description: "Shikara rides on Dal Lake and gondola to Apharwat peak.", IsActive: true},
	}

	for i := range packages {
		if err := s.db.Create(&packages[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d tour packages", len(packages))
	return nil
}

// SeedMasterData is the entrypoint called from main
func SeedMasterData(db *gorm.DB, cfg *Config) error {
	return NewSeeder(db, cfg).Run()
}

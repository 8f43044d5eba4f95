package repositories

import (
	"context"

	"tripeasy/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// packageRepository implements PackageRepository interface
type packageRepository struct {
	db *gorm.DB
}

// NewPackageRepository creates a new tour package repository
func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

// GetByID gets a tour package by ID
func (r *packageRepository) GetByID(ctx context.Context, id uint) (*models.TourPackage, error) {
	var pkg models.TourPackage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListActive lists active tour packages
func (r *packageRepository) ListActive(ctx context.Context) ([]*models.TourPackage, error) {
	var pkgs []*models.TourPackage
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&pkgs).Error
	return pkgs, err
}

// Count counts all tour packages (seeder guard)
func (r *packageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TourPackage{}).Count(&count).Error
	return count, err
}

// Create creates a tour package (seeder)
func (r *packageRepository) Create(ctx context.Context, pkg *models.TourPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

package handlers

import (
	"errors"
	"strconv"

	"tripeasy/internal/adapters/persistence/repositories"
	"tripeasy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PackageHandler handles the public tour package catalog
type PackageHandler struct {
	packageRepo repositories.PackageRepository
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packageRepo repositories.PackageRepository) *PackageHandler {
	return &PackageHandler{
		packageRepo: packageRepo,
	}
}

// ListPackages lists active tour packages
// @Summary List tour packages
// @Description Get the active tour package catalog
// @Tags Packages
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /packages [get]
func (h *PackageHandler) ListPackages(c *fiber.Ctx) error {
	packages, err := h.packageRepo.ListActive(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list tour packages")
	}

	return response.Success(c, "Tour packages retrieved successfully", fiber.Map{
		"packages": packages,
	})
}

// GetPackage gets one tour package
// @Summary Get tour package
// @Description Get a tour package by ID
// @Tags Packages
// @Accept json
// @Produce json
// @Param id path int true "Package ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /packages/{id} [get]
func (h *PackageHandler) GetPackage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid package ID")
	}

	pkg, err := h.packageRepo.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Tour package not found")
		}
		return response.InternalServerError(c, "Failed to get tour package")
	}

	return response.Success(c, "Tour package retrieved successfully", fiber.Map{
		"package": pkg,
	})
}

// Package customer provides tenant-scoped CRUD for customer records.
// Every query carries the tenant filter; IDs from other tenants behave like
// missing records.
package customer

import (
	"errors"

	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrCustomerNotFound is returned when a customer is not found within the tenant.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrCustomerNameEmpty is returned when attempting to save a customer without a name.
	ErrCustomerNameEmpty = errors.New("customer name cannot be empty")
	// ErrCustomerEmailExists is returned when the email is already taken within the tenant.
	ErrCustomerEmailExists = errors.New("customer email already exists in tenant")
)

const whereTenantAndID = "tenant_id = ? AND id = ?"

// List retrieves customers of a tenant ordered by name.
func List(db *gorm.DB, tenantID uint64) ([]models.Customer, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var customers []models.Customer
	result := db.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&customers)
	if result.Error != nil {
		return nil, result.Error
	}

	return customers, nil
}

// Get retrieves a customer by ID within a tenant.
func Get(db *gorm.DB, tenantID, customerID uint64) (*models.Customer, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var c models.Customer
	result := db.Where(whereTenantAndID, tenantID, customerID).First(&c)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

// Create creates a customer within a tenant.
func Create(db *gorm.DB, tenantID uint64, name, email, phone, notes string) (*models.Customer, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrCustomerNameEmpty
	}

	if email != "" {
		if err := checkEmail(db, tenantID, email, 0); err != nil {
			return nil, err
		}
	}

	c := models.Customer{
		TenantID: tenantID,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Notes:    notes,
	}

	if err := db.Create(&c).Error; err != nil {
		return nil, err
	}

	return &c, nil
}

// Update updates a customer's attributes within a tenant.
func Update(db *gorm.DB, tenantID, customerID uint64, name, email, phone, notes string) (*models.Customer, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrCustomerNameEmpty
	}

	c, err := Get(db, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if email != "" && email != c.Email {
		if err := checkEmail(db, tenantID, email, customerID); err != nil {
			return nil, err
		}
	}

	c.Name = name
	c.Email = email
	c.Phone = phone
	c.Notes = notes

	if err := db.Save(c).Error; err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes a customer within a tenant.
func Delete(db *gorm.DB, tenantID, customerID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(whereTenantAndID, tenantID, customerID).Delete(&models.Customer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

func checkEmail(db *gorm.DB, tenantID uint64, email string, excludeID uint64) error {
	var clash models.Customer
	result := db.Where("tenant_id = ? AND email = ? AND id <> ?", tenantID, email, excludeID).First(&clash)
	if result.Error == nil {
		return ErrCustomerEmailExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return nil
}

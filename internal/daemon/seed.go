package daemon

import (
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/models"

	"github.com/rs/zerolog/log"
)

// seed brings the database to a usable baseline: the full permission catalog
// and, on a fresh install, a superadmin account.
func seed(_ *config.Config, db *gorm.DB) {
	seedCatalog(db)
	seedSuperAdmin(db)
}

// seedCatalog upserts every catalog key. Rows for keys that left the catalog
// are kept; grants pointing at them simply stop matching anything.
func seedCatalog(db *gorm.DB) {
	for _, key := range auth.CatalogKeys() {
		perm := models.Permission{
			Key:         key,
			Resource:    auth.Resource(key),
			Action:      auth.Action(key),
			Description: auth.Describe(key),
		}

		err := db.Where(&models.Permission{Key: key}).
			Assign(models.Permission{Description: perm.Description}).
			FirstOrCreate(&perm).Error
		if err != nil {
			log.Fatal().Err(err).Str("key", key).Msg("failed to seed permission catalog")
		}
	}
}

func seedSuperAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)

	if count > 0 {
		return
	}

	admin := models.User{
		Active:      true,
		Email:       "admin@localhost",
		DisplayName: "Administrator",
		Password:    models.HashPassword("changeme"),
		GlobalRole:  models.GlobalRoleSuperAdmin,
		AuthSource:  models.AuthSourceLocal,
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to seed superadmin")
	}

	log.Warn().Str("email", admin.Email).Msg("seeded default superadmin, change its password immediately")
}

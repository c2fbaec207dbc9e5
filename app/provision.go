package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/controller/tenants"
	"github.com/countersuite/countersuite/internal/db/dsn"
)

func init() { //nolint: gochecknoinits
	provisionCmd.Flags().StringVarP(&configPath, "config", "c", "etc/main.toml", "Path to the configuration file")
	provisionCmd.Flags().StringVar(&tenantName, "name", "", "Display name of the tenant")
	provisionCmd.Flags().StringVar(&tenantSubdomain, "subdomain", "", "Subdomain of the tenant")
	provisionCmd.Flags().StringVar(&tenantPlan, "plan", "", "Billing plan label")
	provisionCmd.Flags().Uint64Var(&tenantOwnerID, "owner", 0, "User ID to grant the Owner role, 0 for none")

	_ = provisionCmd.MarkFlagRequired("name")
	_ = provisionCmd.MarkFlagRequired("subdomain")

	rootCmd.AddCommand(provisionCmd)
}

var (
	tenantName      string
	tenantSubdomain string
	tenantPlan      string
	tenantOwnerID   uint64

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Provision a new tenant with its system roles",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := gorm.Open(gormmysql.Open(dsn.Create(&cfg)), &gorm.Config{})
			if err != nil {
				return err
			}

			created, err := tenants.Provision(db, tenantName, tenantSubdomain, tenantPlan, tenantOwnerID)
			if err != nil {
				return err
			}

			log.Info().
				Uint64("tenant_id", created.ID).
				Str("subdomain", created.Subdomain).
				Strs("system_roles", tenants.SystemRoleNames()).
				Msg("tenant provisioned")

			return nil
		},
	}
)

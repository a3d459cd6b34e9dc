package main

import (
	"fmt"
	"os"

	"shop-service/config"
	"shop-service/internal/hashing"
	"shop-service/internal/infra/kafka"
	mmysql "shop-service/internal/infra/mysql"
	"shop-service/internal/logger"
	mysqlrepo "shop-service/internal/repository/mysql"
	"shop-service/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := logger.Init(os.Getenv("ENV") == "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:          "shopctl",
		Short:        "Operations tooling for the shop service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(promoteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.LoadMySQL()
	if err != nil {
		return nil, fmt.Errorf("mysql config: %w", err)
	}
	return mmysql.Open(cfg)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer mmysql.Close(db)

			if err := mmysql.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.L().Info("migration complete", zap.Int("models", len(mmysql.Models())))
			return nil
		},
	}
}

func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote [email]",
		Short: "Grant the admin role to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer mmysql.Close(db)

			users := services.NewUserService(mysqlrepo.NewUserRepository(db), hashing.NewBcrypt(0), nil, kafka.NopEmailSender{}, logger.L())
			if err := users.Promote(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("promote %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	product "github.com/angelmondragon/stockledger-backend/internal/products"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/internal/users"
	"github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
	"github.com/angelmondragon/stockledger-backend/pkg/security"
)

type starterProduct struct {
	name  string
	unit  string
	price string
	stock int64
}

var starterProducts = []starterProduct{
	{name: "Basmati Rice", unit: "kg", price: "95", stock: 500},
	{name: "Toor Dal", unit: "kg", price: "120", stock: 300},
	{name: "Sunflower Oil", unit: "litre", price: "150", stock: 200},
	{name: "Garam Masala", unit: "packet", price: "45", stock: 400},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	managerEmail := flag.String("manager-email", "manager@stockledger.local", "warehouse manager email")
	ownerEmail := flag.String("owner-email", "owner@stockledger.local", "franchise owner email")
	franchiseID := flag.String("franchise-id", "F001", "franchise code for the seeded owner")
	outlet := flag.String("outlet", "Main Street Outlet", "outlet name for the seeded owner")
	agreementMonths := flag.Int("agreement-months", 12, "agreement length from today in months")
	withProducts := flag.Bool("products", true, "seed starter products with opening stock")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	accounts := users.NewRepository(dbClient.DB())

	manager, err := ensureAccount(ctx, logg, accounts, cfg.Password, users.CreateAccountDTO{
		Email: *managerEmail,
		Name:  "Warehouse Manager",
		Role:  enums.AccountRoleWarehouseManager,
	})
	requireResource(ctx, logg, "manager account", err)

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, *agreementMonths, 0)
	_, err = ensureAccount(ctx, logg, accounts, cfg.Password, users.CreateAccountDTO{
		Email:              *ownerEmail,
		Name:               *outlet,
		Role:               enums.AccountRoleFranchiseOwner,
		FranchiseID:        franchiseID,
		OutletName:         outlet,
		AgreementStartDate: &start,
		AgreementEndDate:   &end,
	})
	requireResource(ctx, logg, "franchise account", err)

	if !*withProducts {
		return
	}

	catalog, err := buildCatalog(dbClient, cfg)
	requireResource(ctx, logg, "catalog", err)

	actor := auth.Actor{AccountID: manager.ID, Email: manager.Email, Role: manager.Role}
	for _, sp := range starterProducts {
		seedProduct(ctx, logg, catalog, actor, sp)
	}
	logg.Info(ctx, "seed complete")
}

func ensureAccount(ctx context.Context, logg *logger.Logger, repo *users.Repository, pwCfg config.PasswordConfig, dto users.CreateAccountDTO) (*models.Account, error) {
	existing, err := repo.FindByEmail(ctx, dto.Email)
	if err == nil {
		logg.Info(logg.WithField(ctx, "email", dto.Email), "account already seeded")
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password, err := security.GenerateTempPassword(16)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return nil, err
	}
	dto.PasswordHash = hash

	account, err := repo.Create(ctx, dto)
	if err != nil {
		return nil, err
	}
	fmt.Printf("%s\t%s\t%s\n", dto.Role, dto.Email, password)
	return account, nil
}

func buildCatalog(client *db.Client, cfg *config.Config) (product.Service, error) {
	ledgerRepo := ledger.NewRepository(client.DB())
	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:          ledgerRepo,
		TxRunner:      client,
		RecentDefault: cfg.Ledger.RecentDefault,
		RecentMax:     cfg.Ledger.RecentMax,
	})
	if err != nil {
		return nil, err
	}
	accountant, err := stock.NewAccountant(stock.AccountantParams{
		Repo:       stock.NewRepository(client.DB()),
		Ledger:     ledgerService,
		LedgerRepo: ledgerRepo,
		TxRunner:   client,
	})
	if err != nil {
		return nil, err
	}
	return product.NewService(product.ServiceParams{
		Repo:           product.NewRepository(client.DB()),
		DB:             client,
		Ledger:         ledgerService,
		Stock:          accountant,
		CurrencySymbol: cfg.Ledger.CurrencySymbol,
	})
}

func seedProduct(ctx context.Context, logg *logger.Logger, catalog product.Service, actor auth.Actor, sp starterProduct) {
	ctx = logg.WithField(ctx, "product", sp.name)
	created, err := catalog.Create(ctx, actor, product.CreateProductInput{
		Name:      sp.name,
		Unit:      sp.unit,
		BasePrice: decimal.RequireFromString(sp.price),
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeDuplicateProductName) {
		logg.Info(ctx, "product already seeded")
		return
	}
	requireResource(ctx, logg, "product create", err)

	if sp.stock > 0 {
		_, err = catalog.AddStock(ctx, actor, created.ID, sp.stock)
		requireResource(ctx, logg, "opening stock", err)
	}
	logg.Info(logg.WithField(ctx, "product_id", created.ID), "product seeded")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("seed step failed: %s", resource), err)
	os.Exit(1)
}

package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pixcards/internal/config"
	"pixcards/internal/idempotency"
	"pixcards/internal/repos"
	"pixcards/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
	WalletHandler  *WalletHandler
	VoucherHandler *VoucherHandler
	AdminHandler   *AdminHandler

	// Idem is nil when no Redis is configured; POSTs then run without replay protection.
	Idem    idempotency.Store
	IdemTTL time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewDeps(db *sqlx.DB, cfg config.Config, idem idempotency.Store, logger *zap.Logger) *Deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	uow := repos.NewUnitOfWork(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	outbox := repos.NewOutboxRepo(db)

	auth := services.NewAuthService(repos.NewUserRepo(db))
	alloc := services.NewAllocator(repos.NewInventoryRepo(db), orderRepo, uow)
	catalog := services.NewCatalogService(prodRepo, alloc)
	wallet := services.NewWalletService(repos.NewWalletRepo(db), uow)
	settings := services.NewSettingsService(repos.NewSettingsRepo(db), cfg.PixKey)
	vouchers := services.NewVoucherService(repos.NewVoucherRepo(db), wallet, outbox, uow, cfg.KafkaTopic, logger.Named("vouchers"))
	orders := &services.OrderService{
		Orders:   orderRepo,
		Products: prodRepo,
		Alloc:    alloc,
		Wallet:   wallet,
		Settings: settings,
		Outbox:   outbox,
		UoW:      uow,
		Merchant: services.Merchant{Name: cfg.MerchantName, City: cfg.MerchantCity},
		Topic:    cfg.KafkaTopic,
		Logger:   logger.Named("orders"),
	}

	return &Deps{
		Auth:           auth,
		AuthHandler:    &AuthHandler{Auth: auth},
		ProductHandler: &ProductHandler{Catalog: catalog},
		OrderHandler:   &OrderHandler{Orders: orders},
		WalletHandler:  &WalletHandler{Wallet: wallet},
		VoucherHandler: &VoucherHandler{Vouchers: vouchers},
		AdminHandler:   &AdminHandler{Orders: orders, Vouchers: vouchers, Settings: settings, Catalog: catalog},
		Idem:           idem,
		IdemTTL:        cfg.IdempotencyTTL,
		Timeout:        cfg.HTTPTimeout,
		Logger:         logger,
	}
}

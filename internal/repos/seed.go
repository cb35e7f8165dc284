package repos

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"pixcards/internal/domain"
)

// Seed inserts demo users, catalog, inventory and the default Pix key. Each part is skipped
// when it already has data, so it is safe on every start.
func Seed(ctx context.Context, db *sqlx.DB) error {
	uow := NewUnitOfWork(db)
	return uow.Run(ctx, func(ctx context.Context) error {
		if err := seedUsers(ctx, db); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := seedCatalog(ctx, db); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		settings := NewSettingsRepo(db)
		key, err := settings.PixKey(ctx)
		if err != nil {
			return err
		}
		if key == "" {
			return settings.SetPixKey(ctx, "4a2a70fd-48f0-4a15-9419-1c16fa5703c3")
		}
		return nil
	})
}

func seedUsers(ctx context.Context, db *sqlx.DB) error {
	mk := func(id, email, name, role, raw string) (domain.User, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return domain.User{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}, err
	}
	users := NewUserRepo(db)
	for _, s := range []struct{ id, email, name, role string }{
		{"u-admin", "admin@pixcards.test", "Admin", domain.RoleAdmin},
		{"u-cliente", "cliente@pixcards.test", "Cliente Teste", domain.RoleUser},
	} {
		if _, err := users.ByEmail(ctx, s.email); err == nil {
			continue
		}
		u, err := mk(s.id, s.email, s.name, s.role, "Passw0rd!")
		if err != nil {
			return err
		}
		if err := users.Insert(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func seedCatalog(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := getx(ctx, db, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting demo products and gift cards")

	products := NewProductRepo(db)
	inventory := NewInventoryRepo(db)
	base := Now().Add(-time.Hour)
	seq := 0
	for _, p := range []struct {
		id, name, desc, bin string
		price             domain.Cents
		stock             int
	}{
		{"gc-50", "Gift Card R$50", "Cartão presente de R$50", "411111", 5000, 10},
		{"gc-100", "Gift Card R$100", "Cartão presente de R$100", "522222", 10000, 10},
		{"gc-200", "Gift Card R$200", "Cartão presente de R$200", "533333", 20000, 5},
	} {
		if err := products.Insert(ctx, domain.Product{ID: p.id, Name: p.name, Description: p.desc, Price: p.price}); err != nil {
			return err
		}
		for i := 0; i < p.stock; i++ {
			seq++
			card := domain.GiftCard{
				ID:             fmt.Sprintf("%s-%03d", p.id, i+1),
				ProductID:      p.id,
				Number:         fmt.Sprintf("%s%010d", p.bin, 1000+seq),
				Expiry:         "12/30",
				CVV:            fmt.Sprintf("%03d", (seq*37)%1000),
				HolderName:     "PIXCARDS DEMO",
				HolderDocument: fmt.Sprintf("000.000.%03d-00", seq),
				CreatedAt:      stamp(base.Add(time.Duration(seq) * time.Second)),
			}
			if err := inventory.Insert(ctx, card); err != nil {
				return err
			}
		}
	}
	return nil
}

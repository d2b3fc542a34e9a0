package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"

	"server/internal/domain"
)

// LogoRepositoryPG reads a product's persisted logo candidates. Brand
// profiles change rarely, so lookups are held in a short-lived TTL cache.
type LogoRepositoryPG struct {
	pool  *pgxpool.Pool
	cache *gocache.Cache
}

type logoPair struct {
	product string
	brand   string
}

// NewLogoRepository creates a new LogoRepositoryPG.
func NewLogoRepository(pool *pgxpool.Pool) *LogoRepositoryPG {
	return &LogoRepositoryPG{
		pool:  pool,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// ProductLogos returns the product's default logo URL and the logo of the
// brand profile applied to the product. Either may be empty. Fails with
// domain.ErrNotFound when the product does not exist.
func (r *LogoRepositoryPG) ProductLogos(ctx context.Context, productID string) (string, string, error) {
	if cached, ok := r.cache.Get(productID); ok {
		pair := cached.(logoPair)
		return pair.product, pair.brand, nil
	}

	var pair logoPair
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(p.logo_url, ''), COALESCE(b.logo_url, '')
FROM products p
LEFT JOIN brand_profiles b ON b.id = p.brand_profile_id
WHERE p.id = $1;
`, productID).Scan(&pair.product, &pair.brand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", domain.ErrNotFound
		}
		return "", "", err
	}

	r.cache.SetDefault(productID, pair)
	return pair.product, pair.brand, nil
}

var _ domain.LogoRepository = (*LogoRepositoryPG)(nil)

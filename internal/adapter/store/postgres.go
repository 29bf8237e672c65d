package store

import (
	"context"
	"fmt"
	"reco-core/internal/domain/entity"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// OpenPostgres connects to the catalog database with connection pooling.
func OpenPostgres(dsn string, debug bool) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the products and interactions tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Product{}, &entity.Interaction{})
}

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if err := r.DB.WithContext(ctx).Order("product_id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) GetProducts(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []entity.Product
	if err := r.DB.WithContext(ctx).Where("product_id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	for _, p := range products {
		out[p.ProductID] = p
	}
	return out, nil
}

func (r *ProductRepository) ProductNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []entity.Product
	err := r.DB.WithContext(ctx).
		Select("product_id", "product_name").
		Where("product_id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find product names: %w", err)
	}
	for _, p := range products {
		out[p.ProductID] = p.ProductName
	}
	return out, nil
}

func (r *ProductRepository) UpsertProducts(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(products, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert products: %w", err)
	}
	return nil
}

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) UserInteractions(ctx context.Context, userID string) ([]entity.Interaction, error) {
	var rows []entity.Interaction
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	return rows, nil
}

func (r *InteractionRepository) InsertInteractions(ctx context.Context, batch []entity.Interaction) error {
	if len(batch) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).CreateInBatches(batch, len(batch)).Error; err != nil {
		return fmt.Errorf("failed to insert interactions: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// mysqlDeadlock is ER_LOCK_DEADLOCK.
const mysqlDeadlock = 1213

// linkRecord is the GORM model of a link row.
type linkRecord struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	ShortCode   string     `gorm:"type:varchar(32);not null;index:idx_links_code"`
	OriginalURL string     `gorm:"type:varchar(2048);not null"`
	URLHash     string     `gorm:"type:char(64);not null;index"`
	CustomAlias *string    `gorm:"type:varchar(32)"`
	OwnerID     *string    `gorm:"type:varchar(64)"`
	CreatedAt   time.Time  `gorm:"not null"`
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time `gorm:"index"`
	Clicks      int64      `gorm:"not null;default:0"`
	IsActive    bool       `gorm:"not null;default:true;index"`
}

func (linkRecord) TableName() string {
	return "links"
}

func recordFromLink(link *shortener.Link) *linkRecord {
	return &linkRecord{
		ShortCode:   string(link.Code),
		OriginalURL: link.OriginalURL,
		URLHash:     string(link.URLHash),
		CustomAlias: nullable(link.CustomAlias),
		OwnerID:     nullable(string(link.Owner)),
		CreatedAt:   link.CreatedAt.UTC(),
		LastUsedAt:  utc(link.LastUsedAt),
		ExpiresAt:   utc(link.ExpiresAt),
		Clicks:      link.Clicks,
		IsActive:    link.Active,
	}
}

// utc normalizes stored timestamps; SQLite compares them as text.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}

func (r *linkRecord) toLink() *shortener.Link {
	link := &shortener.Link{
		Code:        shortener.Code(r.ShortCode),
		OriginalURL: r.OriginalURL,
		URLHash:     shortener.URLHash(r.URLHash),
		CreatedAt:   r.CreatedAt,
		LastUsedAt:  r.LastUsedAt,
		ExpiresAt:   r.ExpiresAt,
		Clicks:      r.Clicks,
		Active:      r.IsActive,
	}

	if r.CustomAlias != nil {
		link.CustomAlias = *r.CustomAlias
	}

	if r.OwnerID != nil {
		link.Owner = shortener.OwnerID(*r.OwnerID)
	}

	return link
}

// OpenGorm connects to a SQLite or MySQL database. GORM's own logging goes to logger at warn level.
func OpenGorm(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(logger), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// one writer keeps the check-then-insert in Insert serialized
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// GormStore is a GORM implementation of shortener.Repository for SQLite and MySQL.
type GormStore struct {
	db       *gorm.DB
	lockRows bool // SQLite has no row locks
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		lockRows: db.Dialector.Name() != "sqlite",
	}
}

// Migrate creates or updates the links table.
func (g *GormStore) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&linkRecord{})
}

// Close closes the underlying connection pool.
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Ping checks database connectivity.
func (g *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (g *GormStore) active(tx *gorm.DB, code shortener.Code) *gorm.DB {
	return tx.Model(&linkRecord{}).Where("short_code = ? AND is_active = ?", string(code), true)
}

// Insert checks for an active holder of the code and inserts within one transaction.
func (g *GormStore) Insert(ctx context.Context, link *shortener.Link) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64

		query := tx
		if g.lockRows {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		err := g.active(query, link.Code).Count(&holders).Error
		if err != nil {
			return err
		}

		if holders > 0 {
			return shortener.ErrCodeConflict
		}

		err = tx.Create(recordFromLink(link)).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shortener.ErrCodeConflict
		}

		return err
	})
	if isDeadlock(err) {
		return shortener.ErrCodeConflict
	}

	return err
}

// isDeadlock reports a MySQL deadlock. Concurrent inserts of the same new code
// collide on the gap lock taken by the holder check; the losing one is rolled back.
func isDeadlock(err error) bool {
	var mysqlErr *mysqldriver.MySQLError

	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDeadlock
}

func (g *GormStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	var record linkRecord

	err := g.db.WithContext(ctx).
		Where("short_code = ?", string(code)).
		Order("is_active DESC").Order("created_at DESC").Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shortener.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return record.toLink(), nil
}

func (g *GormStore) FindByURLHash(ctx context.Context, hash shortener.URLHash) ([]*shortener.Link, error) {
	var records []linkRecord

	err := g.db.WithContext(ctx).
		Where("url_hash = ? AND is_active = ?", string(hash), true).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	links := make([]*shortener.Link, 0, len(records))
	for i := range records {
		links = append(links, records[i].toLink())
	}

	return links, nil
}

func (g *GormStore) Update(ctx context.Context, code shortener.Code, update shortener.LinkUpdate) (*shortener.Link, error) {
	var record linkRecord

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := map[string]any{}

		if update.OriginalURL != nil {
			changes["original_url"] = *update.OriginalURL
			changes["url_hash"] = string(update.URLHash)
		}

		if update.ExpiresAt != nil {
			changes["expires_at"] = update.ExpiresAt.UTC()
		}

		if len(changes) > 0 {
			if err := g.active(tx, code).Updates(changes).Error; err != nil {
				return err
			}
		}

		err := g.active(tx, code).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shortener.ErrNotFound
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return record.toLink(), nil
}

func (g *GormStore) SoftDelete(ctx context.Context, code shortener.Code) (bool, error) {
	result := g.active(g.db.WithContext(ctx), code).Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (g *GormStore) IncrementClicks(ctx context.Context, code shortener.Code, at time.Time) error {
	result := g.active(g.db.WithContext(ctx), code).UpdateColumns(map[string]any{
		"clicks":       gorm.Expr("clicks + ?", 1),
		"last_used_at": at.UTC(),
	})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (g *GormStore) ListCodes(ctx context.Context) ([]shortener.Code, error) {
	var codes []string

	err := g.db.WithContext(ctx).Model(&linkRecord{}).
		Where("is_active = ?", true).
		Pluck("short_code", &codes).Error
	if err != nil {
		return nil, err
	}

	return toCodes(codes), nil
}

func (g *GormStore) DeactivateExpired(ctx context.Context, now time.Time) ([]shortener.Code, error) {
	return g.deactivateWhere(ctx, "expires_at IS NOT NULL AND expires_at <= ?", now.UTC())
}

func (g *GormStore) DeactivateUnused(ctx context.Context, cutoff time.Time) ([]shortener.Code, error) {
	return g.deactivateWhere(ctx, "COALESCE(last_used_at, created_at) < ?", cutoff.UTC())
}

// deactivateWhere selects matching active rows and deactivates exactly those rows by id.
func (g *GormStore) deactivateWhere(ctx context.Context, condition string, arg any) ([]shortener.Code, error) {
	var codes []string

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var records []linkRecord

		err := tx.Select("id", "short_code").
			Where("is_active = ?", true).
			Where(condition, arg).
			Find(&records).Error
		if err != nil || len(records) == 0 {
			return err
		}

		ids := make([]uint, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
			codes = append(codes, r.ShortCode)
		}

		return tx.Model(&linkRecord{}).Where("id IN ?", ids).Update("is_active", false).Error
	})
	if err != nil {
		return nil, err
	}

	return toCodes(codes), nil
}

func toCodes(raw []string) []shortener.Code {
	codes := make([]shortener.Code, 0, len(raw))
	for _, c := range raw {
		codes = append(codes, shortener.Code(c))
	}

	return codes
}

var _ shortener.Repository = (*GormStore)(nil)

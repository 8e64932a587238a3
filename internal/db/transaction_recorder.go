package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"raysentinel/internal/core/domain"
)

// UserRecord is the database model for a registered operator account.
type UserRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(128);not null"`
	PublicKey    string    `gorm:"type:varchar(64);not null"`
	EncryptedKey []byte    `gorm:"type:varbinary(512);not null;comment:base58-encoded private key material, not encrypted"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserRecord) TableName() string { return "users" }

// BotConfigRecord is the database model for one user's trading strategy
// configuration against one pool, addressable by a user-chosen name so a
// single account can run more than one configuration.
type BotConfigRecord struct {
	ID                       uint      `gorm:"primaryKey;autoIncrement"`
	UserID                   uint      `gorm:"uniqueIndex:idx_user_config_name;not null"`
	Name                     string    `gorm:"type:varchar(64);uniqueIndex:idx_user_config_name;not null"`
	PoolID                   string    `gorm:"type:varchar(64);not null"`
	BuySolAmount             uint64    `gorm:"not null"`
	EntryPercent             float64   `gorm:"not null"`
	EntrySlippage            float64   `gorm:"not null"`
	ExitSlippage             float64   `gorm:"not null"`
	StopLoss                 float64   `gorm:"not null"`
	TakeProfit               float64   `gorm:"not null"`
	AutoExitSeconds          int64     `gorm:"not null"`
	ConfirmService           string    `gorm:"type:varchar(16);not null"`
	ComputeUnits             uint32    `gorm:"not null"`
	PriorityFeeMicroLamports uint64    `gorm:"not null"`
	RelayTipLamports         uint64    `gorm:"not null"`
	CreatedAt                time.Time `gorm:"autoCreateTime"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime"`
}

func (BotConfigRecord) TableName() string { return "bot_configs" }

// TradeRecordRow is the database model for one realized trade outcome,
// written once per exit by lifecycle.Manager.PostExitCleanup.
type TradeRecordRow struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"type:varchar(64);index;not null"`
	Timestamp    time.Time `gorm:"index;not null"`
	ProfitNative float64   `gorm:"not null"`
	FeesAtomic   int64     `gorm:"not null"`
	FeesNative   float64   `gorm:"not null"`
	ROIPct       float64   `gorm:"not null"`
	DurationMs   int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (TradeRecordRow) TableName() string { return "trade_records" }

// Store wires GORM to MySQL and exposes the repository surfaces the
// engine and the HTTP control plane need.
type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and migrates the schema. dsn format:
// "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func Open(dsn string) (*Store, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to MySQL: %w", err)
	}
	return OpenWithDB(gdb)
}

// OpenWithDB wraps an already-open GORM DB (used by tests against
// go-sqlmock) and migrates the schema.
func OpenWithDB(gdb *gorm.DB) (*Store, error) {
	if err := gdb.AutoMigrate(&UserRecord{}, &BotConfigRecord{}, &TradeRecordRow{}); err != nil {
		return nil, fmt.Errorf("db: migrate schema: %w", err)
	}
	return &Store{db: gdb}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("db: underlying connection: %w", err)
	}
	return sqlDB.Close()
}

// GetDB returns the underlying GORM handle for advanced queries.
func (s *Store) GetDB() *gorm.DB { return s.db }

// CreateUser persists a new operator account.
func (s *Store) CreateUser(user *UserRecord) error {
	if result := s.db.Create(user); result.Error != nil {
		return fmt.Errorf("db: create user: %w", result.Error)
	}
	return nil
}

// FindUserByEmail looks up an account by its unique email.
func (s *Store) FindUserByEmail(email string) (*UserRecord, error) {
	var record UserRecord
	if result := s.db.Where("email = ?", email).First(&record); result.Error != nil {
		return nil, fmt.Errorf("db: find user by email: %w", result.Error)
	}
	return &record, nil
}

// FindUserByID looks up an account by primary key.
func (s *Store) FindUserByID(id uint) (*UserRecord, error) {
	var record UserRecord
	if result := s.db.First(&record, id); result.Error != nil {
		return nil, fmt.Errorf("db: find user by id: %w", result.Error)
	}
	return &record, nil
}

// UpsertBotConfig creates or updates the named config for a user.
func (s *Store) UpsertBotConfig(config *BotConfigRecord) error {
	result := s.db.Where("user_id = ? AND name = ?", config.UserID, config.Name).
		Assign(config).
		FirstOrCreate(config)
	if result.Error != nil {
		return fmt.Errorf("db: upsert bot config: %w", result.Error)
	}
	return nil
}

// ListBotConfigs returns every config owned by a user.
func (s *Store) ListBotConfigs(userID uint) ([]BotConfigRecord, error) {
	var records []BotConfigRecord
	if result := s.db.Where("user_id = ?", userID).Find(&records); result.Error != nil {
		return nil, fmt.Errorf("db: list bot configs: %w", result.Error)
	}
	return records, nil
}

// ToDomainStrategy converts a persisted config row into the domain type
// the decision engine and swap builder consume.
func (c BotConfigRecord) ToDomainStrategy() domain.Strategy {
	return domain.Strategy{
		BuySolAmount:             c.BuySolAmount,
		EntryPercent:             c.EntryPercent,
		EntrySlippage:            c.EntrySlippage,
		ExitSlippage:             c.ExitSlippage,
		StopLoss:                 c.StopLoss,
		TakeProfit:               c.TakeProfit,
		AutoExitSeconds:          c.AutoExitSeconds,
		ConfirmService:           domain.ConfirmService(c.ConfirmService),
		ComputeUnits:             c.ComputeUnits,
		PriorityFeeMicroLamports: c.PriorityFeeMicroLamports,
		RelayTipLamports:         c.RelayTipLamports,
	}
}

// Record implements lifecycle.TradeRecorder by appending a row to
// trade_records.
func (s *Store) Record(record domain.TradeRecord) error {
	row := TradeRecordRow{
		UserID:       record.UserID,
		Timestamp:    record.Timestamp,
		ProfitNative: record.ProfitNative,
		FeesAtomic:   record.FeesAtomic,
		FeesNative:   record.FeesNative,
		ROIPct:       record.ROIPct,
		DurationMs:   record.DurationMs,
	}
	if result := s.db.Create(&row); result.Error != nil {
		return fmt.Errorf("db: record trade: %w", result.Error)
	}
	return nil
}

// TradesForUser returns a user's realized trade history, most recent first.
func (s *Store) TradesForUser(userID string, limit int) ([]TradeRecordRow, error) {
	var rows []TradeRecordRow
	q := s.db.Where("user_id = ?", userID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if result := q.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("db: trades for user: %w", result.Error)
	}
	return rows, nil
}

// RecentTrades returns the most recent trade rows across all users.
func (s *Store) RecentTrades(limit int) ([]TradeRecordRow, error) {
	var rows []TradeRecordRow
	q := s.db.Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if result := q.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("db: recent trades: %w", result.Error)
	}
	return rows, nil
}

package db

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"raysentinel/internal/core/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create gorm DB: %v", err)
	}

	return &Store{db: gormDB}, mock, func() { sqlDB.Close() }
}

func TestStoreRecordTrade(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `trade_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := domain.TradeRecord{
		UserID:       "alice",
		Timestamp:    time.Now(),
		ProfitNative: 0.015,
		FeesAtomic:   12000,
		FeesNative:   0.000012,
		ROIPct:       3.2,
		DurationMs:   45000,
	}

	if err := store.Record(record); err != nil {
		t.Errorf("Record failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreCreateUser(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &UserRecord{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hashed",
		PublicKey:    "pubkey",
		EncryptedKey: []byte("ciphertext"),
	}

	if err := store.CreateUser(user); err != nil {
		t.Errorf("CreateUser failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestBotConfigRecordToDomainStrategy(t *testing.T) {
	row := BotConfigRecord{
		BuySolAmount:    1_000_000_000,
		EntryPercent:    1.0,
		EntrySlippage:   0.5,
		ExitSlippage:    0.5,
		StopLoss:        5,
		TakeProfit:      10,
		AutoExitSeconds: 60,
		ConfirmService:  string(domain.ConfirmServiceJito),
		ComputeUnits:    200000,
	}

	strat := row.ToDomainStrategy()
	if strat.ConfirmService != domain.ConfirmServiceJito {
		t.Fatalf("expected ConfirmService JITO, got %s", strat.ConfirmService)
	}
	if strat.BuySolAmount != row.BuySolAmount {
		t.Fatalf("expected BuySolAmount to round-trip")
	}
}

func TestUserRecordTableName(t *testing.T) {
	if (UserRecord{}).TableName() != "users" {
		t.Fatalf("unexpected table name")
	}
}

func TestTradeRecordRowTableName(t *testing.T) {
	if (TradeRecordRow{}).TableName() != "trade_records" {
		t.Fatalf("unexpected table name")
	}
}

package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/jinzhu/gorm"
	_ "github.com/go-sql-driver/mysql"

	"github.com/ground-x/blmessaging/log"
)

// RedisMirror optionally shadows cache writes into Redis, so a fleet of
// gateway processes shares freshly authorized principals instead of each
// hitting the upstream authorizer independently on its own cache miss.
// Wired in as a best-effort mirror: failures are logged, never returned,
// since the in-process Cache remains authoritative.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewRedisMirror(addr string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: log.New("auth.redismirror"),
	}
}

func (m *RedisMirror) Set(ctx context.Context, tokenHash [32]byte, subject string) {
	if err := m.client.Set(string(tokenHash[:]), subject, m.ttl).Err(); err != nil {
		m.logger.Warn("redis mirror set failed", "err", err)
	}
}

func (m *RedisMirror) Get(ctx context.Context, tokenHash [32]byte) (string, bool) {
	v, err := m.client.Get(string(tokenHash[:])).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		m.logger.Warn("redis mirror get failed", "err", err)
		return "", false
	}
	return v, true
}

// AuditRecord is one row of the optional MySQL audit trail: every
// authorization decision, kept for compliance review independent of the
// in-memory cache's lifetime.
type AuditRecord struct {
	ID        uint `gorm:"primary_key"`
	Subject   string
	Success   bool
	CreatedAt time.Time
}

// AuditTrail persists AuditRecords via gorm/mysql, adapted from nothing
// teacher-specific (no audit concern exists in the teacher's blockchain
// domain) but grounded on the pack's jinzhu/gorm + go-sql-driver/mysql
// pairing, the straightforward way to get a durable append log of
// authorization decisions without hand-rolling SQL.
type AuditTrail struct {
	db     *gorm.DB
	logger *log.Logger
}

func OpenAuditTrail(dsn string) (*AuditTrail, error) {
	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.AutoMigrate(&AuditRecord{})
	return &AuditTrail{db: db, logger: log.New("auth.audit")}, nil
}

func (a *AuditTrail) Record(subject string, success bool) {
	rec := AuditRecord{Subject: subject, Success: success, CreatedAt: time.Now()}
	if err := a.db.Create(&rec).Error; err != nil {
		a.logger.Warn("audit trail write failed", "err", err)
	}
}

func (a *AuditTrail) Close() error {
	return a.db.Close()
}

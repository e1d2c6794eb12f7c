// Package dedup is the gorm-backed dedup store, for deployments that want
// the gate durable in the relational database instead of Redis.
package dedup

import "time"

// DedupKey is one reserved fingerprint. Expired rows are reclaimable by
// Reserve and swept by Cleanup.
type DedupKey struct {
	Key       string    `gorm:"type:varchar(128);primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (DedupKey) TableName() string { return "dedup_keys" }

// DedupCounter is the per-source event counter of one rate window.
type DedupCounter struct {
	Source    string `gorm:"type:varchar(128);primaryKey"`
	Bucket    int64  `gorm:"primaryKey;autoIncrement:false"`
	Count     int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (DedupCounter) TableName() string { return "dedup_counters" }

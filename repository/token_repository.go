// file: repository/token_repository.go

package repository

import (
	"context"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrRotationIDExists is returned by Record when the rotation id already has a live record.
var ErrRotationIDExists = errors.New("rotation id already recorded")

const (
	refreshKeyPrefix = "refresh:"
	retiredKeyPrefix = "revoked_refresh:"
)

// ISessionLedger defines the contract for refresh-token bookkeeping. A rotation
// id is live while its record exists and retired while only its marker exists.
type ISessionLedger interface {
	// Record stores rotationID -> accountID for ttl. An id that is already
	// recorded is never overwritten; Record returns ErrRotationIDExists.
	Record(ctx context.Context, rotationID string, accountID int64, ttl time.Duration) error
	// LookupOwner returns the owning account id and whether the record exists.
	LookupOwner(ctx context.Context, rotationID string) (int64, bool, error)
	// RetireIfPresent removes the live record and, in the same atomic step,
	// writes the retirement marker with markerTTL. Only one of any number of
	// concurrent callers observes true.
	RetireIfPresent(ctx context.Context, rotationID string, markerTTL time.Duration) (bool, error)
	IsRetired(ctx context.Context, rotationID string) (bool, error)
}

// KEYS[1] live record, KEYS[2] retirement marker, ARGV[1] marker ttl in ms.
var retireScript = redis.NewScript(`
if redis.call("DEL", KEYS[1]) == 1 then
  redis.call("SET", KEYS[2], "1", "PX", ARGV[1])
  return 1
end
return 0
`)

// RedisLedger implements ISessionLedger on Redis.
type RedisLedger struct {
	client redis.UniversalClient
}

func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

func refreshKey(rotationID string) string { return refreshKeyPrefix + rotationID }
func retiredKey(rotationID string) string { return retiredKeyPrefix + rotationID }

func (l *RedisLedger) Record(ctx context.Context, rotationID string, accountID int64, ttl time.Duration) error {
	log := logger.Log.WithFields(logrus.Fields{
		"rotation_id": rotationID,
		"account_id":  accountID,
	})
	inserted, err := l.client.SetNX(ctx, refreshKey(rotationID), accountID, ttl).Result()
	if err != nil {
		log.WithError(err).Error("Failed to record refresh rotation id")
		return fmt.Errorf("record rotation id: %w", err)
	}
	if !inserted {
		log.Error("Refresh rotation id already recorded")
		return ErrRotationIDExists
	}
	return nil
}

func (l *RedisLedger) LookupOwner(ctx context.Context, rotationID string) (int64, bool, error) {
	val, err := l.client.Get(ctx, refreshKey(rotationID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		logger.Log.WithError(err).WithField("rotation_id", rotationID).Error("Failed to look up refresh rotation id")
		return 0, false, fmt.Errorf("lookup rotation id: %w", err)
	}

	owner, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// An unreadable owner cannot be matched to anyone; treat it as absent.
		logger.Log.WithField("rotation_id", rotationID).Warn("Refresh record holds a non-numeric owner")
		return 0, false, nil
	}
	return owner, true, nil
}

func (l *RedisLedger) RetireIfPresent(ctx context.Context, rotationID string, markerTTL time.Duration) (bool, error) {
	keys := []string{refreshKey(rotationID), retiredKey(rotationID)}
	n, err := retireScript.Run(ctx, l.client, keys, markerTTL.Milliseconds()).Int64()
	if err != nil {
		logger.Log.WithError(err).WithField("rotation_id", rotationID).Error("Failed to retire refresh rotation id")
		return false, fmt.Errorf("retire rotation id: %w", err)
	}
	return n == 1, nil
}

func (l *RedisLedger) IsRetired(ctx context.Context, rotationID string) (bool, error) {
	n, err := l.client.Exists(ctx, retiredKey(rotationID)).Result()
	if err != nil {
		logger.Log.WithError(err).WithField("rotation_id", rotationID).Error("Failed to check refresh retirement marker")
		return false, fmt.Errorf("check retirement marker: %w", err)
	}
	return n == 1, nil
}

package goIdentity

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix      = "oc"
	otpIndexPrefix    = "ocidx"
	otpRecordVersion1 = 1
)

// redisOTPStore keeps hashed codes in Redis: one binary-encoded record per
// code with its own TTL, plus a per-user index set so verification can scan
// the user's outstanding codes. Consume uses WATCH so two racing verifies
// cannot both flip the used flag.
type redisOTPStore struct {
	redis *redis.Client
	clock Clock
}

func newRedisOTPStore(client *redis.Client, clock Clock) *redisOTPStore {
	return &redisOTPStore{redis: client, clock: clock}
}

func (s *redisOTPStore) key(codeID string) string {
	return otpKeyPrefix + ":" + codeID
}

func (s *redisOTPStore) indexKey(userID string) string {
	return otpIndexPrefix + ":" + userID
}

func (s *redisOTPStore) Save(ctx context.Context, code *OTPCode) error {
	encoded, err := encodeOTPRecord(code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// ExpiresAt comes from the injected clock, so the TTL must too; mixing
	// in the wall clock breaks deployments running on a shifted clock.
	ttl := code.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("%w: code already expired", ErrStoreUnavailable)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.key(code.ID), encoded, ttl)
	pipe.SAdd(ctx, s.indexKey(code.UserID), code.ID)
	// The index outlives individual codes by the longest TTL seen; stale
	// members are swept during Consume.
	pipe.Expire(ctx, s.indexKey(code.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisOTPStore) Consume(ctx context.Context, userID, digest string, now time.Time) (bool, error) {
	codeIDs, err := s.redis.SMembers(ctx, s.indexKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, codeID := range codeIDs {
		consumed, err := s.tryConsume(ctx, userID, codeID, digest, now)
		if err != nil {
			return false, err
		}
		if consumed {
			return true, nil
		}
	}
	return false, nil
}

// tryConsume attempts a compare-and-set on one code record. A lost WATCH
// race is retried a bounded number of times; a record consumed by the
// concurrent winner no longer matches and the retry reports false.
func (s *redisOTPStore) tryConsume(ctx context.Context, userID, codeID, digest string, now time.Time) (bool, error) {
	const maxRetries = 4
	key := s.key(codeID)

	for i := 0; i < maxRetries; i++ {
		var consumed bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOTPRecord(data)
			if err != nil {
				return err
			}
			if record.Used || record.Digest != digest || !record.ExpiresAt.After(now) {
				return nil
			}

			record.Used = true
			updated, err := encodeOTPRecord(record)
			if err != nil {
				return err
			}
			ttl := record.ExpiresAt.Sub(now)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err == nil {
				consumed = true
			}
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) {
			// Expired and evicted; sweep the index member.
			_, _ = s.redis.SRem(ctx, s.indexKey(userID), codeID).Result()
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return consumed, nil
	}
	return false, nil
}

func (s *redisOTPStore) InvalidateAll(ctx context.Context, userID string) error {
	codeIDs, err := s.redis.SMembers(ctx, s.indexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	keys := make([]string, 0, len(codeIDs)+1)
	for _, codeID := range codeIDs {
		keys = append(keys, s.key(codeID))
	}
	keys = append(keys, s.indexKey(userID))

	if _, err := s.redis.Del(ctx, keys...).Result(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func encodeOTPRecord(code *OTPCode) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(otpRecordVersion1)
	buf.WriteByte(byte(code.Channel))
	if code.Used {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := binary.Write(&buf, binary.BigEndian, code.ExpiresAt.Unix()); err != nil {
		return nil, err
	}

	for _, field := range []string{code.ID, code.UserID, code.Digest} {
		if len(field) > 65535 {
			return nil, errors.New("otp record field length exceeded")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeOTPRecord(data []byte) (*OTPCode, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersion1 {
		return nil, errors.New("invalid otp record version")
	}

	channel, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	used, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	var expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}

	fields := make([]string, 3)
	for i := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}

	return &OTPCode{
		ID:        fields[0],
		UserID:    fields[1],
		Digest:    fields[2],
		Channel:   OTPChannel(channel),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
		Used:      used == 1,
	}, nil
}

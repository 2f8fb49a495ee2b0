package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otc:form:"

// RedisStore keeps forms in Redis so several bot replicas share them. Keys
// carry no TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects and pings the server
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (*State, error) {
	raw, err := r.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}

	return decodeState(raw)
}

func (r *RedisStore) Set(ctx context.Context, userID int64, state *State) error {
	if state == nil || state.Step == StepIdle {
		return r.Clear(ctx, userID)
	}

	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("set form: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear form: %w", err)
	}
	return nil
}

// encodeState and decodeState define the value stored under each form key.
// Forms written by an older process must keep decoding after a restart.
func encodeState(st *State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	return raw, nil
}

func decodeState(raw []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	if st.Step == StepIdle {
		return nil, nil
	}
	return &st, nil
}

package pending

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"

	"pos-cart-service/internal/entity"
)

const (
	orderIDKey = "pos:pending:order-id"
	methodKey  = "pos:pending:payment-method"
)

// RedisStore keeps the pending payment marker in redis under two keys, the
// order identifier and the payment method, written together before the
// browser navigates to the gateway.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context) (*entity.PendingPayment, error) {
	id, err := s.rdb.Get(ctx, orderIDKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	orderID, err := strconv.Atoi(id)
	if err != nil {
		// unreadable marker, drop it rather than reconcile a bogus order
		_ = s.Clear(ctx)
		return nil, nil
	}

	method, err := s.rdb.Get(ctx, methodKey).Result()
	if errors.Is(err, redis.Nil) {
		// half-written marker, drop it rather than reconcile with a blank method
		_ = s.Clear(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entity.PendingPayment{OrderID: orderID, Method: entity.PaymentMethod(method)}, nil
}

func (s *RedisStore) Set(ctx context.Context, pp entity.PendingPayment) error {
	return s.rdb.MSet(ctx,
		orderIDKey, strconv.Itoa(pp.OrderID),
		methodKey, string(pp.Method),
	).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, orderIDKey, methodKey).Err()
}

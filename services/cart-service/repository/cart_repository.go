package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/cart-service/models"
)

// ErrNotFound is returned when the customer has no cart.
var ErrNotFound = store.ErrNotFound

type CartRepository interface {
	Get(ctx context.Context, customerID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, customerID string) error
	List(ctx context.Context) ([]models.Cart, error)
}

// StoreCartRepository implements CartRepository on a store.Store.
type StoreCartRepository struct {
	store store.Store[models.Cart]
}

func NewMemoryCartRepository() *StoreCartRepository {
	return &StoreCartRepository{store: store.NewMemory(models.Cart.Clone)}
}

func (r *StoreCartRepository) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	c, err := r.store.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *StoreCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	return r.store.Put(ctx, cart.CustomerID, *cart)
}

// Delete is a no-op for a missing cart.
func (r *StoreCartRepository) Delete(ctx context.Context, customerID string) error {
	if err := r.store.Delete(ctx, customerID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (r *StoreCartRepository) List(ctx context.Context) ([]models.Cart, error) {
	return r.store.Query(ctx, func(models.Cart) bool { return true })
}

// RedisCartRepository stores each cart as JSON under cart:customer:<id>.
// Every save refreshes the key's TTL.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

const keyPrefix = "cart:customer:"

func (r *RedisCartRepository) getKey(customerID string) string {
	return keyPrefix + customerID
}

func (r *RedisCartRepository) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(data)
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(cart.CustomerID), data, r.ttl).Err()
}

func (r *RedisCartRepository) Delete(ctx context.Context, customerID string) error {
	return r.client.Del(ctx, r.getKey(customerID)).Err()
}

// List scans the cart keyspace. Keys that expire mid-scan are skipped.
func (r *RedisCartRepository) List(ctx context.Context) ([]models.Cart, error) {
	carts := []models.Cart{}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		cart, err := decodeCart(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Val(), err)
		}
		carts = append(carts, *cart)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return carts, nil
}

func decodeCart(data []byte) (*models.Cart, error) {
	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

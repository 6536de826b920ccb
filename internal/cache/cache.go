package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client — клиент Redis для кеширования витрины. Кеш необязателен:
// при пустом REDIS_URL все операции становятся no-op, сервис работает
// напрямую с базой.
var Client *redis.Client

// Init подключает Redis по URL. Пустой URL отключает кеш.
func Init(redisURL string) error {
	if redisURL == "" {
		log.Println("⚠️ REDIS_URL не задан, кеш отключен")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	Client = client
	log.Println("✅ Успешное подключение к Redis")
	return nil
}

// Close закрывает соединение с Redis
func Close() {
	if Client != nil {
		Client.Close()
	}
}

// GetJSON читает значение из кеша в dest. Возвращает false при промахе
// или отключенном кеше.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if Client == nil {
		return false
	}
	data, err := Client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Ошибка чтения из кеша %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		log.Printf("Ошибка разбора кеша %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON пишет значение в кеш с TTL. Ошибки кеша не фатальны.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if Client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Ошибка сериализации для кеша %s: %v", key, err)
		return
	}
	if err := Client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("Ошибка записи в кеш %s: %v", key, err)
	}
}

// Invalidate удаляет ключи из кеша
func Invalidate(ctx context.Context, keys ...string) {
	if Client == nil || len(keys) == 0 {
		return
	}
	if err := Client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Ошибка инвалидации кеша: %v", err)
	}
}

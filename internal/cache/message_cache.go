package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ksocial_backend/internal/models/chat"

	"github.com/redis/go-redis/v9"
)

const (
	messageKeyPrefix = "chat:messages"
	maxCachedPerConv = 50
	cacheTTL         = 12 * time.Hour
)

// MessageCache держит в Redis хвост переписки каждого диалога
// (sorted set по created_at). Обслуживает только первую страницу истории;
// любой before-запрос идет мимо кеша в БД.
//
// Кеш best-effort: любая его ошибка означает поход в БД, не отказ запроса.
type MessageCache struct {
	cli *redis.Client
}

// Connect подключается к Redis и проверяет соединение
func Connect(ctx context.Context, addr, password string, db int) (*MessageCache, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &MessageCache{cli: cli}, nil
}

func key(conversationID string) string {
	return fmt.Sprintf("%s:%s", messageKeyPrefix, conversationID)
}

// cachedMessage - формат записи в Redis. ReadBy хранится явно:
// у Message отметки прочтения не сериализуются в JSON.
type cachedMessage struct {
	chat.Message
	ReadBy []string `json:"read_by"`
}

func encodeMessage(msg *chat.Message) ([]byte, error) {
	return json.Marshal(cachedMessage{
		Message: *msg,
		ReadBy:  msg.ReadBy(),
	})
}

func decodeMessage(raw string) (chat.Message, error) {
	var cached cachedMessage
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return chat.Message{}, err
	}
	msg := cached.Message
	msg.Reads = make([]chat.MessageRead, 0, len(cached.ReadBy))
	for _, userID := range cached.ReadBy {
		msg.Reads = append(msg.Reads, chat.MessageRead{
			MessageID: msg.ID,
			UserID:    userID,
		})
	}
	return msg, nil
}

// RecentMessages возвращает новейшие limit сообщений диалога.
// ok=false - кеш холодный или в нем меньше limit записей.
func (c *MessageCache) RecentMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, bool, error) {
	k := key(conversationID)

	count, err := c.cli.ZCard(ctx, k).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zcard: %w", err)
	}
	if count < int64(limit) {
		return nil, false, nil
	}

	vals, err := c.cli.ZRevRange(ctx, k, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrevrange: %w", err)
	}

	out := make([]chat.Message, 0, len(vals))
	for _, raw := range vals {
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, false, fmt.Errorf("unmarshal cached message: %w", err)
		}
		out = append(out, msg)
	}
	return out, true, nil
}

// AddMessage дописывает сообщение в хвост и подрезает старые записи
func (c *MessageCache) AddMessage(ctx context.Context, msg *chat.Message) error {
	raw, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	k := key(msg.ConversationID)
	pipe := c.cli.TxPipeline()
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(msg.CreatedAt.UnixNano()),
		Member: string(raw),
	})
	// Оставляем только новейшие maxCachedPerConv
	pipe.ZRemRangeByRank(ctx, k, 0, int64(-maxCachedPerConv-1))
	pipe.Expire(ctx, k, cacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis add message: %w", err)
	}
	return nil
}

// Backfill кладет страницу из БД в кеш (после промаха на первой странице)
func (c *MessageCache) Backfill(ctx context.Context, conversationID string, messages []chat.Message) error {
	if len(messages) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(messages))
	for i := range messages {
		raw, err := encodeMessage(&messages[i])
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		members = append(members, redis.Z{
			Score:  float64(messages[i].CreatedAt.UnixNano()),
			Member: string(raw),
		})
	}

	k := key(conversationID)
	pipe := c.cli.TxPipeline()
	pipe.ZAdd(ctx, k, members...)
	pipe.ZRemRangeByRank(ctx, k, 0, int64(-maxCachedPerConv-1))
	pipe.Expire(ctx, k, cacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis backfill: %w", err)
	}
	return nil
}

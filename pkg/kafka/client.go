// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mental-care-go/internal/config"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 单个任务最多处理次数，超过后提交 offset 放弃。
const maxAttempts = 3

// TaskProcessor 解耦 Kafka 消费者与具体的入库流水线实现。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestTask) error
}

// Producer 投递入库任务。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

// ProduceIngestTask 发送一个入库任务到 Kafka。
func (p *Producer) ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(task.ObjectName), Value: taskBytes})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动消费者循环，ctx 取消时退出。每条消息处理成功或重试耗尽后才提交 offset。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}

		var task tasks.IngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			commit(ctx, r, m)
			continue
		}

		log.Infof("开始处理入库任务: object=%s", task.ObjectName)
		if err := processWithRetry(ctx, processor, rdb, task); err != nil {
			if ctx.Err() != nil {
				// 不提交，重启后从该消息继续
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Errorf("入库任务多次失败(>=%d)，提交 offset 放弃: object=%s, error: %v", maxAttempts, task.ObjectName, err)
		} else {
			log.Infof("入库任务处理成功: object=%s", task.ObjectName)
		}
		commit(ctx, r, m)
	}
}

// retryBackoff 是重试间隔的基数，第 n 次失败后等待 n 倍。
var retryBackoff = time.Second

// processWithRetry 在同一条消息上原地重试。Reader 不会重投未提交的消息，
// 重试只能在这里完成。失败次数同时记在 Redis，重启后重新消费时接着计数。
func processWithRetry(ctx context.Context, processor TaskProcessor, rdb *redis.Client, task tasks.IngestTask) error {
	failures := 0
	for {
		err := processor.Process(ctx, task)
		if err == nil {
			if rdb != nil {
				_ = rdb.Del(ctx, attemptsKey(task.ObjectName)).Err()
			}
			return nil
		}
		failures++
		attempts := recordFailure(ctx, rdb, task.ObjectName, failures)
		log.Errorf("处理入库任务失败(第 %d 次): object=%s, error: %v", attempts, task.ObjectName, err)
		if attempts >= maxAttempts {
			return fmt.Errorf("入库任务失败 %d 次: %w", attempts, err)
		}

		timer := time.NewTimer(time.Duration(attempts) * retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func attemptsKey(objectName string) string {
	return fmt.Sprintf("ingest:attempts:%s", objectName)
}

// recordFailure 返回该任务累计失败次数。没有 Redis 或 Redis 出错时只按本次消费的次数算。
func recordFailure(ctx context.Context, rdb *redis.Client, objectName string, local int) int {
	if rdb == nil {
		return local
	}
	key := attemptsKey(objectName)
	n, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return local
	}
	_ = rdb.Expire(ctx, key, 24*time.Hour).Err()
	if int(n) > local {
		return int(n)
	}
	return local
}

func commit(ctx context.Context, r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
)

// MessageQueue 消息队列接口
type MessageQueue interface {
	// PublishJSON 发布JSON格式消息
	PublishJSON(ctx context.Context, routingKey string, data interface{}) error

	// Close 关闭连接
	Close() error
}

// 确保RabbitMQ实现了MessageQueue接口
var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 文档事件的发布与消费
type RabbitMQ struct {
	conn         *amqp.Connection
	publishCh    *amqp.Channel
	publishMutex sync.Mutex
	cfg          *config.RabbitMQConfig
	log          zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端并声明交换机和队列拓扑
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器 (%s): %w", cfg.URL, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
	}

	mq := &RabbitMQ{
		conn:      conn,
		publishCh: ch,
		cfg:       cfg,
		log:       logger.WithComponent("rabbitmq"),
	}

	if err := mq.declareTopology(ch); err != nil {
		mq.Close()
		return nil, err
	}

	mq.log.Debug().Str("url", cfg.URL).Msg("RabbitMQ客户端初始化完成")
	return mq, nil
}

// declareTopology 声明交换机、队列和绑定
func (r *RabbitMQ) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(r.cfg.DocumentEventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("声明交换机 %s 失败: %w", r.cfg.DocumentEventsExchange, err)
	}

	bindings := []struct {
		queue      string
		routingKey string
	}{
		{r.cfg.RawDocumentQueue, r.cfg.UploadedRoutingKey},
		{r.cfg.ProfileReadyQueue, r.cfg.ProfileReadyRoutingKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("声明队列 %s 失败: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, r.cfg.DocumentEventsExchange, false, nil); err != nil {
			return fmt.Errorf("绑定队列 %s 失败: %w", b.queue, err)
		}
	}
	return nil
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	if r.publishCh != nil {
		r.publishCh.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// PublishJSON 发布持久化的JSON消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	messageID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("生成消息ID失败: %w", err)
	}

	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	err = r.publishCh.PublishWithContext(ctx, r.cfg.DocumentEventsExchange, routingKey, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", routingKey, err)
	}
	return nil
}

// PublishDocumentUploaded 发布文档上传事件
func (r *RabbitMQ) PublishDocumentUploaded(ctx context.Context, msg DocumentUploadedMessage) error {
	return r.PublishJSON(ctx, r.cfg.UploadedRoutingKey, msg)
}

// PublishProfileReady 发布档案就绪事件
func (r *RabbitMQ) PublishProfileReady(ctx context.Context, msg ProfileReadyMessage) error {
	return r.PublishJSON(ctx, r.cfg.ProfileReadyRoutingKey, msg)
}

// DocumentHandler 文档上传事件的处理函数
// 返回错误表示处理失败，消息重新入队一次后丢弃
type DocumentHandler func(ctx context.Context, msg DocumentUploadedMessage) error

// ConsumeRawDocuments 消费文档上传队列，阻塞直到上下文取消
func (r *RabbitMQ) ConsumeRawDocuments(ctx context.Context, handler DocumentHandler) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("创建消费通道失败: %w", err)
	}
	defer ch.Close()

	prefetch := r.cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("设置预取数量失败: %w", err)
	}

	deliveries, err := ch.Consume(r.cfg.RawDocumentQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("订阅队列 %s 失败: %w", r.cfg.RawDocumentQueue, err)
	}

	workers := r.cfg.ConsumerWorkers
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for delivery := range deliveries {
				r.handleDelivery(ctx, delivery, handler)
			}
		}()
	}

	<-ctx.Done()
	ch.Close()
	wg.Wait()
	return ctx.Err()
}

// handleDelivery 处理单条消息：成功ack，首次失败重新入队，再次失败丢弃
func (r *RabbitMQ) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler DocumentHandler) {
	var msg DocumentUploadedMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		r.log.Error().Err(err).Str("message_id", delivery.MessageId).Msg("消息格式错误，直接丢弃")
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !delivery.Redelivered
		r.log.Error().Err(err).
			Str("document_uuid", msg.DocumentUUID).
			Bool("requeue", requeue).
			Msg("处理文档消息失败")
		_ = delivery.Nack(false, requeue)
		return
	}

	_ = delivery.Ack(false)
}

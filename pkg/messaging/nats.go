package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"EntryRadar/pkg/logger"
	"EntryRadar/pkg/model"
)

// SubjectDailySignal 每日信号发布主题
const SubjectDailySignal = "signals.daily"

const signalStreamName = "SIGNALS_STREAM"

// SignalPublisher 信号发布器，把每日信号写入NATS JetStream，
// 供下游（通知、看板等）消费
type SignalPublisher struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewSignalPublisher 连接NATS并确保信号Stream存在
func NewSignalPublisher(natsURL, clientID string) (*SignalPublisher, error) {
	if clientID == "" {
		clientID = "entry-radar-" + uuid.New().String()[:8]
	}

	nc, err := nats.Connect(natsURL,
		nats.Name(clientID),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &SignalPublisher{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := p.setupStream(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// setupStream 创建或更新信号Stream
func (p *SignalPublisher) setupStream() error {
	_, err := p.jetStream.CreateOrUpdateStream(p.ctx, jetstream.StreamConfig{
		Name:        signalStreamName,
		Subjects:    []string{"signals.*"},
		Description: "每日入场信号流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     10000,
		MaxBytes:    50 * 1024 * 1024,
		MaxAge:      30 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("创建Stream %s 失败: %w", signalStreamName, err)
	}
	return nil
}

// PublishSignal 发布一条评估结果
func (p *SignalPublisher) PublishSignal(result *model.SignalResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化信号失败: %w", err)
	}

	if _, err := p.jetStream.Publish(p.ctx, SubjectDailySignal, payload); err != nil {
		return fmt.Errorf("发布信号到 %s 失败: %w", SubjectDailySignal, err)
	}

	logger.Info("信号已发布",
		zap.String("subject", SubjectDailySignal),
		zap.Float64("overall_score", result.OverallScore))
	return nil
}

// IsConnected 检查连接状态
func (p *SignalPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close 关闭连接
func (p *SignalPublisher) Close() {
	p.cancel()
	if p.conn != nil {
		p.conn.Close()
	}
}

package producer

import (
	"context"
	"encoding/json"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=order_event_producer.go -destination=mock/mock_order_event_producer.go -package=mock_producer

const HeaderEventType = "event_type"

// IOrderEventProducer 訂單事件發佈
// 依照 userID 做 balancer 分區, topic 由 producer 創建時設置
type IOrderEventProducer interface {
	PublishOrderCreated(ctx context.Context, order *model.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *model.Order, from model.OrderStatus) error
}

type OrderEventProducer struct {
	producer Producer
}

func NewOrderEventProducer(producer Producer) *OrderEventProducer {
	return &OrderEventProducer{producer: producer}
}

func (o *OrderEventProducer) PublishOrderCreated(ctx context.Context, order *model.Order) error {
	evt := event.NewOrderCreatedEvent(order)

	msg, err := o.convertToMessage(order.UserID, evt)
	if err != nil {
		return err
	}
	return o.producer.Produce(ctx, msg)
}

func (o *OrderEventProducer) PublishOrderStatusChanged(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	evt := event.NewOrderStatusChangedEvent(order, from)

	msg, err := o.convertToMessage(order.UserID, evt)
	if err != nil {
		return err
	}
	return o.producer.Produce(ctx, msg)
}

func (o *OrderEventProducer) convertToMessage(userID string, evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   HeaderEventType,
				Value: []byte(evt.Type()),
			},
		},
	}, nil
}

var _ IOrderEventProducer = (*OrderEventProducer)(nil)

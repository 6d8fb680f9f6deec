package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"pos-cart-service/internal/entity"
)

// KafkaInvoicePublisher hands finalized paid orders to the invoice pipeline
// by publishing them to the invoice topic.
type KafkaInvoicePublisher struct {
	writer *kafka.Writer
}

func NewKafkaInvoicePublisher(writer *kafka.Writer) *KafkaInvoicePublisher {
	return &KafkaInvoicePublisher{writer: writer}
}

func (p *KafkaInvoicePublisher) PublishInvoice(ctx context.Context, order *entity.Order) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("invoice-%d", order.OrderID)),
		Value: orderJSON,
	}

	return p.writer.WriteMessages(ctx, msg)
}

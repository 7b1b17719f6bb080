package producer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

var (
	ErrInvalidateParameter = errors.New("invalidate parameter")
	// ErrProducerClosed producer 已經 Close
	ErrProducerClosed = errors.New("producer is closed")
)

// ProducerError 代表 Kafka 寫入錯誤
type ProducerError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("kafka operation %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

func NewProducerError(operation, topic string, err error) error {
	return &ProducerError{
		Operation: operation,
		Topic:     topic,
		Err:       err,
	}
}

// IsTemporaryError 判斷是否為可重試的臨時錯誤
// true 表示可重試, false 表示不可重試
func IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}

	// 致命錯誤，不可重試
	if IsFatalError(err) {
		return false
	}

	// 外部 context 取消不重試
	if errors.Is(err, context.Canceled) {
		return false
	}

	// 檢查 Kafka 特定的可重試錯誤
	if errors.Is(err, kafka.LeaderNotAvailable) ||
		errors.Is(err, kafka.NotLeaderForPartition) ||
		errors.Is(err, kafka.RequestTimedOut) ||
		errors.Is(err, kafka.RebalanceInProgress) {
		return true
	}

	// kafka-go 自己標記的 temporary
	var tempErr interface{ Temporary() bool }
	if errors.As(err, &tempErr) && tempErr.Temporary() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no buffer space") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "retriable") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "connection reset by peer")
}

// IsFatalError 判斷是否為致命錯誤（不可重試）
func IsFatalError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, kafka.TopicAuthorizationFailed) ||
		errors.Is(err, kafka.GroupAuthorizationFailed) ||
		errors.Is(err, kafka.ClusterAuthorizationFailed) ||
		errors.Is(err, kafka.UnknownTopicOrPartition) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "authorization failed") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "invalid topic")
}

package kafka

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// Config holds the connection settings for one consumer group subscription.
type Config struct {
	ClusterConfig   *sarama.Config
	BrokerAddresses []string
	Topic           string
	GroupID         string
	MaxInFlight     int64
}

// Consumer wraps a watermill kafka subscriber bound to a single topic.
type Consumer struct {
	subscriber *wkafka.Subscriber
	topic      string
	logger     *zerolog.Logger
}

func NewConsumer(config *Config, logger *zerolog.Logger) (*Consumer, error) {
	if config.MaxInFlight > 0 {
		// caps how far sarama reads ahead of the handler
		config.ClusterConfig.ChannelBufferSize = int(config.MaxInFlight)
	}
	subscriber, err := wkafka.NewSubscriber(
		wkafka.SubscriberConfig{
			Brokers:               config.BrokerAddresses,
			Unmarshaler:           wkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: config.ClusterConfig,
			ConsumerGroup:         config.GroupID,
		},
		newWatermillLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{subscriber: subscriber, topic: config.Topic, logger: logger}, nil
}

// Start subscribes and hands the message channel to process in its own
// goroutine. Cancel ctx to stop consuming.
func (c *Consumer) Start(ctx context.Context, process func(messages <-chan *message.Message)) {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.logger.Fatal().Err(err).Msgf("error subscribing to topic %s", c.topic)
	}
	go process(messages)
}

type watermillLogger struct {
	log zerolog.Logger
}

func newWatermillLogger(logger *zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{log: logger.With().Str("component", "kafka").Logger()}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.log.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.log.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.log.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.log.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: w.log.With().Fields(map[string]any(fields)).Logger()}
}

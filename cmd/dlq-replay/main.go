package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	envKafkaBrokers    = "CHECKOUT_KAFKA_BROKERS"
)

// replayDeps — Kafka-клиенты, которые нужны replayer.
type replayDeps struct {
	offsets  offsetClient
	consumer partitionConsumerSource
	producer *kafka.Producer
}

func (d replayDeps) close() {
	if d.producer != nil {
		_ = d.producer.Close()
	}
	if d.consumer != nil {
		_ = d.consumer.Close()
	}
	if d.offsets != nil {
		_ = d.offsets.Close()
	}
}

type depsFactory func(cfg replayConfig) (replayDeps, error)

func newKafkaDeps(cfg replayConfig) (replayDeps, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.ClientID = cfg.clientID
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return replayDeps{}, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return replayDeps{}, fmt.Errorf("create kafka consumer: %w", err)
	}
	deps := replayDeps{offsets: client, consumer: saramaConsumerAdapter{consumer: consumer}}
	if !cfg.execute {
		return deps, nil
	}

	producer, err := kafka.NewProducer(cfg.brokers, cfg.clientID)
	if err != nil {
		deps.close()
		return replayDeps{}, err
	}
	deps.producer = producer
	return deps, nil
}

func newRootCmd(factory depsFactory) *cobra.Command {
	var (
		cfg        replayConfig
		brokersRaw string
	)

	cmd := &cobra.Command{
		Use:           "dlq-replay",
		Short:         "Replay outbox messages from the dead letter topic",
		Long:          "Reads the DLQ topic written by the outbox relay and republishes the original events. Dry-run by default.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			if strings.TrimSpace(brokersRaw) == "" {
				brokersRaw = os.Getenv(envKafkaBrokers)
			}
			cfg.brokers = parseBrokers(brokersRaw)
			if err := validateReplayConfig(cfg); err != nil {
				return err
			}

			logger := log.WithField("component", "dlq-replay")
			logger.WithFields(log.Fields{
				"source_topic": cfg.sourceTopic,
				"target_topic": cfg.targetTopic,
				"limit":        cfg.limit,
				"execute":      cfg.execute,
				"from_newest":  cfg.fromNewest,
			}).Info("starting dlq replay")

			deps, err := factory(cfg)
			if err != nil {
				return err
			}
			defer deps.close()

			r := &replayer{cfg: cfg, offsets: deps.offsets, consumer: deps.consumer, logger: logger}
			if deps.producer != nil {
				r.publisher = kafka.NewOutboxPublisher(deps.producer, cfg.targetTopic)
			}
			stats, err := r.run(c.Context())
			if err != nil {
				return fmt.Errorf("dlq replay failed: %w", err)
			}
			_, _ = fmt.Fprintf(c.OutOrStdout(), "processed=%d replayed=%d skipped=%d\n",
				stats.processed, stats.replayed, stats.skipped)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: "+envKafkaBrokers+")")
	flags.StringVar(&cfg.clientID, "client-id", "checkout-dlq-replay", "Kafka client id")
	flags.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	flags.StringVar(&cfg.targetTopic, "target-topic", "", "target topic (empty: route by aggregate type)")
	flags.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of messages to scan")
	flags.BoolVar(&cfg.execute, "execute", false, "republish messages; default is dry-run")
	flags.BoolVar(&cfg.fromNewest, "from-newest", false, "scan the latest messages first (bounded by limit)")
	flags.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	return cmd
}

func validateReplayConfig(cfg replayConfig) error {
	switch {
	case len(cfg.brokers) == 0:
		return errors.New("kafka brokers are required (--brokers or " + envKafkaBrokers + ")")
	case strings.TrimSpace(cfg.sourceTopic) == "":
		return errors.New("source-topic is required")
	case cfg.limit <= 0:
		return errors.New("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return errors.New("idle-timeout must be > 0")
	}
	return nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, chunk := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	if err := newRootCmd(newKafkaDeps).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

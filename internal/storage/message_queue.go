package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	tekscope "github.com/luhtfiimanal/go-tekscope"
	"github.com/luhtfiimanal/go-tekscope/internal/config"
)

// WaveformRecord is the published form of one capture.
type WaveformRecord struct {
	Source         string                     `json:"source"`
	Timestamp      time.Time                  `json:"timestamp"`
	ElapsedSeconds float64                    `json:"elapsed_seconds"`
	Preamble       *tekscope.WaveformPreamble `json:"preamble"`
	Points         []tekscope.Point           `json:"points"`
}

// NewRecord materializes w's points.
func NewRecord(source string, w *tekscope.Waveform, at time.Time) *WaveformRecord {
	return &WaveformRecord{
		Source:         source,
		Timestamp:      at,
		ElapsedSeconds: w.Elapsed.Seconds(),
		Preamble:       w.Preamble,
		Points:         slices.Collect(w.Points),
	}
}

// MessageQueue publishes captures on a redis channel and keeps the most
// recent ones per source in a list.
type MessageQueue struct {
	client  *redis.Client
	channel string
	keep    int
	log     logrus.FieldLogger
}

func NewMessageQueue(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (*MessageQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.WithField("addr", cfg.Addr).Info("redis connected")

	keep := cfg.Keep
	if keep <= 0 {
		keep = 100
	}
	return &MessageQueue{
		client:  client,
		channel: cfg.Channel,
		keep:    keep,
		log:     log,
	}, nil
}

// ListKey is the backup list holding recent captures of source.
func ListKey(source string) string {
	return fmt.Sprintf("tekscope:%s:waveforms", source)
}

// Publish sends rec to the channel and pushes it onto the source's list.
func (mq *MessageQueue) Publish(ctx context.Context, rec *WaveformRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal waveform: %w", err)
	}

	if err := mq.client.Publish(ctx, mq.channel, data).Err(); err != nil {
		return fmt.Errorf("publish waveform: %w", err)
	}

	key := ListKey(rec.Source)
	pipe := mq.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(mq.keep-1))
	if _, err := pipe.Exec(ctx); err != nil {
		mq.log.Warnf("save waveform to %s: %v", key, err)
	}

	return nil
}

// Recent returns up to n of the newest stored captures of source, newest first.
func (mq *MessageQueue) Recent(ctx context.Context, source string, n int) ([]*WaveformRecord, error) {
	items, err := mq.client.LRange(ctx, ListKey(source), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ListKey(source), err)
	}
	out := make([]*WaveformRecord, 0, len(items))
	for _, item := range items {
		var rec WaveformRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode stored waveform: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (mq *MessageQueue) Close() error {
	return mq.client.Close()
}

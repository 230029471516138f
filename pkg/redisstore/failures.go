package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// failureCeiling is where the consecutive failure counter saturates.
	// It sits above the highest escalation threshold so severity matching
	// still sees every count it cares about.
	failureCeiling = 12

	// maxFailedPings bounds the per-monitor failed ping log.
	maxFailedPings = 50
)

// FailedPing is one entry of a monitor's bounded failure log.
type FailedPing struct {
	Status         string    `json:"status"`
	ResponseTimeMs *int64    `json:"responseTimeMs"`
	HTTPStatusCode *int      `json:"httpStatusCode"`
	Error          *string   `json:"error"`
	CheckedAt      time.Time `json:"checkedAt"`
}

func failureCountKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("monitor:failures:%v", monitorID)
}

func firstDownKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("monitor:first_down:%v", monitorID)
}

func failedPingsKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("monitor:failed_pings:%v", monitorID)
}

// IncrementFailure atomically bumps the monitor's consecutive failure
// counter and returns the new value. The first failure of an episode also
// records the first-down timestamp. The counter never exceeds the ceiling.
func (c *Client) IncrementFailure(ctx context.Context, monitorID uuid.UUID) (int64, error) {
	keys := []string{failureCountKey(monitorID), firstDownKey(monitorID)}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var count int64
	err := retry(ctx, 3, func() error {
		res, err := incrementFailureCmd.Run(ctx, c.rdb, keys, failureCeiling, now).Int64()
		if err != nil {
			return err
		}
		count = res
		return nil
	})

	return count, err
}

// FailureCount reads the current consecutive failure counter. A monitor
// with no failure episode reports zero.
func (c *Client) FailureCount(ctx context.Context, monitorID uuid.UUID) (int64, error) {
	val, err := c.rdb.Get(ctx, failureCountKey(monitorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// FirstDownAt reports when the current failure episode started. The zero
// time means no episode is in progress.
func (c *Client) FirstDownAt(ctx context.Context, monitorID uuid.UUID) (time.Time, error) {
	val, err := c.rdb.Get(ctx, firstDownKey(monitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse first down timestamp: %w", err)
	}
	return ts, nil
}

// AppendFailedPing records one failed probe in the monitor's failure log,
// keeping only the most recent entries.
func (c *Client) AppendFailedPing(ctx context.Context, monitorID uuid.UUID, ping FailedPing) error {
	raw, err := json.Marshal(ping)
	if err != nil {
		return fmt.Errorf("marshal failed ping: %w", err)
	}

	keys := []string{failedPingsKey(monitorID)}
	trimStart := strconv.Itoa(-maxFailedPings)

	return retry(ctx, 3, func() error {
		return appendFailedPingCmd.Run(ctx, c.rdb, keys, raw, trimStart).Err()
	})
}

// FailedPings returns the monitor's failure log, oldest first.
func (c *Client) FailedPings(ctx context.Context, monitorID uuid.UUID) ([]FailedPing, error) {
	raw, err := c.rdb.LRange(ctx, failedPingsKey(monitorID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pings := make([]FailedPing, 0, len(raw))
	for _, entry := range raw {
		var ping FailedPing
		if err := json.Unmarshal([]byte(entry), &ping); err != nil {
			return nil, fmt.Errorf("unmarshal failed ping: %w", err)
		}
		pings = append(pings, ping)
	}
	return pings, nil
}

// ResetFailures clears the counter, the first-down timestamp and the
// failure log as a single unit. Safe to call when no episode exists.
func (c *Client) ResetFailures(ctx context.Context, monitorID uuid.UUID) error {
	return retry(ctx, 3, func() error {
		return c.rdb.Del(ctx,
			failureCountKey(monitorID),
			firstDownKey(monitorID),
			failedPingsKey(monitorID),
		).Err()
	})
}

// ClearFailedPings drops only the failure log, leaving the counter and
// first-down timestamp of the ongoing episode intact.
func (c *Client) ClearFailedPings(ctx context.Context, monitorID uuid.UUID) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, failedPingsKey(monitorID)).Err()
	})
}

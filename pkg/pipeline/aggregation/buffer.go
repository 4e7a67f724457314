// Package aggregation implements aggregation-node batching: rows
// accumulate in a per-node buffer until a trigger (count, every_n, time,
// or custom) fires, at which point the buffer is handed to the node's
// BatchTransform and the result is either folded back into one row
// (output_mode "transform") or expanded into one token per output row
// (output_mode "expand"). Time triggers are driven by robfig/cron, the
// teacher's own scheduling library (used there for automation jobs and
// price-feed polling).
package aggregation

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

const (
	OutputTransform = "transform"
	OutputExpand    = "expand"
)

// Item is one buffered row awaiting a flush, alongside the token that
// carried it in.
type Item struct {
	Token domain.Token
	Row   plugin.PipelineRow
}

// Buffer accumulates items for one aggregation node and decides, per
// arrival, whether the configured trigger has fired.
type Buffer struct {
	nodeID  string
	trigger graph.TriggerSpec
	items   []Item
	everyN  int // running count for "every_n"

	cronSchedule cron.Schedule
	nextCronFire time.Time
	interval     time.Duration
	lastFlush    time.Time
}

// New creates a Buffer for one aggregation node's trigger spec.
func New(nodeID string, trigger graph.TriggerSpec, now time.Time) (*Buffer, error) {
	b := &Buffer{nodeID: nodeID, trigger: trigger, lastFlush: now}

	switch trigger.Kind {
	case "count", "every_n", "custom":
		// no wall-clock state needed
	case "time":
		if trigger.CronSpec != "" {
			schedule, err := cron.ParseStandard(trigger.CronSpec)
			if err != nil {
				return nil, fmt.Errorf("aggregation %s: parse cron spec %q: %w", nodeID, trigger.CronSpec, err)
			}
			b.cronSchedule = schedule
			b.nextCronFire = schedule.Next(now)
		} else if trigger.Interval != "" {
			d, err := time.ParseDuration(trigger.Interval)
			if err != nil {
				return nil, fmt.Errorf("aggregation %s: parse interval %q: %w", nodeID, trigger.Interval, err)
			}
			b.interval = d
		} else {
			return nil, fmt.Errorf("aggregation %s: time trigger requires cron_spec or interval", nodeID)
		}
	default:
		return nil, fmt.Errorf("aggregation %s: unknown trigger kind %q", nodeID, trigger.Kind)
	}
	return b, nil
}

// Add appends one item to the buffer and reports whether the trigger now
// fires (count or every_n triggers only — time and custom triggers are
// evaluated separately via ShouldFlush, since they fire independent of
// arrivals).
func (b *Buffer) Add(item Item) (fire bool) {
	b.items = append(b.items, item)

	switch b.trigger.Kind {
	case "count":
		return len(b.items) >= b.trigger.Count
	case "every_n":
		b.everyN++
		if b.trigger.Every <= 0 {
			return false
		}
		if b.everyN >= b.trigger.Every {
			b.everyN = 0
			return true
		}
		return false
	default:
		return false
	}
}

// ShouldFlush reports whether a time trigger has reached its next fire
// point. The caller (the aggregation executor, polled by the
// orchestrator's periodic tick) is responsible for calling this and then
// Flush.
func (b *Buffer) ShouldFlush(now time.Time) bool {
	if b.trigger.Kind != "time" || len(b.items) == 0 {
		return false
	}
	if b.cronSchedule != nil {
		return !now.Before(b.nextCronFire)
	}
	return now.Sub(b.lastFlush) >= b.interval
}

// Flush drains and returns every buffered item, resetting the buffer's
// wall-clock bookkeeping.
func (b *Buffer) Flush(now time.Time) []Item {
	items := b.items
	b.items = nil
	b.lastFlush = now
	if b.cronSchedule != nil {
		b.nextCronFire = b.cronSchedule.Next(now)
	}
	return items
}

// Pending reports the number of buffered, unflushed items.
func (b *Buffer) Pending() int { return len(b.items) }

// FlushOnEnd reports whether the source's exhaustion should force a
// final flush of a partial batch.
func (b *Buffer) FlushOnEnd() bool { return b.trigger.FlushOnEnd }

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"goes-decal-sync/utils"
)

// OperationState is the state of a polled platform operation
type OperationState int

const (
	OperationPending OperationState = iota
	OperationResolved
	OperationFailed
	OperationTimedOut
)

func (s OperationState) String() string {
	switch s {
	case OperationPending:
		return "PENDING"
	case OperationResolved:
		return "RESOLVED"
	case OperationFailed:
		return "FAILED"
	case OperationTimedOut:
		return "TIMED_OUT"
	default:
		return fmt.Sprintf("OperationState(%d)", int(s))
	}
}

// doneStatuses are the status values the platform uses for a finished operation
var doneStatuses = map[string]bool{
	"done":      true,
	"complete":  true,
	"completed": true,
	"success":   true,
	"succeeded": true,
	"true":      true,
}

// pollOutcome is the result of feeding one poll response to the state machine
type pollOutcome struct {
	State   OperationState
	AssetID string
	Err     error
}

// operationPoller drives one operation from PENDING to RESOLVED, FAILED or TIMED_OUT
type operationPoller struct {
	operationID string
	interval    time.Duration
	timeout     time.Duration
	fetch       func(ctx context.Context) ([]byte, error)
	validate    func(ctx context.Context, assetID string) bool
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// evaluate applies one poll response. The asset id is checked before the status:
// a validated id resolves the operation even while the status still reads pending.
func (p *operationPoller) evaluate(ctx context.Context, body []byte) pollOutcome {
	obj := utils.DecodeObject(body)

	if id, ok := utils.ExtractAssetIDFromObject(obj); ok {
		if p.validate(ctx, id) {
			return pollOutcome{State: OperationResolved, AssetID: id}
		}
		log.Printf("⏳ Operation %s exposed asset id %s but it is not queryable yet", p.operationID, id)
	}

	if reason, ok := operationError(obj); ok {
		return pollOutcome{State: OperationFailed, Err: &OperationError{OperationID: p.operationID, Reason: reason}}
	}

	if operationDone(obj) {
		return pollOutcome{State: OperationFailed, Err: &OperationError{OperationID: p.operationID, Reason: "completed without asset id"}}
	}

	return pollOutcome{State: OperationPending}
}

// run polls until the operation leaves PENDING or the timeout elapses.
// Every fetch and validation runs under the same deadline, so a slow call cannot outlive the timeout.
func (p *operationPoller) run(ctx context.Context) (string, error) {
	log.Printf("⏳ Polling operation %s (every %s, timeout %s)", p.operationID, p.interval, p.timeout)

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	for poll := 1; ; poll++ {
		if elapsed := p.now().Sub(start); elapsed > p.timeout || pollCtx.Err() != nil {
			return "", p.stopped(ctx, pollCtx.Err())
		}

		body, err := p.fetch(pollCtx)
		switch {
		case err != nil && pollCtx.Err() != nil:
			return "", p.stopped(ctx, err)
		case err != nil:
			log.Printf("⚠️  Poll %d of operation %s failed: %v", poll, p.operationID, err)
		default:
			outcome := p.evaluate(pollCtx, body)
			if pollCtx.Err() != nil {
				return "", p.stopped(ctx, pollCtx.Err())
			}
			switch outcome.State {
			case OperationResolved:
				log.Printf("✅ Operation %s: %s with asset id %s", p.operationID, outcome.State, outcome.AssetID)
				return outcome.AssetID, nil
			case OperationFailed:
				log.Printf("❌ Operation %s: %s: %v", p.operationID, outcome.State, outcome.Err)
				return "", outcome.Err
			}
			log.Printf("⏳ Operation %s still %s (poll %d)", p.operationID, outcome.State, poll)
		}

		if err := p.sleep(pollCtx, p.interval); err != nil {
			return "", p.stopped(ctx, err)
		}
	}
}

// awaitAsset waits for an already known asset id to become queryable, under the same deadline as run
func (p *operationPoller) awaitAsset(ctx context.Context, assetID string) (string, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	for {
		if p.validate(pollCtx, assetID) && pollCtx.Err() == nil {
			return assetID, nil
		}
		if p.now().Sub(start) > p.timeout || pollCtx.Err() != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("waiting for asset %s: %w", assetID, ctx.Err())
			}
			return "", fmt.Errorf("asset %s never became queryable: %w after %s", assetID, ErrOperationTimeout, p.timeout)
		}
		if err := p.sleep(pollCtx, p.interval); err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("waiting for asset %s: %w", assetID, err)
			}
			return "", fmt.Errorf("asset %s never became queryable: %w after %s", assetID, ErrOperationTimeout, p.timeout)
		}
	}
}

// stopped maps an interrupted poll to TIMED_OUT unless the caller's own context ended it
func (p *operationPoller) stopped(ctx context.Context, cause error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("polling operation %s: %w", p.operationID, cause)
	}
	log.Printf("❌ Operation %s: %s after %s", p.operationID, OperationTimedOut, p.timeout)
	return fmt.Errorf("operation %s: %w after %s", p.operationID, ErrOperationTimeout, p.timeout)
}

func operationDone(obj map[string]any) bool {
	for key, value := range obj {
		switch strings.ToLower(key) {
		case "done", "status", "state":
		default:
			continue
		}
		switch v := value.(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if doneStatuses[strings.ToLower(strings.TrimSpace(v))] {
				return true
			}
		}
	}
	return false
}

func operationError(obj map[string]any) (string, bool) {
	value, ok := obj["error"]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case bool:
		return "error", v
	case map[string]any:
		if len(v) == 0 {
			return "", false
		}
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg, true
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value), true
	}
	return string(raw), true
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mindfullens/internal/model"
)

// WorkflowCache handles Redis operations for per-session workflow state
type WorkflowCache interface {
	Set(ctx context.Context, wf *model.Workflow) error
	Get(ctx context.Context, sessionID string) (*model.Workflow, error)
	Delete(ctx context.Context, sessionID string) error
}

type workflowCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWorkflowCache creates a new workflow cache. Every write refreshes the TTL.
func NewWorkflowCache(client *redis.Client, ttl time.Duration) WorkflowCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &workflowCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *workflowCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (c *workflowCache) Set(ctx context.Context, wf *model.Workflow) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(wf.SessionID), data, c.ttl).Err()
}

// Get returns nil, nil when the value is missing, empty or not valid JSON
func (c *workflowCache) Get(ctx context.Context, sessionID string) (*model.Workflow, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}

	var wf model.Workflow
	if err := json.Unmarshal([]byte(data), &wf); err != nil {
		return nil, nil
	}
	if wf.SessionID != sessionID {
		return nil, nil
	}
	return &wf, nil
}

func (c *workflowCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

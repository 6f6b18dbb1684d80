package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Trend clusters are produced by the external ingestion pipeline and
// published to Redis; this portal only reads them.
const (
	velocityKey      = "trend:velocity" // zset: member = cluster id, score = velocity
	clusterKeyPrefix = "trend:cluster:" // JSON blob per cluster

	// hotVelocityPercentile is the cut above which a cluster counts as
	// high-velocity for triage surfaces.
	hotVelocityPercentile = 0.8
)

var ErrNotFound = errors.New("trend cluster not found")

// Cluster is one externally-detected trend.
type Cluster struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Summary   string    `json:"summary,omitempty"`
	Velocity  float64   `json:"velocity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repo struct {
	client *redis.Client
}

func NewRepo(client *redis.Client) *Repo {
	return &Repo{client: client}
}

func (r *Repo) Get(ctx context.Context, id string) (*Cluster, error) {
	data, err := r.client.Get(ctx, clusterKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trend cluster: %w", err)
	}

	var c Cluster
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal trend cluster %s: %w", id, err)
	}
	c.ID = id
	return &c, nil
}

// ListAboveVelocityPercentile returns the clusters whose velocity sits
// at or above the given percentile of the current population, highest
// first. A cluster whose blob is missing or unreadable is skipped.
func (r *Repo) ListAboveVelocityPercentile(ctx context.Context, percentile float64) ([]Cluster, error) {
	members, err := r.client.ZRevRangeWithScores(ctx, velocityKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read velocity index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(members))
	for i, m := range members {
		scores[i] = m.Score
	}
	threshold := percentileOf(scores, percentile)

	out := make([]Cluster, 0, len(members))
	for _, m := range members {
		if m.Score < threshold {
			break // members are sorted by score descending
		}
		id, _ := m.Member.(string)
		c, err := r.Get(ctx, id)
		if err != nil {
			log.Printf("[trends] skip cluster %s: %v", id, err)
			continue
		}
		c.Velocity = m.Score
		out = append(out, *c)
	}
	return out, nil
}

// percentileOf returns the value at the pth percentile (0..1) using
// nearest-rank on the sorted population.
func percentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := int(p * float64(len(sorted)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

package iocache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// currentCacheVersion defines the version of the cached payload encoding.
const currentCacheVersion = 1

// CachedSource wraps a DataSource with an in-memory LRU in front of a durable CacheStore.
// Errors are never cached. Cached values are shared and must not be mutated.
type CachedSource struct {
	src       contract.DataSource
	store     contract.CacheStore // may be nil
	mem       *lru.Cache
	namespace string
	ttl       time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
}

var _ contract.DataSource = &CachedSource{} // Compile-time check

// NewCachedSource creates a caching decorator. namespace separates entries of
// different platforms sharing one store, such as two GitLab instances.
func NewCachedSource(src contract.DataSource, store contract.CacheStore, namespace string, lruSize int, ttl time.Duration) (*CachedSource, error) {
	if lruSize <= 0 {
		return nil, contract.NewValidationError("lru-size", "must be greater than 0 (received %d)", lruSize)
	}
	mem, err := lru.New(lruSize)
	if err != nil {
		return nil, err
	}
	return &CachedSource{
		src:       src,
		store:     store,
		mem:       mem,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
		log:       contract.Log,
	}, nil
}

func (cs *CachedSource) key(parts ...any) string {
	raw := fmt.Sprint(append([]any{cs.namespace}, parts...)...)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// checkCacheHit attempts to retrieve and validate a durable entry.
func (cs *CachedSource) checkCacheHit(key string, out any) bool {
	if cs.store == nil {
		return false
	}
	data, version, ts, err := cs.store.Get(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			cs.log.WithError(err).Debug("cache read failed")
		}
		return false
	}
	if version != currentCacheVersion {
		return false
	}
	if cs.ttl > 0 && cs.now().Sub(time.Unix(ts, 0)) > cs.ttl {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (cs *CachedSource) storeEntry(key string, v any) {
	if cs.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = cs.store.Set(key, data, currentCacheVersion, cs.now().Unix())
	}
	if err != nil {
		cs.log.WithError(err).Warn("cache write failed")
	}
}

// cached serves key from memory, then the durable store, then fetch.
func cached[T any](ctx context.Context, cs *CachedSource, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := cs.mem.Get(key); ok {
		return v.(T), nil
	}
	var out T
	if cs.checkCacheHit(key, &out) {
		cs.mem.Add(key, out)
		return out, nil
	}
	out, err := fetch(ctx)
	if err != nil {
		return out, err
	}
	cs.mem.Add(key, out)
	cs.storeEntry(key, out)
	return out, nil
}

// GetUserByID implements the DataSource interface.
func (cs *CachedSource) GetUserByID(ctx context.Context, userID int64) (*schema.User, error) {
	return cached(ctx, cs, cs.key("user:", userID), func(ctx context.Context) (*schema.User, error) {
		return cs.src.GetUserByID(ctx, userID)
	})
}

// GetUserContributedProjects implements the DataSource interface.
func (cs *CachedSource) GetUserContributedProjects(ctx context.Context, userID int64) ([]schema.Project, error) {
	return cached(ctx, cs, cs.key("projects:", userID), func(ctx context.Context) ([]schema.Project, error) {
		return cs.src.GetUserContributedProjects(ctx, userID)
	})
}

// GetCommits implements the DataSource interface.
func (cs *CachedSource) GetCommits(ctx context.Context, projectID int64, since time.Time) ([]schema.Commit, error) {
	return cached(ctx, cs, cs.key("commits:", projectID, ":", since.Unix()), func(ctx context.Context) ([]schema.Commit, error) {
		return cs.src.GetCommits(ctx, projectID, since)
	})
}

// GetMergeRequests implements the DataSource interface.
func (cs *CachedSource) GetMergeRequests(ctx context.Context, projectID int64, since time.Time) ([]schema.MergeRequest, error) {
	return cached(ctx, cs, cs.key("mrs:", projectID, ":", since.Unix()), func(ctx context.Context) ([]schema.MergeRequest, error) {
		return cs.src.GetMergeRequests(ctx, projectID, since)
	})
}

// GetPipelines implements the DataSource interface.
func (cs *CachedSource) GetPipelines(ctx context.Context, projectID int64, since time.Time) ([]schema.Pipeline, error) {
	return cached(ctx, cs, cs.key("pipelines:", projectID, ":", since.Unix()), func(ctx context.Context) ([]schema.Pipeline, error) {
		return cs.src.GetPipelines(ctx, projectID, since)
	})
}

// GetMergeRequestCommits implements the DataSource interface.
func (cs *CachedSource) GetMergeRequestCommits(ctx context.Context, projectID, iid int64) ([]schema.Commit, error) {
	return cached(ctx, cs, cs.key("mr-commits:", projectID, ":", iid), func(ctx context.Context) ([]schema.Commit, error) {
		return cs.src.GetMergeRequestCommits(ctx, projectID, iid)
	})
}

// GetMergeRequestNotes implements the DataSource interface.
func (cs *CachedSource) GetMergeRequestNotes(ctx context.Context, projectID, iid int64) ([]schema.Note, error) {
	return cached(ctx, cs, cs.key("mr-notes:", projectID, ":", iid), func(ctx context.Context) ([]schema.Note, error) {
		return cs.src.GetMergeRequestNotes(ctx, projectID, iid)
	})
}

// GetMergeRequestDiscussions implements the DataSource interface.
func (cs *CachedSource) GetMergeRequestDiscussions(ctx context.Context, projectID, iid int64) ([]schema.Discussion, error) {
	return cached(ctx, cs, cs.key("mr-discussions:", projectID, ":", iid), func(ctx context.Context) ([]schema.Discussion, error) {
		return cs.src.GetMergeRequestDiscussions(ctx, projectID, iid)
	})
}

// GetMergeRequestApprovals implements the DataSource interface.
func (cs *CachedSource) GetMergeRequestApprovals(ctx context.Context, projectID, iid int64) (*schema.Approval, error) {
	return cached(ctx, cs, cs.key("mr-approvals:", projectID, ":", iid), func(ctx context.Context) (*schema.Approval, error) {
		return cs.src.GetMergeRequestApprovals(ctx, projectID, iid)
	})
}

// GetPipelineJobs implements the DataSource interface.
func (cs *CachedSource) GetPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]schema.Job, error) {
	return cached(ctx, cs, cs.key("jobs:", projectID, ":", pipelineID), func(ctx context.Context) ([]schema.Job, error) {
		return cs.src.GetPipelineJobs(ctx, projectID, pipelineID)
	})
}

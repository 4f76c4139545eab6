package cmd

import (
	"fmt"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/fixture"
	"github.com/huangsam/devflow/internal/gitlab"
	"github.com/huangsam/devflow/internal/iocache"
	"github.com/huangsam/devflow/schema"
)

// newSource builds the configured data source, fronted by the sub-resource
// cache unless caching is disabled.
func newSource(c *contract.Config) (contract.DataSource, error) {
	var (
		src       contract.DataSource
		namespace string
	)
	switch c.Source {
	case schema.FixtureSource:
		fx, err := fixture.Load(c.FixturePath)
		if err != nil {
			return nil, err
		}
		src, namespace = fx, "fixture:"+c.FixturePath
	case schema.GitLabSource:
		client, err := gitlab.New(c.GitLabURL, c.GitLabToken, c.GitLabAuth, gitlab.WithLogger(contract.Log))
		if err != nil {
			return nil, err
		}
		src, namespace = client, "gitlab:"+c.GitLabURL
	default:
		return nil, fmt.Errorf("unsupported source: %s", c.Source)
	}

	if c.CacheBackend == schema.NoneBackend {
		return src, nil
	}
	return iocache.NewCachedSource(src, storeManager.GetCacheStore(), namespace, c.LRUSize, c.CacheTTL)
}

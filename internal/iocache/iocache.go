// Package iocache persists I/O results: the sub-resource cache that fronts
// the data source and the history of computed reports.
package iocache

import (
	"sync"

	"github.com/huangsam/devflow/internal/contract"
)

// StoreManager manages the cache and history stores.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	cache        contract.CacheStore
	history      contract.ReportStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetCacheStore returns the sub-resource CacheStore.
func (mgr *StoreManager) GetCacheStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// GetReportStore returns the report history store.
func (mgr *StoreManager) GetReportStore() contract.ReportStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

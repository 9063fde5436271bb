// Package iocache persists measurement results and run history in a SQL database.
package iocache

import (
	"sync"

	"github.com/huangsam/repostudy/internal/contract"
)

// ResultStoreManager owns the results store shared by every command.
type ResultStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	results      contract.ResultStore
}

var _ contract.StoreManager = &ResultStoreManager{} // Compile-time check

// GetResultStore returns the results store, or nil before InitStores.
func (mgr *ResultStoreManager) GetResultStore() contract.ResultStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.results
}

package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/thebooksapp/thebooks-server/internal/config"
	"github.com/thebooksapp/thebooks-server/internal/logger"
	"github.com/thebooksapp/thebooks-server/internal/search"
	"github.com/thebooksapp/thebooks-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchSyncer provides the store-to-index synchronizer.
func ProvideSearchSyncer(i do.Injector) (*service.SearchSyncer, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	syncer := service.NewSearchSyncer(indexHandle.SearchIndex, log.Logger)

	// Wire to store for automatic indexing on writes.
	storeHandle.SetSearchIndexer(syncer)

	return syncer, nil
}

// TriggerSearchRebuildIfNeeded backfills an empty index from the store.
// Should be called after all services are wired.
func TriggerSearchRebuildIfNeeded(i do.Injector) {
	syncer := do.MustInvoke[*service.SearchSyncer](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	go func() {
		if err := syncer.RebuildFromStore(context.Background(), storeHandle.Store); err != nil {
			log.Error("Search index backfill failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		if count > 0 {
			log.Info("Search index backfill completed", "documents", count)
		}
	}()
}

package calendar

import (
	"errors"
	"io/fs"
	"time"

	"go.uber.org/zap"
)

// CacheManager resolves a year to a document: memory, then disk, then remote.
// It owns the single in-memory slot and the files it writes.
// Not safe for concurrent use.
type CacheManager struct {
	enabled bool
	ttl     time.Duration
	store   *FileStore
	fetcher Fetcher
	now     func() time.Time
	logger  *zap.Logger

	mem *Document
}

// NewCacheManager creates a new CacheManager. store may be nil when caching is disabled.
func NewCacheManager(enabled bool, ttl time.Duration, store *FileStore, fetcher Fetcher, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		enabled: enabled && store != nil,
		ttl:     ttl,
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
		logger:  logger,
	}
}

// ResolveYear returns the document for year, downloading it at most once
// when neither the memory slot nor the disk copy is fresh.
func (cm *CacheManager) ResolveYear(year int) (*Document, error) {
	if !cm.enabled {
		return cm.download(year)
	}

	if cm.mem != nil && cm.mem.Year == year && IsFresh(cm.mem.AcquiredAt, cm.ttl, cm.now()) {
		cm.logger.Debug("Using cached calendar from memory", zap.Int("year", year))
		return cm.mem, nil
	}

	if doc := cm.loadFresh(year); doc != nil {
		cm.mem = doc
		return doc, nil
	}

	return cm.acquire(year)
}

// PrimeYear warms the cache for year. Unless forced, a fresh disk copy is
// used without touching the network.
func (cm *CacheManager) PrimeYear(year int, forced bool) (*Document, error) {
	if !cm.enabled {
		if !forced {
			return nil, nil
		}
		return cm.download(year)
	}

	if !forced {
		if doc := cm.loadFresh(year); doc != nil {
			cm.mem = doc
			return doc, nil
		}
	}

	return cm.acquire(year)
}

// Invalidate drops the in-memory document; disk files are left untouched
func (cm *CacheManager) Invalidate() {
	cm.mem = nil
}

// loadFresh returns the disk document for year if it parses and is fresh.
// Any problem with the file counts as a miss.
func (cm *CacheManager) loadFresh(year int) *Document {
	path := cm.store.Path(year)

	doc, err := cm.store.Load(year)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			cm.logger.Warn("Ignoring unreadable calendar cache file",
				zap.String("file", path),
				zap.Error(err))
		}
		return nil
	}

	if !IsFresh(doc.AcquiredAt, cm.ttl, cm.now()) {
		cm.logger.Debug("Calendar cache file is expired",
			zap.String("file", path),
			zap.Time("acquired_at", doc.AcquiredAt))
		return nil
	}

	cm.logger.Debug("Using cached calendar from disk",
		zap.Int("year", year),
		zap.String("file", path))

	return doc
}

// acquire downloads, persists and promotes the document for year
func (cm *CacheManager) acquire(year int) (*Document, error) {
	doc, err := cm.download(year)
	if err != nil {
		return nil, err
	}

	if err := cm.store.Save(doc); err != nil {
		cm.logger.Warn("Failed to persist calendar cache file",
			zap.String("file", cm.store.Path(year)),
			zap.Error(err))
	} else {
		cm.logger.Info("Calendar cached",
			zap.Int("year", year),
			zap.String("file", cm.store.Path(year)))
	}

	cm.mem = doc
	return doc, nil
}

func (cm *CacheManager) download(year int) (*Document, error) {
	raw, err := cm.fetcher.Fetch(year)
	if err != nil {
		var ce *Error
		if !errors.As(err, &ce) {
			err = remoteUnavailable(year, "%w", err)
		}
		return nil, err
	}

	doc, err := Normalize(raw, year, cm.now())
	if err != nil {
		cm.logger.Warn("Downloaded calendar data is corrupted",
			zap.Int("year", year),
			zap.Error(err))
		return nil, err
	}

	return doc, nil
}

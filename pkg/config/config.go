package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager with the storage and
// view sections and loads configPath into it. An empty path uses DefaultPath.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)
	if err := manager.RegisterSection(NewStorageSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewViewSection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetStorage returns the storage section from global config.
// Returns nil if config is not initialized.
func GetStorage() *StorageSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDStorage)
	if !ok {
		return nil
	}
	storage, _ := section.(*StorageSection)
	return storage
}

// GetView returns the view section from global config.
// Returns nil if config is not initialized.
func GetView() *ViewSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDView)
	if !ok {
		return nil
	}
	v, _ := section.(*ViewSection)
	return v
}

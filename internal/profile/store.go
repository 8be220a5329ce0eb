package profile

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
)

// Source supplies the current profile. Consumers call Current on every
// update so profile swaps take effect without session restarts.
type Source interface {
	Current() *Profile
}

// Store is an atomic holder for the active Profile. It is safe for
// concurrent use; readers never block writers.
type Store struct {
	current atomic.Pointer[Profile]
}

// NewStore creates a Store seeded with p.
func NewStore(p *Profile) *Store {
	s := &Store{}
	s.current.Store(p)
	return s
}

// Current returns the active profile. The returned value is shared and
// must be treated as read-only.
func (s *Store) Current() *Profile {
	return s.current.Load()
}

// Swap publishes a new profile, replacing the current one.
func (s *Store) Swap(p *Profile) {
	s.current.Store(p)
}

// Watch reloads the profile whenever the viper config file changes and
// swaps it into the store. Invalid updates are logged and dropped; the
// previous profile stays active.
func (s *Store) Watch(log *logging.Logger) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load()
		if err != nil {
			log.Warn("ignoring invalid profile update", "file", e.Name, "error", err)
			return
		}
		s.Swap(&cfg.Profile)
		log.Info("profile updated", "file", e.Name, "profile", cfg.Profile.Name)
	})
	viper.WatchConfig()
}

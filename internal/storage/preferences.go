package storage

import "fyne.io/fyne/v2"

// PreferencesStore keeps values in the fyne application preferences.
type PreferencesStore struct {
	prefs fyne.Preferences
}

// NewPreferencesStore wraps prefs, usually fyne.App.Preferences().
func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{prefs: prefs}
}

func (store *PreferencesStore) Load(key string) (string, error) {
	return store.prefs.String(key), nil
}

func (store *PreferencesStore) Save(key, value string) error {
	store.prefs.SetString(key, value)
	return nil
}

func (store *PreferencesStore) Remove(key string) error {
	store.prefs.RemoveValue(key)
	return nil
}

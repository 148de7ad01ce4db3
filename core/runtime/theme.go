package runtime

import (
	"context"
	"fmt"

	"github.com/artpar/warsztat/core/events"
	"github.com/artpar/warsztat/domain/settings"
)

// Theme returns the active theme.
func (rt *Runtime) Theme() settings.Theme {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.theme
}

// SetTheme switches the theme, persisting it when configured to.
// Unknown values select the light theme.
func (rt *Runtime) SetTheme(ctx context.Context, t settings.Theme) (settings.Theme, error) {
	t = settings.ParseTheme(string(t))
	return rt.changeTheme(ctx, func(settings.Theme) settings.Theme { return t })
}

// ToggleTheme switches between light and dark.
func (rt *Runtime) ToggleTheme(ctx context.Context) (settings.Theme, error) {
	return rt.changeTheme(ctx, settings.Theme.Toggle)
}

// changeTheme derives the next theme from the current one under the lock.
func (rt *Runtime) changeTheme(ctx context.Context, next func(settings.Theme) settings.Theme) (settings.Theme, error) {
	rt.mu.Lock()
	t := next(rt.theme)
	if rt.themePersist {
		if err := rt.store.Put(ctx, settings.ThemeKey, []byte(t)); err != nil {
			cur := rt.theme
			rt.mu.Unlock()
			rt.observer.Mutation(OpTheme, "", err)
			return cur, fmt.Errorf("save theme: %w", err)
		}
	}
	rt.theme = t
	rt.mu.Unlock()

	rt.observer.Mutation(OpTheme, "", nil)
	rt.events.Publish(ctx, events.Event{Name: events.ThemeChanged, Data: map[string]any{"theme": string(t)}})
	return t, nil
}

func (rt *Runtime) loadTheme(ctx context.Context) error {
	if !rt.themePersist {
		return nil
	}
	data, ok, err := rt.store.Get(ctx, settings.ThemeKey)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	if ok {
		rt.theme = settings.ParseTheme(string(data))
	}
	return nil
}

package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/scout/internal/rison"
	"github.com/five82/scout/internal/savedview"
	"github.com/five82/scout/internal/urlstate"
)

// ViewStore persists app states under an id.
type ViewStore interface {
	Save(ctx context.Context, v savedview.View) (savedview.View, error)
	Load(ctx context.Context, id string) (savedview.View, error)
}

const viewPathPrefix = "/view/"

// ErrNoViewStore is returned by SaveView and LoadView when the container
// was built without a ViewStore.
var ErrNoViewStore = errors.New("no view store configured")

// CurrentViewID returns the id of the saved view in the URL path, or "".
func (c *Container) CurrentViewID() string {
	path := c.storage.Path()
	if !strings.HasPrefix(path, viewPathPrefix) {
		return ""
	}
	return strings.TrimPrefix(path, viewPathPrefix)
}

// SaveView stores the current app state under title, reusing the id of
// the view currently open when asNew is false. On success the saved state
// becomes the dirty baseline and the URL points at the view.
func (c *Container) SaveView(ctx context.Context, title string, asNew bool) (savedview.View, error) {
	if c.opts.Views == nil {
		return savedview.View{}, ErrNoViewStore
	}
	state, err := rison.Marshal(c.app.Get())
	if err != nil {
		return savedview.View{}, fmt.Errorf("encode app state: %w", err)
	}
	v := savedview.View{Title: title, State: string(state)}
	if !asNew {
		v.ID = c.CurrentViewID()
	}
	saved, err := c.opts.Views.Save(ctx, v)
	if err != nil {
		return savedview.View{}, fmt.Errorf("save view: %w", err)
	}
	c.ResetInitialAppState()
	if c.CurrentViewID() != saved.ID {
		c.storage.SetPath(viewPathPrefix+saved.ID, urlstate.SetOptions{})
	}
	c.logger.Info("view saved", "id", saved.ID, "title", saved.Title)
	return saved, nil
}

// LoadView restores the app state stored under id as a new history entry
// and makes it the dirty baseline.
func (c *Container) LoadView(ctx context.Context, id string) (savedview.View, error) {
	if c.opts.Views == nil {
		return savedview.View{}, ErrNoViewStore
	}
	v, err := c.opts.Views.Load(ctx, id)
	if err != nil {
		return savedview.View{}, fmt.Errorf("load view: %w", err)
	}
	var state AppState
	if err := rison.Unmarshal([]byte(v.State), &state); err != nil {
		return savedview.View{}, fmt.Errorf("decode view %s: %w", id, err)
	}
	c.storage.Batch(func() {
		c.storage.SetPath(viewPathPrefix+v.ID, urlstate.SetOptions{})
		c.appSync.Navigate(func() { c.app.Set(state) })
	})
	c.ResetInitialAppState()
	c.logger.Info("view loaded", "id", v.ID, "title", v.Title)
	return v, nil
}

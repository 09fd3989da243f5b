// Package pagination keeps a paginated, filtered, searchable view of runs in
// step with the backend.
//
// A Controller owns the filter state (page, size, sort, committed search,
// game) and derives everything else from it. Each change issues exactly one
// listing call. Calls are tagged with a sequence number and a response that
// arrives after a newer call was issued is dropped, so a slow page-2 response
// can never overwrite the page-0 result the user asked for afterwards.
//
// A failed fetch clears the displayed result instead of keeping the stale
// page; callers see an Error state with an empty view.
package pagination

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pokerunboard/logger"
	"pokerunboard/models"
	"pokerunboard/runs"
)

// AllGames is the game filter value meaning "no game filter"
const AllGames = "all"

// DefaultPageSize is used when a controller is created with size <= 0
const DefaultPageSize = 10

// Errors returned by Controller methods
var (
	ErrInvalidPage = fmt.Errorf("page must not be negative")
	ErrSuperseded  = fmt.Errorf("response superseded by a newer request")
)

// Lister is the slice of the runs repository the controller drives
type Lister interface {
	ListAll(ctx context.Context, page, size int, sort string) (*runs.RunPage, error)
	ListByGame(ctx context.Context, game string, page, size int) (*runs.RunPage, error)
}

// State is the controller's fetch lifecycle
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Filter is the only mutable input of a controller
type Filter struct {
	Page   int
	Size   int
	Sort   string
	Search string
	Game   string
}

// Snapshot is a copy of the controller's observable state
type Snapshot struct {
	State  State
	Filter Filter
	Result *runs.RunPage
	Err    string
	Seq    uint64
}

// Controller is the run listing state machine. It is safe for concurrent
// use; load calls block until their response arrives, so callers that want
// fire-and-forget behavior run them in a goroutine.
type Controller struct {
	lister Lister
	log    *zap.Logger

	mu        sync.Mutex
	filter    Filter
	state     State
	result    *runs.RunPage
	errMsg    string
	seq       uint64
	listeners []func(Snapshot)
}

// NewController creates an idle controller on page 0 with no filters
func NewController(lister Lister, size int, sort string) *Controller {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Controller{
		lister: lister,
		log:    logger.Component("pagination"),
		filter: Filter{Page: 0, Size: size, Sort: sort, Game: AllGames},
		state:  Idle,
	}
}

// Subscribe registers fn to be called after every state transition
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Mount performs the initial fetch
func (c *Controller) Mount(ctx context.Context) error {
	return c.load(ctx)
}

// MountWith replaces page, sort, search and game in one step and fetches once.
// The page size stays the controller's.
func (c *Controller) MountWith(ctx context.Context, f Filter) error {
	if f.Page < 0 {
		return ErrInvalidPage
	}
	if f.Game == "" {
		f.Game = AllGames
	}

	c.mu.Lock()
	f.Size = c.filter.Size
	f.Search = strings.TrimSpace(f.Search)
	c.filter = f
	c.mu.Unlock()

	return c.load(ctx)
}

// Refresh refetches with the current filter
func (c *Controller) Refresh(ctx context.Context) error {
	return c.load(ctx)
}

// SetPage moves to page (zero-based)
func (c *Controller) SetPage(ctx context.Context, page int) error {
	if page < 0 {
		return ErrInvalidPage
	}
	return c.update(ctx, func(f *Filter) { f.Page = page })
}

// SetSort changes the sort spec passed to the unfiltered listing
func (c *Controller) SetSort(ctx context.Context, sort string) error {
	return c.update(ctx, func(f *Filter) { f.Sort = sort })
}

// SetGameFilter switches the game filter and returns to page 0.
// "" and AllGames both clear the filter.
func (c *Controller) SetGameFilter(ctx context.Context, game string) error {
	if game == "" {
		game = AllGames
	}
	return c.update(ctx, func(f *Filter) {
		if f.Game != game {
			f.Game = game
			f.Page = 0
		}
	})
}

// CommitSearch applies a committed search term and always returns to
// page 0, even when the term is unchanged
func (c *Controller) CommitSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	return c.update(ctx, func(f *Filter) {
		f.Search = term
		f.Page = 0
	})
}

// update applies mutate and fetches only if the filter actually changed
func (c *Controller) update(ctx context.Context, mutate func(*Filter)) error {
	c.mu.Lock()
	before := c.filter
	mutate(&c.filter)
	changed := c.filter != before
	c.mu.Unlock()

	if !changed {
		return nil
	}
	return c.load(ctx)
}

// load issues one listing call for the current filter
func (c *Controller) load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	f := c.filter
	c.state = Loading
	c.errMsg = ""
	snap, listeners := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, snap)

	c.log.Debug("Fetching runs",
		zap.Uint64("seq", seq),
		zap.Int("page", f.Page),
		zap.Int("size", f.Size),
		zap.String("game", f.Game),
		zap.String("search", f.Search))

	page, err := c.fetch(ctx, f)
	if err == nil && page == nil {
		err = &runs.Error{Op: "list runs", Kind: runs.Unknown, Message: "empty response"}
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("Dropping superseded response", zap.Uint64("seq", seq))
		return ErrSuperseded
	}

	if err != nil {
		c.state = Error
		c.errMsg = runs.Message(err)
		c.result = nil
	} else {
		if f.Search != "" {
			page = degenerateSinglePageView(page, f.Search)
		}
		c.state = Loaded
		c.result = page
	}
	snap, listeners = c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, snap)

	if err != nil {
		c.log.Warn("Failed to load runs", zap.Uint64("seq", seq), zap.Error(err))
		return err
	}
	c.log.Debug("Runs loaded",
		zap.Uint64("seq", seq),
		zap.Int("elements", snap.Result.NumberOfElements),
		zap.Int("total_pages", snap.Result.TotalPages))
	return nil
}

// fetch picks the endpoint: by-game when a game is selected, else all
func (c *Controller) fetch(ctx context.Context, f Filter) (*runs.RunPage, error) {
	if f.Game != AllGames {
		return c.lister.ListByGame(ctx, f.Game, f.Page, f.Size)
	}
	return c.lister.ListAll(ctx, f.Page, f.Size, f.Sort)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:  c.state,
		Filter: c.filter,
		Result: c.result.Clone(),
		Err:    c.errMsg,
		Seq:    c.seq,
	}
}

func (c *Controller) listenersLocked() []func(Snapshot) {
	return slices.Clone(c.listeners)
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

// Runs is a convenience for the current content, nil when nothing is loaded
func (s Snapshot) Runs() []models.Run {
	if s.Result == nil {
		return nil
	}
	return s.Result.Content
}

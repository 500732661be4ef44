// Package session drives one interactive catalog view: it owns the query
// state, debounces text inputs, dispatches one fetch per state change and
// fences out results of superseded fetches.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/ports"
	"github.com/ammerola/catalog-browser/internal/pkg/debounce"
)

// Inputs holds the raw text of the debounced fields as last typed
type Inputs struct {
	Search   string
	MinPrice string
	MaxPrice string
}

// View is an immutable snapshot of everything a renderer needs
type View struct {
	Records    []domain.Product
	TotalCount int64
	Page       int
	TotalPages int
	HasNext    bool
	HasPrev    bool
	Loading    bool
	Error      string
	State      domain.QueryState
	Input      Inputs
	Categories []string
}

// Empty reports whether the last completed fetch matched nothing
func (v View) Empty() bool {
	return !v.Loading && v.Error == "" && len(v.Records) == 0
}

// Settling reports whether typed search or price text has not been applied yet
func (v View) Settling() bool {
	return v.Input.Search != v.State.Search ||
		v.Input.MinPrice != v.State.MinPrice ||
		v.Input.MaxPrice != v.State.MaxPrice
}

// Options configures a Session
type Options struct {
	// Quiet is the debounce period for search and price inputs
	Quiet time.Duration
	// FetchTimeout bounds each fetch; zero means no timeout
	FetchTimeout time.Duration
	// OnChange receives a snapshot after every visible change. Calls are
	// sequential; the callback must not call back into the Session.
	OnChange func(View)
	Logger   *slog.Logger
}

// Session is safe for concurrent use
type Session struct {
	service  ports.CatalogService
	timeout  time.Duration
	onChange func(View)
	logger   *slog.Logger

	search   *debounce.Value[string]
	minPrice *debounce.Value[string]
	maxPrice *debounce.Value[string]

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	notifyMu sync.Mutex

	mu         sync.Mutex
	state      domain.QueryState
	input      Inputs
	records    []domain.Product
	totalCount int64
	loading    bool
	fetchErr   error
	categories []string
	token      uint64
	cancel     context.CancelFunc
	started    bool
	closed     bool
}

// New creates a session in the default state. No fetch happens until Start.
func New(service ports.CatalogService, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := context.WithCancel(context.Background())

	s := &Session{
		service:    service,
		timeout:    opts.FetchTimeout,
		onChange:   opts.OnChange,
		logger:     logger.With(slog.String("component", "session")),
		ctx:        ctx,
		stop:       stop,
		state:      domain.NewQueryState(),
		records:    []domain.Product{},
		categories: []string{},
	}

	s.search = debounce.New("", opts.Quiet, func(v string) {
		s.apply(func(st *domain.QueryState) { st.SetSearch(v) })
	})
	s.minPrice = debounce.New("", opts.Quiet, func(v string) {
		s.apply(func(st *domain.QueryState) { st.SetMinPrice(v) })
	})
	s.maxPrice = debounce.New("", opts.Quiet, func(v string) {
		s.apply(func(st *domain.QueryState) { st.SetMaxPrice(v) })
	})

	return s
}

// Start issues the initial product fetch and the one-time category fetch
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.dispatchLocked()
	s.wg.Add(1)
	go s.loadCategories()
	s.commit()
}

// SetSearch records typed search text; the filter applies once typing settles
func (s *Session) SetSearch(text string) {
	s.typed(func(in *Inputs) { in.Search = text })
	s.search.Set(text)
}

// SetMinPrice records typed lower bound text
func (s *Session) SetMinPrice(text string) {
	s.typed(func(in *Inputs) { in.MinPrice = text })
	s.minPrice.Set(text)
}

// SetMaxPrice records typed upper bound text
func (s *Session) SetMaxPrice(text string) {
	s.typed(func(in *Inputs) { in.MaxPrice = text })
	s.maxPrice.Set(text)
}

// SetCategory selects a category; domain.CategoryAll removes the filter
func (s *Session) SetCategory(category string) {
	s.apply(func(st *domain.QueryState) { st.SetCategory(category) })
}

// SetInStockOnly toggles the in-stock filter
func (s *Session) SetInStockOnly(inStockOnly bool) {
	s.apply(func(st *domain.QueryState) { st.SetInStockOnly(inStockOnly) })
}

// ToggleSort applies a column header click
func (s *Session) ToggleSort(field domain.SortField) {
	s.apply(func(st *domain.QueryState) { st.ToggleSort(field) })
}

// SetPage jumps to page
func (s *Session) SetPage(page int) {
	s.apply(func(st *domain.QueryState) { st.SetPage(page) })
}

// NextPage advances one page unless the last page is showing
func (s *Session) NextPage() bool {
	s.mu.Lock()
	if s.state.Page >= s.totalPagesLocked() {
		s.mu.Unlock()
		return false
	}
	s.state.UpdatePage(func(p int) int { return p + 1 })
	s.dispatchLocked()
	s.commit()
	return true
}

// PrevPage goes back one page unless the first page is showing
func (s *Session) PrevPage() bool {
	s.mu.Lock()
	if s.state.Page <= 1 {
		s.mu.Unlock()
		return false
	}
	s.state.UpdatePage(func(p int) int { return p - 1 })
	s.dispatchLocked()
	s.commit()
	return true
}

// ClearAll drops pending input and resets every field to its default. An
// in-flight fetch is left to complete and is superseded by the new one.
func (s *Session) ClearAll() {
	s.search.Reset("")
	s.minPrice.Reset("")
	s.maxPrice.Reset("")

	s.mu.Lock()
	s.input = Inputs{}
	if s.state == domain.NewQueryState() {
		s.commit()
		return
	}
	s.state.ClearAll()
	s.dispatchLocked()
	s.commit()
}

// Retry re-issues the fetch for the current state
func (s *Session) Retry() {
	s.mu.Lock()
	s.dispatchLocked()
	s.commit()
}

// Snapshot returns the current view
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close stops the debouncers, cancels in-flight fetches and waits for them
func (s *Session) Close() {
	s.search.Stop()
	s.minPrice.Stop()
	s.maxPrice.Stop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}

func (s *Session) typed(fn func(*Inputs)) {
	s.mu.Lock()
	fn(&s.input)
	s.commit()
}

// apply mutates the state and dispatches a fetch if anything changed
func (s *Session) apply(fn func(*domain.QueryState)) {
	s.mu.Lock()
	next := s.state
	fn(&next)
	if next == s.state {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.dispatchLocked()
	s.commit()
}

// dispatchLocked starts a fetch for the current state under a new token and
// cancels the one it supersedes. Before Start, only the state is recorded.
func (s *Session) dispatchLocked() {
	if s.closed || !s.started {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.token++
	token := s.token
	state := s.state

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(s.ctx)
	}
	s.cancel = cancel
	s.loading = true
	s.fetchErr = nil

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		result, err := s.service.Fetch(ctx, state)
		s.complete(token, result, err)
	}()
}

func (s *Session) complete(token uint64, result *domain.PageResult, err error) {
	s.mu.Lock()
	if token != s.token || s.closed {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded fetch result",
			slog.Uint64("token", token))
		return
	}

	s.loading = false
	s.cancel = nil
	if err != nil {
		// Keep the last good page on screen.
		s.fetchErr = err
	} else {
		s.records = result.Records
		s.totalCount = result.TotalCount
	}
	s.commit()
}

func (s *Session) loadCategories() {
	defer s.wg.Done()

	categories := s.service.Categories(s.ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.categories = categories
	s.commit()
}

// commit must be called with mu held; it releases mu and publishes the view.
// notifyMu is taken before mu is released so listeners see views in order.
func (s *Session) commit() {
	if s.onChange == nil {
		s.mu.Unlock()
		return
	}
	view := s.viewLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.onChange(view)
}

func (s *Session) totalPagesLocked() int {
	r := domain.PageResult{TotalCount: s.totalCount, PageSize: domain.PageSize}
	return r.DisplayTotalPages()
}

func (s *Session) viewLocked() View {
	r := domain.PageResult{
		TotalCount: s.totalCount,
		Page:       s.state.Page,
		PageSize:   domain.PageSize,
	}

	v := View{
		Records:    append([]domain.Product(nil), s.records...),
		TotalCount: s.totalCount,
		Page:       s.state.Page,
		TotalPages: r.DisplayTotalPages(),
		HasNext:    r.HasNext(),
		HasPrev:    r.HasPrev(),
		Loading:    s.loading,
		State:      s.state,
		Input:      s.input,
		Categories: append([]string(nil), s.categories...),
	}
	if v.Records == nil {
		v.Records = []domain.Product{}
	}
	if v.Categories == nil {
		v.Categories = []string{}
	}
	if s.fetchErr != nil {
		v.Error = s.fetchErr.Error()
	}
	return v
}

// Package tablestate provides the in-memory filter -> sort -> paginate
// pipeline behind the list views. It works on a caller-owned slice of
// pointers; all derived values are recomputed from the current state on
// read.
package tablestate

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDirection orders a sorted column.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// TogglePolicy names how active exclusive toggles combine with the text
// search and class-membership filters. Combination is always explicit
// through the policy, never through operator precedence.
type TogglePolicy int

const (
	// ToggleCombineAnd requires records to satisfy every active toggle in
	// addition to the search and membership filters.
	ToggleCombineAnd TogglePolicy = iota
	// ToggleCombineOr admits records that satisfy any active toggle even
	// when the text search does not match.
	ToggleCombineOr
)

// Column describes display metadata for a table column.
type Column struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

// SortKey extracts a comparable key from a record. Exactly one of the
// accessors should be set; columns with neither compare equal.
type SortKey[T any] struct {
	String func(*T) string
	Number func(*T) float64
}

// Config wires a Table to its record type.
type Config[T any] struct {
	// SearchFields lists the designated free-text fields. A record matches
	// when any of them contains the search term case-insensitively.
	SearchFields []func(*T) string
	// GroupID returns the class/group membership key, empty when
	// unassigned.
	GroupID func(*T) string
	// SortKeys maps column names to their comparison keys.
	SortKeys map[string]SortKey[T]
	// DefaultSort names the initially active column.
	DefaultSort   string
	TogglePolicy  TogglePolicy
	ItemsPerPage  int
	CollationLang language.Tag
}

// Toggle is a named exclusive filter such as "unassigned only".
type Toggle[T any] struct {
	Name      string
	Active    bool
	Predicate func(*T) bool
}

// Table holds filter, sort, pagination and selection state over a source
// slice.
type Table[T any] struct {
	cfg    Config[T]
	source []*T
	coll   *collate.Collator

	searchTerm    string
	selectedGroup map[string]struct{}
	toggles       []Toggle[T]

	sortColumn    string
	sortDirection SortDirection

	currentPage  int
	itemsPerPage int

	selected map[*T]struct{}
}

// New builds a table over source. The slice is not copied; callers replace
// it through SetSource when the data changes.
func New[T any](source []*T, cfg Config[T]) *Table[T] {
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = 10
	}
	lang := cfg.CollationLang
	if lang == language.Und {
		lang = language.French
	}
	return &Table[T]{
		cfg:           cfg,
		source:        source,
		coll:          collate.New(lang, collate.IgnoreCase),
		selectedGroup: make(map[string]struct{}),
		sortColumn:    cfg.DefaultSort,
		sortDirection: Asc,
		currentPage:   1,
		itemsPerPage:  cfg.ItemsPerPage,
		selected:      make(map[*T]struct{}),
	}
}

// SetSource swaps the underlying record list. Filter, sort and page state
// are kept; selection is pruned to surviving pointers by the next read.
func (t *Table[T]) SetSource(source []*T) {
	t.source = source
}

// AddToggle registers a named exclusive filter, initially inactive.
func (t *Table[T]) AddToggle(name string, predicate func(*T) bool) {
	t.toggles = append(t.toggles, Toggle[T]{Name: name, Predicate: predicate})
}

// SetSearchTerm updates the free-text filter and resets to the first page.
func (t *Table[T]) SetSearchTerm(term string) {
	t.searchTerm = term
	t.currentPage = 1
}

// SearchTerm returns the active free-text filter.
func (t *Table[T]) SearchTerm() string { return t.searchTerm }

// SetGroupFilter replaces the class/group membership set and resets to the
// first page. An empty set means no restriction.
func (t *Table[T]) SetGroupFilter(ids []string) {
	t.selectedGroup = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		t.selectedGroup[id] = struct{}{}
	}
	t.currentPage = 1
}

// SetToggle flips a named toggle and resets to the first page.
func (t *Table[T]) SetToggle(name string, active bool) {
	for i := range t.toggles {
		if t.toggles[i].Name == name {
			t.toggles[i].Active = active
			t.currentPage = 1
			return
		}
	}
}

// ResetFilters clears search, membership and toggle state.
func (t *Table[T]) ResetFilters() {
	t.searchTerm = ""
	t.selectedGroup = make(map[string]struct{})
	for i := range t.toggles {
		t.toggles[i].Active = false
	}
	t.currentPage = 1
}

// SortBy sets the single active sort column. Unknown columns clear the
// sort. Changing the sort deliberately keeps the current page.
func (t *Table[T]) SortBy(column string, direction SortDirection) {
	t.sortColumn = column
	if direction != Desc {
		direction = Asc
	}
	t.sortDirection = direction
}

// SetPage moves to the requested page. Out-of-range pages are allowed and
// simply yield an empty slice.
func (t *Table[T]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	t.currentPage = page
}

// SetItemsPerPage adjusts the page size without resetting the page.
func (t *Table[T]) SetItemsPerPage(n int) {
	if n > 0 {
		t.itemsPerPage = n
	}
}

// CurrentPage returns the 1-based active page.
func (t *Table[T]) CurrentPage() int { return t.currentPage }

// ToggleSelect adds the record to the selection, or removes it when already
// present. Identity is pointer identity: an equal-valued copy is a
// different row.
func (t *Table[T]) ToggleSelect(row *T) {
	if _, ok := t.selected[row]; ok {
		delete(t.selected, row)
		return
	}
	t.selected[row] = struct{}{}
}

// Selected returns the selected records in source order.
func (t *Table[T]) Selected() []*T {
	out := make([]*T, 0, len(t.selected))
	for _, row := range t.source {
		if _, ok := t.selected[row]; ok {
			out = append(out, row)
		}
	}
	return out
}

func (t *Table[T]) matchesSearch(row *T) bool {
	if t.searchTerm == "" {
		return true
	}
	term := strings.ToLower(t.searchTerm)
	for _, field := range t.cfg.SearchFields {
		if strings.Contains(strings.ToLower(field(row)), term) {
			return true
		}
	}
	return false
}

func (t *Table[T]) matchesGroup(row *T) bool {
	if len(t.selectedGroup) == 0 || t.cfg.GroupID == nil {
		return true
	}
	_, ok := t.selectedGroup[t.cfg.GroupID(row)]
	return ok
}

func (t *Table[T]) matchesToggles(row *T) (active bool, match bool) {
	anyActive := false
	allPass := true
	anyPass := false
	for _, tg := range t.toggles {
		if !tg.Active {
			continue
		}
		anyActive = true
		if tg.Predicate(row) {
			anyPass = true
		} else {
			allPass = false
		}
	}
	if !anyActive {
		return false, true
	}
	if t.cfg.TogglePolicy == ToggleCombineOr {
		return true, anyPass
	}
	return true, allPass
}

func (t *Table[T]) matches(row *T) bool {
	togglesActive, togglesMatch := t.matchesToggles(row)
	if togglesActive && t.cfg.TogglePolicy == ToggleCombineOr {
		// permissive reading: a toggle hit admits the row past the text
		// search, membership still applies
		return (togglesMatch || t.matchesSearch(row)) && t.matchesGroup(row)
	}
	return togglesMatch && t.matchesSearch(row) && t.matchesGroup(row)
}

// Filtered returns the records passing all active filters, sorted by the
// active column. The sort is stable: equal keys keep their source order.
func (t *Table[T]) Filtered() []*T {
	out := make([]*T, 0, len(t.source))
	for _, row := range t.source {
		if t.matches(row) {
			out = append(out, row)
		}
	}

	key, ok := t.cfg.SortKeys[t.sortColumn]
	if !ok {
		return out
	}
	desc := t.sortDirection == Desc
	sort.SliceStable(out, func(i, j int) bool {
		var less, greater bool
		switch {
		case key.String != nil:
			cmp := t.coll.CompareString(key.String(out[i]), key.String(out[j]))
			less, greater = cmp < 0, cmp > 0
		case key.Number != nil:
			a, b := key.Number(out[i]), key.Number(out[j])
			less, greater = a < b, a > b
		}
		if desc {
			return greater
		}
		return less
	})
	return out
}

// PageCount returns ceil(filtered / itemsPerPage).
func (t *Table[T]) PageCount() int {
	return int(math.Ceil(float64(len(t.Filtered())) / float64(t.itemsPerPage)))
}

// PageFrom returns the 1-based index of the first row of the current page.
func (t *Table[T]) PageFrom() int {
	return (t.currentPage-1)*t.itemsPerPage + 1
}

// PageTo returns the 1-based index of the last row of the current page,
// clamped to the filtered count.
func (t *Table[T]) PageTo() int {
	to := t.currentPage * t.itemsPerPage
	if n := len(t.Filtered()); to > n {
		return n
	}
	return to
}

// Rows returns the current page of the filtered, sorted records. Slicing
// past the end yields an empty page rather than an error.
func (t *Table[T]) Rows() []*T {
	filtered := t.Filtered()
	start := (t.currentPage - 1) * t.itemsPerPage
	if start >= len(filtered) {
		return nil
	}
	end := start + t.itemsPerPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

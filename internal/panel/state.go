package panel

// StateStore holds the filter state. Every mutator replaces exactly one
// field and then invokes the change callback exactly once, synchronously.
type StateStore struct {
	state    FilterState
	onChange func(FilterState)
}

// NewStateStore returns a store starting at initial. onChange may be nil.
func NewStateStore(initial FilterState, onChange func(FilterState)) *StateStore {
	return &StateStore{state: initial, onChange: onChange}
}

// State returns a copy of the current filter state.
func (s *StateStore) State() FilterState {
	return s.state
}

func (s *StateStore) SetSearchTerm(term string) {
	s.state.SearchTerm = term
	s.changed()
}

func (s *StateStore) SetStatusFilter(status StatusFilter) {
	s.state.Status = status
	s.changed()
}

func (s *StateStore) SetCategoryFilter(category CategoryFilter) {
	s.state.Category = category
	s.changed()
}

func (s *StateStore) SetViewMode(view ViewMode) {
	s.state.View = view
	s.changed()
}

func (s *StateStore) changed() {
	if s.onChange != nil {
		s.onChange(s.state)
	}
}

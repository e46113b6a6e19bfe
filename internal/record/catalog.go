package record

import "time"

// Program is one catalog entry with all derived views of its text computed
// eagerly at load time: title, field map, mileage, and schedule.
type Program struct {
	ID      string
	Text    string
	Title   string
	Fields  map[string]string
	Mileage int // -1 when the record states no mileage
	// Schedule is nil when neither columns nor text yield an interval.
	Schedule *Schedule
}

// NewProgram derives a program from raw text. When authoritative event
// columns are present they override whatever the text parser would find.
func NewProgram(id, text string, eventStart, eventEnd *time.Time) *Program {
	p := &Program{
		ID:      id,
		Text:    text,
		Title:   ExtractTitle(text),
		Fields:  ExtractFields(text),
		Mileage: -1,
	}
	if mileage, ok := ExtractMileage(text); ok {
		p.Mileage = mileage
	}
	if eventStart != nil && eventEnd != nil && eventEnd.After(*eventStart) {
		p.Schedule = NewSchedule(*eventStart, *eventEnd)
	} else {
		p.Schedule = ParseSchedule(text)
	}
	return p
}

// FromRow synthesizes a row's text and derives the program from it.
func FromRow(r Row) *Program {
	return NewProgram(r.ID, r.Synthesize(), r.EventStart, r.EventEnd)
}

// Catalog is the immutable in-memory program set the engine searches over.
type Catalog struct {
	programs []*Program
	byID     map[string]*Program
}

// NewCatalog indexes the given programs. Input order is preserved and
// becomes the tie-break order for equal scores.
func NewCatalog(programs []*Program) *Catalog {
	byID := make(map[string]*Program, len(programs))
	for _, p := range programs {
		byID[p.ID] = p
	}
	return &Catalog{programs: programs, byID: byID}
}

// All returns the programs in load order. Callers must not mutate the slice.
func (c *Catalog) All() []*Program {
	return c.programs
}

// Get returns the program with the given ID.
func (c *Catalog) Get(id string) (*Program, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of programs in the catalog.
func (c *Catalog) Len() int {
	return len(c.programs)
}

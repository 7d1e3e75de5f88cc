package universe

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Context is the mutable game state orders execute against. It is not safe for concurrent use;
// callers serialize access.
type Context struct {
	Universe    *Universe      `json:"universe"`
	Empires     *EmpireManager `json:"empires"`
	Content     *Content       `json:"content"`
	CurrentTurn int            `json:"current_turn"`
}

func NewContext() *Context {
	return &Context{
		Universe:    New(),
		Empires:     NewEmpireManager(),
		Content:     NewContent(),
		CurrentTurn: 1,
	}
}

func (c *Context) Empire(id EmpireID) (*Empire, error) {
	return c.Empires.Get(id)
}

// Clone copies the universe and empires. Content is static and shared.
func (c *Context) Clone() *Context {
	return &Context{
		Universe:    c.Universe.Clone(),
		Empires:     c.Empires.Clone(),
		Content:     c.Content,
		CurrentTurn: c.CurrentTurn,
	}
}

func (c *Context) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(c); err != nil {
		return eris.Wrap(err, "failed to encode game state")
	}
	return nil
}

// Decode reads a game state written by Encode, filling in any maps the input omitted.
func Decode(r io.Reader) (*Context, error) {
	c := NewContext()
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return nil, eris.Wrap(err, "failed to decode game state")
	}
	c.fillDefaults()
	return c, nil
}

func (c *Context) fillDefaults() {
	if c.Universe == nil {
		c.Universe = New()
	}
	if c.Empires == nil || c.Empires.Empires == nil {
		c.Empires = NewEmpireManager()
	}
	if c.Content == nil {
		c.Content = NewContent()
	}
	u := c.Universe
	if u.Systems == nil {
		u.Systems = make(map[ObjectID]*System)
	}
	if u.Planets == nil {
		u.Planets = make(map[ObjectID]*Planet)
	}
	if u.Fleets == nil {
		u.Fleets = make(map[ObjectID]*Fleet)
	}
	if u.Ships == nil {
		u.Ships = make(map[ObjectID]*Ship)
	}
	if u.Buildings == nil {
		u.Buildings = make(map[ObjectID]*Building)
	}
	if u.Designs == nil {
		u.Designs = make(map[int]*ShipDesign)
	}
	if u.Visibility == nil {
		u.Visibility = make(map[EmpireID]map[ObjectID]Visibility)
	}
	if u.EmpireNextObjectID == nil {
		u.EmpireNextObjectID = make(map[EmpireID]ObjectID)
	}
	if u.EmpireNextDesignID == nil {
		u.EmpireNextDesignID = make(map[EmpireID]int)
	}
	for _, e := range c.Empires.Empires {
		if e.ResearchedTechs == nil {
			e.ResearchedTechs = make(map[string]int)
		}
	}
	ct := c.Content
	if ct.Techs == nil {
		ct.Techs = make(map[string]*Tech)
	}
	if ct.BuildingTypes == nil {
		ct.BuildingTypes = make(map[string]*BuildingType)
	}
	if ct.Hulls == nil {
		ct.Hulls = make(map[string]*Hull)
	}
	if ct.Parts == nil {
		ct.Parts = make(map[string]*Part)
	}
}

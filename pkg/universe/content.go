package universe

import (
	"slices"
)

// Tech is a researchable technology. A tech can be queued once all its prerequisites are
// researched or queued, and only while it is itself unresearched.
type Tech struct {
	Name          string   `json:"name"`
	Prerequisites []string `json:"prerequisites"`
	Researchable  bool     `json:"researchable"`
}

type BuildingType struct {
	Name       string `json:"name"`
	Producible bool   `json:"producible"`
}

// Hull is the frame a ship design is built on. Slots bounds how many parts fit.
type Hull struct {
	Name       string `json:"name"`
	Slots      int    `json:"slots"`
	Producible bool   `json:"producible"`
}

type Part struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Producible bool   `json:"producible"`
}

// Content holds the static rules data that orders validate names against.
type Content struct {
	Techs         map[string]*Tech         `json:"techs"`
	BuildingTypes map[string]*BuildingType `json:"building_types"`
	Hulls         map[string]*Hull         `json:"hulls"`
	Parts         map[string]*Part         `json:"parts"`
}

func NewContent() *Content {
	return &Content{
		Techs:         make(map[string]*Tech),
		BuildingTypes: make(map[string]*BuildingType),
		Hulls:         make(map[string]*Hull),
		Parts:         make(map[string]*Part),
	}
}

func (c *Content) Tech(name string) (*Tech, bool) {
	t, ok := c.Techs[name]
	return t, ok
}

func (c *Content) BuildingType(name string) (*BuildingType, bool) {
	b, ok := c.BuildingTypes[name]
	return b, ok
}

func (c *Content) Hull(name string) (*Hull, bool) {
	h, ok := c.Hulls[name]
	return h, ok
}

func (c *Content) Part(name string) (*Part, bool) {
	p, ok := c.Parts[name]
	return p, ok
}

// ShipDesign is a hull plus a list of parts. Empty strings in Parts are unfilled slots.
type ShipDesign struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Hull           string   `json:"hull"`
	Parts          []string `json:"parts"`
	DesignedBy     EmpireID `json:"designed_by"`
	DesignedOnTurn int      `json:"designed_on_turn"`
	Producible     bool     `json:"producible"`
}

// Clone returns a deep copy of the design.
func (d *ShipDesign) Clone() *ShipDesign {
	c := *d
	c.Parts = slices.Clone(d.Parts)
	return &c
}

package order

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/freeorion/orders/pkg/universe"
)

const MaxNameLength = 64

// Rename changes the name of an object the empire owns.
type Rename struct {
	base
	irreversible

	ObjectID universe.ObjectID `json:"object_id"`
	Name     string            `json:"name"`
}

func NewRename(empire universe.EmpireID, object universe.ObjectID, name string) *Rename {
	return &Rename{base: base{empire: empire}, ObjectID: object, Name: name}
}

func (o *Rename) Kind() Kind { return KindRename }

func (o *Rename) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		obj, err := ownedObject(gs, empire.ID, o.ObjectID)
		if err != nil {
			return nil, err
		}
		if err := validName(o.Name); err != nil {
			return nil, err
		}
		h := obj.Header()
		if h.Name == o.Name {
			return nil, precondition("%s %d is already named %q", obj.Kind(), o.ObjectID, o.Name)
		}
		return func() { h.Name = o.Name }, nil
	})
}

func (o *Rename) String() string {
	return fmt.Sprintf("Rename empire=%d object=%d name=%q%s", o.empire, o.ObjectID, o.Name, status(&o.base))
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return precondition("name is empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return precondition("name longer than %d characters", MaxNameLength)
	}
	return nil
}

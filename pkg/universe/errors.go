package universe

import "github.com/rotisserie/eris"

var (
	ErrObjectNotFound       = eris.New("object not found")
	ErrEmpireNotFound       = eris.New("empire not found")
	ErrDesignNotFound       = eris.New("ship design not found")
	ErrQueueIndexOutOfRange = eris.New("queue index out of range")
	ErrNoPath               = eris.New("no starlane path between systems")
	ErrDuplicateID          = eris.New("id already in use")
	ErrInvalidEmpireID      = eris.New("empire id out of range")
)

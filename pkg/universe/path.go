package universe

import (
	"slices"

	"github.com/rotisserie/eris"
)

// ShortestPath returns the systems visited travelling along starlanes from start to end,
// inclusive of both. Lanes are unweighted, so breadth-first search yields a minimal hop route.
// Ties are broken by lane order.
func (u *Universe) ShortestPath(start, end ObjectID) ([]ObjectID, error) {
	if _, err := u.System(start); err != nil {
		return nil, err
	}
	if _, err := u.System(end); err != nil {
		return nil, err
	}
	if start == end {
		return []ObjectID{start}, nil
	}

	prev := map[ObjectID]ObjectID{start: InvalidObjectID}
	frontier := []ObjectID{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		sys, ok := u.Systems[current]
		if !ok {
			continue
		}
		for _, next := range sys.Lanes {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			if next == end {
				return unwind(prev, end), nil
			}
			frontier = append(frontier, next)
		}
	}
	return nil, eris.Wrapf(ErrNoPath, "from system %d to system %d", start, end)
}

func unwind(prev map[ObjectID]ObjectID, end ObjectID) []ObjectID {
	var path []ObjectID
	for at := end; at != InvalidObjectID; at = prev[at] {
		path = append(path, at)
	}
	slices.Reverse(path)
	return path
}

// AddLane connects two systems in both directions. Existing lanes are left untouched.
func (u *Universe) AddLane(a, b ObjectID) error {
	sa, err := u.System(a)
	if err != nil {
		return err
	}
	sb, err := u.System(b)
	if err != nil {
		return err
	}
	if !slices.Contains(sa.Lanes, b) {
		sa.Lanes = append(sa.Lanes, b)
	}
	if !slices.Contains(sb.Lanes, a) {
		sb.Lanes = append(sb.Lanes, a)
	}
	return nil
}

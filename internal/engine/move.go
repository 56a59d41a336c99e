package engine

import "github.com/roach88/modelsync/internal/ir"

// MoveNode sets the position of the named node's representation object.
//
// Each non-finite coordinate keeps its previous value and is logged as an
// invalid position; finite coordinates are applied. The logged operation
// carries the effective position.
func (s *Session) MoveNode(name string, position ir.Position) (ir.Snapshot, error) {
	const op = ir.OpMoveNode

	t := s.begin()
	k := t.inst.IndexOf(name)
	if k < 0 {
		return ir.Snapshot{}, opErr(op, ErrCodeObjectNotFound, nil, "no object named %q", name)
	}
	rep := &t.rep.Objects[k]
	if rep.Type != ir.ClassNode {
		return ir.Snapshot{}, opErr(op, ErrCodeWrongRepresentation, nil, "%s is drawn as %s and cannot be moved", name, rep.Type)
	}

	var effective ir.Position
	if rep.Position != nil {
		effective = *rep.Position
	}
	if ir.IsFinite(position.X) {
		effective.X = position.X
	} else {
		s.logger.Warn("invalid position, keeping previous x",
			"session", s.key, "name", name, "x", position.X, "previous", effective.X)
	}
	if ir.IsFinite(position.Y) {
		effective.Y = position.Y
	} else {
		s.logger.Warn("invalid position, keeping previous y",
			"session", s.key, "name", name, "y", position.Y, "previous", effective.Y)
	}
	rep.Position = &effective

	pos := effective
	snap, err := s.commit(t, ir.Operation{
		Kind:     op,
		Name:     name,
		Position: &pos,
		ObjectID: t.inst.Objects[k].ID,
	})
	if err != nil {
		return ir.Snapshot{}, err
	}

	s.logger.Debug("node moved",
		"session", s.key,
		"name", name,
		"x", effective.X,
		"y", effective.Y,
		"seq", s.Seq(),
	)
	return snap, nil
}

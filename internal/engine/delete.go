package engine

import (
	"github.com/roach88/modelsync/internal/ir"
	"github.com/roach88/modelsync/internal/ref"
)

// DeleteNode removes the named object, every edge that (transitively)
// depends on it, and renormalizes all positional refs. Deleting an edge
// object goes through the same path.
//
// Steps:
//  1. locate the object at index k
//  2. cascade: mark every edge whose source or target resolves to a marked
//     index, repeated to a fixed point
//  3. drop links of surviving objects that point at marked objects
//  4. build one old->new index map from the original array and rewrite
//     every surviving representation ref and link target in a single pass
//  5. commit both packages together
//
// Edges whose source or target does not resolve are orphans: the dangling
// link is logged and never used to derive indices. An orphan whose other
// endpoint is removed goes with it.
func (s *Session) DeleteNode(name string) (ir.Snapshot, error) {
	const op = ir.OpDeleteNode

	t := s.begin()
	k := t.inst.IndexOf(name)
	if k < 0 {
		return ir.Snapshot{}, opErr(op, ErrCodeObjectNotFound, nil, "no object named %q", name)
	}
	id := t.inst.Objects[k].ID

	removed := s.cascade(t, k)
	var cascaded []string
	for i := range t.inst.Objects {
		if removed[i] && i != k {
			cascaded = append(cascaded, t.inst.Objects[i].Name)
		}
	}
	s.renormalize(t, removed)

	snap, err := s.commit(t, ir.Operation{Kind: op, Name: name, ObjectID: id})
	if err != nil {
		return ir.Snapshot{}, err
	}

	s.logger.Info("object deleted",
		"session", s.key,
		"name", name,
		"index", k,
		"cascaded", cascaded,
		"seq", s.Seq(),
	)
	return snap, nil
}

// cascade returns the set of original indices to remove: k plus every edge
// with a resolvable endpoint at a removed index, to a fixed point. An
// unresolvable endpoint never marks an edge by itself.
func (s *Session) cascade(t *txn, k int) map[int]bool {
	n := len(t.inst.Objects)
	removed := map[int]bool{k: true}
	dangling := map[int][]string{}

	for changed := true; changed; {
		changed = false
		for i := 0; i < n; i++ {
			if removed[i] || t.rep.Objects[i].Type != ir.ClassEdge {
				continue
			}
			obj := &t.inst.Objects[i]
			var ends []string
			for _, end := range []string{ir.LinkSource, ir.LinkTarget} {
				l, ok := obj.Link(end)
				if !ok {
					continue
				}
				idx, err := ref.ObjectIndex(l.Target.Ref, t.inst.URI, n)
				if err != nil {
					ends = append(ends, end)
					continue
				}
				if removed[idx] {
					removed[i] = true
					changed = true
				}
			}
			dangling[i] = ends
		}
	}

	for i := 0; i < n; i++ {
		ends := dangling[i]
		if len(ends) == 0 {
			continue
		}
		msg := "orphan edge skipped"
		if removed[i] {
			msg = "orphan edge removed"
		}
		s.logger.Warn(msg,
			"session", s.key,
			"edge", t.inst.Objects[i].Name,
			"dangling", ends,
		)
	}
	return removed
}

// renormalize removes the marked objects from both packages and rewrites
// positional refs through a single old->new index map computed from the
// original arrays. Unresolvable refs are left as they are.
func (s *Session) renormalize(t *txn, removed map[int]bool) {
	n := len(t.inst.Objects)
	newIndex := make([]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if removed[i] {
			newIndex[i] = -1
			continue
		}
		newIndex[i] = next
		next++
	}

	objs := make([]ir.InstanceObject, 0, next)
	reps := make([]ir.RepresentationInstanceObject, 0, next)
	for i := 0; i < n; i++ {
		if removed[i] {
			continue
		}
		obj := t.inst.Objects[i]

		if obj.Representation != nil {
			if old, err := ref.ObjectIndex(obj.Representation.Ref, t.rep.URI, n); err == nil && newIndex[old] >= 0 {
				obj.Representation = ir.NewRef(ref.ObjectRef(t.rep.URI, newIndex[old]))
			}
		}

		links := make([]ir.ReferenceValue, 0, len(obj.Links))
		for _, l := range obj.Links {
			old, err := ref.ObjectIndex(l.Target.Ref, t.inst.URI, n)
			switch {
			case err != nil:
				links = append(links, l)
			case newIndex[old] < 0:
				s.logger.Debug("link to deleted object dropped",
					"session", s.key, "object", obj.Name, "link", l.Name)
			default:
				l.Target = ir.Ref{Ref: ref.ObjectRef(t.inst.URI, newIndex[old])}
				links = append(links, l)
			}
		}
		obj.Links = links

		objs = append(objs, obj)
		reps = append(reps, t.rep.Objects[i])
	}

	t.inst.Objects = objs
	t.rep.Objects = reps
}

package pass

// createClones fills in the Clone field of every discovered function that
// isn't already satisfied by purity or a rename-substitute: it duplicates
// the origin's body under the name tm_<origin-name> and registers the
// duplicate in the module.
//
// The prefix is applied to the origin's already-mangled name as plain text,
// not re-mangled as if tm_ were part of the original identifier: mangling
// happens once, by the front end that produced origin.Name, and cloning
// must not re-derive it.
func createClones(s *State) {
	for _, ff := range s.Functions() {
		if ff.Clone != nil {
			continue
		}
		cloneName := ClonePrefix + ff.Origin.Name
		clone := ff.Origin.Clone(cloneName)
		s.Module.AddFunction(clone)
		ff.Clone = clone
		s.trace("clone: %s -> %s", ff.Origin.Name, clone.Name)
	}
}

package pass

// Run performs the whole transactional-memory instrumentation pipeline over
// m in place: annotation lifting and discovery, reachability closure,
// cloning, in-body instrumentation, the C and lambda API boundary
// transforms, RAII scope-region discovery and the diamond rewrite, the
// dominated-marker peephole, and finally static initializer emission. It
// mirrors the original plugin's doInitialization-then-runOnModule sequence,
// collapsed into one call since this package has no separate legalization
// phase to run ahead of it.
func Run(s *State) error {
	s.Sigs.Init(s.Module)

	discoverAnnotated(s)
	discoverCAPI(s)
	discoverLambda(s)
	discoverConstructor(s)
	discoverReachable(s)
	eraseConstructorMarkers(s)

	createClones(s)
	instrumentBodies(s)

	instrumentCAPIBoundary(s)
	instrumentLambdaBoundaries(s)

	discoverAllScopeRegions(s)
	instrumentScopeRegions(s)

	eliminateDominatedMarkers(s)
	emitStaticInitializer(s)

	return nil
}

package app

import "go.trai.ch/shade/internal/core/domain"

// ExpandStages expands the given stages of shader one after another in a single
// session under the project's base context, and returns how many include
// expansions the session's resolver served from its memo.
// This is exported for testing purposes only.
func (a *App) ExpandStages(project *domain.Project, shader string, stages ...domain.Stage) (uint64, error) {
	s, err := a.open(project)
	if err != nil {
		return 0, err
	}
	defer a.close(s)

	for _, st := range stages {
		if _, err := s.builder.Expand(project.Base, shader, st); err != nil {
			return 0, err
		}
	}
	return s.resolver.MemoHits(), nil
}

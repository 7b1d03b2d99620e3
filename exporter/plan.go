package exporter

import (
	"github.com/mogaika/scene_cache_converter/scene"
)

type Disposition int

const (
	// DispositionNative: the exporter represents the node's animation as is.
	DispositionNative Disposition = iota
	// DispositionStaticFallback: animation category unsupported, the node is
	// written with its first sample only.
	DispositionStaticFallback
	// DispositionSkip: the node is left out of this format entirely.
	DispositionSkip
)

func (d Disposition) String() string {
	switch d {
	case DispositionNative:
		return "Native"
	case DispositionStaticFallback:
		return "StaticFallback"
	default:
		return "Skip"
	}
}

// StaticFallbacker is implemented by exporters that prefer writing the rest
// pose of an unsupported node over dropping it.
type StaticFallbacker interface {
	FallbackStatic() bool
}

// Plan is the per-node disposition table for one (scene, format) pair,
// computed before export so the decision is visible in status output even
// when the export itself later fails.
type Plan struct {
	Dispositions map[*scene.CanonicalNode]Disposition
}

func PlanFor(s *scene.Scene, e Exporter) *Plan {
	supported := make(map[scene.AnimationCategory]bool)
	for _, c := range e.SupportedCategories() {
		supported[c] = true
	}
	fallback := false
	if f, ok := e.(StaticFallbacker); ok {
		fallback = f.FallbackStatic()
	}

	p := &Plan{Dispositions: make(map[*scene.CanonicalNode]Disposition)}
	for _, n := range s.Nodes {
		switch {
		case n.Role != scene.RoleMesh, supported[n.Category]:
			p.Dispositions[n] = DispositionNative
		case fallback:
			p.Dispositions[n] = DispositionStaticFallback
		default:
			p.Dispositions[n] = DispositionSkip
		}
	}
	return p
}

func (p *Plan) Of(n *scene.CanonicalNode) Disposition {
	return p.Dispositions[n]
}

// Included returns the scene nodes this format will write, in scene order.
func (p *Plan) Included(s *scene.Scene) []*scene.CanonicalNode {
	nodes := make([]*scene.CanonicalNode, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		if p.Of(n) != DispositionSkip {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

package walker

import (
	"github.com/sirupsen/logrus"

	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/scene"
)

// Discovery is one (effective transform, effective shape) pair found in the
// raw tree, or a bare animated transform that becomes a locator.
type Discovery struct {
	Role scene.Role

	// Transform is the closest enclosing non-organizational transform; it
	// carries the authoritative transform stream. For shapes sitting at the
	// archive root it is the shape node itself.
	Transform *scene.RawNode

	// Shape is nil for locators.
	Shape *scene.RawNode

	// Intermediates are the organizational wrappers folded through between
	// Transform and Shape, root-first. They produce no node of their own but
	// their matrices still enter the world transform.
	Intermediates []*scene.RawNode

	// Identity as resolved by the naming policy; "" when every name in the
	// chain was generic.
	Identity string

	// GenericShapeName records that the shape's own name lost to an
	// ancestor name.
	GenericShapeName bool

	// Ambiguous records that more than one shape was reachable and the
	// first one in traversal order won.
	Ambiguous bool
}

type Walker struct {
	MaxDepth int
	Naming   NamingPolicy

	consumed map[*scene.RawNode]bool
	log      *logrus.Entry
}

func NewWalker() *Walker {
	return &Walker{
		MaxDepth: config.Current().ShapeSearchDepth,
		Naming:   DefaultNamingPolicy,
		log:      logrus.WithField("module", "walker"),
	}
}

// Walk traverses the raw tree top-down and returns discoveries in traversal
// order. Subtrees that never resolve to a shape produce nothing; that is
// expected for camera-only or mesh-only scenes, not an error.
func (w *Walker) Walk(root *scene.RawNode) []Discovery {
	w.consumed = make(map[*scene.RawNode]bool)
	out := make([]Discovery, 0)
	if root == nil {
		return out
	}
	// archive top nodes ("ABC", "/") are containers, never content
	if root.Name == "" || root.Name == "ABC" || root.Name == "/" {
		w.visitChildren(root, false, &out)
	} else {
		w.visit(root, nil, false, &out)
	}
	return out
}

func (w *Walker) visitChildren(n *scene.RawNode, skipped bool, out *[]Discovery) {
	for _, child := range n.Children {
		w.visit(child, n, skipped, out)
	}
}

func (w *Walker) visit(n *scene.RawNode, parent *scene.RawNode, parentSkipped bool, out *[]Discovery) {
	if w.consumed[n] {
		// already folded into a triple as an intermediate; its remaining
		// children still get their own chance
		w.visitChildren(n, false, out)
		return
	}

	switch n.Kind {
	case scene.KindTransform:
		w.visitTransform(n, out)
	case scene.KindPolyMesh, scene.KindCamera:
		// reachable directly only when the enclosing transform was skipped
		// boilerplate or the shape sits at the archive root
		if parentSkipped {
			w.log.Debugf("Dropping shape %q under helper node", n.Name)
			return
		}
		w.emitShape(n, n, nil, false, out)
	default:
		// curves/points/nurbs are recognized but not converted
		w.visitChildren(n, false, out)
	}
}

func (w *Walker) visitTransform(n *scene.RawNode, out *[]Discovery) {
	if config.IsSkipName(n.Name) {
		w.log.Debugf("Skipping helper node %q", n.Name)
		w.visitChildren(n, true, out)
		return
	}
	if isOrganizational(n) {
		w.log.Debugf("Skipping organizational group %q", n.Name)
		w.visitChildren(n, false, out)
		return
	}

	shape, chain, extra, truncated := w.findShape(n)
	if shape != nil {
		if extra > 0 {
			w.log.Warnf("%v", scene.AmbiguousDiscoveryf(
				"%d shapes reachable under %q, keeping first %q", extra+1, n.Name, shape.Name))
		}
		w.consumed[n] = true
		for _, link := range chain {
			w.consumed[link] = true
		}
		w.consumed[shape] = true
		w.emitShape(shape, n, chain, extra > 0, out)
		w.visitChildren(n, false, out)
		return
	}
	if truncated {
		w.log.Warnf("Shape discovery under %q truncated at depth %d without resolution",
			n.Name, w.MaxDepth)
	}

	// no shape anywhere below: animated transforms become locators, static
	// ones are dropped with their purely organizational descendants
	if len(n.Transform) > 1 {
		identity := w.Naming([]string{n.Name})
		*out = append(*out, Discovery{
			Role:      scene.RoleLocator,
			Transform: n,
			Identity:  identity,
		})
		w.consumed[n] = true
	}
	w.visitChildren(n, false, out)
}

func (w *Walker) emitShape(shape, transform *scene.RawNode, chain []*scene.RawNode, ambiguous bool, out *[]Discovery) {
	role := scene.RoleMesh
	if shape.Kind == scene.KindCamera {
		role = scene.RoleCamera
	}

	names := make([]string, 0, len(chain)+2)
	if transform != shape {
		names = append(names, transform.Name)
	}
	for _, link := range chain {
		names = append(names, link.Name)
	}
	names = append(names, shape.Name)
	identity := w.Naming(names)

	*out = append(*out, Discovery{
		Role:             role,
		Transform:        transform,
		Shape:            shape,
		Intermediates:    chain,
		Identity:         identity,
		GenericShapeName: identity != shape.Name,
		Ambiguous:        ambiguous,
	})
}

// findShape searches descendants of n up to MaxDepth for the first camera,
// else the first mesh, reachable through a chain of organizational wrappers.
// Transform children that are not organizational keep authority over their
// own shapes and are left for their own visit; the closest enclosing
// non-organizational transform supplies the authoritative stream. Returns the
// shape, the folded wrapper chain, how many other shapes were also reachable,
// and whether the depth bound cut the search short.
func (w *Walker) findShape(n *scene.RawNode) (shape *scene.RawNode, chain []*scene.RawNode, extra int, truncated bool) {
	type hit struct {
		node  *scene.RawNode
		chain []*scene.RawNode
	}
	var cameras, meshes []hit

	var search func(node *scene.RawNode, depth int, chain []*scene.RawNode)
	search = func(node *scene.RawNode, depth int, chain []*scene.RawNode) {
		for _, child := range node.Children {
			if w.consumed[child] {
				continue
			}
			switch child.Kind {
			case scene.KindCamera:
				cameras = append(cameras, hit{child, chain})
			case scene.KindPolyMesh:
				meshes = append(meshes, hit{child, chain})
			case scene.KindTransform:
				if !isOrganizational(child) {
					continue
				}
				if depth < w.MaxDepth {
					next := make([]*scene.RawNode, len(chain), len(chain)+1)
					copy(next, chain)
					search(child, depth+1, append(next, child))
				} else {
					truncated = true
				}
			}
		}
	}
	search(n, 0, nil)

	total := len(cameras) + len(meshes)
	if total == 0 {
		return nil, nil, 0, truncated
	}
	best := meshes
	if len(cameras) > 0 {
		best = cameras
	}
	return best[0].node, best[0].chain, total - 1, false
}

// isOrganizational: an unanimated transform that exists purely to wrap other
// nodes, either structurally (grouping only other transforms) or by
// well-known DCC boilerplate name. Such nodes never become canonical nodes.
func isOrganizational(n *scene.RawNode) bool {
	if n.Kind != scene.KindTransform || len(n.Children) == 0 {
		return false
	}
	if len(n.Transform) > 1 {
		return false
	}
	if config.IsBoilerplateName(n.Name) {
		return true
	}
	for _, child := range n.Children {
		if child.Kind != scene.KindTransform {
			return false
		}
	}
	return true
}

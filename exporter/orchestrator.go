package exporter

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/scene_cache_converter/scene"
)

// NodeStatus reports how one node fared in one format.
type NodeStatus struct {
	Identity    string
	Role        string
	Category    string
	Disposition string
}

// FormatStatus is the outcome of one format's export run. A panicking or
// failing exporter never takes down its siblings; the error lands here.
type FormatStatus struct {
	Format string
	Error  string `json:",omitempty"`
	Nodes  []NodeStatus
}

func (fs *FormatStatus) Failed() bool { return fs.Error != "" }

// Run exports one scene to every requested format concurrently. The result
// always has one FormatStatus per requested format, in request order; the
// returned error only covers unknown format names, per-format failures stay
// in their status entry.
func Run(s *scene.Scene, formats []string, sink OutputSink) ([]FormatStatus, error) {
	log := logrus.WithField("module", "exporter")

	handlers := make([]Exporter, len(formats))
	for i, format := range formats {
		e, err := GetHandler(format)
		if err != nil {
			return nil, errors.Wrapf(err, "Unknown export format %q", format)
		}
		handlers[i] = e
	}

	statuses := make([]FormatStatus, len(formats))

	var wg sync.WaitGroup
	for i := range handlers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = runOne(s, handlers[i], sink, log)
		}(i)
	}
	wg.Wait()

	return statuses, nil
}

func runOne(s *scene.Scene, e Exporter, sink OutputSink, log *logrus.Entry) (fs FormatStatus) {
	fs.Format = e.Name()

	defer func() {
		if r := recover(); r != nil {
			fs.Error = fmt.Sprintf("panic: %v", r)
			log.Errorf("Exporter %q panicked: %v", e.Name(), r)
		}
	}()

	plan := PlanFor(s, e)
	fs.Nodes = make([]NodeStatus, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		fs.Nodes = append(fs.Nodes, NodeStatus{
			Identity:    n.Identity,
			Role:        n.Role.String(),
			Category:    n.Category.String(),
			Disposition: plan.Of(n).String(),
		})
		if plan.Of(n) != DispositionNative {
			log.Warnf("Format %q: %v, node %q handled as %v", e.Name(),
				scene.UnsupportedAnimationf("cannot represent %v", n.Category),
				n.Identity, plan.Of(n))
		}
	}

	if err := e.Export(s, plan, sink); err != nil {
		fs.Error = err.Error()
		log.Errorf("Exporter %q failed: %v", e.Name(), err)
		return fs
	}

	log.Infof("Format %q: exported %d of %d nodes", e.Name(), len(plan.Included(s)), len(s.Nodes))
	return fs
}

// OutputName builds the conventional primary file name for a format.
func OutputName(s *scene.Scene, e Exporter) string {
	name := s.Name
	if name == "" {
		name = "scene"
	}
	return name + e.FileExtension()
}

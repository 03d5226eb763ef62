package visualizer

import (
	"fmt"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// surface is the set of canvases mounted in the container.
type surface struct {
	container ports.Container
	border    int
	canvases  []ports.Canvas
}

// content returns the container size available to canvases.
func (s *surface) content() domain.Size {
	return s.container.Size().Shrink(2*s.border, 2*s.border)
}

func buildSurface(host ports.Host, container ports.Container, border int, layout []domain.Size) (*surface, error) {
	s := &surface{container: container, border: border}
	for i, size := range layout {
		c, err := host.NewCanvas(size.Width, size.Height)
		if err != nil {
			s.unmount()
			return nil, fmt.Errorf("create canvas %d: %w", i, err)
		}
		s.canvases = append(s.canvases, c)
		container.Mount(c)
	}
	return s, nil
}

// resize applies a new layout. The number of canvases never changes after build.
func (s *surface) resize(layout []domain.Size) {
	for i, c := range s.canvases {
		if i >= len(layout) {
			break
		}
		if c.Width() != layout[i].Width || c.Height() != layout[i].Height {
			c.SetSize(layout[i].Width, layout[i].Height)
		}
	}
}

func (s *surface) unmount() {
	for _, c := range s.canvases {
		s.container.Unmount(c)
	}
	s.canvases = nil
}

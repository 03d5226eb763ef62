// Package main is the demo entry point: it plays one file and shows one
// visualization of it in a window.
//
// Build:
//
//	go build -o build/audiovis ./cmd
//
// Run:
//
//	./build/audiovis [kind] <file>
//
// Without a kind the last shown kind is used.
// Space toggles playback and F toggles fullscreen for kinds that support it.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tejashwikalptaru/audiovis/internal/app"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/visualizer"
)

func usage() error {
	kinds := make([]string, 0, 7)
	for _, k := range visualizer.Kinds() {
		kinds = append(kinds, string(k.Kind))
	}
	return errors.New("usage: audiovis [kind] <file>\nkinds: " + strings.Join(kinds, ", "))
}

func run() error {
	config := app.DefaultConfig()
	switch len(os.Args) {
	case 2:
		config.Src = os.Args[1]
	case 3:
		config.Kind = domain.Kind(os.Args[1])
		config.Src = os.Args[2]
	default:
		return usage()
	}

	application, err := app.NewApplication(config)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownKind) {
			return fmt.Errorf("%w\n%w", err, usage())
		}
		return err
	}
	defer application.Shutdown()

	// blocks until the window is closed
	application.Run()
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

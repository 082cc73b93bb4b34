// Command scenepack compiles a YAML scene description into the binary
// scene payload consumed by scene buffers. The scene is replayed into a
// live buffer and run through the full build pipeline first, so layout
// problems (bad colors, missing fonts, degenerate bounds) surface at
// pack time rather than at load time.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/sdfscene"
	"github.com/gogpu/sdfscene/alloc"
	"github.com/gogpu/sdfscene/font"
	"github.com/gogpu/sdfscene/scenefile"
)

func main() {
	var (
		in      = flag.String("in", "", "input scene YAML file")
		out     = flag.String("out", "scene.bin", "output payload file")
		base64  = flag.Bool("base64", false, "write the payload base64-encoded")
		verbose = flag.Bool("v", false, "log build details to stderr")
	)
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		sdfscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	scene, err := scenefile.Load(*in)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *in, err)
	}

	builder := buildScene(scene)

	var payload []byte
	if *base64 {
		payload = []byte(scenefile.EncodeBase64(scene))
	} else {
		payload = scenefile.Encode(scene)
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	log.Printf("Packed %s to %s (%d primitives, %d glyphs, %dx%d grid, %d bytes)\n",
		*in, *out, scene.PrimCount, builder.GlyphCount(),
		builder.GridWidth(), builder.GridHeight(), len(payload))
}

// buildScene replays the scene into a buffer and runs the build pipeline
// against an in-memory arena. Any failure aborts the pack.
func buildScene(scene *scenefile.Scene) *sdfscene.Builder {
	var opts []sdfscene.BufferOption
	fonts, err := font.New()
	if err != nil {
		log.Printf("Font store unavailable, text spans will be skipped: %v", err)
	} else {
		opts = append(opts, sdfscene.WithFontSource(fonts))
	}

	buf := sdfscene.NewBuffer(opts...)
	if err := scene.Apply(buf); err != nil {
		log.Fatalf("Failed to replay scene: %v", err)
	}

	arena, err := alloc.New(alloc.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to create arena: %v", err)
	}
	builder := sdfscene.NewBuilder(buf, 0, sdfscene.WithAutoBounds())
	if err := builder.Calculate(); err != nil {
		log.Fatalf("Failed to calculate scene: %v", err)
	}
	if err := builder.DeclareNeeds(arena); err != nil {
		log.Fatalf("Failed to declare needs: %v", err)
	}
	if err := arena.CommitReservations(); err != nil {
		log.Fatalf("Failed to commit reservations: %v", err)
	}
	if err := builder.Allocate(arena); err != nil {
		log.Fatalf("Failed to allocate: %v", err)
	}
	if err := builder.Write(arena, arena); err != nil {
		log.Fatalf("Failed to write scene: %v", err)
	}
	return builder
}

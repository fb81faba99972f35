// Command deepdream amplifies the patterns a convolutional network sees in
// an image, or dreams a zooming sequence of frames.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/deepdream"
	"github.com/setanarut/deepdream/backbone"
	"github.com/setanarut/deepdream/utils"
)

func main() {
	var (
		in            = flag.String("in", "", "input image (required)")
		width         = flag.Int("width", 600, "resize input to this width keeping the aspect ratio, 0 keeps the size")
		out           = flag.String("out", "dream.jpg", "output image for single-frame mode")
		frames        = flag.Int("frames", 1, "number of frames; more than one writes a sequence to -video-dir")
		videoDir      = flag.String("video-dir", "video", "output directory for frame sequences")
		octaves       = flag.Int("octaves", 0, "pyramid levels, 0 derives from the image size")
		ratio         = flag.Float64("ratio", 1/1.4, "scale between pyramid levels")
		iters         = flag.Int("iters", 10, "ascent steps per octave")
		lr            = flag.Float64("lr", 0.09, "learning rate")
		jitter        = flag.Int("jitter", -1, "max jitter in pixels, -1 derives from the image width")
		layer         = flag.String("layer", "conv3", "activation to amplify")
		optimizer     = flag.String("optimizer", "normalized", "ascent rule: normalized or adam")
		stats         = flag.String("stats", "imagenet1", "normalization statistics: imagenet1 or imagenet255")
		seed          = flag.Uint64("seed", 1, "jitter seed")
		weights       = flag.String("weights", "", "safetensors file with backbone weights")
		zoom          = flag.Float64("zoom", 0.05, "per-frame zoom coefficient in sequence mode")
		rotate        = flag.Float64("rotate", 0, "per-frame rotation in degrees in sequence mode")
		palette       = flag.Int("palette", 0, "write a palette swatch with this many colors next to each frame")
		paletteMethod = flag.String("palette-method", "dominantcolor", "palette extraction: dominantcolor or kmeans")
		verbose       = flag.Bool("v", false, "log progress")
	)
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(config{
		in: *in, width: *width, out: *out, frames: *frames, videoDir: *videoDir,
		octaves: *octaves, ratio: *ratio, iters: *iters, lr: *lr, jitter: *jitter,
		layer: *layer, optimizer: *optimizer, stats: *stats, seed: *seed,
		weights: *weights, zoom: *zoom, rotate: *rotate,
		palette: *palette, paletteMethod: *paletteMethod, verbose: *verbose,
	}); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

type config struct {
	in, out, videoDir      string
	width, frames          int
	octaves, iters, jitter int
	ratio, lr              float64
	layer, optimizer       string
	stats                  string
	seed                   uint64
	weights                string
	zoom, rotate           float64
	palette                int
	paletteMethod          string
	verbose                bool
}

func run(cfg config) error {
	img, err := utils.ReadImage(cfg.in, utils.Shape{Width: cfg.width})
	if err != nil {
		return err
	}

	opt := deepdream.OptionsFromSize(img.Size())
	opt.OctaveRatio = cfg.ratio
	if cfg.octaves > 0 {
		opt.Octaves = cfg.octaves
	} else {
		opt.FitOctaves(img.Size(), deepdream.DefaultOptions().Octaves)
	}
	if cfg.jitter >= 0 {
		opt.Jitter = cfg.jitter
	}
	opt.Iterations = cfg.iters
	opt.LearningRate = cfg.lr
	opt.Layer = cfg.layer
	opt.Seed = cfg.seed
	opt.Verbose = cfg.verbose
	if opt.Optimizer, err = deepdream.ParseOptimizer(cfg.optimizer); err != nil {
		return err
	}
	if opt.Stats, err = deepdream.ParseStats(cfg.stats); err != nil {
		return err
	}
	method, err := utils.ParsePaletteMethod(cfg.paletteMethod)
	if err != nil {
		return err
	}

	net, err := backbone.New(backbone.DefaultConfig())
	if err != nil {
		return err
	}
	if cfg.weights != "" {
		n, err := net.LoadSafetensors(cfg.weights)
		if err != nil {
			return err
		}
		if cfg.verbose {
			log.Printf("loaded %d tensors from %s", n, cfg.weights)
		}
	}

	dreamer, err := deepdream.NewDreamer(net, opt)
	if err != nil {
		return err
	}
	if cfg.verbose {
		log.Printf("image %dx%d, %d octaves, layer %s, bounds %v", img.W, img.H, opt.Octaves, opt.Layer, dreamer.Bounds())
	}

	save := func(frame deepdream.Image, filename string) error {
		if err := utils.SaveFrame(frame, filename); err != nil {
			return err
		}
		if cfg.palette <= 0 {
			return nil
		}
		colors := utils.ExtractPalette(frame.NRGBA(), cfg.palette, method)
		if cfg.verbose {
			log.Printf("%s palette %s", filename, strings.Join(utils.PaletteHex(colors), " "))
		}
		return utils.SavePalette(colors, 64, strings.TrimSuffix(filename, filepath.Ext(filename))+"_palette.png")
	}

	if cfg.frames <= 1 {
		result, err := dreamer.Dream(img)
		if err != nil {
			return err
		}
		return save(result, cfg.out)
	}

	_, err = dreamer.DreamSequence(img, cfg.frames, utils.FrameTransform(cfg.zoom, cfg.rotate),
		func(i int, frame deepdream.Image) error {
			return save(frame, filepath.Join(cfg.videoDir, fmt.Sprintf("%d.jpg", i)))
		})
	return err
}

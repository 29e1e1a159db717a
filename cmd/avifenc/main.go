/*
NAME
  main.go - avifenc is a command-line driver that reads a raw planar YUV
  frame from disk and encodes it into an AVIF file.

DESCRIPTION
  Pixel sourcing (container demuxing, PNG/JPEG decode, resampling) is out
  of scope; the input is already-planar, already-sized sample data, one
  plane after another, matching the -format/-width/-height/-depth flags.
  This mirrors this repo's cmd/rv in structure (license header, versioned
  const, flag-parsed configuration, lumberjack + ausocean/utils/logging
  wiring) while dropping the netsender/cloud-control surface, which has no
  analogue in a local, one-shot encode.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements avifenc, a local AVIF-encoding CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/avifenc/avif"
	"github.com/ausocean/avifenc/codec/av1"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "avifenc.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pkg = "avifenc: "

func main() {
	showVersion := flag.Bool("version", false, "show version")
	input := flag.String("in", "", "path to raw planar input sample data")
	output := flag.String("out", "out.avif", "path to write the encoded AVIF file")
	width := flag.Int("width", 0, "image width in pixels")
	height := flag.Int("height", 0, "image height in pixels")
	depth := flag.Int("depth", 8, "bit depth (8, 10 or 12)")
	format := flag.String("format", "420", "chroma subsampling: 420, 422, 444 or 400")
	quality := flag.Int("quality", 90, "encode quality, 0..100")
	threads := flag.Int("threads", 1, "maximum encoder worker threads")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	verbosity := logVerbosity
	if *verbose {
		verbosity = logging.Debug
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(verbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	log.Info("starting avifenc", "version", version)

	if *input == "" || *width <= 0 || *height <= 0 {
		log.Fatal(pkg + "in, width and height are required")
	}

	pixFmt, err := parseFormat(*format)
	if err != nil {
		log.Fatal(pkg+"invalid format", "error", err.Error())
	}

	img, err := readImage(*input, *width, *height, *depth, pixFmt)
	if err != nil {
		log.Fatal(pkg+"could not read input", "error", err.Error())
	}

	enc, err := avif.New(log, func() avif.Adapter { return av1.NewAomAdapter(log, *threads) },
		avif.WithMaxThreads(*threads),
		avif.WithQuality(*quality),
	)
	if err != nil {
		log.Fatal(pkg+"could not create encoder", "error", err.Error())
	}

	log.Debug("adding image")
	if err := enc.AddImage(img); err != nil {
		log.Fatal(pkg+"could not add image", "error", err.Error())
	}

	log.Debug("finishing encode")
	data, err := enc.Finish()
	if err != nil {
		log.Fatal(pkg+"could not finish encode", "error", err.Error())
	}

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatal(pkg+"could not write output", "error", err.Error())
	}

	log.Info("wrote avif file", "path", *output, "bytes", len(data))
}

// parseFormat converts a chroma-subsampling flag string into an
// avif.PixelFormat.
func parseFormat(s string) (avif.PixelFormat, error) {
	switch s {
	case "420":
		return avif.Yuv420, nil
	case "422":
		return avif.Yuv422, nil
	case "444":
		return avif.Yuv444, nil
	case "400":
		return avif.Yuv400, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

// readImage loads width*height (plus subsampled chroma planes per format)
// of raw planar sample data from path and wraps it as an avif.Image.
// Samples wider than 8 bits are read as two little-endian bytes each,
// matching avif.Image's documented plane encoding.
func readImage(path string, width, height, depth int, format avif.PixelFormat) (*avif.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	bytesPerSample := 1
	if depth > 8 {
		bytesPerSample = 2
	}

	img := &avif.Image{
		Width:  width,
		Height: height,
		Depth:  depth,
		Format: format,
	}

	shiftX, shiftY := format.ChromaShiftX(), format.ChromaShiftY()
	offset := 0
	for p := 0; p < format.PlaneCount(); p++ {
		pw, ph := width, height
		if p > 0 {
			pw = (width + (1 << shiftX) - 1) >> shiftX
			ph = (height + (1 << shiftY) - 1) >> shiftY
		}
		n := pw * ph * bytesPerSample
		if offset+n > len(raw) {
			return nil, fmt.Errorf("input file too short for plane %d: need %d more bytes", p, offset+n-len(raw))
		}
		img.Plane[p] = raw[offset : offset+n]
		img.Stride[p] = pw
		offset += n
	}

	return img, nil
}

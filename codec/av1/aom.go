/*
NAME
  aom.go - drives the aomenc command-line encoder as an external process,
  implementing avif.Adapter.

DESCRIPTION
  Mirrors this repo's device/raspivid adapter: a concrete capture/encode
  back-end wraps os/exec, feeding data in over a pipe and reading the
  result back over another. Here the "device" is a one-shot aomenc
  invocation per EncodeImage call rather than a long-running process,
  since AVIF's item and layer model encodes one frame (or one layer) at a
  time rather than a continuous stream.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/ausocean/avifenc/avif"
	"github.com/ausocean/utils/logging"
)

// AomAdapter drives an external aomenc binary, one process per encoded
// sample, fulfilling avif.Adapter.
type AomAdapter struct {
	log        logging.Logger
	maxThreads int

	binary string // Defaults to "aomenc"; overridable for test harnesses.
}

// NewAomAdapter returns an AomAdapter logging to log with up to maxThreads
// aomenc worker threads.
func NewAomAdapter(log logging.Logger, maxThreads int) *AomAdapter {
	return &AomAdapter{log: log, maxThreads: maxThreads, binary: "aomenc"}
}

// EncodeImage implements avif.Adapter.
func (a *AomAdapter) EncodeImage(img *avif.Image, category avif.Category, cfg avif.EncodeConfig, out *[]avif.Sample) error {
	args := a.buildArgs(img, category, cfg)

	cmd := exec.Command(a.binary, args...)
	cmd.Stdin = bytes.NewReader(encodeY4M(img))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.log.Debug("running aomenc", "args", args)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aomenc: %w: %s", err, stderr.String())
	}

	frames, err := parseIVF(stdout.Bytes())
	if err != nil {
		return fmt.Errorf("parse aomenc ivf output: %w", err)
	}
	for i, f := range frames {
		*out = append(*out, avif.Sample{Data: f, Sync: i == 0})
	}
	return nil
}

// Finish implements avif.Adapter. aomenc is invoked once per sample with
// lagged output disabled for still-image use, so there is never any
// buffered output to flush.
func (a *AomAdapter) Finish(out *[]avif.Sample) error {
	return nil
}

// buildArgs translates an EncodeConfig and Image into aomenc's
// command-line flags.
func (a *AomAdapter) buildArgs(img *avif.Image, category avif.Category, cfg avif.EncodeConfig) []string {
	args := []string{
		"--ivf",
		"-o", "-",
		"--width=" + strconv.Itoa(img.Width),
		"--height=" + strconv.Itoa(img.Height),
		"--bit-depth=" + strconv.Itoa(img.Depth),
		"--cpu-used=" + strconv.Itoa(a.speed()),
		"--end-usage=q",
		"--cq-level=" + strconv.Itoa(cfg.Quantizer),
		"--profile=" + strconv.Itoa(Profile(img.Depth, img.Format, category)),
		"--threads=" + strconv.Itoa(a.maxThreads),
		"--tile-rows=" + strconv.Itoa(cfg.TileRowsLog2),
		"--tile-columns=" + strconv.Itoa(cfg.TileColumnsLog2),
	}
	if category == avif.Alpha {
		args = append(args, "--monochrome")
	} else if img.Format == avif.Yuv400 {
		args = append(args, "--monochrome")
	}
	if cfg.DisableLaggedOutput {
		args = append(args, "--lag-in-frames=0")
	}
	if cfg.IsSingleImage {
		args = append(args, "--limit=1", "--passes=1", "--kf-max-dist=0")
	} else if cfg.ForceKeyframe {
		args = append(args, "--limit=1", "--passes=1", "--kf-max-dist=0", "--force-key-frames")
	}
	args = append(args, "-")
	return args
}

// speed returns the fixed --cpu-used value this adapter passes to aomenc,
// a middling, broadly-applicable value; avif.Settings.Speed does not reach
// adapters.
func (a *AomAdapter) speed() int { return 6 }

// encodeY4M wraps img's planar pixel data in a minimal single-frame Y4M
// container, the format aomenc reads from stdin.
func encodeY4M(img *avif.Image) []byte {
	var buf bytes.Buffer
	chroma := "420"
	switch img.Format {
	case avif.Yuv422:
		chroma = "422"
	case avif.Yuv444:
		chroma = "444"
	case avif.Yuv400:
		chroma = "mono"
	}
	fmt.Fprintf(&buf, "YUV4MPEG2 W%d H%d F25:1 Ip A1:1 C%s\n", img.Width, img.Height, chroma)
	buf.WriteString("FRAME\n")
	for p := avif.PlaneY; p <= avif.PlaneV; p++ {
		if !img.HasPlane(p) {
			continue
		}
		buf.Write(img.Plane[p])
	}
	return buf.Bytes()
}

// ivfFileHeaderSize and ivfFrameHeaderSize are the fixed-size portions of
// the IVF container aomenc emits with --ivf.
const (
	ivfFileHeaderSize  = 32
	ivfFrameHeaderSize = 12
)

// parseIVF extracts each frame's raw OBU payload from an IVF byte stream.
func parseIVF(b []byte) ([][]byte, error) {
	if len(b) < ivfFileHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	b = b[ivfFileHeaderSize:]

	var frames [][]byte
	for len(b) > 0 {
		if len(b) < ivfFrameHeaderSize {
			return nil, fmt.Errorf("truncated ivf frame header")
		}
		size := binary.LittleEndian.Uint32(b[:4])
		b = b[ivfFrameHeaderSize:]
		if uint32(len(b)) < size {
			return nil, fmt.Errorf("truncated ivf frame payload")
		}
		frames = append(frames, b[:size])
		b = b[size:]
	}
	return frames, nil
}

/*
NAME
  settings.go - encoder configuration: a fixed-at-construction block plus a
  mutable-between-calls block, configured through functional options.

DESCRIPTION
  Mirrors the functional-options pattern this repo already uses for its
  MPEG-TS encoder (container/mts.Option): each Option knows whether it
  targets the fixed or mutable half of Settings, so Configure can reject an
  attempt to change a fixed field mid-encode with CannotChangeSetting,
  per spec.md §3's "mutating a fixed field after creation fails".

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

// MaxAV1LayerCount bounds Settings.ExtraLayerCount, per spec.md §3.
const MaxAV1LayerCount = 4

// FixedSettings holds configuration fixed for the lifetime of an encoder
// instance.
type FixedSettings struct {
	MaxThreads       int
	Speed            int
	KeyframeInterval int
	Timescale        uint32
	RepetitionCount  int
	ExtraLayerCount  int
}

// MutableSettings holds configuration that may change between add_image*
// calls.
type MutableSettings struct {
	Quality         int
	TileRowsLog2    int
	TileColumnsLog2 int
	AutoTiling      bool
	ScalingMode     int
}

// Settings is the full encoder configuration.
type Settings struct {
	FixedSettings
	MutableSettings
}

// defaultSettings matches the reference CLI driver's defaults (spec.md
// §6): moderate speed, quality 90, single-threaded, no layering.
func defaultSettings() Settings {
	return Settings{
		FixedSettings: FixedSettings{
			MaxThreads:       1,
			Speed:            6,
			KeyframeInterval: 0,
			Timescale:        10000,
			RepetitionCount:  0,
			ExtraLayerCount:  0,
		},
		MutableSettings: MutableSettings{
			Quality:         90,
			TileRowsLog2:    0,
			TileColumnsLog2: 0,
			AutoTiling:      false,
			ScalingMode:     0,
		},
	}
}

// Option configures a Settings field. Options are tagged fixed or mutable
// so Configure can refuse to apply a fixed option once the encoder has
// left the Fresh state.
type Option struct {
	fixed bool
	apply func(*Settings) error
}

func fixedOption(apply func(*Settings) error) Option {
	return Option{fixed: true, apply: apply}
}

func mutableOption(apply func(*Settings) error) Option {
	return Option{fixed: false, apply: apply}
}

// WithMaxThreads sets Settings.MaxThreads. EncodeConfig does not carry it,
// so it does not reach adapters; an adapter's thread count is whatever its
// AdapterFactory gives it (av1.NewAomAdapter takes its own maxThreads).
func WithMaxThreads(n int) Option {
	return fixedOption(func(s *Settings) error {
		if n < 1 {
			return newErr(InvalidArgument, "max threads must be >= 1, got %d", n)
		}
		s.MaxThreads = n
		return nil
	})
}

// WithSpeed sets Settings.Speed. EncodeConfig does not carry it, so it does
// not reach adapters; AomAdapter always passes its own fixed speed.
func WithSpeed(n int) Option {
	return fixedOption(func(s *Settings) error {
		s.Speed = n
		return nil
	})
}

// WithKeyframeInterval sets the maximum number of frames between sync
// samples in sequence mode (0 disables forced keyframing).
func WithKeyframeInterval(n int) Option {
	return fixedOption(func(s *Settings) error {
		if n < 0 {
			return newErr(InvalidArgument, "keyframe interval must be >= 0, got %d", n)
		}
		s.KeyframeInterval = n
		return nil
	})
}

// WithTimescale sets the movie timescale used by mvhd/mdhd in sequence
// mode.
func WithTimescale(n uint32) Option {
	return fixedOption(func(s *Settings) error {
		if n == 0 {
			return newErr(InvalidArgument, "timescale must be > 0")
		}
		s.Timescale = n
		return nil
	})
}

// WithRepetitionCount sets Settings.RepetitionCount (-1 for infinite,
// matching the reference driver's convention). Finish writes no box that
// carries it, so the output file records no loop count.
func WithRepetitionCount(n int) Option {
	return fixedOption(func(s *Settings) error {
		s.RepetitionCount = n
		return nil
	})
}

// WithExtraLayerCount enables progressive layered encoding with n
// enhancement layers beyond the base layer.
func WithExtraLayerCount(n int) Option {
	return fixedOption(func(s *Settings) error {
		if n < 0 || n >= MaxAV1LayerCount {
			return newErr(InvalidArgument, "extra layer count must be in 0..%d, got %d", MaxAV1LayerCount-1, n)
		}
		s.ExtraLayerCount = n
		return nil
	})
}

// WithQuality sets the 0..100 quality scalar translated to a quantizer by
// qualityToQuantizer.
func WithQuality(n int) Option {
	return mutableOption(func(s *Settings) error {
		if n < 0 || n > 100 {
			return newErr(InvalidArgument, "quality must be in 0..=100, got %d", n)
		}
		s.Quality = n
		return nil
	})
}

// WithTileRowsLog2 sets the log2 tile-row count passed to the codec
// adapter.
func WithTileRowsLog2(n int) Option {
	return mutableOption(func(s *Settings) error {
		s.TileRowsLog2 = n
		return nil
	})
}

// WithTileColumnsLog2 sets the log2 tile-column count passed to the codec
// adapter.
func WithTileColumnsLog2(n int) Option {
	return mutableOption(func(s *Settings) error {
		s.TileColumnsLog2 = n
		return nil
	})
}

// WithAutoTiling sets Settings.AutoTiling. EncodeConfig does not carry it,
// so adapters always receive the explicit tile row/column settings.
func WithAutoTiling(on bool) Option {
	return mutableOption(func(s *Settings) error {
		s.AutoTiling = on
		return nil
	})
}

// WithScalingMode sets Settings.ScalingMode. EncodeConfig does not carry
// it, so it does not reach adapters.
func WithScalingMode(n int) Option {
	return mutableOption(func(s *Settings) error {
		s.ScalingMode = n
		return nil
	})
}

package main

import (
	"railviz/internal/config"
	"railviz/internal/geometry"
	"railviz/internal/layout"
	"railviz/internal/scene"
	"railviz/internal/session"
)

// sessionConfig maps the file configuration onto render session settings.
// Zero layout fields keep the engine defaults.
func sessionConfig(cfg *config.Config) session.Config {
	opts := layout.DefaultOptions(cfg.Canvas.Width, cfg.Canvas.Height)
	if cfg.Layout.Seed != 0 {
		opts.Seed = cfg.Layout.Seed
	}
	if cfg.Layout.LinkDistance > 0 {
		opts.LinkDistance = cfg.Layout.LinkDistance
	}
	if cfg.Layout.AlphaMin > 0 {
		opts.AlphaMin = cfg.Layout.AlphaMin
	}
	if cfg.Layout.AlphaDecay > 0 {
		opts.AlphaDecay = cfg.Layout.AlphaDecay
	}
	if cfg.Layout.VelocityDecay > 0 {
		opts.VelocityDecay = cfg.Layout.VelocityDecay
	}
	opts.MaxIterations = cfg.Layout.MaxIterations
	opts.TickInterval = cfg.Layout.TickInterval.Duration()

	sc := session.Config{
		Width:            cfg.Canvas.Width,
		Height:           cfg.Canvas.Height,
		Offset:           cfg.Canvas.Offset,
		AspectCorrection: cfg.Canvas.AspectCorrection,
		Layout:           opts,
		Table:            geometry.DefaultTable,
	}

	if icon := cfg.Assets.SignalIcon; icon != "" {
		sc.LoadIcon = func() (*scene.Icon, error) {
			return scene.LoadIcon(icon)
		}
	}
	return sc
}

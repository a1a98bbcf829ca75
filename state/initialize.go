package state

import (
	"fmt"

	"ttx/config"
	"ttx/layout"
	"ttx/legalise"
	"ttx/page"
	"ttx/tti"
)

// ApplyConfig resolves configured character sets and prepares legaliser.
// Cfg must be loaded.
func (e *LocalEnv) ApplyConfig() (err error) {
	if e.InputCharset, err = config.Charset(e.Cfg.TTI.InputCharset); err != nil {
		return fmt.Errorf("input character set: %w", err)
	}
	if e.OutputCharset, err = config.Charset(e.Cfg.TTI.OutputCharset); err != nil {
		return fmt.Errorf("output character set: %w", err)
	}
	e.Legaliser = legalise.New(e.Cfg.Layout.Substitutions)
	return nil
}

// EncodeOptions returns TTI encoder settings.
func (e *LocalEnv) EncodeOptions() tti.Options {
	return tti.Options{Tag: e.Cfg.TTI.HeaderTag}
}

// NumberOptions returns subpage counter placement.
func (e *LocalEnv) NumberOptions() page.NumberOptions {
	opts := page.NumberOptions{
		Row:    e.Cfg.Numbering.Row,
		Offset: e.Cfg.Numbering.Offset,
		Align:  e.Cfg.Numbering.Align,
	}
	if len(e.Cfg.Numbering.PrefixColour) > 0 {
		opts.Prefix = layout.ColourCode(e.Cfg.Numbering.PrefixColour)
	}
	return opts
}

// Layout returns layout engine logging under "layout".
func (e *LocalEnv) Layout() *layout.Engine {
	return layout.New(e.Log.Named("layout"), e.Legaliser)
}

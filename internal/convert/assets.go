package convert

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// StyleCompiler turns a stylesheet source file into compressed CSS.
type StyleCompiler interface {
	Compile(path string) ([]byte, error)
}

// CSSCompiler reads plain CSS and minifies it.
type CSSCompiler struct {
	Minifier *render.Minifier
}

func (c CSSCompiler) Compile(path string) ([]byte, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return c.Minifier.CSS(src)
}

// Styles writes <name>.css.
type Styles struct {
	compiler StyleCompiler
	logger   *slog.Logger
}

func NewStyles(compiler StyleCompiler, logger *slog.Logger) *Styles {
	if logger == nil {
		logger = slog.Default()
	}
	return &Styles{compiler: compiler, logger: logger}
}

func (s *Styles) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	s.logger.Info("Reading style file", logfields.Path(res.Path))
	css, err := s.compiler.Compile(res.Path)
	if err != nil {
		return err
	}
	out := res.OutputPaths(outRoot)[0]
	s.logger.Info("Building style file", logfields.Resource(res.Name), logfields.Path(out))
	return writeOutput(out, css)
}

// Scripts writes minified <name>.js.
type Scripts struct {
	minifier *render.Minifier
	logger   *slog.Logger
}

func NewScripts(minifier *render.Minifier, logger *slog.Logger) *Scripts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scripts{minifier: minifier, logger: logger}
}

func (s *Scripts) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	src, err := readSource(res.Path)
	if err != nil {
		return err
	}
	js, err := s.minifier.JS(src)
	if err != nil {
		return err
	}
	out := res.OutputPaths(outRoot)[0]
	s.logger.Info("Writing script", logfields.Resource(res.Name), logfields.Path(out))
	return writeOutput(out, js)
}

// Icons copies <name>.ico verbatim.
type Icons struct {
	logger *slog.Logger
}

func NewIcons(logger *slog.Logger) *Icons {
	if logger == nil {
		logger = slog.Default()
	}
	return &Icons{logger: logger}
}

func (i *Icons) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	data, err := readSource(res.Path)
	if err != nil {
		return err
	}
	out := res.OutputPaths(outRoot)[0]
	i.logger.Info("Copying resource", logfields.Resource(res.Name), logfields.Path(out))
	return writeOutput(out, data)
}

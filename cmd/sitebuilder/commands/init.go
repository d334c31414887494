package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	source := root.Source
	if source == "" {
		source = config.DefaultSourceDir
	}
	return RunInit(root.Config, source, i.Force, time.Now())
}

const welcomeBody = `Your site is ready. Add Markdown articles, JPEG photos, stylesheets,
scripts and icons to this directory, then run ` + "`sitebuilder build`" + `.
`

// RunInit writes the example configuration and, when the source directory
// does not exist yet, creates it with a first article.
func RunInit(configPath, sourceDir string, force bool, now time.Time) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}

	if _, err := os.Stat(sourceDir); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return ferrors.FileSystemError("failed to inspect source directory").WithCause(err).Build()
	}

	page, err := frontmatter.Render(frontmatter.Meta{
		Title:       "Welcome",
		Description: "The first article on this site",
		Date:        now.UTC().Truncate(time.Second),
	}, []byte(welcomeBody))
	if err != nil {
		return ferrors.InternalError("failed to render welcome article").WithCause(err).Build()
	}
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return ferrors.FileSystemError("failed to create source directory").WithCause(err).Build()
	}
	welcome := filepath.Join(sourceDir, "welcome.md")
	if err := os.WriteFile(welcome, page, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write welcome article").WithCause(err).Build()
	}
	fmt.Printf("Created %s\n", welcome)
	return nil
}

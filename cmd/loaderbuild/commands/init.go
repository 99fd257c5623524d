package commands

import (
	"git.home.luguber.info/inful/loaderbuild/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	g.Console.Printf("Wrote configuration to %s", root.Config)
	return nil
}

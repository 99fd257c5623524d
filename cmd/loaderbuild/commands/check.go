package commands

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	SourceFlags
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, c.SourceFlags)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(g, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	resolved, err := svc.CheckTools(g.Ctx)
	for _, tool := range cfg.RequiredTools() {
		if path, ok := resolved[tool]; ok {
			g.Console.Printf("Found %s: %s", tool, path)
		}
	}
	if err != nil {
		return err
	}
	g.Console.Printf("All required tools found")
	return nil
}

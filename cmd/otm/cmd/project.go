package cmd

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/OpenTraceMCU/internal/config"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/setup"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/toolchain"
)

// project bundles the inputs every command works from.
type project struct {
	cfg     *config.Config
	catalog *catalog.MemoryCatalog
	schemas *regschema.Store
}

func loadProject() (*project, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(cfg.Resolve(cfg.Catalog))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	glog.V(1).Infof("project: %s, %d chips, definitions in %s", configPath, len(cat.Chips()), cfg.Resolve(cfg.Definitions))
	return &project{
		cfg:     cfg,
		catalog: cat,
		schemas: regschema.NewStore(cfg.Resolve(cfg.Definitions)),
	}, nil
}

type sessionOptions struct {
	mode       modeFlag
	direct     bool
	strict     bool
	noRegister bool
}

// options turns the command flags into session options.
func (p *project) options(so sessionOptions) ([]setup.Option, error) {
	opts := p.cfg.GeneratorOptions()
	if so.mode.set {
		opts.Mode = so.mode.mode
	}
	if so.direct {
		opts.Mode = codegen.Direct
	}
	var reg toolchain.Registrar = toolchain.Nop{}
	if !so.noRegister {
		r, err := toolchain.ParseCommand(p.cfg.Toolchain)
		if err != nil {
			return nil, err
		}
		reg = r
	}
	return []setup.Option{
		setup.WithGenerator(codegen.New(p.cfg.Layout(), opts)),
		setup.WithRegistrar(reg),
		setup.WithStrict(so.strict),
	}, nil
}

func (p *project) open(chip string, so sessionOptions) (*setup.Session, error) {
	opts, err := p.options(so)
	if err != nil {
		return nil, err
	}
	return setup.Open(p.catalog, p.schemas, chip, opts...)
}

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lifebook-lab/lifebook/pkg/db"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
	"github.com/lifebook-lab/lifebook/pkg/flags"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
	"github.com/lifebook-lab/lifebook/pkg/server"
)

type ServeFlags struct {
	DBFlags     *flags.PostgresFlags
	LLMFlags    *flags.LLMFlags
	ConfigFlags *flags.ConfigFlags

	ListenAddr string
	InitSchema bool
}

func NewServeFlags() *ServeFlags {
	return &ServeFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		LLMFlags:    flags.NewLLMFlags(),
		ConfigFlags: flags.NewConfigFlags(),
		ListenAddr:  ":8000",
	}
}

func (f *ServeFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.LLMFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the API on (default :8000)")
	fs.BoolVar(&f.InitSchema, "init-database", false, "Migrate the DB schema before serving")
}

func NewServeCommand() *cobra.Command {
	f := NewServeFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the LifeBook API",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return err
			}
			if f.InitSchema {
				if err := dbc.UpdateSchema(); err != nil {
					return errors.WithMessage(err, "could not migrate db")
				}
			}

			gateway, err := f.LLMFlags.GetGateway()
			if err != nil {
				return err
			}
			cfg, err := f.ConfigFlags.GetConfig()
			if err != nil {
				return err
			}

			store := db.NewStore(dbc)
			pipeline := extraction.NewPipeline(store, gateway, prompts.DefaultCatalog(), cfg)

			return server.New(f.ListenAddr, store, pipeline).Serve()
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

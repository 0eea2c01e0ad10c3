package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lifebook-lab/lifebook/pkg/db"
	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
	"github.com/lifebook-lab/lifebook/pkg/flags"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

type SeedFlags struct {
	DBFlags     *flags.PostgresFlags
	LLMFlags    *flags.LLMFlags
	ConfigFlags *flags.ConfigFlags

	InitDatabase bool
	UserName     string
	Locale       string
	Pipeline     string
	Messages     []string
}

func NewSeedFlags() *SeedFlags {
	f := &SeedFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		LLMFlags:    flags.NewLLMFlags(),
		ConfigFlags: flags.NewConfigFlags(),
		UserName:    "Test User",
		Locale:      "en",
		Pipeline:    string(models.PipelineV1),
		Messages: []string{
			"I grew up in a small town in Ohio. My parents were both teachers.",
			"In college, I met my best friend Sarah. We studied computer science together.",
			"After graduation, I moved to San Francisco to work at a tech startup.",
		},
	}
	// Seeding is for development; default to the deterministic gateway.
	f.LLMFlags.Provider = flags.ProviderMock
	return f
}

func (f *SeedFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.LLMFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.BoolVar(&f.InitDatabase, "init-database", false, "Initialize the DB schema before seeding data")
	fs.StringVar(&f.UserName, "user", f.UserName, "Name of the demo user to create")
	fs.StringVar(&f.Locale, "locale", f.Locale, "Locale of the demo user")
	fs.StringVar(&f.Pipeline, "pipeline", f.Pipeline, "Pipeline version to seed with (v1 or v2)")
	fs.StringSliceVar(&f.Messages, "message", f.Messages, "Messages to seed (can be specified multiple times)")
}

// NewSeedCommand creates a demo user with one session and runs the sample
// messages through the pipeline, so a fresh database has data to explore.
func NewSeedCommand() *cobra.Command {
	f := NewSeedFlags()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with sample data for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return err
			}
			if f.InitDatabase {
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
			user := &models.User{Name: f.UserName, Locale: f.Locale}
			if err := store.CreateUser(user); err != nil {
				return errors.WithMessage(err, "could not create user")
			}
			session := &models.Session{UserID: user.ID}
			if err := store.CreateSession(session); err != nil {
				return errors.WithMessage(err, "could not create session")
			}
			log.WithFields(log.Fields{"user": user.ID, "session": session.ID}).Info("created demo user and session")

			pipeline := extraction.NewPipeline(store, gateway, prompts.DefaultCatalog(), cfg)
			for _, text := range f.Messages {
				summary, err := pipeline.ProcessMessage(cmd.Context(), session.ID, text, extraction.Options{
					Pipeline: models.PipelineVersion(f.Pipeline),
				})
				if err != nil {
					return errors.WithMessagef(err, "could not process seed message %q", text)
				}
				log.WithFields(log.Fields{
					"message":  summary.MessageID,
					"memories": summary.MemoriesCreated,
					"persons":  summary.PersonsCreated,
				}).Info("seeded message")
			}

			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

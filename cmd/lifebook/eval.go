package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lifebook-lab/lifebook/pkg/db"
	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/eval"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
	"github.com/lifebook-lab/lifebook/pkg/flags"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

type EvalFlags struct {
	DBFlags     *flags.PostgresFlags
	LLMFlags    *flags.LLMFlags
	ConfigFlags *flags.ConfigFlags

	MessagesFile string
	OutputFile   string
}

func NewEvalFlags() *EvalFlags {
	return &EvalFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		LLMFlags:    flags.NewLLMFlags(),
		ConfigFlags: flags.NewConfigFlags(),
	}
}

func (f *EvalFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.LLMFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.StringVar(&f.MessagesFile, "messages", "", "JSON file with labelled test messages")
	fs.StringVar(&f.OutputFile, "output", "", "Write the Markdown report here (default stdout)")
}

// NewEvalCommand runs labelled messages through both pipeline versions
// under a throwaway user and writes a comparison report.
func NewEvalCommand() *cobra.Command {
	f := NewEvalFlags()

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Compare v1 and v2 person extraction on labelled messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.MessagesFile == "" {
				return errors.New("--messages is required")
			}
			messages, err := eval.LoadMessages(f.MessagesFile)
			if err != nil {
				return err
			}

			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				return err
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
			now := time.Now()

			user := &models.User{Name: fmt.Sprintf("Eval User %s", now.Format("20060102_150405"))}
			if err := store.CreateUser(user); err != nil {
				return errors.WithMessage(err, "could not create eval user")
			}
			session := &models.Session{UserID: user.ID}
			if err := store.CreateSession(session); err != nil {
				return errors.WithMessage(err, "could not create eval session")
			}
			log.WithFields(log.Fields{"user": user.ID, "session": session.ID}).Info("created eval user and session")

			pipeline := extraction.NewPipeline(store, gateway, prompts.DefaultCatalog(), cfg)
			runner := eval.NewRunner(pipeline, store)
			results, err := runner.Run(cmd.Context(), session.ID, messages)
			if err != nil {
				return err
			}

			out := os.Stdout
			if f.OutputFile != "" {
				file, err := os.Create(f.OutputFile)
				if err != nil {
					return errors.WithMessage(err, "could not create report file")
				}
				defer file.Close()
				out = file
			}
			return eval.WriteReport(out, results, now)
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

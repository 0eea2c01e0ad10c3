package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lifebook-lab/lifebook/pkg/db"
	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
	"github.com/lifebook-lab/lifebook/pkg/flags"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

type ProcessFlags struct {
	DBFlags     *flags.PostgresFlags
	LLMFlags    *flags.LLMFlags
	ConfigFlags *flags.ConfigFlags

	SessionID        uint
	Pipeline         string
	ExtractorVersion string
	PlannerVersion   string
}

func NewProcessFlags() *ProcessFlags {
	return &ProcessFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		LLMFlags:    flags.NewLLMFlags(),
		ConfigFlags: flags.NewConfigFlags(),
		Pipeline:    string(models.PipelineV1),
	}
}

func (f *ProcessFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.LLMFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.UintVar(&f.SessionID, "session", 0, "Session to attach the message to")
	fs.StringVar(&f.Pipeline, "pipeline", f.Pipeline, "Pipeline version to run (v1 or v2)")
	fs.StringVar(&f.ExtractorVersion, "extractor-version", "", "Extractor prompt version (default latest)")
	fs.StringVar(&f.PlannerVersion, "planner-version", "", "Planner prompt version (default latest)")
}

// NewProcessCommand runs a single message through the pipeline from the
// command line and prints the run summary.
func NewProcessCommand() *cobra.Command {
	f := NewProcessFlags()

	cmd := &cobra.Command{
		Use:   "process [message text]",
		Short: "Process one message through the extraction pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.SessionID == 0 {
				return errors.New("--session is required")
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

			pipeline := extraction.NewPipeline(db.NewStore(dbc), gateway, prompts.DefaultCatalog(), cfg)
			summary, err := pipeline.ProcessMessage(cmd.Context(), f.SessionID, args[0], extraction.Options{
				Pipeline:         models.PipelineVersion(f.Pipeline),
				ExtractorVersion: f.ExtractorVersion,
				PlannerVersion:   f.PlannerVersion,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}

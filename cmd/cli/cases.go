package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/fixtures"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var caseGroup = &cobra.Group{
	ID:    "case",
	Title: "Case operations",
}

var errGenerationDisabled = errors.NewSentinel("OPENAI_API_KEY is not set")

func parseCaseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid case id")
	}
	return id, nil
}

func (c *cli) caseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "case",
		GroupID: caseGroup.ID,
		Short:   "Browse, import and generate cases",
	}
	cmd.AddCommand(
		c.caseListCommand(),
		c.caseShowCommand(),
		c.caseImportCommand(),
		c.caseGenerateCommand(),
		c.caseSeedCommand(),
		c.caseIllustrateCommand(),
	)
	return cmd
}

func (c *cli) caseListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := c.cases.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:mnd // column layout
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
			for _, s := range summaries {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Title, s.Description)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) caseShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a case with its clues, suspects and timeline as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			detail, err := c.cases.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := struct {
				ID         int64    `json:"id"`
				Title      string   `json:"title"`
				Background string   `json:"background"`
				Time       string   `json:"time"`
				Clues      any      `json:"clues"`
				Suspects   any      `json:"suspects"`
				Timeline   []string `json:"timeline"`
			}{detail.ID, detail.Title, detail.Background, detail.Time, detail.Clues, detail.Suspects, detail.Events()}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		},
	}
}

func (c *cli) caseImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|file.yaml|->",
		Short: "Import a case from a JSON or YAML file, or JSON from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return errors.Wrap(err, "open case file")
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			var (
				id  int64
				err error
			)
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				var draft ingest.CaseDraft
				if err = yaml.NewDecoder(r).Decode(&draft); err != nil {
					return errors.Wrap(err, "decode YAML case")
				}
				id, err = c.pipeline.Ingest(cmd.Context(), draft)
			default:
				id, err = c.pipeline.IngestJSON(cmd.Context(), r)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported case %d\n", id)
			return nil
		},
	}
}

func (c *cli) caseGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a new case with the language model and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := c.pipeline.Generate(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "generated case %d\n", id)
			return nil
		},
	}
}

func (c *cli) caseSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the sample cases when the database is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeded, err := fixtures.Seed(cmd.Context(), c.cases, c.pipeline, c.logger)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d cases\n", seeded)
			return nil
		},
	}
}

func (c *cli) caseIllustrateCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "illustrate <id>",
		Short: "Generate a cover image for a case",
		Long:  `Generates a cover image for the case with DALL-E and saves it as PNG.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.ai == nil {
				return errGenerationDisabled
			}
			id, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			detail, err := c.cases.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("A moody illustration for the detective mystery %q: %s", detail.Title, detail.Background)
			img, err := c.ai.Illustrate(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if err = os.WriteFile(outPath, img, 0o600); err != nil { //nolint:mnd // owner read/write
				return errors.Wrap(err, "write image")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "The image was saved as %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "./out.png", "path to generated image file")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
)

func exposureCmd() *cobra.Command {
	var (
		typ      string
		body     string
		age      int
		birthday string
		date     string
	)
	cmd := &cobra.Command{
		Use:   "exposure",
		Short: "Print default exposure settings",
		Long: "Without --type, prints the whole exposure table. With --type, prints the\n" +
			"settings for one patient, given --age or --birthday (age on --date, default today).",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if typ == "" {
				printTemplates(out, imaging.Templates())
				return nil
			}

			t, err := imaging.ParseType(typ)
			if err != nil {
				return err
			}
			bt := imaging.BodyType(body)
			if !bt.Valid() {
				return fmt.Errorf("invalid body type %q", body)
			}
			if birthday != "" {
				if date == "" {
					date = imaging.FormatDate(time.Now())
				}
				if age, err = imaging.AgeOn(birthday, date); err != nil {
					return err
				}
			} else if age < 0 {
				return fmt.Errorf("--age or --birthday is required with --type")
			}

			cat := imaging.Category(age)
			settings, err := imaging.Lookup(t, cat, bt)
			if err != nil {
				return err
			}
			printTemplates(out, []imaging.TemplateRow{{Type: t, AgeCategory: cat, BodyType: bt, ExposureSettings: settings}})
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Imaging type, e.g. PANORAMA")
	cmd.Flags().StringVar(&body, "body", string(imaging.BodyNormal), "Body type: small, normal or large")
	cmd.Flags().IntVar(&age, "age", -1, "Patient age in years")
	cmd.Flags().StringVar(&birthday, "birthday", "", "Patient birthday (YYYY-MM-DD)")
	cmd.Flags().StringVar(&date, "date", "", "Reference date for --birthday (YYYY-MM-DD)")
	return cmd
}

func printTemplates(w io.Writer, rows []imaging.TemplateRow) {
	fmt.Fprintf(w, "%-14s %-6s %-7s %6s %5s %6s\n", "TYPE", "AGE", "BODY", "KV", "MA", "SEC")
	for _, r := range rows {
		fmt.Fprintf(w, "%-14s %-6s %-7s %6.0f %5.0f %6.2f\n", r.Type, r.AgeCategory, r.BodyType, r.KV, r.MA, r.Sec)
	}
}

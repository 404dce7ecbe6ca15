package main

import (
	"strings"

	"github.com/sanmaysarada/astraea/internal/study"
	"github.com/spf13/cobra"
)

var parseECRFOut string

var parseECRFCmd = &cobra.Command{
	Use:   "parse-ecrf <extracted-fields.json>",
	Short: "Normalize extracted eCRF form fields into ECRFForm records",
	Long: `PDF form-field extraction heuristics are out of scope (spec.md §1): this
command takes the already-extracted per-page field list an external PDF
reader produces and normalizes it into the ECRFForm shape map-domain's
context builder consumes — trimming whitespace and dropping fields with no
name.`,
	Args: cobra.ExactArgs(1),
	RunE: runParseECRF,
}

func init() {
	parseECRFCmd.Flags().StringVar(&parseECRFOut, "out", "", "Write the normalized ECRFForm JSON here instead of stdout")
}

func runParseECRF(cmd *cobra.Command, args []string) error {
	var forms []study.ECRFForm
	if err := loadJSON(args[0], &forms); err != nil {
		return err
	}

	var normalized []study.ECRFForm
	for _, form := range forms {
		form.FormName = strings.TrimSpace(form.FormName)
		if form.FormName == "" {
			continue
		}
		var fields []study.ECRFField
		for _, f := range form.Fields {
			f.Name = strings.TrimSpace(f.Name)
			f.Label = strings.TrimSpace(f.Label)
			if f.Name == "" {
				continue
			}
			fields = append(fields, f)
		}
		form.Fields = fields
		normalized = append(normalized, form)
	}

	printInfo("normalized %d eCRF form(s)", len(normalized))
	return writeJSON(parseECRFOut, normalized)
}

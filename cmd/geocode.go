package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/muni-gis/geocode-cli/internal/model"
)

// rowView is the single-address output shape shared with the HTTP API.
type rowView struct {
	Input      string               `json:"input"`
	Normalized string               `json:"normalized,omitempty"`
	Kind       model.RequestKind    `json:"kind"`
	Status     model.Status         `json:"status"`
	Message    string               `json:"message"`
	Result     *model.GeocodeResult `json:"result,omitempty"`
}

func viewOf(row *model.Row) rowView {
	v := rowView{
		Input:   row.RawText,
		Kind:    row.Request.Kind,
		Status:  row.Status,
		Message: row.Message,
		Result:  row.Result,
	}
	if row.Address != nil {
		v.Normalized = row.Address.String()
	}
	return v
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve a single address and print the result as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		row := env.Pipeline.Resolve(strings.Join(args, " "))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(viewOf(row)); err != nil {
			return eris.Wrap(err, "geocode: encode result")
		}
		if row.Status == model.StatusNotFound || row.Status == model.StatusSkipped {
			return fmt.Errorf("address not resolved: %s", row.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}

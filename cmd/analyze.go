package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/config"
	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/engine"
	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/gridio"
	"github.com/sells-group/ecoflow/internal/store"
)

var (
	analyzeModel      string
	analyzeSupply     string
	analyzeDemand     string
	analyzeResistance string
	analyzeElevation  string
	analyzeFlowOut    string
	analyzePathsOut   string
	analyzeNoStore    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one service-flow analysis",
	Long: `Loads the supply, demand, and resistance CSV layers, runs the selected
flow model, and prints the run summary as JSON.

Examples:
  # Surface water over a DEM
  ecoflow analyze --model surface-water --supply precip.csv --demand intake.csv \
    --resistance landcover.csv --elevation dem.csv --flow-out discharge.csv

  # Park access with flow-path export
  ecoflow analyze --model proximity --supply parks.csv --demand residents.csv \
    --resistance roads.csv --paths-out paths.geojson`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := gridio.ReadOptions{
			CellWidth:   cfg.Engine.CellWidth,
			CellHeight:  cfg.Engine.CellHeight,
			NoDataValue: cfg.IO.NoDataValue,
		}
		supply, err := gridio.ReadCSV(analyzeSupply, opts)
		if err != nil {
			return err
		}
		demand, err := gridio.ReadCSV(analyzeDemand, opts)
		if err != nil {
			return err
		}
		res, err := gridio.ReadCSV(analyzeResistance, opts)
		if err != nil {
			return err
		}
		var elevation *grid.Grid
		if analyzeElevation != "" {
			if elevation, err = gridio.ReadCSV(analyzeElevation, opts); err != nil {
				return err
			}
		} else {
			elevation = supply.Empty()
		}

		var coeffs map[string]float64
		if cfg.Scenario.Path != "" {
			scenario, err := config.LoadScenario(cfg.Scenario.Path)
			if err != nil {
				return err
			}
			coeffs = scenario.CoefficientsFor(analyzeModel)
		}

		analyzer, err := engine.New(cfg.Engine, coeffs)
		if err != nil {
			return err
		}

		result, runErr := analyzer.Analyze(ctx, engine.Inputs{
			Supply:     supply,
			Demand:     demand,
			Resistance: res,
			Spatial:    elevation,
		}, engine.ModelKey(analyzeModel))

		if !analyzeNoStore {
			if err := saveRun(cmd, result, runErr); err != nil {
				zap.L().Warn("analyze: could not persist run", zap.Error(err))
			}
		}
		if runErr != nil {
			// validation failures carry a report worth showing in full
			if ecoerr.Is(runErr, ecoerr.KindValidation) && result != nil && result.Validation != nil {
				printJSON(result.Validation)
			}
			return eris.Wrap(runErr, "analyze")
		}

		if analyzeFlowOut != "" {
			if err := gridio.WriteCSV(analyzeFlowOut, result.FlowField); err != nil {
				return err
			}
		}
		if analyzePathsOut != "" {
			if err := gridio.WritePathsGeoJSON(analyzePathsOut, result.Paths, supply); err != nil {
				return err
			}
		}

		return printJSON(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "flow model to run (see 'ecoflow models')")
	analyzeCmd.Flags().StringVar(&analyzeSupply, "supply", "", "supply layer CSV")
	analyzeCmd.Flags().StringVar(&analyzeDemand, "demand", "", "demand layer CSV")
	analyzeCmd.Flags().StringVar(&analyzeResistance, "resistance", "", "resistance layer CSV")
	analyzeCmd.Flags().StringVar(&analyzeElevation, "elevation", "", "elevation layer CSV (terrain models)")
	analyzeCmd.Flags().StringVar(&analyzeFlowOut, "flow-out", "", "write the flow field as CSV")
	analyzeCmd.Flags().StringVar(&analyzePathsOut, "paths-out", "", "write retained flow paths as GeoJSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "skip persisting the run")
	_ = analyzeCmd.MarkFlagRequired("model")
	_ = analyzeCmd.MarkFlagRequired("supply")
	_ = analyzeCmd.MarkFlagRequired("demand")
	_ = analyzeCmd.MarkFlagRequired("resistance")
	rootCmd.AddCommand(analyzeCmd)
}

// saveRun records the run outcome, successful or not, in run history.
func saveRun(cmd *cobra.Command, result *engine.Result, runErr error) error {
	st, err := initStore()
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(cmd.Context()); err != nil {
		return err
	}

	run := &store.Run{
		Model:  engine.ModelKey(analyzeModel),
		Status: store.RunStatusComplete,
		Params: cfg.Engine,
		Result: result,
	}
	if result != nil {
		run.ID = result.RunID
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if runErr != nil {
		run.Status = store.RunStatusFailed
		run.Error = runErr.Error()
	}
	return st.SaveRun(cmd.Context(), run)
}

func initStore() (store.Store, error) {
	return store.NewSQLite(cfg.Store.Path)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

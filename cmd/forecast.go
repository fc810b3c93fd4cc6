package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-cards/internal/config"
	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/render"
	"github.com/vzahanych/weather-cards/internal/service"
)

func forecastCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the forecast cards once",
		Long:  `Fetch the forecast for the configured location (or --lat/--lon) and print the cards to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			coords := forecast.Coordinates{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude}
			if cmd.Flags().Changed("lat") {
				coords.Latitude = lat
			}
			if cmd.Flags().Changed("lon") {
				coords.Longitude = lon
			}

			provider := service.NewOpenMeteoServiceWithConfig(cfg.Provider, log, tele)
			view := forecast.NewView(forecast.NewService(provider, cfg.Forecast, log, tele).Fresh(), log, tele)

			view.SetCoordinates(cmd.Context(), coords)
			view.Wait()

			if err := render.WriteText(cmd.OutOrStdout(), render.BuildCards(view.Model())); err != nil {
				return err
			}

			if err := view.LastError(); err != nil {
				return fmt.Errorf("forecast unavailable: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default: location.latitude from config)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude (default: location.longitude from config)")

	return cmd
}

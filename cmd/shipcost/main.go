// shipcost is an offline ops CLI over the estimation stack. It runs the same
// pipeline as the server but without live providers, so every figure comes
// from the formula estimate and the market simulator.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/altfuel/shipcost-router/internal/cache"
	"github.com/altfuel/shipcost-router/internal/costing"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/pricing"
	"github.com/altfuel/shipcost-router/internal/routing"
	"github.com/altfuel/shipcost-router/internal/shipping"
	"github.com/altfuel/shipcost-router/internal/types"
)

func main() {
	app := &cli.App{
		Name:  "shipcost",
		Usage: "estimate alternative-fuel shipment costs from the command line",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit raw JSON instead of a summary",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log pipeline decisions to stderr",
			},
		},
		Commands: []*cli.Command{
			quoteCommand(),
			priceCommand(),
			distanceCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newOfflineService(c *cli.Context) (*shipping.Service, geo.Gazetteer) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.ErrorLevel)
	}

	gazetteer := geo.NewStaticGazetteer()
	resolver := routing.NewResolver(gazetteer, cache.New[*types.RouteQuote](), logger)
	oracle := pricing.NewOracle(cache.New[*types.PriceQuote](), logger)
	composer := costing.NewComposer(logger)

	return shipping.NewService(resolver, oracle, composer, gazetteer, logger), gazetteer
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "estimate the cost of one shipment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fuel", Required: true, Usage: "hydrogen, methanol or ammonia"},
			&cli.Float64Flag{Name: "volume", Required: true, Usage: "shipment volume"},
			&cli.StringFlag{Name: "unit", Value: "tonnes", Usage: "tonnes, kg or lb"},
			&cli.StringFlag{Name: "from", Required: true, Usage: "origin location"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "destination location"},
			&cli.StringFlag{Name: "via", Usage: "intermediate hub"},
			&cli.StringFlag{Name: "mode", Value: "truck", Usage: "first leg transport mode"},
			&cli.StringFlag{Name: "mode2", Usage: "second leg transport mode (requires --via)"},
		},
		Action: func(c *cli.Context) error {
			service, _ := newOfflineService(c)

			req := &types.ShipmentRequest{
				FuelType:        types.FuelType(c.String("fuel")),
				Volume:          c.Float64("volume"),
				VolumeUnit:      types.VolumeUnit(c.String("unit")),
				Origin:          c.String("from"),
				Destination:     c.String("to"),
				IntermediateHub: c.String("via"),
				TransportMode1:  types.TransportMode(c.String("mode")),
				TransportMode2:  types.TransportMode(c.String("mode2")),
			}

			breakdown, err := service.CalculateShipmentCost(context.Background(), req)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(breakdown)
			}
			printBreakdown(breakdown)
			return nil
		},
	}
}

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:      "price",
		Usage:     "show the current simulated market price for a fuel",
		ArgsUsage: "FUEL",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one fuel name")
			}
			service, _ := newOfflineService(c)

			quote, err := service.GetFuelPrice(context.Background(), c.Args().First())
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(quote)
			}
			fmt.Printf("%s: %.4f USD/kg (%s, confidence %d, trend %s)\n",
				quote.FuelType, quote.PricePerKg, quote.Source, quote.Confidence, quote.Trend)
			return nil
		},
	}
}

func distanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "distance",
		Usage:     "show the great-circle distance between two known locations",
		ArgsUsage: "FROM TO",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected exactly two location names")
			}
			_, gazetteer := newOfflineService(c)

			from, err := gazetteer.Lookup(c.Args().Get(0))
			if err != nil {
				return err
			}
			to, err := gazetteer.Lookup(c.Args().Get(1))
			if err != nil {
				return err
			}

			miles := geo.Distance(from.Coords, to.Coords)
			if c.Bool("json") {
				return printJSON(map[string]interface{}{
					"from":           from.Name,
					"to":             to.Name,
					"distance_miles": miles,
				})
			}
			fmt.Printf("%s -> %s: %.1f mi great-circle\n", from.Name, to.Name, miles)
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBreakdown(b *types.CostBreakdown) {
	fmt.Printf("Shipment %s  (%s, %.2f t)\n", b.RequestID, b.FuelType, b.VolumeTonnes)
	for _, leg := range b.Legs {
		fmt.Printf("  leg %-8s %s -> %s  %.1f mi @ %.4f/t-mi  = %.2f  [%s, conf %d]\n",
			leg.Mode, leg.Origin, leg.Destination, leg.DistanceMiles,
			leg.RatePerTonneMile, leg.Cost, leg.Source, leg.Confidence)
	}
	fmt.Printf("  commodity     %12.2f  (%.4f USD/kg via %s)\n", b.CommodityCost, b.PricePerKg, b.PriceSource)
	fmt.Printf("  transport     %12.2f\n", b.TransportationCost)
	fmt.Printf("  handling      %12.2f\n", b.FuelHandlingFee)
	fmt.Printf("  terminals     %12.2f\n", b.TerminalFees)
	if b.HubTransferFee > 0 {
		fmt.Printf("  hub transfer  %12.2f\n", b.HubTransferFee)
	}
	fmt.Printf("  insurance     %12.2f\n", b.InsuranceCost)
	fmt.Printf("  carbon        %12.2f\n", b.CarbonOffset)
	fmt.Printf("  hazmat        %12.2f\n", b.HazmatFee)
	if b.CustomsFees > 0 {
		fmt.Printf("  customs       %12.2f\n", b.CustomsFees)
	}
	fmt.Printf("  total         %12.2f USD  (confidence %d)\n", b.TotalCost, b.Confidence)
	for _, w := range b.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

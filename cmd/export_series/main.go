package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"stockDashboard/config"
	"stockDashboard/internal/adapters/logger"
	"stockDashboard/internal/adapters/sqlite"
	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
	"stockDashboard/internal/pricedata"
	"stockDashboard/internal/utils"
)

var (
	tickers     = flag.String("tickers", "AAPL,NVDA", "comma separated tickers")
	granularity = flag.String("granularity", string(domain.Daily), "daily, weekly or monthly")
	weekdays    = flag.String("weekdays", "0,1,2,3,4", "comma separated weekdays, Monday=0 … Sunday=6")
	indicator   = flag.String("indicator", string(domain.IndicatorNone), "none, sma20, ema50 or rsi14")
	out         = flag.String("out", "", "output CSV path (default data/export_<granularity>_<date>.csv)")
)

func main() {
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Build Selection
	days, err := parseWeekdays(*weekdays)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	sel := domain.DefaultSelection()
	sel.Tickers = domain.ParseTickers(*tickers)
	sel.Granularity = domain.Granularity(strings.ToLower(*granularity))
	sel.Weekdays = days
	sel.Indicator = domain.IndicatorKind(strings.ToLower(*indicator))
	if err := sel.Validate(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 4. Initialize Price Store
	var snapshots ports.SnapshotRepository
	if cfg.SnapshotCacheEnabled {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger.Named("sqlite")})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize snapshot repository: %v", err)
		}
		defer repo.Close()
		snapshots = repo
	}
	store, err := pricedata.NewStore(pricedata.StoreConfig{
		Source:    pricedata.NewCSVSource(cfg.DataCSVPath, appLogger.Named("csv")),
		Snapshots: snapshots,
		Logger:    appLogger.Named("store"),
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize price store: %v", err)
	}
	table, err := store.Table(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Error loading price data")
		log.Fatalf("Error loading price data: %v", err)
	}

	// 5. Run Pipeline
	res, err := pipeline.New(pipeline.Config{RSIEnabled: cfg.RSIEnabled}).Run(ctx, table, sel)
	if err != nil {
		log.Fatalf("Error running pipeline: %v", err)
	}

	extra := make([]utils.NamedSeries, 0, len(res.Series))
	for _, ts := range res.Series {
		if ts.Err != nil {
			appLogger.Warn(ctx, "Indicator skipped", map[string]interface{}{"ticker": string(ts.Ticker), "error": ts.Err.Error()})
			continue
		}
		extra = append(extra, utils.NamedSeries{
			Name:   fmt.Sprintf("%s_%s", strings.ToUpper(string(ts.Series.Kind)), ts.Ticker),
			Values: ts.Series.Values,
		})
	}
	for _, s := range res.Summaries {
		fields := map[string]interface{}{"ticker": string(s.Ticker)}
		if s.Stat != nil {
			fields["first"] = s.Stat.First
			fields["last"] = s.Stat.Last
			fields["delta"] = s.Stat.Delta
			if s.Stat.PercentDefined {
				fields["percent"] = s.Stat.Percent
			}
		}
		if s.Err != nil {
			fields["code"] = ports.ErrorCode(s.Err)
		}
		appLogger.Info(ctx, "Summary", fields)
	}

	// 6. Write CSV
	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/export_%s_%s.csv", sel.Granularity, time.Now().Format("20060102"))
	}
	if err := utils.WritePriceTableToCSV(res.Table, extra, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename, "rows": res.Table.Len()})
}

func parseWeekdays(list string) ([]domain.Weekday, error) {
	days := make([]domain.Weekday, 0, 7)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid weekday %q: %w", part, err)
		}
		days = append(days, domain.Weekday(n))
	}
	return days, nil
}

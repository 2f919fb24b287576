// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Donggyu-Kim1/stock-data/archive"
	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/healthcheck"
	"github.com/Donggyu-Kim1/stock-data/library"
	"github.com/Donggyu-Kim1/stock-data/pipeline"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [stage...]",
	Short: "Import benchmarks, companies, prices, and financial statements",
	Long: `The run sub-command executes import stages and reconciles the records they
produce with the library. Stages are:

    benchmarks, companies, benchmark-prices, stock-prices, financials

If no stages are given every stage runs in that order. When a schedule is set
(--schedule or run.schedule) run stays in the foreground and executes the
stages at the scheduled times; a run that is still in progress when the next
one is due causes the next one to be skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		stages, err := pipeline.ParseStages(args)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid stage")
		}

		schedule := viper.GetString("run.schedule")
		if schedule == "" {
			if err := runOnce(context.Background(), stages); err != nil {
				log.Fatal().Err(err).Msg("run failed")
			}

			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := scheduler.AddFunc(schedule, func() {
			if err := runOnce(ctx, stages); err != nil {
				log.Error().Err(err).Msg("scheduled run failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("Schedule", schedule).Msg("invalid schedule")
		}

		log.Info().Str("Schedule", schedule).Msg("waiting for scheduled runs")
		scheduler.Start()

		<-ctx.Done()

		log.Info().Msg("shutting down scheduler")
		<-scheduler.Stop().Done()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("schedule", "", "cron schedule to run on, e.g. \"30 18 * * 1-5\"")
	runCmd.Flags().Int("lookback", 0, "number of years of prices to fetch")
	runCmd.Flags().Bool("refresh-companies", false, "reconcile companies that are already stored")

	for key, flag := range map[string]string{
		"run.schedule":          "schedule",
		"run.lookback_years":    "lookback",
		"run.refresh_companies": "refresh-companies",
	} {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}

// providerConfig reads the settings of the provider registered as name from
// the keys under its name
func providerConfig(name string) provider.Config {
	return provider.Config{
		BaseURL:   viper.GetString(name + ".base_url"),
		RateLimit: viper.GetInt(name + ".rate_limit"),
		Dir:       viper.GetString("export.dir"),
		APIKey:    viper.GetString(name + ".rapidapi_key"),
		APIHost:   viper.GetString(name + ".rapidapi_host"),
	}
}

func buildProviders() (map[data.Country]provider.Provider, error) {
	providers := make(map[data.Country]provider.Provider, 2)
	for country, key := range map[data.Country]string{data.US: "providers.us", data.KR: "providers.kr"} {
		name := viper.GetString(key)
		if name == "" {
			continue
		}

		src, err := provider.New(name, providerConfig(name))
		if err != nil {
			return nil, err
		}

		providers[country] = src
	}

	return providers, nil
}

func runOnce(ctx context.Context, stages []data.Stage) error {
	runID := uuid.New().String()
	logger := log.With().Str("RunID", runID).Logger()
	ctx = logger.WithContext(ctx)

	check := healthcheck.New(viper.GetString("healthchecks.ping_url"))
	if err := check.Ping(ctx, healthcheck.Start, runID, ""); err != nil {
		logger.Warn().Err(err).Msg("healthcheck start ping failed")
	}

	summaries, err := runStages(ctx, stages)

	status := healthcheck.Success
	if err != nil {
		status = healthcheck.Fail
	}

	if pingErr := check.Ping(ctx, status, runID, summaryText(summaries, err)); pingErr != nil {
		logger.Warn().Err(pingErr).Msg("healthcheck ping failed")
	}

	if len(summaries) > 0 {
		fmt.Println(renderSummaries(summaries))
	}

	return err
}

func runStages(ctx context.Context, stages []data.Stage) ([]data.RunSummary, error) {
	logger := log.Ctx(ctx)

	myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
	if err != nil {
		return nil, err
	}
	defer myLibrary.Close()

	providers, err := buildProviders()
	if err != nil {
		return nil, err
	}

	policies, err := reconcile.PoliciesFromMap(viper.GetStringMapString("reconcile.policy"))
	if err != nil {
		return nil, err
	}

	logger.Info().Object("Policies", policies).Msg("reconcile policies")

	myPipeline := pipeline.New(myLibrary, providers, pipeline.Options{
		Policies:         policies,
		LookbackYears:    viper.GetInt("run.lookback_years"),
		RefreshCompanies: viper.GetBool("run.refresh_companies"),
		StatementYears:   viper.GetInt("run.statement_years"),
		ListsDir:         viper.GetString("lists.dir"),
	})

	var writer *archive.Writer
	if dir := viper.GetString("archive.dir"); dir != "" {
		writer = archive.NewWriter(dir, fmt.Sprintf("prices %s", time.Now().Format("2006-01-02 150405")))
		myPipeline.WithRecorder(writer)
	}

	summaries, err := myPipeline.Run(ctx, stages)

	if writer != nil {
		saveArchive(ctx, writer)
	}

	if fn := viper.GetString("metrics.textfile"); fn != "" {
		if err := myPipeline.Metrics().WriteTextfile(fn); err != nil {
			logger.Error().Err(err).Str("FileName", fn).Msg("could not write metrics textfile")
		}
	}

	return summaries, err
}

// saveArchive writes the archived prices and copies them to backblaze when a
// bucket is configured
func saveArchive(ctx context.Context, writer *archive.Writer) {
	logger := log.Ctx(ctx)

	fn, err := writer.Close(ctx)
	if errors.Is(err, archive.ErrEmpty) {
		logger.Info().Msg("no prices fetched, skipping archive")
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("could not write price archive")
		return
	}

	var bucket archive.Bucket
	if err := viper.UnmarshalKey("backblaze", &bucket); err != nil {
		logger.Error().Err(err).Msg("invalid backblaze configuration")
		return
	}

	if !bucket.Configured() {
		return
	}

	dirname := viper.GetString("backblaze.dir")
	if dirname == "" {
		dirname = "stockdata"
	}

	for _, upload := range []string{fn, strings.TrimSuffix(fn, ".parquet") + ".json"} {
		if err := archive.Upload(upload, bucket, dirname); err != nil {
			logger.Error().Err(err).Str("FileName", upload).Msg("could not upload archive")
		}
	}
}

func summaryText(summaries []data.RunSummary, err error) string {
	var sb strings.Builder
	for _, summary := range summaries {
		fmt.Fprintf(&sb, "%s: %d entities (%d failed), %d inserted, %d updated, %d skipped, %d rejected\n",
			summary.Stage, summary.Entities, summary.Failed, summary.Inserted, summary.Updated, summary.Skipped, summary.Rejected)
	}

	if err != nil {
		fmt.Fprintf(&sb, "error: %s\n", err)
	}

	return sb.String()
}

func renderSummaries(summaries []data.RunSummary) string {
	var sb strings.Builder
	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	fmt.Fprintln(&sb, lipgloss.NewStyle().Bold(true).Render("IMPORT SUMMARY"))

	for _, summary := range summaries {
		elapsed := durafmt.Parse(summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond)).LimitFirstN(2)
		fmt.Fprintf(&sb, "\n%s (%s)\n", lipgloss.NewStyle().Bold(true).Render(string(summary.Stage)), elapsed)
		fmt.Fprintf(&sb, "Entities: %s  Failed: %s\n", keyword(fmt.Sprint(summary.Entities)), keyword(fmt.Sprint(summary.Failed)))
		fmt.Fprintf(&sb, "Inserted: %s  Updated: %s  Skipped: %s  Rejected: %s\n",
			keyword(fmt.Sprint(summary.Inserted)),
			keyword(fmt.Sprint(summary.Updated)),
			keyword(fmt.Sprint(summary.Skipped)),
			keyword(fmt.Sprint(summary.Rejected)),
		)
	}

	return lipgloss.NewStyle().
		Width(60).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2).
		Render(sb.String())
}

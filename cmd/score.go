package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spigell/crewmatch/internal/ai"
	"github.com/spigell/crewmatch/internal/ai/gemini"
	"github.com/spigell/crewmatch/internal/backend"
	"github.com/spigell/crewmatch/internal/filtering"
	"github.com/spigell/crewmatch/internal/logger"
	"github.com/spigell/crewmatch/internal/matching"
	"github.com/spigell/crewmatch/internal/offers"
	"github.com/spigell/crewmatch/internal/preferences"
	"github.com/spigell/crewmatch/internal/secrets"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowRanked          = "Show ranked offers"
	PromptOfferDetails        = "Explain an offer score"
	PromptReportByFlag        = "Report by flag"
	PromptOffersToFile        = "Dump offers to file"
	PromptAppendToExcludeFile = "Append all offers to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowRanked, PromptOfferDetails, PromptReportByFlag, PromptOffersToFile, PromptAppendToExcludeFile, PromptExit},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score offers against the preferences and show the ranking",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolP("yes", "y", false, "print the ranking once and exit without the menu")
	scoreCmd.Flags().StringP("offers-file", "o", "", "read offers from a JSON file instead of the backend")
	scoreCmd.Flags().StringP("exclude-file", "e", "", "special file with offers to exclude. Default is unset.")
	scoreCmd.Flags().IntP("limit", "l", 0, "show at most this many offers")

	viper.BindPFlag("offers-file", scoreCmd.Flags().Lookup("offers-file"))
	viper.BindPFlag("exclude-file", scoreCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("output.limit", scoreCmd.Flags().Lookup("limit"))
}

// score is the main command for the cli.
func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger = logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting the crewmatch", zap.String("version", version))

	pretty, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		logger.Fatal("encoding the config", zap.Error(err))
	}
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	var client *backend.Client
	if config.OffersFile == "" || config.Backend.UserID != "" {
		client, err = newBackendClient(config.Backend, logger)
		if err != nil {
			logger.Fatal("creating a backend client", zap.Error(err),
				zap.String("hint", "set offers-file to work without the backend"),
			)
		}
	}

	prefs, err := loadPreferences(ctx, client, config, logger)
	if err != nil {
		logger.Fatal("loading preferences", zap.Error(err))
	}

	if err := prefs.Validate(); err != nil {
		logger.Fatal("invalid preferences", zap.Error(err),
			zap.String("hint", "fix them with the 'prefs edit' command"),
		)
	}

	if missing := prefs.Missing(); len(missing) > 0 {
		logger.Warn("preferences are incomplete, every offer scores 0",
			zap.Strings("missing", missing),
		)
	}

	list, err := loadOffers(ctx, client, config, logger)
	if err != nil {
		logger.Fatal("getting offers", zap.Error(err))
	}

	if list.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no offers found"))
		return
	}

	scored := matching.ScoreOffers(list, prefs)

	steps, deps := prepareFilters(ctx, config, prefs, logger)
	scored, _, err = filtering.Run(ctx, filterConfig(config), deps, steps, scored)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	if scored.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no offers left after filters"))
		return
	}

	scored.SortByScore()
	ranked := scored.Head(config.Output.Limit)

	if err := printRanking(os.Stdout, ranked); err != nil {
		logger.Fatal("printing the ranking", zap.Error(err))
	}

	if cmd.Flag("yes").Value.String() == "true" {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of offers", zap.Int("count", ranked.Len()))

		if err := handleAction(action, logger, config, prefs, ranked); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, prefs *preferences.Preferences, ranked *offers.Offers) error {
	switch action {
	case PromptShowRanked:
		return printRanking(os.Stdout, ranked)
	case PromptOfferDetails:
		return chooseOfferDetails(os.Stdout, prefs, ranked)
	case PromptReportByFlag:
		pretty, err := json.MarshalIndent(ranked.ReportByFlag(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding the report: %w", err)
		}
		logger.Info(string(pretty), zap.Int("offers count", ranked.Len()))
		return nil
	case PromptOffersToFile:
		filename, err := ranked.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(logger, config.ExcludeFile, ranked)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func chooseOfferDetails(w io.Writer, prefs *preferences.Preferences, ranked *offers.Offers) error {
	items := make([]string, 0, ranked.Len()+1)
	for _, offer := range ranked.Items {
		items = append(items, fmt.Sprintf("%s %s / %s / %d", offer.ID, offer.Title, offer.Country, offer.MatchPrimaryScore))
	}

	offerPrompt := promptui.Select{
		Label: "Choose an offer and press ENTER",
		Items: append(items, PromptBack),
	}

	_, selected, err := offerPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	return printOfferDetails(w, prefs, ranked, strings.Split(selected, " ")[0])
}

// printOfferDetails prints the offer and how each criterion contributed to its score.
func printOfferDetails(w io.Writer, prefs *preferences.Preferences, ranked *offers.Offers, id string) error {
	offer := ranked.FindByID(id)
	if offer == nil {
		return fmt.Errorf("there is no such offer id %s", id)
	}

	pretty, err := json.MarshalIndent(struct {
		Offer     *offers.Offer      `json:"offer"`
		Breakdown matching.Breakdown `json:"breakdown"`
	}{offer, matching.Explain(offer, prefs)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding offer details: %w", err)
	}

	_, err = fmt.Fprintln(w, string(pretty))
	return err
}

func appendToExcludeFile(logger *zap.Logger, excludeFile string, ranked *offers.Offers) error {
	if excludeFile == "" {
		logger.Warn("exclude file is not configured", zap.String("hint", "set exclude-file in the config or pass --exclude-file"))
		return nil
	}
	if ranked.Len() == 0 {
		return nil
	}

	excluded, err := offers.GetExcludedOffersFromFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(ranked.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", ranked.Len()))

	ranked.Exclude(excluded.IDs())
	return nil
}

func printRanking(w io.Writer, ranked *offers.Offers) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tTEAMMATE\tCOUNTRY\tTERM\tSALARY\tFLAG\tPRIMARY\tTEAMMATE %\tAI")

	for i, offer := range ranked.Items {
		teammate := "-"
		if offer.HasTeammate() {
			teammate = offer.TeammateRank
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			i+1,
			offer.ID,
			offer.Title,
			teammate,
			offer.Country,
			offer.Type,
			offer.SalaryLabel(),
			offer.Flag,
			offer.MatchPrimaryScore,
			offer.MatchTeammateScore,
			aiLabel(offer.AI),
		)
	}

	return tw.Flush()
}

func aiLabel(a *offers.AIAssessment) string {
	switch {
	case a == nil:
		return "-"
	case a.Error != "":
		return "error"
	default:
		return fmt.Sprintf("%.2f", a.Score)
	}
}

func newBackendClient(config *BackendConfig, logger *zap.Logger) (*backend.Client, error) {
	if config == nil || strings.TrimSpace(config.URL) == "" {
		return nil, errors.New("backend.url is not configured")
	}

	key, err := secrets.Load(secrets.Source{
		Name: "backend api key",
		File: config.APIKeyFile,
		Env:  "CREWMATCH_BACKEND_KEY_FILE",
	})
	if err != nil {
		return nil, err
	}

	client, err := backend.New(backend.Config{
		URL:        config.URL,
		APIKey:     key,
		UserAgent:  config.UserAgent,
		MaxRetries: config.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// loadOffers prefers the offers file and falls back to the backend table.
func loadOffers(ctx context.Context, client *backend.Client, config *Config, logger *zap.Logger) (*offers.Offers, error) {
	if config.OffersFile != "" {
		list, err := offers.LoadFromFile(config.OffersFile)
		if err != nil {
			return nil, fmt.Errorf("reading offers file: %w", err)
		}
		logger.Info("getting offers", zap.String("file", config.OffersFile), zap.Int("count", list.Len()))
		return list, nil
	}

	list, err := client.FetchOffers(ctx, config.Backend.OffersTable)
	if err != nil {
		return nil, fmt.Errorf("fetching offers: %w", err)
	}

	logger.Info("getting offers", zap.String("table", config.Backend.OffersTable), zap.Int("count", list.Len()))
	return list, nil
}

// loadPreferences reads the saved preferences of backend.user-id when it is set.
// Otherwise the preferences block of the config is used.
func loadPreferences(ctx context.Context, client *backend.Client, config *Config, logger *zap.Logger) (*preferences.Preferences, error) {
	local := config.Preferences
	if local == nil {
		local = &preferences.Preferences{}
	}

	if config.Backend.UserID == "" {
		return local, nil
	}

	saved, err := client.FetchPreferences(ctx, config.Backend.PreferencesTable, config.Backend.UserID)
	if errors.Is(err, backend.ErrPreferencesNotFound) {
		logger.Warn("no saved preferences in the backend, using the config",
			zap.String("user_id", config.Backend.UserID),
		)
		return local, nil
	}
	if err != nil {
		return nil, err
	}

	logger.Info("using saved preferences", zap.String("user_id", config.Backend.UserID))
	return saved, nil
}

func filterConfig(config *Config) *filtering.Config {
	cfg := &filtering.Config{
		ExcludeFile: config.ExcludeFile,
		MinScore:    config.Filters.MinScore,
		StrictTerms: config.Filters.StrictTerms,
	}

	if config.AI != nil {
		cfg.AI = &filtering.AIConfig{
			Provider:        config.AI.Provider,
			MinimumFitScore: config.AI.MinimumFitScore,
		}
		if config.AI.Gemini != nil {
			cfg.AI.Model = config.AI.Gemini.Model
		}
	}

	return cfg
}

func prepareFilters(ctx context.Context, config *Config, prefs *preferences.Preferences, logger *zap.Logger) ([]filtering.Filter, filtering.Deps) {
	steps := []filtering.Filter{
		filtering.NewExcludeFile(),
		filtering.NewTerms(),
		filtering.NewMinScore(),
		filtering.NewAIFit(),
	}

	deps := filtering.Deps{
		Logger:      logger,
		Preferences: prefs,
	}

	if !prefs.Ready() {
		filtering.DisableByName(steps, "min_score", "preferences are not ready")
	}

	if config.AI == nil || !config.AI.Enabled {
		filtering.DisableByName(steps, "ai_fit", "ai is disabled")
		return steps, deps
	}

	matcher, err := newAIMatcher(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		filtering.DisableByName(steps, "ai_fit", err.Error())
		return steps, deps
	}

	deps.Matcher = matcher
	return steps, deps
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Matcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY_FILE",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		log.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)),
	)
	if err != nil {
		return nil, fmt.Errorf("building ai matcher: %w", err)
	}

	minScore := max(cfg.MinimumFitScore, 0)

	matcherLogger := logger.WithCommonFields(log, "gemini", generator.Model()).With(
		zap.Float64("minimum_fit_score", minScore),
	)

	return gemini.NewMatcher(generator, minScore, cfg.Gemini.MaxLogLength, matcherLogger), nil
}

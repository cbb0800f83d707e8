package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spigell/crewmatch/internal/backend"
	"github.com/spigell/crewmatch/internal/logger"
	"github.com/spigell/crewmatch/internal/preferences"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	PromptDone      = "Done"
	PromptByRegion  = "Region"
	PromptCountries = "Countries"
	PromptUnset     = "Unset"
)

// Common ranks and contract terms offered by the editor. Free text is accepted as well.
var (
	knownPositions = []string{
		"Captain", "Chief Officer", "Second Officer", "Bosun", "Deckhand",
		"Chief Engineer", "Second Engineer", "ETO",
		"Chief Stewardess", "Stewardess", "Chef", "Sous Chef", "Purser",
	}
	knownTerms = []string{"Permanent", "Rotational", "Seasonal", "Temporary", "Delivery"}
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or edit matching preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective preferences and whether they are ready for scoring",
	Run: func(_ *cobra.Command, _ []string) {
		showPreferences()
	},
}

var prefsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the preferences block of the config file interactively",
	Run: func(_ *cobra.Command, _ []string) {
		editPreferences()
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsEditCmd)
	rootCmd.AddCommand(prefsCmd)
}

func showPreferences() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	var client *backend.Client
	if config.Backend.UserID != "" {
		client, err = newBackendClient(config.Backend, logger)
		if err != nil {
			logger.Fatal("creating a backend client", zap.Error(err))
		}
	}

	prefs, err := loadPreferences(ctx, client, config, logger)
	if err != nil {
		logger.Fatal("loading preferences", zap.Error(err))
	}

	// printed as a block that can be pasted into the config file
	out, err := yaml.Marshal(map[string]*preferences.Preferences{"preferences": prefs})
	if err != nil {
		logger.Fatal("encoding preferences", zap.Error(err))
	}
	fmt.Print(string(out))

	if err := prefs.Validate(); err != nil {
		logger.Warn("invalid preferences", zap.Error(err))
	}

	if missing := prefs.Missing(); len(missing) > 0 {
		logger.Info("preferences are not ready", zap.Strings("missing", missing))
		return
	}
	logger.Info("preferences are ready")
}

func editPreferences() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	prefs := config.Preferences
	if prefs == nil {
		prefs = &preferences.Preferences{}
	}

	edited, err := runEditor(prefs)
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			logger.Info("exiting", zap.String("reason", "editing cancelled"))
			return
		}
		logger.Fatal("editing preferences", zap.Error(err))
	}

	if err := edited.Validate(); err != nil {
		logger.Fatal("invalid preferences", zap.Error(err))
	}

	filename, err := savePreferences(edited)
	if err != nil {
		logger.Fatal("saving preferences", zap.Error(err))
	}

	logger.Info("preferences saved",
		zap.String("filename", filename),
		zap.Bool("ready", edited.Ready()),
		zap.Strings("missing", edited.Missing()),
	)
}

func runEditor(current *preferences.Preferences) (*preferences.Preferences, error) {
	edited := &preferences.Preferences{}

	var err error
	if edited.Positions, err = pickMany("Position", knownPositions, current.Positions); err != nil {
		return nil, err
	}
	if edited.Terms, err = pickMany("Contract term", knownTerms, current.Terms); err != nil {
		return nil, err
	}

	locationPrompt := promptui.Select{
		Label: "Match location by",
		Items: []string{PromptCountries, PromptByRegion},
	}
	_, by, err := locationPrompt.Run()
	if err != nil {
		return nil, err
	}

	if by == PromptByRegion {
		regionPrompt := promptui.Select{
			Label: "Region",
			Items: preferences.RegionNames(),
		}
		if _, edited.SelectedRegion, err = regionPrompt.Run(); err != nil {
			return nil, err
		}
	} else if edited.Countries, err = pickMany("Country", nil, current.Countries); err != nil {
		return nil, err
	}

	if edited.MinSalary, err = promptSalary(current.MinSalary); err != nil {
		return nil, err
	}

	flagPrompt := promptui.Select{
		Label: "Vessel flag",
		Items: []string{preferences.FlagForeign, preferences.FlagUnitedStates, PromptUnset},
	}
	_, flag, err := flagPrompt.Run()
	if err != nil {
		return nil, err
	}
	if flag != PromptUnset {
		edited.Flag = flag
	}

	return edited, nil
}

// pickMany collects up to MaxChoices distinct values. Known values are offered
// in a menu; an empty known list asks for free text.
func pickMany(label string, known, current []string) ([]string, error) {
	var picked []string

	for len(picked) < preferences.MaxChoices {
		var value string
		var err error

		if len(known) > 0 {
			sel := promptui.SelectWithAdd{
				Label:    fmt.Sprintf("%s %d/%d (current: %s)", label, len(picked)+1, preferences.MaxChoices, strings.Join(current, ", ")),
				Items:    append(without(known, picked), PromptDone),
				AddLabel: "Other",
			}
			_, value, err = sel.Run()
		} else {
			text := promptui.Prompt{
				Label: fmt.Sprintf("%s %d/%d, empty to finish (current: %s)", label, len(picked)+1, preferences.MaxChoices, strings.Join(current, ", ")),
			}
			value, err = text.Run()
		}
		if err != nil {
			return nil, err
		}

		value = strings.TrimSpace(value)
		if value == "" || value == PromptDone {
			break
		}
		picked = append(picked, value)
	}

	return picked, nil
}

func promptSalary(current *float64) (*float64, error) {
	def := ""
	if current != nil {
		def = strconv.FormatFloat(*current, 'f', -1, 64)
	}

	text := promptui.Prompt{
		Label:   "Minimum monthly salary, empty to unset",
		Default: def,
		Validate: func(input string) error {
			input = strings.TrimSpace(input)
			if input == "" {
				return nil
			}
			v, err := strconv.ParseFloat(input, 64)
			if err != nil {
				return errors.New("not a number")
			}
			if v < 0 {
				return errors.New("must not be negative")
			}
			return nil
		},
	}

	value, err := text.Run()
	if err != nil {
		return nil, err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// savePreferences writes the preferences block back to the config file in use,
// creating crewmatch.yaml in the current directory when there is none.
func savePreferences(prefs *preferences.Preferences) (string, error) {
	filename := viper.ConfigFileUsed()
	if filename == "" {
		filename = app + ".yaml"
	}
	return filename, writePreferencesBlock(filename, prefs)
}

// writePreferencesBlock replaces the top-level preferences node of a YAML file
// and leaves every other key and comment as it was.
func writePreferencesBlock(filename string, prefs *preferences.Preferences) error {
	var doc yaml.Node

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config file %q: %w", filename, err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config file %q is not a mapping", filename)
	}

	var block yaml.Node
	if err := block.Encode(prefs); err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "preferences" {
			root.Content[i+1] = &block
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "preferences"},
			&block,
		)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return enc.Close()
}

func without(items, drop []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		skip := false
		for _, d := range drop {
			if strings.EqualFold(item, d) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, item)
		}
	}
	return out
}

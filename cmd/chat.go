package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/talentscout/talentbot/internal/ai/gemini"
	"github.com/talentscout/talentbot/internal/conversation"
	"github.com/talentscout/talentbot/internal/export"
	"github.com/talentscout/talentbot/internal/logger"
	"github.com/talentscout/talentbot/internal/questions"
	"github.com/talentscout/talentbot/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive screening conversation",
	Run: func(_ *cobra.Command, _ []string) {
		chat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("export-dir", "e", "", "directory for anonymized candidate exports. Default is the current directory.")

	viper.BindPFlag("export.dir", chatCmd.Flags().Lookup("export-dir"))
}

// chat runs a full screening session: greeting, turn loop, optional export.
func chat() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting the talentbot", zap.String("version", version))

	if provider := providerName(config); provider != "" && provider != "gemini" {
		zlog.Fatal("unsupported ai provider", zap.String("provider", provider))
	}

	apiKey, err := resolveAPIKey(config)
	if err != nil {
		zlog.Fatal(
			"loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	model, maxRetries, maxLogLength := geminiSettings(config)

	client, err := gemini.NewClient(ctx, apiKey, model, maxRetries, maxLogLength,
		logger.WithCommonFields(zlog, "gemini", model))
	if err != nil {
		zlog.Fatal("building gemini client", zap.Error(err))
	}

	engine := conversation.New(client, conversation.Options{
		ExitKeywords: exitKeywords(config),
		Company:      companyName(config),
		Contact:      companyContact(config),
		Logger:       zlog,
	})

	fmt.Printf("\nTalentBot: %s\n\n", engine.GenerateGreeting(ctx))

	input := promptui.Prompt{Label: "You"}

	questionsAnnounced := false
	for !engine.IsEnded() {
		line, err := input.Run()
		if err != nil {
			zlog.Info("exiting", zap.String("reason", "input closed"))
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		response, mood := engine.ProcessMessage(ctx, line)

		zlog.Debug("message processed",
			zap.String(logger.FieldPhase, engine.Phase().String()),
			zap.String("sentiment", string(mood.Label)),
			zap.Float64("confidence", mood.Confidence),
			zap.Int("profile_completion", engine.Profile().CompletionPercentage()),
		)

		if raw := engine.RawTechnicalQuestions(); raw != "" && !questionsAnnounced {
			questionsAnnounced = true

			groups := questions.Parse(raw)
			total := 0
			for _, group := range groups {
				total += len(group.Questions)
			}

			zlog.Info("technical questions ready",
				zap.Int("technologies", len(groups)),
				zap.Int("questions", total),
			)
		}

		fmt.Printf("\nTalentBot: %s\n\n", response)
	}

	offerExport(config, engine, zlog)
}

// offerExport asks whether to persist an anonymized candidate record once
// the conversation is over. PII hashing happens here, outside the engine.
func offerExport(config *Config, engine *conversation.Engine, zlog *zap.Logger) {
	if len(engine.Profile().Filled()) == 0 {
		return
	}

	prompt := promptui.Select{
		Label: "Export anonymized candidate record?",
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil || action != PromptYes {
		return
	}

	record := export.NewRecord(engine.Profile())

	path, err := export.Write(exportDir(config), record)
	if err != nil {
		zlog.Warn("exporting candidate record", zap.Error(err))
		return
	}

	zlog.Info("exported candidate record",
		zap.String("filename", path),
		zap.Int("profile_completion", engine.Profile().CompletionPercentage()),
	)
}

func resolveAPIKey(config *Config) (string, error) {
	keyFile := ""
	if config != nil && config.AI != nil && config.AI.Gemini != nil {
		keyFile = strings.TrimSpace(config.AI.Gemini.APIKeyFile)
	}
	if keyFile == "" {
		keyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	return secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
		Env:  "GEMINI_API_KEY",
	})
}

func providerName(config *Config) string {
	if config == nil || config.AI == nil {
		return ""
	}
	return strings.TrimSpace(strings.ToLower(config.AI.Provider))
}

func geminiSettings(config *Config) (model string, maxRetries, maxLogLength int) {
	if config == nil || config.AI == nil || config.AI.Gemini == nil {
		return "", 0, 0
	}
	g := config.AI.Gemini
	return g.Model, g.MaxRetries, g.MaxLogLength
}

func exitKeywords(config *Config) []string {
	if config == nil {
		return nil
	}
	return config.ExitKeywords
}

func companyName(config *Config) string {
	if config == nil || config.Company == nil {
		return ""
	}
	return config.Company.Name
}

func companyContact(config *Config) string {
	if config == nil || config.Company == nil {
		return ""
	}
	return config.Company.Contact
}

func exportDir(config *Config) string {
	dir := strings.TrimSpace(viper.GetString("export.dir"))
	if dir == "" && config != nil && config.Export != nil {
		dir = strings.TrimSpace(config.Export.Dir)
	}
	return dir
}

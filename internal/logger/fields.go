package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/crewmatch/internal/offers"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"

	FieldOfferID    = "offer_id"
	FieldOfferTitle = "offer_title"
	FieldTeammate   = "offer_teammate_rank"
	FieldCountry    = "offer_country"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// OfferFields identifies an offer in log entries. Scores are always included.
func OfferFields(offer *offers.Offer) []zap.Field {
	if offer == nil {
		return nil
	}

	fields := StringFields(
		StringField{Key: FieldOfferID, Value: offer.ID},
		StringField{Key: FieldOfferTitle, Value: offer.Title},
		StringField{Key: FieldCountry, Value: offer.Country},
	)
	if offer.HasTeammate() {
		fields = append(fields, zap.String(FieldTeammate, offer.TeammateRank))
	}

	return append(fields,
		zap.Int("primary_score", offer.MatchPrimaryScore),
		zap.Int("teammate_score", offer.MatchTeammateScore),
	)
}

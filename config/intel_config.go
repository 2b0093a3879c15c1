package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ScoringWeights holds the brand quality score weighting. The constants are
// empirical tuning values, so they live in configuration rather than in call
// sites.
type ScoringWeights struct {
	Frequency     float64
	Recency       float64
	Diversity     float64
	AvgEngagement float64
}

// RecommendWeights holds the recommendation blend weighting.
type RecommendWeights struct {
	Loyalty      float64
	EmailQuality float64
	GiftBonus    float64
}

// LearningConfig holds the feedback learning tuning constants.
type LearningConfig struct {
	ConfidenceSaturation int     // ratings needed for full confidence
	PositiveBoost        float64 // personal multiplier after a prior positive rating
	NegativePenalty      float64 // personal multiplier after a prior negative rating
	SimilarUserTolerance float64 // max |ratio delta| to count as similar
	SimilarUserMinRating int     // minimum ratings before a user counts as similar
	SimilarUserBlend     float64 // weight of similar users in the final blend
}

type Config struct {
	Port        string
	Environment string

	// Stores
	MongoDBURL  string
	MongoDBName string
	RedisURL    string
	DatabaseURL string

	// OpenAI (enrichment collaborator)
	OpenAIAPIKey  string
	LLMModel      string
	LLMMaxTokens  int
	LLMTimeoutSec int

	// Batch processing
	BatchSize       int
	BatchDelayMS    int
	MaxConcurrent   int
	EnrichmentOn    bool
	ExcerptMaxChars int

	// Extra sender domains to treat as non-commercial, on top of the
	// built-in denylist.
	ExtraDenyDomains []string

	// Cache
	ScoreCacheTTLMin int

	// Tuning
	Scoring   ScoringWeights
	Recommend RecommendWeights
	Learning  LearningConfig
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "brandintel"),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:  getEnvInt("LLM_MAX_TOKENS", 512),
		LLMTimeoutSec: getEnvInt("LLM_TIMEOUT_SEC", 10),

		BatchSize:       getEnvInt("BATCH_SIZE", 10),
		BatchDelayMS:    getEnvInt("BATCH_DELAY_MS", 1000),
		MaxConcurrent:   getEnvInt("BATCH_MAX_CONCURRENT", 10),
		EnrichmentOn:    getEnvBool("ENRICHMENT_ENABLED", true),
		ExcerptMaxChars: getEnvInt("ENRICHMENT_EXCERPT_CHARS", 300),

		ExtraDenyDomains: getEnvSlice("DENYLIST_EXTRA_DOMAINS", nil),

		ScoreCacheTTLMin: getEnvInt("SCORE_CACHE_TTL_MIN", 10),

		Scoring: ScoringWeights{
			Frequency:     getEnvFloat("SCORE_WEIGHT_FREQUENCY", 0.3),
			Recency:       getEnvFloat("SCORE_WEIGHT_RECENCY", 0.3),
			Diversity:     getEnvFloat("SCORE_WEIGHT_DIVERSITY", 0.2),
			AvgEngagement: getEnvFloat("SCORE_WEIGHT_ENGAGEMENT", 0.2),
		},
		Recommend: RecommendWeights{
			Loyalty:      getEnvFloat("RECOMMEND_WEIGHT_LOYALTY", 0.7),
			EmailQuality: getEnvFloat("RECOMMEND_WEIGHT_QUALITY", 0.3),
			GiftBonus:    getEnvFloat("RECOMMEND_GIFT_BONUS", 0.1),
		},
		Learning: LearningConfig{
			ConfidenceSaturation: getEnvInt("LEARNING_CONFIDENCE_SATURATION", 10),
			PositiveBoost:        getEnvFloat("LEARNING_POSITIVE_BOOST", 1.25),
			NegativePenalty:      getEnvFloat("LEARNING_NEGATIVE_PENALTY", 0.75),
			SimilarUserTolerance: getEnvFloat("LEARNING_SIMILAR_TOLERANCE", 0.3),
			SimilarUserMinRating: getEnvInt("LEARNING_SIMILAR_MIN_RATINGS", 5),
			SimilarUserBlend:     getEnvFloat("LEARNING_SIMILAR_BLEND", 0.3),
		},
	}, nil
}

// BatchDelay returns the pause between batches.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// LLMTimeout returns the bounded timeout for the enrichment call.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

// ScoreCacheTTL returns the personalized-score cache TTL.
func (c *Config) ScoreCacheTTL() time.Duration {
	return time.Duration(c.ScoreCacheTTLMin) * time.Minute
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

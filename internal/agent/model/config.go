package model

// ================ Config ================

// DecideModelConfig configures the reasoning model used for action decisions.
// A low temperature keeps decisions consistent across identical situations.
type DecideModelConfig struct {
	Model       string  `envconfig:"DECIDE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"DECIDE_MAX_TOKENS" default:"500"`
	Temperature float32 `envconfig:"DECIDE_TEMPERATURE" default:"0.3"`
}

// ComposeModelConfig configures the reasoning model used for response composition.
type ComposeModelConfig struct {
	Model       string  `envconfig:"COMPOSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"COMPOSE_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"COMPOSE_TEMPERATURE" default:"0.7"`
}

// EmbeddingConfig configures the embedding model for retrieval and semantic memory.
type EmbeddingConfig struct {
	Model string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
}

// PromptConfig carries the business identity rendered into composition prompts.
type PromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"Acme Services"`
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"service business"`
}

// ThresholdConfig holds the confidence bands and retrieval tuning knobs.
type ThresholdConfig struct {
	High       float64 `envconfig:"CONFIDENCE_HIGH_THRESHOLD" default:"0.75"`
	Low        float64 `envconfig:"CONFIDENCE_LOW_THRESHOLD" default:"0.5"`
	RerankDrop float64 `envconfig:"RERANK_DROP_THRESHOLD" default:"0.6"`
	TopK       int     `envconfig:"RETRIEVAL_TOP_K" default:"8"`
}

// StoreConfig holds the SQLite file paths for the two embedded stores.
type StoreConfig struct {
	FactualPath  string `envconfig:"FACTUAL_DB_PATH" default:"./data/agent.db"`
	EvidencePath string `envconfig:"EVIDENCE_DB_PATH" default:"./data/evidence.db"`
	SemanticPath string `envconfig:"SEMANTIC_DB_PATH" default:"./data/semantic.db"`
}

// ConversationConfig controls the hot conversation window kept in Redis.
type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}

// KafkaConfig configures the optional decision/escalation event sink.
// An empty broker list disables publication.
type KafkaConfig struct {
	Brokers         string `envconfig:"KAFKA_BROKERS"`
	DecisionTopic   string `envconfig:"KAFKA_DECISION_TOPIC" default:"agent-decisions"`
	EscalationTopic string `envconfig:"KAFKA_ESCALATION_TOPIC" default:"agent-escalations"`
}

// ServerConfig configures the webhook front door.
type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8080"`
}

// JobsConfig configures background maintenance jobs.
type JobsConfig struct {
	FollowUpInterval string `envconfig:"FOLLOWUP_CHECK_INTERVAL" default:"30m"`
}

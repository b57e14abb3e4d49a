// Package app turns the environment into a Config and the Config into the
// service handle shared by the server, the worker and the build command.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/extract"
)

const (
	GraphBackendPostgres = "postgres"
	GraphBackendNeo4j    = "neo4j"
	GraphBackendMemory   = "memory"

	NLPBackendRemote = "remote"
	NLPBackendOllama = "ollama"
	NLPBackendOpenAI = "openai"
)

type Config struct {
	Debug   bool
	LogJSON bool

	GraphBackend    string
	DatabaseURL     string
	DatabaseMigrate bool
	Neo4jURI        string
	Neo4jUser       string
	Neo4jPassword   string
	Neo4jDatabase   string

	NLPBackend string
	NLPURL     string
	NLPKey     string

	AIModel       string
	AIURL         string
	AIKey         string
	AIParallelReq int

	ExtractParallel int
	ChunkTimeout    time.Duration
	MaxRetries      int
	EnglishNERChunk int
	ChineseNERChunk int
	EnglishRelChunk int
	ChineseRelChunk int

	Port           string
	APIKey         string
	BodyLimit      string
	UploadsEnabled bool

	// GraphLockTTL bounds how long a crashed worker can keep other workers
	// from writing the postgres graph.
	GraphLockTTL time.Duration
}

// LoadConfig reads the configuration from the environment. Call
// util.LoadEnv first to pick up a .env file.
func LoadConfig() Config {
	return Config{
		Debug:   util.GetEnvBool("DEBUG", false),
		LogJSON: util.GetEnvBool("LOG_JSON", false),

		GraphBackend:    util.GetEnvString("GRAPH_BACKEND", GraphBackendPostgres),
		DatabaseURL:     util.GetEnv("DATABASE_URL"),
		DatabaseMigrate: util.GetEnvBool("DATABASE_MIGRATE", true),
		Neo4jURI:        util.GetEnv("NEO4J_URI"),
		Neo4jUser:       util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword:   util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase:   util.GetEnv("NEO4J_DATABASE"),

		NLPBackend: util.GetEnvString("NLP_BACKEND", NLPBackendRemote),
		NLPURL:     util.GetEnv("NLP_URL"),
		NLPKey:     util.GetEnv("NLP_KEY"),

		AIModel:         util.GetEnv("AI_CHAT_MODEL"),
		AIURL:           util.GetEnv("AI_CHAT_URL"),
		AIKey:           util.GetEnv("AI_CHAT_KEY"),
		AIParallelReq:   util.GetEnvInt("AI_PARALLEL_REQ", 4),
		ExtractParallel: util.GetEnvInt("EXTRACT_PARALLEL", extract.DefaultParallel),
		ChunkTimeout:    util.GetEnvDuration("NLP_CHUNK_TIMEOUT", extract.DefaultChunkTimeout),
		MaxRetries:      util.GetEnvInt("NLP_MAX_RETRIES", 1),
		EnglishNERChunk: util.GetEnvInt("NER_CHUNK_SIZE_EN", extract.DefaultEnglishNERChunkSize),
		ChineseNERChunk: util.GetEnvInt("NER_CHUNK_SIZE_ZH", extract.DefaultChineseNERChunkSize),
		EnglishRelChunk: util.GetEnvInt("RELATION_CHUNK_SIZE_EN", extract.DefaultEnglishRelationChunkSize),
		ChineseRelChunk: util.GetEnvInt("RELATION_CHUNK_SIZE_ZH", extract.DefaultChineseRelationChunkSize),

		Port:           util.GetEnvString("PORT", "8080"),
		APIKey:         util.GetEnv("API_KEY"),
		BodyLimit:      util.GetEnvString("BODY_LIMIT", "512M"),
		UploadsEnabled: util.GetEnvBool("UPLOADS_ENABLED", true),
		GraphLockTTL:   util.GetEnvDuration("GRAPH_LOCK_TTL", 5*time.Minute),
	}
}

// Validate checks that the selected backends have what they need.
// extraction is false for processes that only answer questions.
func (c Config) Validate(extraction bool) error {
	var errs []error

	switch c.GraphBackend {
	case GraphBackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case GraphBackendNeo4j:
		if c.Neo4jURI == "" {
			errs = append(errs, errors.New("NEO4J_URI is required for the neo4j backend"))
		}
	case GraphBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown GRAPH_BACKEND %q", c.GraphBackend))
	}

	if !extraction {
		return errors.Join(errs...)
	}

	switch c.NLPBackend {
	case NLPBackendRemote:
		if c.NLPURL == "" {
			errs = append(errs, errors.New("NLP_URL is required for the remote nlp backend"))
		}
	case NLPBackendOllama:
		if c.AIModel == "" {
			errs = append(errs, errors.New("AI_CHAT_MODEL is required for the ollama nlp backend"))
		}
	case NLPBackendOpenAI:
		if c.AIModel == "" || c.AIKey == "" {
			errs = append(errs, errors.New("AI_CHAT_MODEL and AI_CHAT_KEY are required for the openai nlp backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NLP_BACKEND %q", c.NLPBackend))
	}
	return errors.Join(errs...)
}

// ValidateShared rejects backends that live inside one process. The upload
// server and the worker only meet through the store, so an in-memory graph
// built by the worker would never be seen by the server.
func (c Config) ValidateShared() error {
	if c.GraphBackend == GraphBackendMemory {
		return fmt.Errorf("GRAPH_BACKEND %q is process-local, use %q or %q", c.GraphBackend, GraphBackendPostgres, GraphBackendNeo4j)
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/pkg/ai"
	"github.com/OFFIS-RIT/coursegraph/pkg/ai/ollama"
	"github.com/OFFIS-RIT/coursegraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/coursegraph/pkg/extract"
	"github.com/OFFIS-RIT/coursegraph/pkg/graph"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp/llm"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp/remote"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp/rules"
	"github.com/OFFIS-RIT/coursegraph/pkg/query"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
	"github.com/OFFIS-RIT/coursegraph/pkg/store/memory"
	"github.com/OFFIS-RIT/coursegraph/pkg/store/neo4j"
	"github.com/OFFIS-RIT/coursegraph/pkg/store/pgx"
)

// Services is the handle every entry point works with. NLP, Extractor and
// AI are nil unless the services were opened with extraction.
type Services struct {
	Store     store.GraphStorage
	NLP       *nlp.Service
	AI        ai.GraphAIClient
	Extractor *extract.Extractor
	Ingestor  *graph.Ingestor
	Answerer  *query.Answerer
}

type OpenParams struct {
	Config Config
	// Extraction also connects the nlp backends so documents can be
	// rebuilt. Query-only processes leave it false.
	Extraction bool
	// Shared is set by processes that hand the graph to another process,
	// the worker and the server with uploads enabled.
	Shared bool
}

// Open validates the config and connects every backend it selects. On
// error anything already opened is closed again.
func Open(ctx context.Context, params OpenParams) (s *Services, err error) {
	cfg := params.Config
	if err := cfg.Validate(params.Extraction); err != nil {
		return nil, err
	}
	if params.Shared {
		if err := cfg.ValidateShared(); err != nil {
			return nil, err
		}
	}

	s = &Services{}
	defer func() {
		if err != nil {
			s.Close()
			s = nil
		}
	}()

	s.Store, err = OpenStore(ctx, cfg)
	if err != nil {
		return s, err
	}

	if params.Extraction {
		s.NLP, s.AI, err = OpenNLP(cfg)
		if err != nil {
			return s, err
		}
		s.Extractor, err = extract.NewExtractor(extract.NewExtractorParams{
			NLP:                      s.NLP,
			EnglishNERChunkSize:      cfg.EnglishNERChunk,
			ChineseNERChunkSize:      cfg.ChineseNERChunk,
			EnglishRelationChunkSize: cfg.EnglishRelChunk,
			ChineseRelationChunkSize: cfg.ChineseRelChunk,
			Parallel:                 cfg.ExtractParallel,
			ChunkTimeout:             cfg.ChunkTimeout,
			MaxRetries:               cfg.MaxRetries,
		})
		if err != nil {
			return s, err
		}
	}

	ingestorParams := graph.NewIngestorParams{Store: s.Store}
	if s.Extractor != nil {
		ingestorParams.Extractor = s.Extractor
	}
	s.Ingestor, err = graph.NewIngestor(ingestorParams)
	if err != nil {
		return s, err
	}
	s.Answerer, err = query.NewAnswerer(s.Store)
	if err != nil {
		return s, err
	}
	return s, nil
}

// OpenStore connects the configured graph backend. The postgres schema is
// migrated first unless DATABASE_MIGRATE is off.
func OpenStore(ctx context.Context, cfg Config) (store.GraphStorage, error) {
	switch cfg.GraphBackend {
	case GraphBackendPostgres:
		if cfg.DatabaseMigrate {
			if err := pgx.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		s, err := pgx.NewGraphDBStorage(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("[App] Using postgres graph store")
		return s, nil
	case GraphBackendNeo4j:
		s, err := neo4j.NewGraphNeo4jStorage(ctx, neo4j.NewGraphNeo4jStorageParams{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("[App] Using neo4j graph store", "uri", cfg.Neo4jURI)
		return s, nil
	case GraphBackendMemory:
		logger.Warn("[App] Using in-memory graph store, data is lost on exit")
		return memory.NewGraphMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown GRAPH_BACKEND %q", cfg.GraphBackend)
}

// OpenNLP builds the language model handle. The remote backend serves NER
// and parsing for both languages. The LLM backends only do NER; sentences
// are then split by rules and the English dependency pass finds nothing.
func OpenNLP(cfg Config) (*nlp.Service, ai.GraphAIClient, error) {
	switch cfg.NLPBackend {
	case NLPBackendRemote:
		client, err := remote.NewClient(remote.NewClientParams{
			BaseURL: cfg.NLPURL,
			ApiKey:  cfg.NLPKey,
		})
		if err != nil {
			return nil, nil, err
		}
		svc, err := nlp.NewService(nlp.NewServiceParams{
			EnglishNER:    client.Recognizer(nlp.English),
			ChineseNER:    client.Recognizer(nlp.Chinese),
			EnglishParser: client.Parser(nlp.English),
			ChineseParser: client.Parser(nlp.Chinese),
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.Info("[App] Using remote nlp backend", "url", cfg.NLPURL)
		return svc, nil, nil

	case NLPBackendOllama, NLPBackendOpenAI:
		aiClient, err := openAIClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		recognizer := llm.NewRecognizer(aiClient)
		svc, err := nlp.NewService(nlp.NewServiceParams{
			EnglishNER:    recognizer,
			ChineseNER:    recognizer,
			EnglishParser: rules.NewSentenceParser(nlp.English),
			ChineseParser: rules.NewSentenceParser(nlp.Chinese),
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[App] Using llm nlp backend", "adapter", cfg.NLPBackend, "model", cfg.AIModel)
		return svc, aiClient, nil
	}
	return nil, nil, fmt.Errorf("unknown NLP_BACKEND %q", cfg.NLPBackend)
}

func openAIClient(cfg Config) (ai.GraphAIClient, error) {
	if cfg.NLPBackend == NLPBackendOllama {
		client, err := ollama.NewGraphOllamaClient(ollama.NewGraphOllamaClientParams{
			Model:                 cfg.AIModel,
			BaseURL:               cfg.AIURL,
			ApiKey:                cfg.AIKey,
			MaxConcurrentRequests: int64(cfg.AIParallelReq),
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	}
	return openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
		Model:   cfg.AIModel,
		ChatURL: cfg.AIURL,
		ChatKey: cfg.AIKey,
	}), nil
}

// Close releases the store and the nlp backends. It is safe on a partially
// opened handle.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.NLP != nil {
		errs = append(errs, s.NLP.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	return errors.Join(errs...)
}

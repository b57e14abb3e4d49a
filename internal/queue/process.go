package queue

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/pkg/graph"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader/files"
	s3loader "github.com/OFFIS-RIT/coursegraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
)

// GraphLock serialises jobs that write the shared graph.
// *leaselock.GraphLock satisfies it.
type GraphLock interface {
	WithLease(ctx context.Context, jobID string, fn func(ctx context.Context) error) error
}

// Processor runs graph jobs taken from GraphQueue.
type Processor struct {
	ingestor *graph.Ingestor
	objects  s3loader.ObjectGetter
	bucket   string
	lock     GraphLock
}

type NewProcessorParams struct {
	Ingestor *graph.Ingestor
	Objects  s3loader.ObjectGetter
	Bucket   string
	// Lock is optional. Without it concurrent workers may interleave
	// rebuilds.
	Lock GraphLock
}

func NewProcessor(params NewProcessorParams) *Processor {
	return &Processor{
		ingestor: params.Ingestor,
		objects:  params.Objects,
		bucket:   params.Bucket,
		lock:     params.Lock,
	}
}

// ProcessGraphMessage decodes a job and ingests its files. Undecodable jobs
// and unsupported file types fail with ErrInvalidMessage.
func (p *Processor) ProcessGraphMessage(ctx context.Context, body []byte) (graph.Stats, error) {
	msg, err := DecodeGraphJob(body)
	if err != nil {
		return graph.Stats{}, err
	}

	// The loaders cache file bodies, so they live only as long as the job.
	resolver := files.NewResolver(s3loader.NewS3GraphFileLoaderWithClient(p.bucket, p.objects))
	inputs := make([]loader.GraphFile, 0, len(msg.Files))
	for _, f := range msg.Files {
		file, err := resolver.File(msg.JobID, f.Key)
		if err != nil {
			return graph.Stats{}, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, f.Name, err)
		}
		inputs = append(inputs, file)
	}

	logger.Info("[Queue] Processing graph job", "job_id", msg.JobID, "files", len(inputs))
	var stats graph.Stats
	build := func(ctx context.Context) error {
		var err error
		stats, err = p.ingestor.BuildFromFiles(ctx, inputs)
		return err
	}
	if p.lock != nil {
		err = p.lock.WithLease(ctx, msg.JobID, build)
	} else {
		err = build(ctx)
	}
	if err != nil {
		return stats, fmt.Errorf("job %s: %w", msg.JobID, err)
	}
	logger.Info("[Queue] Graph job done",
		"job_id", msg.JobID,
		"documents", stats.Documents,
		"entities", stats.EntitiesMerged,
		"relations", stats.RelationsMerged,
		"dropped", stats.RelationsDropped,
		"skipped", stats.RowsSkipped,
	)
	return stats, nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/graph"
	"github.com/OFFIS-RIT/coursegraph/pkg/store/memory"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	key string
	msg amqp091.Publishing
}

type fakeChannel struct {
	published []published
	declared  map[string]amqp091.Table
	fail      bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.fail {
		return errors.New("channel closed")
	}
	f.published = append(f.published, published{key: key, msg: msg})
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, args amqp091.Table) (amqp091.Queue, error) {
	if f.declared == nil {
		f.declared = map[string]amqp091.Table{}
	}
	f.declared[name] = args
	return amqp091.Queue{Name: name}, nil
}

type fakeAcker struct {
	acked, nacked, requeued bool
}

func (a *fakeAcker) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *fakeAcker) Reject(uint64, bool) error { return nil }

func TestSetupQueues(t *testing.T) {
	ch := &fakeChannel{}
	if err := SetupQueues(ch, GraphQueue); err != nil {
		t.Fatalf("SetupQueues: %v", err)
	}
	for _, name := range []string{"graph_queue", "graph_queue_dlq", "graph_queue_retry"} {
		if _, ok := ch.declared[name]; !ok {
			t.Errorf("%s not declared", name)
		}
	}
	if got := ch.declared["graph_queue_retry"]["x-dead-letter-routing-key"]; got != GraphQueue {
		t.Errorf("retry queue routes to %v", got)
	}
}

func TestDecodeGraphJob(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"job_id": "j1", "files": [{"key": "uploads/j1/a.txt", "name": "a.txt"}]}`},
		{name: "not json", body: `nope`, wantErr: true},
		{name: "no files", body: `{"job_id": "j1"}`, wantErr: true},
		{name: "empty key", body: `{"job_id": "j1", "files": [{"name": "a.txt"}]}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGraphJob([]byte(tt.body))
			if tt.wantErr != (err != nil) {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("error should wrap ErrInvalidMessage: %v", err)
			}
		})
	}
}

func TestChannelPublisher(t *testing.T) {
	ch := &fakeChannel{}
	job, err := NewGraphJob([]QueueFile{{Key: "uploads/x/a.csv", Name: "a.csv"}})
	if err != nil {
		t.Fatalf("NewGraphJob: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("job id not set")
	}

	if err := NewChannelPublisher(ch).PublishGraphJob(context.Background(), job); err != nil {
		t.Fatalf("PublishGraphJob: %v", err)
	}
	if len(ch.published) != 1 || ch.published[0].key != GraphQueue {
		t.Fatalf("unexpected publishes %+v", ch.published)
	}
	var got QueueGraphJobMsg
	if err := json.Unmarshal(ch.published[0].msg.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, job) {
		t.Fatalf("got %+v, want %+v", got, job)
	}
	if ch.published[0].msg.DeliveryMode != amqp091.Persistent {
		t.Error("message should be persistent")
	}
}

func TestHandleProcessingErrorRetries(t *testing.T) {
	ch := &fakeChannel{}
	acker := &fakeAcker{}
	msg := amqp091.Delivery{Acknowledger: acker, Body: []byte("{}"), Headers: amqp091.Table{"x-retries": int64(2)}}

	HandleProcessingError(context.Background(), ch, msg, GraphQueue, errors.New("store down"))

	if len(ch.published) != 1 || ch.published[0].key != "graph_queue_retry" {
		t.Fatalf("unexpected publishes %+v", ch.published)
	}
	if got := ch.published[0].msg.Headers["x-retries"]; got != int32(3) {
		t.Errorf("x-retries = %v", got)
	}
	if !acker.acked {
		t.Error("original delivery should be acked")
	}
}

func TestHandleProcessingErrorDeadLetters(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp091.Table
		err     error
	}{
		{name: "retries exhausted", headers: amqp091.Table{"x-retries": int32(maxRetries)}, err: errors.New("store down")},
		{name: "invalid message", err: ErrInvalidMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{}
			acker := &fakeAcker{}
			msg := amqp091.Delivery{Acknowledger: acker, Body: []byte("{}"), Headers: tt.headers}

			HandleProcessingError(context.Background(), ch, msg, GraphQueue, tt.err)

			if len(ch.published) != 1 || ch.published[0].key != "graph_queue_dlq" {
				t.Fatalf("unexpected publishes %+v", ch.published)
			}
			if !acker.acked {
				t.Error("original delivery should be acked")
			}
		})
	}
}

func TestHandleProcessingErrorRequeuesOnPublishFailure(t *testing.T) {
	acker := &fakeAcker{}
	msg := amqp091.Delivery{Acknowledger: acker, Body: []byte("{}")}

	HandleProcessingError(context.Background(), &fakeChannel{fail: true}, msg, GraphQueue, errors.New("x"))

	if acker.acked || !acker.nacked || !acker.requeued {
		t.Fatalf("expected nack with requeue, got %+v", acker)
	}
}

type fakeBucket struct {
	objects map[string]string
	gets    map[string]int
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.gets == nil {
		f.gets = map[string]int{}
	}
	f.gets[key]++
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

type recordingLock struct {
	jobs []string
}

func (l *recordingLock) WithLease(ctx context.Context, jobID string, fn func(ctx context.Context) error) error {
	l.jobs = append(l.jobs, jobID)
	return fn(ctx)
}

const graphJobBody = `{"job_id": "j1", "files": [
	{"key": "uploads/j1/a.csv", "name": "triples.csv"},
	{"key": "uploads/j1/b.json", "name": "entities.json"}
]}`

func newTestBucket() *fakeBucket {
	return &fakeBucket{objects: map[string]string{
		"uploads/j1/a.csv":  "source,target,relation\nPCA,LDA,related_to\n",
		"uploads/j1/b.json": `[{"name": "PCA", "type": "方法", "description": "一种降维方法"}]`,
	}}
}

func TestProcessGraphMessage(t *testing.T) {
	s := memory.NewGraphMemoryStorage()
	ingestor, err := graph.NewIngestor(graph.NewIngestorParams{Store: s})
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	bucket := newTestBucket()
	lock := &recordingLock{}
	p := NewProcessor(NewProcessorParams{Ingestor: ingestor, Objects: bucket, Bucket: "course", Lock: lock})

	stats, err := p.ProcessGraphMessage(context.Background(), []byte(graphJobBody))
	if err != nil {
		t.Fatalf("ProcessGraphMessage: %v", err)
	}
	want := graph.Stats{Documents: 2, EntitiesMerged: 1, RelationsMerged: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if got, _ := s.Stats(context.Background()); got != (common.GraphStats{Entities: 2, Relations: 1}) {
		t.Fatalf("unexpected graph %+v", got)
	}
	if !reflect.DeepEqual(lock.jobs, []string{"j1"}) {
		t.Fatalf("leases taken for %v, want [j1]", lock.jobs)
	}
}

func TestProcessGraphMessageKeepsNoFilesBetweenJobs(t *testing.T) {
	s := memory.NewGraphMemoryStorage()
	ingestor, _ := graph.NewIngestor(graph.NewIngestorParams{Store: s})
	bucket := newTestBucket()
	p := NewProcessor(NewProcessorParams{Ingestor: ingestor, Objects: bucket, Bucket: "course"})

	for i := 0; i < 2; i++ {
		if _, err := p.ProcessGraphMessage(context.Background(), []byte(graphJobBody)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	want := map[string]int{"uploads/j1/a.csv": 2, "uploads/j1/b.json": 2}
	if !reflect.DeepEqual(bucket.gets, want) {
		t.Fatalf("GetObject calls = %v, want %v", bucket.gets, want)
	}

	// A redelivered job sees the replaced object, not a cached copy.
	bucket.objects["uploads/j1/a.csv"] = "source,target,relation\nPCA,SVD,related_to\n"
	if _, err := p.ProcessGraphMessage(context.Background(), []byte(graphJobBody)); err != nil {
		t.Fatal(err)
	}
	edges, err := s.Relations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range edges {
		if e.Target == "SVD" {
			found = true
		}
	}
	if !found {
		t.Fatalf("replaced upload was not read: %+v", edges)
	}
}

func TestProcessGraphMessageRejectsUnsupportedFile(t *testing.T) {
	ingestor, _ := graph.NewIngestor(graph.NewIngestorParams{Store: memory.NewGraphMemoryStorage()})
	bucket := &fakeBucket{}
	p := NewProcessor(NewProcessorParams{Ingestor: ingestor, Objects: bucket, Bucket: "course"})

	_, err := p.ProcessGraphMessage(context.Background(), []byte(`{"job_id": "j1", "files": [{"key": "uploads/j1/a.pptx", "name": "slides.pptx"}]}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if len(bucket.gets) != 0 {
		t.Fatalf("unsupported file was downloaded: %v", bucket.gets)
	}
}

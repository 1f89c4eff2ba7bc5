package datamodule

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/spectralseg/hsipig/datasets"
)

// prefetchDepth is how many assembled batches may sit ahead of the consumer.
const prefetchDepth = 2

// LoaderConfig holds the per-loader iteration parameters.
type LoaderConfig struct {
	BatchSize  int
	Shuffle    bool
	NumWorkers int
	Organs     map[int]string
}

// Loader iterates a dataset in fixed-size batches. When shuffling is enabled
// a fresh permutation is drawn per epoch; the trailing partial batch is
// dropped after shuffling so every batch has exactly BatchSize samples.
// Batches are assembled ahead of the consumer by a producer goroutine that
// fans item reads out over NumWorkers; Stop releases all goroutines when
// iteration is abandoned early.
type Loader struct {
	ds  datasets.Dataset
	cfg LoaderConfig
	rng *rand.Rand

	mu      sync.Mutex
	started bool
	stopped bool
	out     chan loaderResult
	quit    chan struct{}
}

type loaderResult struct {
	batch *datasets.Batch
	err   error
}

// NewLoader creates a loader over ds. BatchSize and NumWorkers default to 1
// when unset.
func NewLoader(ds datasets.Dataset, cfg LoaderConfig) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	return &Loader{
		ds:  ds,
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NumBatches returns the number of full batches one epoch yields.
func (l *Loader) NumBatches() int { return l.ds.Len() / l.cfg.BatchSize }

// Next returns the next batch of the epoch, starting the epoch on first use.
// It returns io.EOF once the epoch is exhausted or the loader was stopped.
// Any dataset error aborts the epoch and is returned to the caller.
func (l *Loader) Next() (*datasets.Batch, error) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil, io.EOF
	}
	if !l.started {
		l.started = true
		l.startLocked()
	}
	out := l.out
	l.mu.Unlock()

	res, ok := <-out
	if !ok {
		return nil, io.EOF
	}
	if res.err != nil {
		l.Stop()
		return nil, res.err
	}
	return res.batch, nil
}

// Stop cancels in-flight batch assembly and releases the producer and its
// workers. It is safe to call repeatedly and after the epoch completed;
// callers abandoning iteration early must call it (or use Restart).
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started && !l.stopped {
		close(l.quit)
	}
	l.stopped = true
}

// Restart resets the loader for a new epoch. With shuffling enabled the next
// epoch draws a fresh permutation. Implements the gomlx train.Dataset
// contract together with Next/Yield returning io.EOF at epoch end.
func (l *Loader) Restart() error {
	l.Stop()
	l.mu.Lock()
	l.started = false
	l.stopped = false
	l.out = nil
	l.quit = nil
	l.mu.Unlock()
	return nil
}

// Name implements the gomlx train.Dataset interface.
func (l *Loader) Name() string { return "semantic" }

// Yield returns the next batch as gomlx tensors for the gomlx train.Dataset
// interface: one inputs tensor of shape (BatchSize, Dimensions) and one
// labels tensor of shape (BatchSize).
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	batch, err := l.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	in, lab, err := batch.Tensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{in}, []*tensors.Tensor{lab}, nil
}

// startLocked draws the epoch order and launches the producer. Caller holds
// l.mu.
func (l *Loader) startLocked() {
	l.out = make(chan loaderResult, prefetchDepth)
	l.quit = make(chan struct{})

	order := make([]int, l.ds.Len())
	for i := range order {
		order[i] = i
	}
	if l.cfg.Shuffle {
		l.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	go l.produce(order, l.out, l.quit)
}

// produce walks the epoch order in batch windows, assembling and emitting one
// batch at a time. The window loop stops before a trailing partial batch.
func (l *Loader) produce(order []int, out chan<- loaderResult, quit <-chan struct{}) {
	defer close(out)
	b := l.cfg.BatchSize
	for start := 0; start+b <= len(order); start += b {
		select {
		case <-quit:
			return
		default:
		}
		batch, err := l.assemble(order[start : start+b])
		res := loaderResult{batch: batch, err: err}
		select {
		case out <- res:
		case <-quit:
			return
		}
		if err != nil {
			return
		}
	}
}

// assemble reads the items of one batch, fanning out across the configured
// worker count, and collates them.
func (l *Loader) assemble(idxs []int) (*datasets.Batch, error) {
	items := make([]datasets.Item, len(idxs))

	workers := l.cfg.NumWorkers
	if workers > len(idxs) {
		workers = len(idxs)
	}
	if workers <= 1 {
		for k, i := range idxs {
			vec, lab, err := l.ds.Get(i)
			if err != nil {
				return nil, err
			}
			items[k] = datasets.Item{Reflectance: vec, Label: lab}
		}
		return datasets.Collate(items, l.cfg.Organs)
	}

	jobs := make(chan int, len(idxs))
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for k := range jobs {
				vec, lab, err := l.ds.Get(idxs[k])
				if err != nil {
					errCh <- err
					return
				}
				items[k] = datasets.Item{Reflectance: vec, Label: lab}
			}
		}()
	}
	for k := range idxs {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}
	return datasets.Collate(items, l.cfg.Organs)
}

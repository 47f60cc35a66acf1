package systems

import (
	"fmt"
	"sync"

	"github.com/kilnengine/kiln/engine/containers"
	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
)

// JobResult records the outcome of a completed job for diagnostics. Only the
// most recent metadata.MAX_JOB_RESULTS entries are kept.
type JobResult struct {
	JobType metadata.JobType
	Failed  bool
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan metadata.JobTask
	wg         sync.WaitGroup

	resultsMu sync.Mutex
	results   *containers.RingQueue
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan metadata.JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
		results:    containers.NewRingQueue(metadata.MAX_JOB_RESULTS),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				paramsChan := make(chan interface{}, 1)
				// Run the job and handle potential errors
				err := job.OnStart(job.InputParams, paramsChan)
				if err != nil {
					core.LogError(err.Error())
					if job.OnFailure != nil {
						// TODO: refactor to take actual values
						job.OnFailure(paramsChan)
					}
				} else {
					if job.OnComplete != nil {
						// TODO: refactor to take actual values
						job.OnComplete(paramsChan)
					}
				}
				js.recordResult(JobResult{JobType: job.JobType, Failed: err != nil})

				// Call the completion callback if set
				if job.OnCompletionCallback != nil {
					job.OnCompletionCallback()
				}
			}
		}()
	}
}

/**
 * @brief Shuts the job system down.
 */
func (js *JobSystem) Shutdown() error {
	close(js.jobQueue)
	js.wg.Wait()
	return nil
}

/**
 * @brief Called once an update cycle. It does nothing: the workers run the
 * completion callbacks themselves.
 */
func (js *JobSystem) Update() {}

// recordResult pushes a completed job's outcome into the bounded results
// ring, dropping the oldest entry once it is full.
func (js *JobSystem) recordResult(r JobResult) {
	js.resultsMu.Lock()
	defer js.resultsMu.Unlock()
	if js.results.IsFull() {
		js.results.Dequeue()
	}
	js.results.Enqueue(r)
}

// RecentResults drains and returns every job result recorded so far.
func (js *JobSystem) RecentResults() []JobResult {
	js.resultsMu.Lock()
	defer js.resultsMu.Unlock()
	out := make([]JobResult, 0)
	for !js.results.IsEmpty() {
		v, err := js.results.Dequeue()
		if err != nil {
			break
		}
		out = append(out, v.(JobResult))
	}
	return out
}

// AddWorkNonBlocking submits work to the job queue from a new goroutine and returns immediately
func (js *JobSystem) AddWorkNonBlocking(jt metadata.JobTask) {
	go js.Submit(jt)
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param info The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) {
	js.jobQueue <- jt
}

// JobSystemJobCreate builds a normal-priority, resource-load task around the given
// start/success/fail callbacks, ready to hand to Submit. Kept as a free
// function (rather than a JobSystem method) so resource systems can build a
// task before they necessarily hold a live *JobSystem reference.
func JobSystemJobCreate(onStart func(params, resultData interface{}) bool, onSuccess, onFail func(params interface{}), inputParams interface{}) (metadata.JobTask, error) {
	if onStart == nil {
		return metadata.JobTask{}, fmt.Errorf("job requires a non-nil start callback")
	}
	return metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		Priority:    metadata.JOB_PRIORITY_NORMAL,
		InputParams: inputParams,
		OnStart: func(params interface{}, output chan<- interface{}) error {
			if !onStart(params, nil) {
				return fmt.Errorf("job failed")
			}
			output <- params
			return nil
		},
		OnComplete: func(paramsChan <-chan interface{}) {
			if onSuccess != nil {
				onSuccess(<-paramsChan)
			}
		},
		OnFailure: func(paramsChan <-chan interface{}) {
			if onFail != nil {
				onFail(inputParams)
			}
		},
	}, nil
}
